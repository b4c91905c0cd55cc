package pipeline

import (
	"errors"
	"testing"

	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/term"
)

type stageError struct{ stage string }

func (e *stageError) Error() string { return e.stage + " failed" }

func TestRunOrder(t *testing.T) {
	var order []string
	stage := func(name string) Processor {
		return ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
			order = append(order, name)
			return ctx
		})
	}
	ctx := New(stage("parse"), stage("imports"), stage("transform")).Run(NewPipelineContext(0, "main.ncl", "1"))
	if ctx.Err() != nil {
		t.Fatalf("unexpected error %v", ctx.Err())
	}
	want := []string{"parse", "imports", "transform"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestErrors(t *testing.T) {
	fail := func(name string) Processor {
		return ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
			ctx.AddError(&stageError{stage: name})
			return ctx
		})
	}
	setTerm := ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
		ctx.Term, ctx.HasTerm = term.NewNum(1), true
		return ctx
	})

	ctx := New(setTerm, fail("imports")).Run(NewPipelineContext(0, "main.ncl", "1"))
	if !ctx.Failed() {
		t.Fatal("expected the context to record the failure")
	}
	var se *stageError
	if !errors.As(ctx.Err(), &se) || se.stage != "imports" {
		t.Errorf("a single error should be returned as reported, got %v", ctx.Err())
	}

	ctx = New(fail("a"), fail("b")).Run(NewPipelineContext(0, "main.ncl", "1"))
	var list diagnostics.ErrorList
	if !errors.As(ctx.Err(), &list) || len(list) != 2 {
		t.Errorf("expected both errors as diagnostics, got %v", ctx.Err())
	}
}
