package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/funvibe/nickel/internal/config"
	"github.com/funvibe/nickel/internal/diagnostics"
	"github.com/funvibe/nickel/internal/evaluator"
	"github.com/funvibe/nickel/internal/repl"
)

func setup(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	logger = zap.NewNop()
	project = config.DefaultProject()
	project.Color = config.ColorNever
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEvalCmd(t *testing.T) {
	cmd, out := setup(t)
	path := writeSource(t, "main.ncl", "{ b = 1 + 1, a = \"x\" }")

	if err := runEval(cmd, []string{path}); err != nil {
		t.Fatalf("runEval failed: %v", err)
	}
	if got, want := out.String(), "{ a = \"x\", b = 2 }\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	evalWHNF, evalDeep = true, true
	defer func() { evalWHNF, evalDeep = false, false }()
	if err := runEval(cmd, []string{path}); err == nil {
		t.Error("--whnf with --deep should fail")
	}
}

func TestEvalCmdError(t *testing.T) {
	cmd, _ := setup(t)
	path := writeSource(t, "main.ncl", "1 + true")

	err := runEval(cmd, []string{path})
	var pe *programError
	if !errors.As(err, &pe) {
		t.Fatalf("expected a programError, got %v", err)
	}
	var ee *evaluator.EvalError
	if !errors.As(err, &ee) || ee.Kind != evaluator.TypeMismatch {
		t.Errorf("expected a type mismatch, got %v", err)
	}
}

func TestQueryCmd(t *testing.T) {
	cmd, out := setup(t)
	path := writeSource(t, "server.ncl", `{ port | Num | doc "Listening port" = 80 }`)

	queryPlain = true
	defer func() { queryPlain = false }()
	if err := runQuery(cmd, []string{path, "port"}); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}
	want := "documentation: Listening port\ncontract: Num\nvalue: 80\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}

	out.Reset()
	queryPlain = false
	if err := runQuery(cmd, []string{path, "port"}); err != nil {
		t.Fatalf("runQuery failed: %v", err)
	}
	for _, s := range []string{"documentation", "Listening port", "contract", "Num"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("table output %q lacks %q", out.String(), s)
		}
	}
}

func TestExportAll(t *testing.T) {
	setup(t)
	a := writeSource(t, "a.ncl", "{ name = \"a\", n = 1 }")
	b := writeSource(t, "b.ncl", "{ name = \"b\", n = 1 + 1 }")

	outputs, err := exportAll(context.Background(), []string{a, b}, config.FormatJSON)
	if err != nil {
		t.Fatalf("exportAll failed: %v", err)
	}
	if len(outputs) != 2 {
		t.Fatalf("got %d outputs, want 2", len(outputs))
	}
	for i, want := range []string{"a", "b"} {
		var v struct {
			Name string  `json:"name"`
			N    float64 `json:"n"`
		}
		if err := json.Unmarshal(outputs[i], &v); err != nil {
			t.Fatalf("output %d is not JSON: %v", i, err)
		}
		if v.Name != want || v.N != float64(i+1) {
			t.Errorf("output %d = %+v", i, v)
		}
	}

	bad := writeSource(t, "bad.ncl", "{ f = fun x => x }")
	_, err = exportAll(context.Background(), []string{a, bad}, config.FormatJSON)
	var pe *programError
	if !errors.As(err, &pe) {
		t.Errorf("expected a programError, got %v", err)
	}
}

func TestExportCmdOutputFile(t *testing.T) {
	cmd, _ := setup(t)
	src := writeSource(t, "main.ncl", "{ a = { b = true } }")
	dest := filepath.Join(t.TempDir(), "out.yaml")

	exportFormat, exportOutput = config.FormatYAML, dest
	defer func() { exportFormat, exportOutput = config.FormatJSON, "" }()
	if err := runExport(cmd, []string{src}); err != nil {
		t.Fatalf("runExport failed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a:\n  b: true\n" {
		t.Errorf("exported %q", data)
	}

	exportFormat = "xml"
	if err := runExport(cmd, []string{src}); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestPrettyPrintCmd(t *testing.T) {
	cmd, out := setup(t)
	path := writeSource(t, "main.ncl", "let x = 1 in {b = x, a = [x]}")
	if err := runPrettyPrint(cmd, []string{path}); err != nil {
		t.Fatalf("runPrettyPrint failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "let x = 1 in") {
		t.Errorf("output = %q", out.String())
	}
}

func TestREPLCommands(t *testing.T) {
	setup(t)
	session, err := repl.New(project, logger)
	if err != nil {
		t.Fatal(err)
	}
	var out, errBuf bytes.Buffer
	errOut := &diagnostics.Renderer{Out: &errBuf, Files: session.Cache()}

	defs := writeSource(t, "defs.ncl", "{ port | Num | doc \"p\" = 80 }")
	if quit := runCommand(session, ":load "+defs, &out, errOut); quit {
		t.Fatal(":load should not quit")
	}
	if !strings.Contains(out.String(), "loaded port") {
		t.Errorf(":load printed %q", out.String())
	}

	out.Reset()
	runCommand(session, ":env", &out, errOut)
	if out.String() != "port\n" {
		t.Errorf(":env printed %q", out.String())
	}

	out.Reset()
	runCommand(session, ":query port", &out, errOut)
	if !strings.Contains(out.String(), "documentation") {
		t.Errorf(":query printed %q", out.String())
	}

	runCommand(session, ":load", &out, errOut)
	runCommand(session, ":load missing.ncl", &out, errOut)
	if errBuf.Len() == 0 {
		t.Error("loading a missing file should report an error")
	}

	if !runCommand(session, ":quit", &out, errOut) {
		t.Error(":quit should quit")
	}
}
