package term

// MergePriority orders the values competing for the same place in a merge.
type MergePriority int

const (
	// PriorityDefault is the weakest priority: any other value overrides it.
	PriorityDefault MergePriority = iota
	PriorityNormal
	// PriorityForce overrides every other priority.
	PriorityForce
)

func (p MergePriority) String() string {
	switch p {
	case PriorityDefault:
		return "default"
	case PriorityForce:
		return "force"
	default:
		return "normal"
	}
}

// Contract is a contract term together with the label it is applied with.
type Contract struct {
	// Types is the contract as written, for display.
	Types    string
	Contract RichTerm
	Label    Label
}

// NewMeta lifts a term into a metavalue with default metadata.
func NewMeta(rt RichTerm) *MetaValue {
	return &MetaValue{Priority: PriorityNormal, Value: &rt}
}

// IsInert reports whether the metavalue carries no observable metadata.
func (m *MetaValue) IsInert() bool {
	return m.Doc == nil && m.Types == nil && len(m.Contracts) == 0 && m.Priority == PriorityNormal
}

// HasValue reports whether the metavalue defines a value.
func (m *MetaValue) HasValue() bool { return m.Value != nil }

// WithValue returns a shallow copy holding a different inner value.
func (m *MetaValue) WithValue(rt *RichTerm) *MetaValue {
	c := *m
	c.Value = rt
	return &c
}

// AllContracts returns the type annotation (if any) followed by the contracts.
func (m *MetaValue) AllContracts() []Contract {
	out := make([]Contract, 0, len(m.Contracts)+1)
	if m.Types != nil {
		out = append(out, *m.Types)
	}
	return append(out, m.Contracts...)
}

// Apply wraps value in the application of the contract: `contract label value`.
func (c Contract) Apply(value RichTerm) RichTerm {
	pos := value.Pos.Inherit()
	lbl := RichTerm{Term: &Lbl{Label: c.Label}, Pos: pos}
	inner := RichTerm{Term: &App{Fun: c.Contract, Arg: lbl}, Pos: pos}
	return RichTerm{Term: &App{Fun: inner, Arg: value}, Pos: pos}
}

// ApplyContracts applies each contract in turn, the first one innermost.
func ApplyContracts(contracts []Contract, value RichTerm) RichTerm {
	for _, c := range contracts {
		value = c.Apply(value)
	}
	return value
}
