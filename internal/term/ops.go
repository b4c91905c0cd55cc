package term

// UnaryOp is a primitive operator of arity one.
type UnaryOp int

const (
	OpIsNum UnaryOp = iota
	OpIsBool
	OpIsStr
	OpIsFun
	OpIsArray
	OpIsRecord
	OpIsEnum
	OpBoolNot
	// OpBlame raises a blame error with the label given as operand.
	OpBlame
	// OpStaticAccess reads the field named by Op1.Field.
	OpStaticAccess
	OpArrayLength
	// OpFieldsOf returns the sorted field names of a record.
	OpFieldsOf
	// OpTypeof returns an enum tag describing the shape of its operand.
	OpTypeof
	OpChangePolarity
	OpPolarity
	// OpGoField extends the path of a label with Op1.Field.
	OpGoField
	OpGoDomain
	OpGoCodomain
)

var unaryOpNames = map[UnaryOp]string{
	OpIsNum:          "isNum",
	OpIsBool:         "isBool",
	OpIsStr:          "isStr",
	OpIsFun:          "isFun",
	OpIsArray:        "isArray",
	OpIsRecord:       "isRecord",
	OpIsEnum:         "isEnum",
	OpBoolNot:        "!",
	OpBlame:          "blame",
	OpStaticAccess:   ".",
	OpArrayLength:    "length",
	OpFieldsOf:       "fieldsOf",
	OpTypeof:         "typeOf",
	OpChangePolarity: "chngPol",
	OpPolarity:       "polarity",
	OpGoField:        "goField",
	OpGoDomain:       "goDom",
	OpGoCodomain:     "goCodom",
}

func (op UnaryOp) String() string {
	if name, ok := unaryOpNames[op]; ok {
		return name
	}
	return "unknown"
}

// UnaryOpByName resolves the name used in `%name%` primop syntax.
// Operators carrying a field (static access, goField) are not reachable this way.
func UnaryOpByName(name string) (UnaryOp, bool) {
	for op, n := range unaryOpNames {
		if n == name && op != OpStaticAccess && op != OpGoField && op != OpBoolNot {
			return op, true
		}
	}
	return 0, false
}

// BinaryOp is a primitive operator of arity two.
type BinaryOp int

const (
	OpPlus BinaryOp = iota
	OpSub
	OpMult
	OpDiv
	OpModulo
	OpStrConcat
	OpArrayConcat
	OpEq
	OpNotEq
	OpLessThan
	OpLessOrEq
	OpGreaterThan
	OpGreaterOrEq
	OpBoolAnd
	OpBoolOr
	OpMerge
	// OpDynAccess reads a field whose name is computed: left is the name, right the record.
	OpDynAccess
	// OpHasField tests a field name (left) against a record (right).
	OpHasField
	OpArrayElemAt
	OpSeq
	OpDeepSeq
	// OpTag sets the message (left) of a label (right).
	OpTag
)

var binaryOpNames = map[BinaryOp]string{
	OpPlus:        "+",
	OpSub:         "-",
	OpMult:        "*",
	OpDiv:         "/",
	OpModulo:      "%",
	OpStrConcat:   "++",
	OpArrayConcat: "@",
	OpEq:          "==",
	OpNotEq:       "!=",
	OpLessThan:    "<",
	OpLessOrEq:    "<=",
	OpGreaterThan: ">",
	OpGreaterOrEq: ">=",
	OpBoolAnd:     "&&",
	OpBoolOr:      "||",
	OpMerge:       "&",
	OpDynAccess:   "dynAccess",
	OpHasField:    "hasField",
	OpArrayElemAt: "elemAt",
	OpSeq:         "seq",
	OpDeepSeq:     "deepSeq",
	OpTag:         "tag",
}

func (op BinaryOp) String() string {
	if name, ok := binaryOpNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsInfix reports whether the operator has an infix surface form.
func (op BinaryOp) IsInfix() bool {
	switch op {
	case OpDynAccess, OpHasField, OpArrayElemAt, OpSeq, OpDeepSeq, OpTag:
		return false
	}
	return true
}

// BinaryOpByName resolves the name used in `%name%` primop syntax.
func BinaryOpByName(name string) (BinaryOp, bool) {
	for op, n := range binaryOpNames {
		if n == name && !op.IsInfix() {
			return op, true
		}
	}
	return 0, false
}
