package expr

import "regexp"

// Node is the sealed interface implemented by every AST variant.
type Node interface {
	Pos() int
	node()
}

// Spec is the sealed interface for result specifications: what a conditional
// branch yields once its condition is decided. A branch is always a nested
// Conditional, a TypeSpec, or a ConstantSpec; never a bare boolean
// expression.
type Spec interface {
	Node
	spec()
}

// LogicalOp is the operator of a Logical node.
type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
)

// CompareOp is the operator of a Comparison node.
type CompareOp int

const (
	CmpEq CompareOp = iota
	CmpNotEq
	CmpGT
	CmpGTE
	CmpLT
	CmpLTE
	CmpMatch // '~' regular-expression match
)

// Method is the closed set of method-call names understood by the evaluator.
type Method int

const (
	MethodExists Method = iota
	MethodNotExists
	MethodIn
	MethodNotIn
	MethodContains
	MethodNotContains
	MethodStartsWith
	MethodEndsWith
	MethodBetween
	MethodEmpty
	MethodNotEmpty
	MethodNull
	MethodNotNull
)

var methodNames = map[string]Method{
	"exists":      MethodExists,
	"notExists":   MethodNotExists,
	"in":          MethodIn,
	"notIn":       MethodNotIn,
	"contains":    MethodContains,
	"notContains": MethodNotContains,
	"startsWith":  MethodStartsWith,
	"endsWith":    MethodEndsWith,
	"between":     MethodBetween,
	"empty":       MethodEmpty,
	"notEmpty":    MethodNotEmpty,
	"null":        MethodNull,
	"notNull":     MethodNotNull,
}

// LiteralKind records how a literal was written, which drives comparison
// coercion at evaluation time.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBool
)

// Conditional is the root of a parsed expression:
// "when" condition "*?" Then ":" Else.
type Conditional struct {
	Condition Node
	Then      Spec
	Else      Spec
	pos       int
}

// Logical is a short-circuiting "&&" or "||" over two conditions.
type Logical struct {
	Op    LogicalOp
	Left  Node
	Right Node
	pos   int
}

// Comparison compares the value at Path against a literal.
// For CmpMatch the compiled pattern is attached at parse time.
type Comparison struct {
	Path    *FieldAccess
	Op      CompareOp
	Lit     Literal
	Pattern *regexp.Regexp
	pos     int
}

// MethodCall invokes one of the built-in predicates on the value at Path.
type MethodCall struct {
	Path   *FieldAccess
	Method Method
	Args   []Literal
	pos    int
}

// PathSegment is one step of a field access: a bare name or a bracket-quoted
// key.
type PathSegment struct {
	Key    string
	Quoted bool
}

// FieldAccess locates a value inside nested data.
type FieldAccess struct {
	Segments []PathSegment
	pos      int
}

// Literal is a scalar literal as written in the source.
type Literal struct {
	Kind   LiteralKind
	Text   string  // source text (string content for LitString)
	Number float64 // populated for LitNumber
	Bool   bool    // populated for LitBool
	pos    int
}

// ArrayLit is a bracketed list of literals, used in constant specifications.
type ArrayLit struct {
	Elems []Literal
	pos   int
}

// ConstantSpec is a "=value" or "=[v1,v2]" result specification: the field
// must equal the constant for the branch to validate.
type ConstantSpec struct {
	Value *Literal // exactly one of Value/Array is set
	Array *ArrayLit
	pos   int
}

// TypeSpec is a result specification naming an ordinary field type, kept as
// raw text (e.g. "string(2,50)?", "admin|user|guest"). The schema compiler
// turns it into a validator; the expression layer treats it as opaque.
type TypeSpec struct {
	Raw string
	pos int
}

func (n *Conditional) Pos() int  { return n.pos }
func (n *Logical) Pos() int      { return n.pos }
func (n *Comparison) Pos() int   { return n.pos }
func (n *MethodCall) Pos() int   { return n.pos }
func (n *FieldAccess) Pos() int  { return n.pos }
func (n Literal) Pos() int       { return n.pos }
func (n *ArrayLit) Pos() int     { return n.pos }
func (n *ConstantSpec) Pos() int { return n.pos }
func (n *TypeSpec) Pos() int     { return n.pos }

func (*Conditional) node()  {}
func (*Logical) node()      {}
func (*Comparison) node()   {}
func (*MethodCall) node()   {}
func (*FieldAccess) node()  {}
func (Literal) node()       {}
func (*ArrayLit) node()     {}
func (*ConstantSpec) node() {}
func (*TypeSpec) node()     {}

func (*Conditional) spec()  {}
func (*ConstantSpec) spec() {}
func (*TypeSpec) spec()     {}
