package expr

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/fortress-schema/fortress/fieldpath"
)

// EvalCondition evaluates a boolean condition node against root data.
// Logical operators short-circuit; a nil or non-boolean node is false.
func EvalCondition(n Node, root any) bool {
	switch c := n.(type) {
	case *Logical:
		if c.Op == OpAnd {
			return EvalCondition(c.Left, root) && EvalCondition(c.Right, root)
		}
		return EvalCondition(c.Left, root) || EvalCondition(c.Right, root)
	case *Comparison:
		return evalComparison(c, root)
	case *MethodCall:
		return evalMethod(c, root)
	}
	return false
}

// ResolveSpec walks a conditional (including nested conditionals in its
// branches) against root data and returns the result specification of the
// branch that applies. The branch itself is not value-checked here; that is
// the job of the field validator compiled for it.
func ResolveSpec(c *Conditional, root any) Spec {
	for {
		var s Spec
		if EvalCondition(c.Condition, root) {
			s = c.Then
		} else {
			s = c.Else
		}
		next, nested := s.(*Conditional)
		if !nested {
			return s
		}
		c = next
	}
}

func (fa *FieldAccess) segments() []fieldpath.Segment {
	segs := make([]fieldpath.Segment, len(fa.Segments))
	for i, s := range fa.Segments {
		segs[i] = fieldpath.Segment{Key: s.Key, Quoted: s.Quoted}
	}
	return segs
}

func evalComparison(c *Comparison, root any) bool {
	val, found := fieldpath.Resolve(root, c.Path.segments())
	switch c.Op {
	case CmpEq:
		return found && looseEqual(val, c.Lit)
	case CmpNotEq:
		return !found || !looseEqual(val, c.Lit)
	case CmpMatch:
		if !found || c.Pattern == nil {
			return false
		}
		return c.Pattern.MatchString(normString(val))
	}
	// ordering comparisons require numeric operands on both sides; anything
	// else evaluates false rather than erroring
	f, ok := toFloat(val)
	if !found || !ok || math.IsNaN(f) {
		return false
	}
	lf, ok := litFloat(c.Lit)
	if !ok {
		return false
	}
	switch c.Op {
	case CmpGT:
		return f > lf
	case CmpGTE:
		return f >= lf
	case CmpLT:
		return f < lf
	case CmpLTE:
		return f <= lf
	}
	return false
}

// looseEqual compares a resolved value to a literal after coercing both to a
// common representation: numeric literals compare numerically, everything
// else compares as normalized strings.
func looseEqual(val any, lit Literal) bool {
	if lit.Kind == LitNumber {
		f, ok := toFloat(val)
		return ok && f == lit.Number
	}
	return normString(val) == litString(lit)
}

func evalMethod(m *MethodCall, root any) bool {
	val, found := fieldpath.Resolve(root, m.Path.segments())
	switch m.Method {
	case MethodExists:
		return existsVal(val, found)
	case MethodNotExists:
		return !existsVal(val, found)
	case MethodNull:
		return found && val == nil
	case MethodNotNull:
		return !(found && val == nil)
	case MethodEmpty:
		return emptyVal(val, found)
	case MethodNotEmpty:
		return !emptyVal(val, found)
	case MethodIn:
		return found && inArgs(val, m.Args)
	case MethodNotIn:
		return !(found && inArgs(val, m.Args))
	case MethodContains:
		return found && containsVal(val, m.Args)
	case MethodNotContains:
		return !(found && containsVal(val, m.Args))
	case MethodStartsWith:
		return found && len(m.Args) > 0 && strings.HasPrefix(normString(val), litString(m.Args[0]))
	case MethodEndsWith:
		return found && len(m.Args) > 0 && strings.HasSuffix(normString(val), litString(m.Args[0]))
	case MethodBetween:
		if !found || len(m.Args) != 2 {
			return false
		}
		f, ok := toFloat(val)
		if !ok || math.IsNaN(f) {
			return false
		}
		lo, okLo := litFloat(m.Args[0])
		hi, okHi := litFloat(m.Args[1])
		return okLo && okHi && f >= lo && f <= hi
	}
	return false
}

// existsVal implements the engine's existence rule: present keys exist
// regardless of falsy-ness (0, "", false and explicit null all exist), but
// NaN signals an invalid numeric read and counts as not existing.
func existsVal(val any, found bool) bool {
	if !found {
		return false
	}
	if f, ok := val.(float64); ok && math.IsNaN(f) {
		return false
	}
	return true
}

func emptyVal(val any, found bool) bool {
	if !found || val == nil {
		return true
	}
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func inArgs(val any, args []Literal) bool {
	s := normString(val)
	for _, a := range args {
		if s == litString(a) {
			return true
		}
	}
	return false
}

func containsVal(val any, args []Literal) bool {
	if len(args) == 0 {
		return false
	}
	needle := litString(args[0])
	switch v := val.(type) {
	case string:
		return strings.Contains(v, needle)
	case []any:
		for _, el := range v {
			if normString(el) == needle {
				return true
			}
		}
		return false
	}
	return false
}

// toFloat widens any numeric representation produced by JSON/YAML decoding.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// normString renders a value the way literals are written in expressions:
// numbers without a trailing ".0", booleans as true/false, null as "null".
func normString(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	case bool:
		if s {
			return "true"
		}
		return "false"
	case json.Number:
		return s.String()
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func litString(l Literal) string {
	if l.Kind == LitNumber {
		return strconv.FormatFloat(l.Number, 'f', -1, 64)
	}
	return l.Text
}

func litFloat(l Literal) (float64, bool) {
	if l.Kind == LitNumber {
		return l.Number, true
	}
	f, err := strconv.ParseFloat(l.Text, 64)
	return f, err == nil
}
