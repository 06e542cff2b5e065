package expr_test

import (
	"math"
	"testing"

	"github.com/fortress-schema/fortress/expr"
)

// evalCond parses "when <cond> *? =y : =n" and reports which branch the
// evaluator picked for root.
func evalCond(t *testing.T, cond string, root any) bool {
	t.Helper()
	ast, errs := expr.Parse(`when `+cond+` *? =y : =n`, expr.Options{})
	if ast == nil || len(errs) > 0 {
		t.Fatalf("parse %q: errs=%v", cond, errs)
	}
	spec := expr.ResolveSpec(ast, root)
	cs, ok := spec.(*expr.ConstantSpec)
	if !ok {
		t.Fatalf("expected constant leaf, got %T", spec)
	}
	return cs.Value.Text == "y"
}

func TestEval_ExistsSemantics(t *testing.T) {
	cases := []struct {
		name string
		root any
		want bool
	}{
		{"empty string exists", map[string]any{"v": ""}, true},
		{"zero exists", map[string]any{"v": 0.0}, true},
		{"false exists", map[string]any{"v": false}, true},
		{"explicit null exists", map[string]any{"v": nil}, true},
		{"missing does not exist", map[string]any{}, false},
		{"NaN does not exist", map[string]any{"v": math.NaN()}, false},
	}
	for _, tc := range cases {
		if got := evalCond(t, `v.exists`, tc.root); got != tc.want {
			t.Fatalf("%s: exists got %v want %v", tc.name, got, tc.want)
		}
		if got := evalCond(t, `v.notExists`, tc.root); got == tc.want {
			t.Fatalf("%s: notExists should invert exists", tc.name)
		}
	}
}

func TestEval_NullSemantics(t *testing.T) {
	withNull := map[string]any{"v": nil}
	missing := map[string]any{}

	if !evalCond(t, `v.null`, withNull) {
		t.Fatalf("explicit null should satisfy null()")
	}
	if evalCond(t, `v.notNull`, withNull) {
		t.Fatalf("explicit null must fail notNull()")
	}
	// not-found is distinct from null
	if evalCond(t, `v.null`, missing) {
		t.Fatalf("missing field is not null")
	}
}

func TestEval_EmptySemantics(t *testing.T) {
	cases := []struct {
		root any
		want bool
	}{
		{map[string]any{"v": ""}, true},
		{map[string]any{"v": "   "}, true}, // trimmed
		{map[string]any{"v": []any{}}, true},
		{map[string]any{"v": map[string]any{}}, true},
		{map[string]any{"v": "x"}, false},
		{map[string]any{"v": []any{1.0}}, false},
	}
	for i, tc := range cases {
		if got := evalCond(t, `v.empty`, tc.root); got != tc.want {
			t.Fatalf("case %d: empty got %v want %v", i, got, tc.want)
		}
	}
}

func TestEval_MembershipAndStrings(t *testing.T) {
	root := map[string]any{
		"role": "admin",
		"tags": []any{"alpha", "beta"},
		"name": "hello world",
		"n":    7.0,
	}
	checks := []struct {
		cond string
		want bool
	}{
		{`role.in(admin, root)`, true},
		{`role.in(user, guest)`, false},
		{`role.notIn(user, guest)`, true},
		{`tags.contains(alpha)`, true},
		{`tags.contains(gamma)`, false},
		{`name.contains("lo wo")`, true},
		{`name.startsWith(hello)`, true},
		{`name.endsWith(world)`, true},
		{`name.startsWith(world)`, false},
		{`n.between(1, 7)`, true}, // inclusive
		{`n.between(8, 9)`, false},
		{`name.between(1, 9)`, false}, // non-numeric
	}
	for _, c := range checks {
		if got := evalCond(t, c.cond, root); got != c.want {
			t.Fatalf("%s: got %v want %v", c.cond, got, c.want)
		}
	}
}

func TestEval_Comparisons(t *testing.T) {
	root := map[string]any{
		"level": 5.0,
		"role":  "admin",
		"ok":    true,
		"name":  "abc",
	}
	checks := []struct {
		cond string
		want bool
	}{
		{`level = 5`, true},
		{`level != 5`, false},
		{`level >= 5`, true},
		{`level > 5`, false},
		{`level < 6`, true},
		{`level <= 4`, false},
		{`role = admin`, true},
		{`role = "admin"`, true},
		{`role != admin`, false},
		{`ok = true`, true},
		{`name > 3`, false},  // ordering needs numeric operands
		{`name ~ /^a.c$/`, true},
		{`name ~ /^z/`, false},
		{`missing = admin`, false},
		{`missing != admin`, true},
	}
	for _, c := range checks {
		if got := evalCond(t, c.cond, root); got != c.want {
			t.Fatalf("%s: got %v want %v", c.cond, got, c.want)
		}
	}
}

func TestEval_LogicalShortCircuit(t *testing.T) {
	root := map[string]any{"a": 1.0}
	if !evalCond(t, `a=1 || b=2`, root) {
		t.Fatalf("|| should succeed on left side")
	}
	if evalCond(t, `a=2 && b=2`, root) {
		t.Fatalf("&& should fail on left side")
	}
	if !evalCond(t, `(a=2 || a=1) && a.exists`, root) {
		t.Fatalf("grouped condition should hold")
	}
}

func TestEval_NestedConditionalResolution(t *testing.T) {
	src := `when status=active *? when role=admin *? =full : =limited : =none`
	ast, errs := expr.Parse(src, expr.Options{})
	if ast == nil || len(errs) > 0 {
		t.Fatalf("parse: %v", errs)
	}
	cases := []struct {
		root map[string]any
		want string
	}{
		{map[string]any{"status": "active", "role": "admin"}, "full"},
		{map[string]any{"status": "active", "role": "user"}, "limited"},
		{map[string]any{"status": "inactive", "role": "admin"}, "none"},
	}
	for _, tc := range cases {
		spec := expr.ResolveSpec(ast, tc.root)
		cs, ok := spec.(*expr.ConstantSpec)
		if !ok || cs.Value.Text != tc.want {
			t.Fatalf("root %v: got %+v want =%s", tc.root, spec, tc.want)
		}
	}
}

func TestEval_BracketAndDottedPaths(t *testing.T) {
	root := map[string]any{
		"config": map[string]any{
			"weird key": map[string]any{"nested": 1.0},
		},
	}
	if !evalCond(t, `config["weird key"].nested = 1`, root) {
		t.Fatalf("mixed bracket/dot path should resolve")
	}
	// missing intermediate resolves to not-found, never an error
	if evalCond(t, `config.other.nested = 1`, root) {
		t.Fatalf("missing intermediate should compare unequal")
	}
}
