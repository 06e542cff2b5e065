package fortress_test

import (
	"testing"

	fortress "github.com/fortress-schema/fortress"
)

func newEngine(t *testing.T, opts fortress.Options) *fortress.Engine {
	t.Helper()
	return fortress.New(opts)
}

func mustCompile(t *testing.T, eng *fortress.Engine, desc fortress.Description) *fortress.Validator {
	t.Helper()
	v, err := eng.Precompile(desc)
	if err != nil {
		t.Fatalf("precompile: %v", err)
	}
	return v
}

func TestConditional_ConstantBranches(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	v := mustCompile(t, eng, fortress.Description{
		"role":   "admin|user|guest",
		"access": `when role=admin *? =granted : =denied`,
	})

	res := v.Validate(map[string]any{"role": "admin", "access": "granted"})
	if !res.OK {
		t.Fatalf("admin/granted should pass: %v", res.Errors)
	}

	res = v.Validate(map[string]any{"role": "user", "access": "granted"})
	if res.OK {
		t.Fatalf("user/granted must fail: else-branch requires =denied")
	}
	if res.Errors[0].Code != fortress.CodeConstantMismatch {
		t.Fatalf("expected constant_mismatch, got %v", res.Errors)
	}

	res = v.Validate(map[string]any{"role": "user", "access": "denied"})
	if !res.OK {
		t.Fatalf("user/denied should pass: %v", res.Errors)
	}
}

func TestConditional_LogicalCondition(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	v := mustCompile(t, eng, fortress.Description{
		"role":       "admin|user",
		"level":      "int(0,10)",
		"fullAccess": `when role=admin && level>=5 *? =granted : =denied`,
	})

	// condition false: else-branch value matches
	res := v.Validate(map[string]any{"role": "admin", "level": 3.0, "fullAccess": "denied"})
	if !res.OK {
		t.Fatalf("condition false with matching else value should pass: %v", res.Errors)
	}

	res = v.Validate(map[string]any{"role": "admin", "level": 7.0, "fullAccess": "granted"})
	if !res.OK {
		t.Fatalf("condition true with matching then value should pass: %v", res.Errors)
	}

	res = v.Validate(map[string]any{"role": "admin", "level": 7.0, "fullAccess": "denied"})
	if res.OK {
		t.Fatalf("condition true with else value must fail")
	}
}

func TestConditional_NestedConditional(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	v := mustCompile(t, eng, fortress.Description{
		"status": "active|inactive",
		"role":   "admin|user",
		"access": `when status=active *? when role=admin *? =full : =limited : =none`,
	})

	res := v.Validate(map[string]any{"status": "inactive", "role": "admin", "access": "none"})
	if !res.OK {
		t.Fatalf("inactive admin expects =none: %v", res.Errors)
	}
	res = v.Validate(map[string]any{"status": "active", "role": "admin", "access": "full"})
	if !res.OK {
		t.Fatalf("active admin expects =full: %v", res.Errors)
	}
	res = v.Validate(map[string]any{"status": "active", "role": "user", "access": "full"})
	if res.OK {
		t.Fatalf("active user must match =limited, not =full")
	}
}

func TestConditional_TypeSpecBranch(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	v := mustCompile(t, eng, fortress.Description{
		"role": "admin|user",
		"flag": `when role=admin *? boolean : =false`,
	})

	if res := v.Validate(map[string]any{"role": "admin", "flag": true}); !res.OK {
		t.Fatalf("admin may set any boolean: %v", res.Errors)
	}
	if res := v.Validate(map[string]any{"role": "admin", "flag": "yes"}); res.OK {
		t.Fatalf("then-branch boolean must reject strings")
	}
	if res := v.Validate(map[string]any{"role": "user", "flag": false}); !res.OK {
		t.Fatalf("non-admin false should pass: %v", res.Errors)
	}
	if res := v.Validate(map[string]any{"role": "user", "flag": true}); res.OK {
		t.Fatalf("non-admin is pinned to =false")
	}
}

func TestConditional_MethodCallCondition(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	v := mustCompile(t, eng, fortress.Description{
		"email": "string?",
		"tier":  `when email.exists *? =member : =anonymous`,
	})

	if res := v.Validate(map[string]any{"email": "a@b.com", "tier": "member"}); !res.OK {
		t.Fatalf("existing email expects member: %v", res.Errors)
	}
	if res := v.Validate(map[string]any{"tier": "anonymous"}); !res.OK {
		t.Fatalf("missing email expects anonymous: %v", res.Errors)
	}
	// empty string still exists
	if res := v.Validate(map[string]any{"email": "", "tier": "member"}); !res.OK {
		t.Fatalf("empty string counts as existing: %v", res.Errors)
	}
}

func TestConditional_ParseErrorIsDefinitionTime(t *testing.T) {
	eng := newEngine(t, fortress.Options{})
	_, err := eng.Precompile(fortress.Description{
		"x": `when a > *? =x : =y`,
	})
	if err == nil {
		t.Fatalf("broken expression must fail compilation")
	}
	iss, ok := fortress.AsIssues(err)
	if !ok || iss[0].Code != fortress.CodeParseError {
		t.Fatalf("expected parse_error issues, got %v", err)
	}
	if iss[0].Position < 0 {
		t.Fatalf("parse issues carry expression positions, got %+v", iss[0])
	}
}

func TestConditional_NestingDepthBoundary(t *testing.T) {
	atMax := fortress.Description{
		"a": "string?",
		"b": "string?",
		"x": `when a=1 *? when b=2 *? =p : =q : =r`,
	}
	overMax := fortress.Description{
		"a": "string?",
		"b": "string?",
		"c": "string?",
		"x": `when a=1 *? when b=2 *? when c=3 *? =p : =q : =r : =s`,
	}

	eng := newEngine(t, fortress.Options{MaxNestingDepth: 2})
	if _, err := eng.Precompile(atMax); err != nil {
		t.Fatalf("depth == max must compile: %v", err)
	}
	_, err := eng.Precompile(overMax)
	if err == nil {
		t.Fatalf("depth == max+1 must fail compilation")
	}
	iss, _ := fortress.AsIssues(err)
	found := false
	for _, it := range iss {
		if it.Code == fortress.CodeDepthExceeded {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected depth_exceeded, got %v", iss)
	}
}
