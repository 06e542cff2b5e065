package fortress

import (
	"github.com/fortress-schema/fortress/expr"
)

// compileConditional compiles a "when <cond> *? <then> : <else>" type
// string. Both branches (including nested conditionals) are compiled to
// ordinary field validators up front; at validation time the evaluator
// resolves which branch applies against the candidate object and the
// matching validator checks the field value.
func (c *compiler) compileConditional(name, raw string) (*fieldCompilation, error) {
	ast, perrs := expr.Parse(raw, expr.Options{MaxDepth: c.opts.MaxNestingDepth})
	if len(perrs) > 0 || ast == nil {
		iss := make(Issues, 0, len(perrs))
		for _, pe := range perrs {
			code := CodeParseError
			if pe.DepthExceeded {
				code = CodeDepthExceeded
			}
			iss = append(iss, Issue{
				Path:     "/" + name,
				Code:     code,
				Message:  pe.Message,
				Hint:     pe.Hint,
				Position: pe.Pos,
			})
		}
		if len(iss) == 0 {
			iss = Issues{{Path: "/" + name, Code: CodeParseError, Message: "unparseable conditional expression", Position: -1}}
		}
		return nil, iss
	}

	branches := make(map[expr.Spec]fieldFn)
	if err := c.compileBranches(name, ast, branches); err != nil {
		return nil, err
	}

	fc := &fieldCompilation{
		name:         name,
		declaredType: raw,
		category:     catSimple,
		conditional:  true,
	}
	fc.fn = func(root, value any, present bool) fieldResult {
		spec := expr.ResolveSpec(ast, root)
		fn, ok := branches[spec]
		if !ok {
			// unreachable once compileBranches covered every leaf
			return failField(name, CodeInvalidSchema, map[string]any{"reason": "unresolved branch"})
		}
		return fn(root, value, present)
	}
	return fc, nil
}

// compileBranches walks the conditional tree and compiles every leaf result
// specification into a validator, keyed by the spec node identity.
func (c *compiler) compileBranches(name string, cond *expr.Conditional, out map[expr.Spec]fieldFn) error {
	for _, branch := range []expr.Spec{cond.Then, cond.Else} {
		switch s := branch.(type) {
		case *expr.Conditional:
			if err := c.compileBranches(name, s, out); err != nil {
				return err
			}
		case *expr.TypeSpec:
			fc, err := c.compileType(name, s.Raw)
			if err != nil {
				return err
			}
			out[s] = fc.fn
		case *expr.ConstantSpec:
			fc, err := c.compileConstantSpec(name, s)
			if err != nil {
				return err
			}
			out[s] = fc.fn
		}
	}
	return nil
}

// compileConstantSpec turns a parsed "=value" / "=[...]" branch into a
// constant validator without round-tripping through type-string text.
func (c *compiler) compileConstantSpec(name string, s *expr.ConstantSpec) (*fieldCompilation, error) {
	if s.Array != nil {
		want := make([]string, 0, len(s.Array.Elems))
		raw := "=[...]"
		for _, el := range s.Array.Elems {
			want = append(want, canonicalScalar(literalValue(el)))
		}
		fc := &fieldCompilation{name: name, declaredType: raw, category: catSimple}
		fc.fn = func(root, value any, present bool) fieldResult {
			if !present {
				return failField(name, CodeRequired, nil)
			}
			arr, ok := value.([]any)
			if !ok || len(arr) != len(want) {
				return failField(name, CodeConstantMismatch, map[string]any{"expected": raw})
			}
			for i, el := range arr {
				if canonicalScalar(el) != want[i] {
					return failField(name, CodeConstantMismatch, map[string]any{"expected": raw})
				}
			}
			return fieldResult{value: value}
		}
		return fc, nil
	}
	want := literalValue(*s.Value)
	wantStr := canonicalScalar(want)
	fc := &fieldCompilation{name: name, declaredType: "=" + s.Value.Text, category: catSimple}
	fc.fn = func(root, value any, present bool) fieldResult {
		if !present {
			return failField(name, CodeRequired, nil)
		}
		if canonicalScalar(value) != wantStr {
			return failField(name, CodeConstantMismatch, map[string]any{"expected": wantStr, "got": value})
		}
		return fieldResult{value: value}
	}
	return fc, nil
}

func literalValue(l expr.Literal) any {
	switch l.Kind {
	case expr.LitNumber:
		return l.Number
	case expr.LitBool:
		return l.Bool
	}
	return l.Text
}
