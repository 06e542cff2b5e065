package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds conditional nesting when Options.MaxDepth is zero.
const DefaultMaxDepth = 10

// Options configures a single parse invocation. Depth tracking is scoped to
// the invocation, never shared across parses.
type Options struct {
	// MaxDepth is the maximum allowed conditional nesting depth; the
	// top-level conditional counts as depth one.
	MaxDepth int
}

// ParseError is one recorded parse (or lexical) problem. The parser collects
// errors instead of stopping at the first, so callers can report several
// issues in one pass.
type ParseError struct {
	Pos     int
	Message string
	Hint    string
	// DepthExceeded marks the nesting-limit failure so callers can surface
	// it as its own error class.
	DepthExceeded bool
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s at position %d (%s)", e.Message, e.Pos, e.Hint)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Parse parses a full conditional expression ("when ... *? ... : ...").
// It returns the AST together with any accumulated errors; the AST is nil
// whenever the input is not usably parseable.
func Parse(src string, opt Options) (*Conditional, []ParseError) {
	if opt.MaxDepth <= 0 {
		opt.MaxDepth = DefaultMaxDepth
	}
	toks, err := Lex(src)
	if err != nil {
		pe, ok := err.(*ParseError)
		if !ok {
			pe = &ParseError{Message: err.Error()}
		}
		return nil, []ParseError{*pe}
	}
	p := &parser{src: src, toks: toks, maxDepth: opt.MaxDepth}
	c := p.parseConditional(1)
	if c != nil && p.cur().Kind != KindEOF {
		p.errorf(p.cur().Pos, "", "unexpected %s after expression", p.cur().Kind)
	}
	if c == nil || c.Condition == nil || c.Then == nil || c.Else == nil {
		return nil, p.errs
	}
	return c, p.errs
}

type parser struct {
	src      string
	toks     []Token
	i        int
	errs     []ParseError
	maxDepth int
}

func (p *parser) cur() Token { return p.toks[p.i] }

func (p *parser) peek() Token {
	if p.i+1 < len(p.toks) {
		return p.toks[p.i+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) errorf(pos int, hint, format string, args ...any) {
	p.errs = append(p.errs, ParseError{Pos: pos, Message: fmt.Sprintf(format, args...), Hint: hint})
}

func (p *parser) expect(k Kind) (Token, bool) {
	if p.cur().Kind != k {
		p.errorf(p.cur().Pos, "", "expected %s, found %s", k, p.cur().Kind)
		return p.cur(), false
	}
	return p.advance(), true
}

func (p *parser) parseConditional(depth int) *Conditional {
	if depth > p.maxDepth {
		p.errs = append(p.errs, ParseError{
			Pos:           p.cur().Pos,
			Message:       fmt.Sprintf("maximum nesting depth %d exceeded", p.maxDepth),
			Hint:          "reduce conditional nesting or raise the configured maximum",
			DepthExceeded: true,
		})
		return nil
	}
	start, ok := p.expect(KindWhen)
	if !ok {
		return nil
	}
	cond := p.parseOr()
	if _, ok := p.expect(KindThen); !ok {
		return nil
	}
	then := p.parseSpec(depth)
	if _, ok := p.expect(KindColon); !ok {
		return nil
	}
	els := p.parseSpec(depth)
	return &Conditional{Condition: cond, Then: then, Else: els, pos: start.Pos}
}

// parseSpec parses one result specification: a nested conditional, a
// "=constant" specification, or an opaque type specification.
func (p *parser) parseSpec(depth int) Spec {
	switch p.cur().Kind {
	case KindWhen:
		c := p.parseConditional(depth + 1)
		if c == nil {
			return nil
		}
		return c
	case KindEq:
		return p.parseConstantSpec()
	}
	return p.parseTypeSpec()
}

func (p *parser) parseConstantSpec() Spec {
	eq := p.advance() // '='
	if p.cur().Kind == KindLBracket {
		arr := p.parseArrayLit()
		if arr == nil {
			return nil
		}
		return &ConstantSpec{Array: arr, pos: eq.Pos}
	}
	lit, ok := p.parseLiteral()
	if !ok {
		p.errorf(p.cur().Pos, "write =value or =[v1,v2]", "expected constant value after '='")
		return nil
	}
	return &ConstantSpec{Value: &lit, pos: eq.Pos}
}

// parseTypeSpec consumes tokens up to the next top-level ':' (or EOF) and
// keeps the covered source text verbatim. Parens and brackets inside the
// specification (constraint args, array markers) nest freely; the colon that
// terminates the branch always sits at nesting level zero.
func (p *parser) parseTypeSpec() Spec {
	start := p.cur()
	if start.Kind == KindColon || start.Kind == KindEOF {
		p.errorf(start.Pos, "", "missing result specification")
		return nil
	}
	level := 0
	end := start.Pos
	for {
		t := p.cur()
		if t.Kind == KindEOF {
			end = t.Pos
			break
		}
		if level == 0 && t.Kind == KindColon {
			end = t.Pos
			break
		}
		switch t.Kind {
		case KindLParen, KindLBracket:
			level++
		case KindRParen, KindRBracket:
			level--
		}
		p.advance()
	}
	raw := strings.TrimSpace(p.src[start.Pos:end])
	if raw == "" {
		p.errorf(start.Pos, "", "missing result specification")
		return nil
	}
	return &TypeSpec{Raw: raw, pos: start.Pos}
}

func (p *parser) parseOr() Node {
	left := p.parseAnd()
	for p.cur().Kind == KindOr {
		op := p.advance()
		right := p.parseAnd()
		if left == nil {
			left = right
			continue
		}
		if right == nil {
			continue
		}
		left = &Logical{Op: OpOr, Left: left, Right: right, pos: op.Pos}
	}
	return left
}

func (p *parser) parseAnd() Node {
	left := p.parseTerm()
	for p.cur().Kind == KindAnd {
		op := p.advance()
		right := p.parseTerm()
		if left == nil {
			left = right
			continue
		}
		if right == nil {
			continue
		}
		left = &Logical{Op: OpAnd, Left: left, Right: right, pos: op.Pos}
	}
	return left
}

// parseTerm parses a parenthesized group, a comparison, or a method call.
// On failure it records an error and skips ahead to the next condition
// boundary so later problems in the same expression are still reported.
func (p *parser) parseTerm() Node {
	if p.cur().Kind == KindLParen {
		p.advance()
		inner := p.parseOr()
		if _, ok := p.expect(KindRParen); !ok {
			p.syncCondition()
		}
		return inner
	}
	path, method, ok := p.parsePath()
	if !ok {
		p.syncCondition()
		return nil
	}
	if method != nil {
		return method
	}

	var op CompareOp
	switch p.cur().Kind {
	case KindEq:
		op = CmpEq
	case KindNotEq:
		op = CmpNotEq
	case KindGT:
		op = CmpGT
	case KindGTE:
		op = CmpGTE
	case KindLT:
		op = CmpLT
	case KindLTE:
		op = CmpLTE
	case KindMatch:
		op = CmpMatch
	default:
		p.errorf(p.cur().Pos, "a condition is 'path op value' or 'path.method(...)'", "expected comparison operator or method call, found %s", p.cur().Kind)
		p.syncCondition()
		return nil
	}
	opTok := p.advance()
	lit, ok := p.parseLiteral()
	if !ok {
		p.errorf(p.cur().Pos, "", "expected literal after %s", opTok.Kind)
		p.syncCondition()
		return nil
	}
	cmp := &Comparison{Path: path, Op: op, Lit: lit, pos: path.Pos()}
	if op == CmpMatch {
		if lit.Kind != LitString {
			p.errorf(lit.Pos(), "write path ~ /pattern/ or path ~ \"pattern\"", "'~' requires a pattern literal")
			return nil
		}
		re, err := regexp.Compile(lit.Text)
		if err != nil {
			p.errorf(lit.Pos(), "", "invalid pattern: %v", err)
			return nil
		}
		cmp.Pattern = re
	}
	return cmp
}

// parsePath parses a dotted/bracketed field path. When the final dotted
// segment names a built-in method (optionally written with a '$' marker,
// e.g. ".$exists()"), the whole term is a method call instead.
func (p *parser) parsePath() (*FieldAccess, *MethodCall, bool) {
	first, ok := p.expect(KindIdent)
	if !ok {
		return nil, nil, false
	}
	fa := &FieldAccess{Segments: []PathSegment{{Key: first.Text}}, pos: first.Pos}
	for {
		switch p.cur().Kind {
		case KindDot:
			dot := p.advance()
			seg := p.cur()
			if seg.Kind != KindIdent {
				p.errorf(seg.Pos, "", "expected field or method name after '.'")
				return nil, nil, false
			}
			name := strings.TrimPrefix(seg.Text, "$")
			if m, isMethod := methodNames[name]; isMethod && p.peek().Kind != KindDot && p.peek().Kind != KindLBracket {
				p.advance()
				args, ok := p.parseMethodArgs()
				if !ok {
					return nil, nil, false
				}
				return nil, &MethodCall{Path: fa, Method: m, Args: args, pos: dot.Pos}, true
			}
			p.advance()
			fa.Segments = append(fa.Segments, PathSegment{Key: seg.Text})
		case KindLBracket:
			p.advance()
			key := p.cur()
			switch key.Kind {
			case KindString:
				fa.Segments = append(fa.Segments, PathSegment{Key: key.Text, Quoted: true})
			case KindNumber:
				fa.Segments = append(fa.Segments, PathSegment{Key: key.Text, Quoted: true})
			default:
				p.errorf(key.Pos, "bracket keys are quoted, e.g. config[\"special-key\"]", "expected key inside brackets")
				return nil, nil, false
			}
			p.advance()
			if _, ok := p.expect(KindRBracket); !ok {
				return nil, nil, false
			}
		default:
			return fa, nil, true
		}
	}
}

func (p *parser) parseMethodArgs() ([]Literal, bool) {
	if p.cur().Kind != KindLParen {
		return nil, true // bare method reference, e.g. "role.exists"
	}
	p.advance()
	var args []Literal
	if p.cur().Kind == KindRParen {
		p.advance()
		return args, true
	}
	for {
		lit, ok := p.parseLiteral()
		if !ok {
			p.errorf(p.cur().Pos, "", "expected method argument")
			return nil, false
		}
		args = append(args, lit)
		if p.cur().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(KindRParen); !ok {
		return nil, false
	}
	return args, true
}

// parseLiteral accepts quoted strings, numbers, booleans, and bare words
// (which compare as strings, so "role=admin" needs no quotes).
func (p *parser) parseLiteral() (Literal, bool) {
	t := p.cur()
	switch t.Kind {
	case KindString:
		p.advance()
		return Literal{Kind: LitString, Text: t.Text, pos: t.Pos}, true
	case KindNumber:
		p.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			p.errorf(t.Pos, "", "malformed number %q", t.Text)
			return Literal{}, false
		}
		return Literal{Kind: LitNumber, Text: t.Text, Number: f, pos: t.Pos}, true
	case KindBool:
		p.advance()
		return Literal{Kind: LitBool, Text: t.Text, Bool: t.Text == "true", pos: t.Pos}, true
	case KindIdent:
		p.advance()
		return Literal{Kind: LitString, Text: t.Text, pos: t.Pos}, true
	}
	return Literal{}, false
}

func (p *parser) parseArrayLit() *ArrayLit {
	open, _ := p.expect(KindLBracket)
	arr := &ArrayLit{pos: open.Pos}
	if p.cur().Kind == KindRBracket {
		p.advance()
		return arr
	}
	for {
		lit, ok := p.parseLiteral()
		if !ok {
			p.errorf(p.cur().Pos, "", "expected array element")
			return nil
		}
		arr.Elems = append(arr.Elems, lit)
		if p.cur().Kind == KindComma {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(KindRBracket); !ok {
		return nil
	}
	return arr
}

// syncCondition skips ahead to the next token that can follow a condition,
// letting the parser surface several errors from one expression.
func (p *parser) syncCondition() {
	for {
		switch p.cur().Kind {
		case KindAnd, KindOr, KindThen, KindColon, KindRParen, KindEOF:
			return
		}
		p.advance()
	}
}
