package expr_test

import (
	"testing"

	"github.com/fortress-schema/fortress/expr"
)

func kinds(toks []expr.Token) []expr.Kind {
	out := make([]expr.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLex_Operators(t *testing.T) {
	toks, err := expr.Lex(`when a >= 5 && b != c || d ~ "x" *? =granted : =denied`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	want := []expr.Kind{
		expr.KindWhen, expr.KindIdent, expr.KindGTE, expr.KindNumber,
		expr.KindAnd, expr.KindIdent, expr.KindNotEq, expr.KindIdent,
		expr.KindOr, expr.KindIdent, expr.KindMatch, expr.KindString,
		expr.KindThen, expr.KindEq, expr.KindIdent,
		expr.KindColon, expr.KindEq, expr.KindIdent,
		expr.KindEOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count: got %d want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestLex_BracketKeysAllowArbitraryUnicode(t *testing.T) {
	toks, err := expr.Lex(`config["🎉 weird-key!"].nested = 1`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[2].Kind != expr.KindString || toks[2].Text != "🎉 weird-key!" {
		t.Fatalf("expected quoted unicode key, got %+v", toks[2])
	}
}

func TestLex_UnicodeIdentifiers(t *testing.T) {
	toks, err := expr.Lex(`名前 = 太郎`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[0].Kind != expr.KindIdent || toks[0].Text != "名前" {
		t.Fatalf("expected unicode identifier, got %+v", toks[0])
	}
	if toks[2].Kind != expr.KindIdent || toks[2].Text != "太郎" {
		t.Fatalf("expected unicode bare literal, got %+v", toks[2])
	}
}

func TestLex_NumbersAndBooleans(t *testing.T) {
	toks, err := expr.Lex(`x = -12.5 && y = true`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[2].Kind != expr.KindNumber || toks[2].Text != "-12.5" {
		t.Fatalf("expected number -12.5, got %+v", toks[2])
	}
	if toks[6].Kind != expr.KindBool || toks[6].Text != "true" {
		t.Fatalf("expected boolean, got %+v", toks[6])
	}
}

func TestLex_ErrorsCarryPosition(t *testing.T) {
	cases := []struct {
		src string
		pos int
	}{
		{`a * b`, 2},
		{`a & b`, 2},
		{`a = "unterminated`, 4},
	}
	for _, tc := range cases {
		_, err := expr.Lex(tc.src)
		if err == nil {
			t.Fatalf("%q: expected lex error", tc.src)
		}
		pe, ok := err.(*expr.ParseError)
		if !ok {
			t.Fatalf("%q: expected *ParseError, got %T", tc.src, err)
		}
		if pe.Pos != tc.pos {
			t.Fatalf("%q: position got %d want %d", tc.src, pe.Pos, tc.pos)
		}
	}
}

func TestLex_RegexLiterals(t *testing.T) {
	toks, err := expr.Lex(`name ~ /^[a-z]+\/x$/`)
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	if toks[2].Kind != expr.KindString || toks[2].Text != `^[a-z]+/x$` {
		t.Fatalf("expected regex body with unescaped slash, got %+v", toks[2])
	}
}
