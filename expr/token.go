package expr

import "fmt"

// Kind identifies the lexical class of a token.
type Kind int

const (
	KindEOF Kind = iota
	KindIdent
	KindString // quoted string literal
	KindNumber
	KindBool
	KindWhen  // "when"
	KindThen  // "*?"
	KindColon // ":"
	KindEq    // "="
	KindNotEq // "!="
	KindGT    // ">"
	KindGTE   // ">="
	KindLT    // "<"
	KindLTE   // "<="
	KindMatch // "~"
	KindAnd   // "&&"
	KindOr    // "||"
	KindPipe  // "|" (union separator inside result specifications)
	KindQuestion
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindDot
	KindComma
)

var kindNames = map[Kind]string{
	KindEOF:      "EOF",
	KindIdent:    "identifier",
	KindString:   "string",
	KindNumber:   "number",
	KindBool:     "boolean",
	KindWhen:     "'when'",
	KindThen:     "'*?'",
	KindColon:    "':'",
	KindEq:       "'='",
	KindNotEq:    "'!='",
	KindGT:       "'>'",
	KindGTE:      "'>='",
	KindLT:       "'<'",
	KindLTE:      "'<='",
	KindMatch:    "'~'",
	KindAnd:      "'&&'",
	KindOr:       "'||'",
	KindPipe:     "'|'",
	KindQuestion: "'?'",
	KindLParen:   "'('",
	KindRParen:   "')'",
	KindLBracket: "'['",
	KindRBracket: "']'",
	KindDot:      "'.'",
	KindComma:    "','",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical unit of a conditional expression. Pos is the byte
// offset of the token's first character in the original source. Tokens are
// immutable once produced.
type Token struct {
	Kind Kind
	Text string
	Pos  int
}
