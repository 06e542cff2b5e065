package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lex converts src into a flat token sequence terminated by a KindEOF token.
// It is a pure function of its input; a lexical error reports the byte offset
// of the offending character.
func Lex(src string) ([]Token, error) {
	lx := &lexer{src: src}
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		lx.out = append(lx.out, tok)
		if tok.Kind == KindEOF {
			return lx.out, nil
		}
	}
}

type lexer struct {
	src string
	pos int
	out []Token
}

func (lx *lexer) peek() (rune, int) {
	if lx.pos >= len(lx.src) {
		return 0, 0
	}
	return utf8.DecodeRuneInString(lx.src[lx.pos:])
}

func (lx *lexer) next() (Token, error) {
	for {
		r, w := lx.peek()
		if w == 0 {
			return Token{Kind: KindEOF, Pos: lx.pos}, nil
		}
		if !unicode.IsSpace(r) {
			break
		}
		lx.pos += w
	}
	start := lx.pos
	r, w := lx.peek()

	switch r {
	case '"', '\'':
		return lx.lexString(r)
	case '*':
		if strings.HasPrefix(lx.src[lx.pos:], "*?") {
			lx.pos += 2
			return Token{Kind: KindThen, Text: "*?", Pos: start}, nil
		}
		return Token{}, &ParseError{Pos: start, Message: "unexpected '*'", Hint: "the branch separator is '*?'"}
	case '&':
		if strings.HasPrefix(lx.src[lx.pos:], "&&") {
			lx.pos += 2
			return Token{Kind: KindAnd, Text: "&&", Pos: start}, nil
		}
		return Token{}, &ParseError{Pos: start, Message: "unexpected '&'", Hint: "logical AND is '&&'"}
	case '|':
		if strings.HasPrefix(lx.src[lx.pos:], "||") {
			lx.pos += 2
			return Token{Kind: KindOr, Text: "||", Pos: start}, nil
		}
		lx.pos++
		return Token{Kind: KindPipe, Text: "|", Pos: start}, nil
	case '!':
		if strings.HasPrefix(lx.src[lx.pos:], "!=") {
			lx.pos += 2
			return Token{Kind: KindNotEq, Text: "!=", Pos: start}, nil
		}
		return Token{}, &ParseError{Pos: start, Message: "unexpected '!'", Hint: "negated comparison is '!='; negated methods use their 'not' names (notExists, notIn, ...)"}
	case '>':
		if strings.HasPrefix(lx.src[lx.pos:], ">=") {
			lx.pos += 2
			return Token{Kind: KindGTE, Text: ">=", Pos: start}, nil
		}
		lx.pos++
		return Token{Kind: KindGT, Text: ">", Pos: start}, nil
	case '<':
		if strings.HasPrefix(lx.src[lx.pos:], "<=") {
			lx.pos += 2
			return Token{Kind: KindLTE, Text: "<=", Pos: start}, nil
		}
		lx.pos++
		return Token{Kind: KindLT, Text: "<", Pos: start}, nil
	case '=':
		lx.pos++
		return Token{Kind: KindEq, Text: "=", Pos: start}, nil
	case '~':
		lx.pos++
		return Token{Kind: KindMatch, Text: "~", Pos: start}, nil
	case ':':
		lx.pos++
		return Token{Kind: KindColon, Text: ":", Pos: start}, nil
	case '?':
		lx.pos++
		return Token{Kind: KindQuestion, Text: "?", Pos: start}, nil
	case '(':
		lx.pos++
		return Token{Kind: KindLParen, Text: "(", Pos: start}, nil
	case ')':
		lx.pos++
		return Token{Kind: KindRParen, Text: ")", Pos: start}, nil
	case '[':
		lx.pos++
		return Token{Kind: KindLBracket, Text: "[", Pos: start}, nil
	case ']':
		lx.pos++
		return Token{Kind: KindRBracket, Text: "]", Pos: start}, nil
	case '.':
		lx.pos++
		return Token{Kind: KindDot, Text: ".", Pos: start}, nil
	case ',':
		lx.pos++
		return Token{Kind: KindComma, Text: ",", Pos: start}, nil
	case '/':
		return lx.lexRegex()
	}

	if r == '-' || unicode.IsDigit(r) {
		return lx.lexNumber()
	}
	if isIdentStart(r) {
		return lx.lexIdent()
	}
	lx.pos += w
	return Token{}, &ParseError{Pos: start, Message: "unexpected character " + string(r)}
}

// lexString consumes a quoted string literal. Any Unicode content is allowed
// between the quotes, which is how bracket keys with spaces, punctuation or
// emoji are written.
func (lx *lexer) lexString(quote rune) (Token, error) {
	start := lx.pos
	lx.pos++ // opening quote
	var b strings.Builder
	for {
		r, w := lx.peek()
		if w == 0 {
			return Token{}, &ParseError{Pos: start, Message: "unterminated string literal"}
		}
		lx.pos += w
		if r == quote {
			return Token{Kind: KindString, Text: b.String(), Pos: start}, nil
		}
		if r == '\\' {
			e, ew := lx.peek()
			if ew == 0 {
				return Token{}, &ParseError{Pos: start, Message: "unterminated string literal"}
			}
			lx.pos += ew
			switch e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\\', '"', '\'':
				b.WriteRune(e)
			default:
				b.WriteRune('\\')
				b.WriteRune(e)
			}
			continue
		}
		b.WriteRune(r)
	}
}

// lexRegex consumes a /pattern/ literal used by the '~' operator and by
// pattern constraints. The pattern is emitted as a string token.
func (lx *lexer) lexRegex() (Token, error) {
	start := lx.pos
	lx.pos++ // opening slash
	var b strings.Builder
	for {
		r, w := lx.peek()
		if w == 0 {
			return Token{}, &ParseError{Pos: start, Message: "unterminated regex literal"}
		}
		lx.pos += w
		if r == '/' {
			return Token{Kind: KindString, Text: b.String(), Pos: start}, nil
		}
		if r == '\\' {
			e, ew := lx.peek()
			if ew > 0 && e == '/' {
				lx.pos += ew
				b.WriteRune('/')
				continue
			}
		}
		b.WriteRune(r)
	}
}

func (lx *lexer) lexNumber() (Token, error) {
	start := lx.pos
	if r, w := lx.peek(); r == '-' {
		lx.pos += w
	}
	digits := 0
	for {
		r, w := lx.peek()
		if w == 0 || !unicode.IsDigit(r) {
			break
		}
		digits++
		lx.pos += w
	}
	if digits == 0 {
		return Token{}, &ParseError{Pos: start, Message: "malformed number"}
	}
	// fraction
	if r, _ := lx.peek(); r == '.' {
		// '.' followed by a digit is a fraction; otherwise it belongs to a path
		if lx.pos+1 < len(lx.src) {
			if nr, _ := utf8.DecodeRuneInString(lx.src[lx.pos+1:]); unicode.IsDigit(nr) {
				lx.pos++
				for {
					fr, fw := lx.peek()
					if fw == 0 || !unicode.IsDigit(fr) {
						break
					}
					lx.pos += fw
				}
			}
		}
	}
	return Token{Kind: KindNumber, Text: lx.src[start:lx.pos], Pos: start}, nil
}

func (lx *lexer) lexIdent() (Token, error) {
	start := lx.pos
	for {
		r, w := lx.peek()
		if w == 0 || !isIdentPart(r) {
			break
		}
		lx.pos += w
	}
	text := lx.src[start:lx.pos]
	switch text {
	case "when":
		return Token{Kind: KindWhen, Text: text, Pos: start}, nil
	case "true", "false":
		return Token{Kind: KindBool, Text: text, Pos: start}, nil
	}
	return Token{Kind: KindIdent, Text: text, Pos: start}, nil
}

// isIdentStart reports whether r can begin an identifier. '$' is allowed so
// the '.$method()' call marker lexes as an ordinary segment.
func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '$' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
