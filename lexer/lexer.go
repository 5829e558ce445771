package lexer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tinscript/tinscript/internal/runeio"
)

// SyntaxError reports a precise (file, line, column, message) lexical
// failure, per spec.md §4.1 ("Fails with a precise (file, line, column,
// message) on unterminated strings, invalid escapes, and numeric
// overflow") and §7 "SyntaxError".
type SyntaxError struct {
	Loc     Location
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: syntax error: %s", e.Loc, e.Message)
}

// Lexer is a streaming tokenizer, peek-backed by one token (spec.md §4.1:
// "The lexer is streaming and may be peek-backed by at least one token").
type Lexer struct {
	rr   runeio.Reader
	file string

	line, col, offset int

	haveRune bool
	rune     rune

	peeked    *Token
	peekedErr error
}

// New returns a Lexer reading src, attributing positions to name.
func New(src io.Reader, name string) *Lexer {
	return &Lexer{rr: runeio.NewReader(src), file: name, line: 1, col: 1}
}

func (lx *Lexer) loc() Location {
	return Location{File: lx.file, Line: lx.line, Column: lx.col, Offset: lx.offset}
}

func (lx *Lexer) errorf(loc Location, format string, args ...interface{}) error {
	return &SyntaxError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// readRune returns the next input rune, or 0, io.EOF at end of input.
func (lx *Lexer) readRune() (rune, error) {
	if lx.haveRune {
		lx.haveRune = false
		return lx.rune, nil
	}
	r, _, err := lx.rr.ReadRune()
	if err != nil {
		return 0, err
	}
	lx.offset++
	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r, nil
}

func (lx *Lexer) unreadRune(r rune) {
	lx.haveRune = true
	lx.rune = r
	// position bookkeeping is best-effort on unread: since we only ever
	// push back a single just-read rune before consuming it again, the
	// line/col counters are corrected by the next readRune call undoing
	// what it just did would require a full stack; instead we simply
	// decrement col (newlines are never pushed back by this lexer).
	if r != '\n' {
		lx.col--
		lx.offset--
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() (Token, error) {
	if lx.peeked == nil && lx.peekedErr == nil {
		tok, err := lx.lex()
		lx.peeked = &tok
		lx.peekedErr = err
	}
	if lx.peekedErr != nil {
		return Token{}, lx.peekedErr
	}
	return *lx.peeked, nil
}

// Next consumes and returns the next token.
func (lx *Lexer) Next() (Token, error) {
	if lx.peeked != nil || lx.peekedErr != nil {
		tok, err := *lx.peeked, lx.peekedErr
		lx.peeked, lx.peekedErr = nil, nil
		return tok, err
	}
	return lx.lex()
}

func isIdentStart(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isIdentCont(r rune) bool  { return isIdentStart(r) || (r >= '0' && r <= '9') }
func isDigit(r rune) bool      { return r >= '0' && r <= '9' }

func (lx *Lexer) lex() (Token, error) {
	if err := lx.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	loc := lx.loc()
	r, err := lx.readRune()
	if err == io.EOF {
		return Token{Kind: EOF, Loc: loc}, nil
	}
	if err != nil {
		return Token{}, err
	}

	switch {
	case isIdentStart(r):
		return lx.lexIdent(loc, r)
	case isDigit(r):
		return lx.lexNumber(loc, r)
	case r == '"':
		return lx.lexString(loc)
	default:
		return lx.lexOperator(loc, r)
	}
}

func (lx *Lexer) skipSpaceAndComments() error {
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			continue
		case r == '/':
			r2, err := lx.readRune()
			if err != nil && err != io.EOF {
				return err
			}
			switch r2 {
			case '/':
				for {
					r3, err := lx.readRune()
					if err != nil || r3 == '\n' {
						break
					}
				}
				continue
			case '*':
				if err := lx.skipBlockComment(); err != nil {
					return err
				}
				continue
			default:
				if err != io.EOF {
					lx.unreadRune(r2)
				}
				lx.unreadRune(r)
				return nil
			}
		default:
			lx.unreadRune(r)
			return nil
		}
	}
}

func (lx *Lexer) skipBlockComment() error {
	startLoc := lx.loc()
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			return lx.errorf(startLoc, "unterminated block comment")
		}
		if err != nil {
			return err
		}
		if r == '*' {
			r2, err := lx.readRune()
			if err == io.EOF {
				return lx.errorf(startLoc, "unterminated block comment")
			}
			if err != nil {
				return err
			}
			if r2 == '/' {
				return nil
			}
			lx.unreadRune(r2)
		}
	}
}

func (lx *Lexer) lexIdent(loc Location, first rune) (Token, error) {
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Token{}, err
		}
		if !isIdentCont(r) {
			lx.unreadRune(r)
			break
		}
		sb.WriteRune(r)
	}
	text := sb.String()

	if text == "hash" {
		if tok, ok, err := lx.tryHashLiteral(loc); err != nil {
			return Token{}, err
		} else if ok {
			return tok, nil
		}
	}

	if Keywords[text] {
		return Token{Kind: Keyword, Loc: loc, Text: text}, nil
	}
	return Token{Kind: Ident, Loc: loc, Text: text}, nil
}

// tryHashLiteral recognizes `hash("name")` immediately following an
// identifier lexed as "hash", per spec.md §4.1: "hash literal (a literal
// hash("name") resolved at lex time)". If what follows isn't `("...")`,
// the consumed runes are pushed back and ok is false so the caller falls
// through to treating "hash" as a plain identifier/keyword.
func (lx *Lexer) tryHashLiteral(loc Location) (Token, bool, error) {
	r, err := lx.readRune()
	if err == io.EOF {
		return Token{}, false, nil
	}
	if err != nil {
		return Token{}, false, err
	}
	if r != '(' {
		lx.unreadRune(r)
		return Token{}, false, nil
	}
	r2, err := lx.readRune()
	if err != nil {
		if err == io.EOF {
			return Token{}, false, lx.errorf(loc, "unterminated hash literal")
		}
		return Token{}, false, err
	}
	if r2 != '"' {
		// Not a hash literal shape; this lexer does not support arbitrary
		// backtracking past the '(' so a bare `hash(` that isn't a string
		// literal is a syntax error rather than silently falling back.
		return Token{}, false, lx.errorf(loc, "expected string literal after hash(")
	}
	strTok, err := lx.lexString(loc)
	if err != nil {
		return Token{}, false, err
	}
	r3, err := lx.readRune()
	if err != nil || r3 != ')' {
		return Token{}, false, lx.errorf(loc, "expected ')' to close hash literal")
	}
	return Token{Kind: HashLit, Loc: loc, Text: strTok.Text}, true, nil
}

func (lx *Lexer) lexNumber(loc Location, first rune) (Token, error) {
	var sb strings.Builder
	sb.WriteRune(first)
	isFloat := false
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Token{}, err
		}
		switch {
		case isDigit(r):
			sb.WriteRune(r)
		case r == '.' && !isFloat:
			isFloat = true
			sb.WriteRune(r)
		default:
			lx.unreadRune(r)
			goto done
		}
	}
done:
	text := sb.String()
	if isFloat {
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Token{}, lx.errorf(loc, "invalid float literal %q: %v", text, err)
		}
		return Token{Kind: FloatLit, Loc: loc, Float: f}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, lx.errorf(loc, "integer literal %q overflows: %v", text, err)
	}
	if n > int64(int32(^uint32(0)>>1)) || n < int64(-int32(^uint32(0)>>1)-1) {
		return Token{}, lx.errorf(loc, "integer literal %q overflows int32", text)
	}
	return Token{Kind: IntLit, Loc: loc, Int: n}, nil
}

func (lx *Lexer) lexString(loc Location) (Token, error) {
	var sb strings.Builder
	for {
		r, err := lx.readRune()
		if err == io.EOF {
			return Token{}, lx.errorf(loc, "unterminated string literal")
		}
		if err != nil {
			return Token{}, err
		}
		if r == '"' {
			return Token{Kind: StringLit, Loc: loc, Text: sb.String()}, nil
		}
		if r == '\n' {
			return Token{}, lx.errorf(loc, "unterminated string literal (newline)")
		}
		if r != '\\' {
			sb.WriteRune(r)
			continue
		}
		esc, err := lx.readRune()
		if err != nil {
			return Token{}, lx.errorf(loc, "unterminated escape sequence")
		}
		switch esc {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case 'r':
			sb.WriteRune('\r')
		case '\\':
			sb.WriteRune('\\')
		case '"':
			sb.WriteRune('"')
		case '0':
			sb.WriteRune(0)
		default:
			return Token{}, lx.errorf(lx.loc(), "invalid escape sequence \\%c", esc)
		}
	}
}

func (lx *Lexer) lexOperator(loc Location, r rune) (Token, error) {
	two := func(second rune, withSecond, without OpKind) (Token, error) {
		r2, err := lx.readRune()
		if err == nil && r2 == second {
			return Token{Kind: Operator, Loc: loc, Op: withSecond}, nil
		}
		if err == nil {
			lx.unreadRune(r2)
		}
		return Token{Kind: Operator, Loc: loc, Op: without}, nil
	}

	switch r {
	case '+':
		return two('=', OpPlusEq, OpPlus)
	case '-':
		return two('=', OpMinusEq, OpMinus)
	case '*':
		return two('=', OpStarEq, OpStar)
	case '/':
		return two('=', OpSlashEq, OpSlash)
	case '%':
		return two('=', OpPercentEq, OpPercent)
	case '=':
		return two('=', OpEq, OpAssign)
	case '!':
		return two('=', OpNe, OpBang)
	case '<':
		if r2, err := lx.readRune(); err == nil {
			if r2 == '<' {
				return Token{Kind: Operator, Loc: loc, Op: OpShl}, nil
			}
			if r2 == '=' {
				return Token{Kind: Operator, Loc: loc, Op: OpLe}, nil
			}
			lx.unreadRune(r2)
		}
		return Token{Kind: Operator, Loc: loc, Op: OpLt}, nil
	case '>':
		if r2, err := lx.readRune(); err == nil {
			if r2 == '>' {
				return Token{Kind: Operator, Loc: loc, Op: OpShr}, nil
			}
			if r2 == '=' {
				return Token{Kind: Operator, Loc: loc, Op: OpGe}, nil
			}
			lx.unreadRune(r2)
		}
		return Token{Kind: Operator, Loc: loc, Op: OpGt}, nil
	case '&':
		return two('&', OpAndAnd, OpAmp)
	case '|':
		return two('|', OpOrOr, OpPipe)
	case '^':
		return Token{Kind: Operator, Loc: loc, Op: OpCaret}, nil
	case '~':
		return Token{Kind: Operator, Loc: loc, Op: OpTilde}, nil
	case ':':
		return two(':', OpColonColon, OpColon)
	case '.':
		return Token{Kind: Operator, Loc: loc, Op: OpDot}, nil
	case '[':
		return Token{Kind: Operator, Loc: loc, Op: OpLBracket}, nil
	case ']':
		return Token{Kind: Operator, Loc: loc, Op: OpRBracket}, nil
	case '{':
		return Token{Kind: Operator, Loc: loc, Op: OpLBrace}, nil
	case '}':
		return Token{Kind: Operator, Loc: loc, Op: OpRBrace}, nil
	case '(':
		return Token{Kind: Operator, Loc: loc, Op: OpLParen}, nil
	case ')':
		return Token{Kind: Operator, Loc: loc, Op: OpRParen}, nil
	case ',':
		return Token{Kind: Operator, Loc: loc, Op: OpComma}, nil
	case ';':
		return Token{Kind: Operator, Loc: loc, Op: OpSemi}, nil
	case '?':
		return Token{Kind: Operator, Loc: loc, Op: OpQuestion}, nil
	default:
		return Token{}, lx.errorf(loc, "unexpected character %q", r)
	}
}
