package spt

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned when the input holds no statements at all.
var ErrEmpty = errors.New("spt: no statements")

// SyntaxError reports where and why a policy text failed to parse.
type SyntaxError struct {
	Offset int // byte offset into the input
	Line   int // 1-based
	Column int // 1-based, in bytes
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("spt: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokSemicolon
)

func (k tokenKind) String() string {
	switch k {
	case tokWord:
		return "keyword"
	case tokString:
		return "quoted string"
	case tokSemicolon:
		return `";"`
	default:
		return "end of input"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  int
	line int
	col  int
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func (l *lexer) errorf(pos, line, col int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Offset: pos, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			break
		}
		l.advance()
	}

	start, line, col := l.pos, l.line, l.col
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start, line: line, col: col}, nil
	}

	c := l.src[l.pos]
	switch {
	case c == ';':
		l.advance()
		return token{kind: tokSemicolon, text: ";", pos: start, line: line, col: col}, nil
	case c == '"':
		return l.lexString(start, line, col)
	case isWordByte(c):
		for l.pos < len(l.src) && isWordByte(l.src[l.pos]) {
			l.advance()
		}
		return token{kind: tokWord, text: l.src[start:l.pos], pos: start, line: line, col: col}, nil
	default:
		return token{}, l.errorf(start, line, col, "unexpected character %q", rune(c))
	}
}

// lexString reads a quoted string. Only \" and \\ are valid escapes.
func (l *lexer) lexString(start, line, col int) (token, error) {
	l.advance()

	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.advance()
		switch c {
		case '"':
			return token{kind: tokString, text: b.String(), pos: start, line: line, col: col}, nil
		case '\\':
			if l.pos >= len(l.src) {
				return token{}, l.errorf(start, line, col, "unterminated string")
			}
			escPos, escLine, escCol := l.pos, l.line, l.col
			esc := l.advance()
			if esc != '"' && esc != '\\' {
				return token{}, l.errorf(escPos, escLine, escCol, "invalid escape \\%c", esc)
			}
			b.WriteByte(esc)
		default:
			b.WriteByte(c)
		}
	}

	return token{}, l.errorf(start, line, col, "unterminated string")
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

type parser struct {
	lex *lexer
	tok token
}

// Parse reads one or more semicolon-terminated statements. Keywords match
// case-insensitively and effects are normalised to upper case. Any error is a
// *SyntaxError, or ErrEmpty for blank input.
func Parse(text string) ([]Statement, error) {
	p := &parser{lex: newLexer(text)}
	if err := p.scan(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return nil, ErrEmpty
	}

	var stmts []Statement
	for p.tok.kind != tokEOF {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// MustParse is like Parse but panics on error. Intended for tests and fixed
// policy literals.
func MustParse(text string) []Statement {
	stmts, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return stmts
}

func (p *parser) scan() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) fail(format string, args ...any) error {
	return p.lex.errorf(p.tok.pos, p.tok.line, p.tok.col, format, args...)
}

func (p *parser) describe() string {
	if p.tok.kind == tokWord {
		return fmt.Sprintf("%q", p.tok.text)
	}
	return p.tok.kind.String()
}

func (p *parser) statement() (Statement, error) {
	var stmt Statement

	if p.tok.kind != tokWord {
		return stmt, p.fail("expected ALLOW or DENY, found %s", p.describe())
	}
	stmt.Effect = Effect(strings.ToUpper(p.tok.text))
	if !stmt.Effect.Valid() {
		return stmt, p.fail("unknown effect %q", p.tok.text)
	}
	if err := p.scan(); err != nil {
		return stmt, err
	}

	var err error
	if stmt.Principal, err = p.clause("Principal"); err != nil {
		return stmt, err
	}
	if stmt.Action, err = p.clause("Action"); err != nil {
		return stmt, err
	}
	if stmt.Resource, err = p.clause("On"); err != nil {
		return stmt, err
	}

	if p.tok.kind == tokWord && strings.EqualFold(p.tok.text, "When") {
		if stmt.Condition, err = p.clause("When"); err != nil {
			return stmt, err
		}
	}

	if p.tok.kind != tokSemicolon {
		return stmt, p.fail(`expected ";" after statement, found %s`, p.describe())
	}
	return stmt, p.scan()
}

// clause consumes `<keyword> "<value>"` and returns the unquoted value. A
// When clause must not be empty, since an empty Condition means no clause.
func (p *parser) clause(keyword string) (string, error) {
	if p.tok.kind != tokWord || !strings.EqualFold(p.tok.text, keyword) {
		return "", p.fail("expected %s, found %s", keyword, p.describe())
	}
	if err := p.scan(); err != nil {
		return "", err
	}

	if p.tok.kind != tokString {
		return "", p.fail("expected quoted value after %s, found %s", keyword, p.describe())
	}
	value := p.tok.text
	if value == "" && keyword == "When" {
		return "", p.fail("empty condition after When; omit the clause instead")
	}
	return value, p.scan()
}
