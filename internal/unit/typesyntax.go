package unit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// typeExpr is a parsed type reference. Offsets are byte offsets into the
// reference text.
type typeExpr struct {
	Name      string
	Args      []*typeExpr
	Quest     []int // offsets of the trailing '?' markers
	Start     int
	End       int
	NameStart int
}

// SyntaxError reports malformed type reference text.
type SyntaxError struct {
	Text   string
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("type %q at %d: %s", e.Text, e.Offset, e.Msg)
}

type typeParser struct {
	text string
	pos  int
}

// parseType parses "Name", "Name?", "Name<T, U>" and "Name??".
func parseType(text string) (*typeExpr, error) {
	p := &typeParser{text: text}
	p.skipSpace()
	e, err := p.parseRef()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.text) {
		return nil, p.errorf("unexpected %q", p.text[p.pos:])
	}
	return e, nil
}

func (p *typeParser) parseRef() (*typeExpr, error) {
	e := &typeExpr{Start: p.pos, NameStart: p.pos}
	for p.pos < len(p.text) {
		r, size := utf8.DecodeRuneInString(p.text[p.pos:])
		if !isNameRune(r, p.pos == e.NameStart) {
			break
		}
		p.pos += size
	}
	if p.pos == e.NameStart {
		return nil, p.errorf("expected a type name")
	}
	e.Name = norm.NFC.String(p.text[e.NameStart:p.pos])

	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			p.skipSpace()
			arg, err := p.parseRef()
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, arg)
			p.skipSpace()
			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, p.errorf("expected ',' or '>'")
			}
			break
		}
	}
	for p.peek() == '?' {
		e.Quest = append(e.Quest, p.pos)
		p.pos++
	}
	e.End = p.pos
	return e, nil
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.text) {
		return 0
	}
	return p.text[p.pos]
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.text) && (p.text[p.pos] == ' ' || p.text[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) errorf(format string, args ...any) error {
	return &SyntaxError{Text: p.text, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func isNameRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	if first {
		return false
	}
	return r == '.' || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// String renders the expression back in canonical spacing.
func (e *typeExpr) String() string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	if len(e.Args) > 0 {
		sb.WriteByte('<')
		for i, a := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteByte('>')
	}
	sb.WriteString(strings.Repeat("?", len(e.Quest)))
	return sb.String()
}
