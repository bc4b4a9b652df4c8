package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// SyntaxError reports a malformed expression.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d in %q: %s", e.Pos, e.Input, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// two- and three-character operators, longest first
var operators = []string{"===", "!==", "==", "!=", "<=", ">=", "&&", "||"}

const singleOps = ".[]()?:!-+*/%<>"

func tokenize(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := rune(input[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '$' || c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(input) {
				r := rune(input[i])
				if r == '$' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
					i++
					continue
				}
				break
			}
			toks = append(toks, token{tokIdent, input[start:i], start})
		case unicode.IsDigit(c):
			start := i
			for i < len(input) && (unicode.IsDigit(rune(input[i])) || input[i] == '.') {
				i++
			}
			toks = append(toks, token{tokNumber, input[start:i], start})
		case c == '\'' || c == '"':
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < len(input) {
				if input[i] == '\\' && i+1 < len(input) {
					sb.WriteByte(input[i+1])
					i += 2
					continue
				}
				if rune(input[i]) == c {
					closed = true
					i++
					break
				}
				sb.WriteByte(input[i])
				i++
			}
			if !closed {
				return nil, &SyntaxError{Input: input, Pos: start, Msg: "unterminated string"}
			}
			toks = append(toks, token{tokString, sb.String(), start})
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(input[i:], op) {
					toks = append(toks, token{tokPunct, op, i})
					i += len(op)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
			if strings.ContainsRune(singleOps, c) {
				toks = append(toks, token{tokPunct, string(c), i})
				i++
				continue
			}
			return nil, &SyntaxError{Input: input, Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	toks = append(toks, token{tokEOF, "", len(input)})
	return toks, nil
}

type parser struct {
	input string
	toks  []token
	pos   int
}

// Parse parses a binding expression.
func Parse(input string) (Expression, error) {
	toks, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	p := &parser{input: input, toks: toks}
	if p.peek().kind == tokEOF {
		return nil, p.errorf("empty expression")
	}
	e, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf("unexpected %q", t.text)
	}
	return e, nil
}

// MustParse is like Parse but panics on error. Intended for static expressions.
func MustParse(input string) Expression {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(text string) bool {
	t := p.peek()
	if t.kind == tokPunct && t.text == text {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return p.errorf("expected %q, got %q", text, p.peek().text)
	}
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.input, Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) parseConditional() (Expression, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return cond, nil
	}
	yes, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	if err := p.expect(":"); err != nil {
		return nil, err
	}
	no, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	return &Conditional{Condition: cond, Yes: yes, No: no}, nil
}

// precedence levels, lowest first
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "===", "!=="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *parser) parseBinary(level int) (Expression, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokPunct || !contains(binaryLevels[level], t.text) {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		op := t.text
		if op == "===" || op == "!==" {
			op = op[:2]
		}
		left = &Binary{Op: op, Left: left, Right: right}
	}
}

func (p *parser) parseUnary() (Expression, error) {
	if p.accept("!") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "!", Operand: operand}, nil
	}
	if p.accept("-") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: "-", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expression, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			t := p.next()
			if t.kind != tokIdent {
				return nil, p.errorf("expected member name after '.'")
			}
			e = &AccessMember{Object: e, Name: t.text}
		case p.accept("["):
			key, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}
			e = &AccessKeyed{Object: e, Key: key}
		default:
			return e, nil
		}
	}
}

func (p *parser) parsePrimary() (Expression, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &SyntaxError{Input: p.input, Pos: t.pos, Msg: "invalid number " + t.text}
		}
		return &Literal{Value: f}, nil
	case tokString:
		return &Literal{Value: t.text}, nil
	case tokIdent:
		switch t.text {
		case "true":
			return &Literal{Value: true}, nil
		case "false":
			return &Literal{Value: false}, nil
		case "null", "undefined":
			return &Literal{Value: nil}, nil
		case "$this":
			return &AccessThis{}, nil
		case "$parent":
			return p.parseParent()
		}
		return &AccessScope{Name: t.text}, nil
	case tokPunct:
		if t.text == "(" {
			e, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return e, nil
		}
	}
	if t.kind == tokEOF {
		return nil, &SyntaxError{Input: p.input, Pos: t.pos, Msg: "unexpected end of expression"}
	}
	return nil, &SyntaxError{Input: p.input, Pos: t.pos, Msg: fmt.Sprintf("unexpected %q", t.text)}
}

// parseParent handles "$parent(.$parent)*(.name)?" after the first $parent was consumed.
func (p *parser) parseParent() (Expression, error) {
	hops := 1
	for {
		if p.peek().kind != tokPunct || p.peek().text != "." {
			return &AccessThis{Ancestor: hops}, nil
		}
		next := p.toks[p.pos+1]
		if next.kind != tokIdent {
			return nil, p.errorf("expected name after '$parent.'")
		}
		p.pos += 2
		if next.text == "$parent" {
			hops++
			continue
		}
		return &AccessScope{Name: next.text, Ancestor: hops}, nil
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
