package symbolic

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Parser
// ============================================================

// ParseError describes malformed input. It wraps ErrParse.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d in %q: %s", e.Pos, e.Input, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// ParseOptions restricts which identifiers are accepted.
type ParseOptions struct {
	// Variables lists the accepted symbol names. Empty accepts any
	// identifier that is not a function or constant.
	Variables []string
	// Reserved lists names that may never appear in input.
	Reserved []string
}

// Parse reads an infix expression. Supported: + - * / ^ **, unary signs,
// parentheses, exact decimal literals, the functions sin cos tan exp log ln
// sqrt abs asin acos atan arcsin arccos arctan sinh cosh tanh and the
// constants pi and e.
func Parse(input string, opts ParseOptions) (Expr, error) {
	p := &parser{input: input, opts: opts}
	if err := p.tokenize(); err != nil {
		return nil, err
	}
	if len(p.toks) == 1 {
		return nil, p.errAt(0, "empty expression")
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.errAt(tok.pos, fmt.Sprintf("unexpected %q", tok.text))
	}
	return e.Simplify(), nil
}

// MustParse is Parse with any-identifier options that panics on error.
func MustParse(input string) Expr {
	e, err := Parse(input, ParseOptions{})
	if err != nil {
		panic(err)
	}
	return e
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokNum
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	input string
	opts  ParseOptions
	toks  []token
	i     int
}

func (p *parser) errAt(pos int, msg string) error {
	return &ParseError{Input: p.input, Pos: pos, Msg: msg}
}

func (p *parser) tokenize() error {
	s := p.input
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case unicode.IsDigit(c) || (c == '.' && i+1 < len(s) && unicode.IsDigit(rune(s[i+1]))):
			start := i
			for i < len(s) && (unicode.IsDigit(rune(s[i])) || s[i] == '.') {
				i++
			}
			// Scientific notation only when digits follow the exponent marker.
			if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
				j := i + 1
				if j < len(s) && (s[j] == '+' || s[j] == '-') {
					j++
				}
				if j < len(s) && unicode.IsDigit(rune(s[j])) {
					for j < len(s) && unicode.IsDigit(rune(s[j])) {
						j++
					}
					i = j
				}
			}
			p.toks = append(p.toks, token{kind: tokNum, text: s[start:i], pos: start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(s) && (unicode.IsLetter(rune(s[i])) || unicode.IsDigit(rune(s[i])) || s[i] == '_') {
				i++
			}
			p.toks = append(p.toks, token{kind: tokIdent, text: s[start:i], pos: start})
		case c == '*' && i+1 < len(s) && s[i+1] == '*':
			p.toks = append(p.toks, token{kind: tokOp, text: "^", pos: i})
			i += 2
		case strings.ContainsRune("+-*/^", c):
			p.toks = append(p.toks, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			p.toks = append(p.toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			p.toks = append(p.toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		default:
			return p.errAt(i, fmt.Sprintf("unexpected character %q", c))
		}
	}
	p.toks = append(p.toks, token{kind: tokEOF, text: "end of input", pos: len(s)})
	return nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for p.isOp("+") || p.isOp("-") {
		op := p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if op.text == "-" {
			right = &Mul{factors: []Expr{N(-1), right}}
		}
		terms = append(terms, right)
	}
	if len(terms) == 1 {
		return left, nil
	}
	return &Add{terms: terms}, nil
}

// term := unary (('*' | '/') unary)*
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{left}
	for {
		switch t := p.peek(); {
		case p.isOp("*") || p.isOp("/"):
			op := p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if op.text == "/" {
				right = &Pow{base: right, exp: N(-1)}
			}
			factors = append(factors, right)
		case t.kind == tokNum || t.kind == tokIdent || t.kind == tokLParen:
			return nil, p.errAt(t.pos, fmt.Sprintf("missing operator before %q", t.text))
		default:
			if len(factors) == 1 {
				return left, nil
			}
			return &Mul{factors: factors}, nil
		}
	}
}

// unary := ('+' | '-') unary | power
func (p *parser) parseUnary() (Expr, error) {
	if p.isOp("-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Mul{factors: []Expr{N(-1), operand}}, nil
	}
	if p.isOp("+") {
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

// power := primary ('^' unary)?   (right-associative)
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Pow{base: base, exp: exp}, nil
	}
	return base, nil
}

var parseFuncs = map[string]string{
	"sin": "sin", "cos": "cos", "tan": "tan", "exp": "exp",
	"log": "ln", "ln": "ln", "sqrt": "sqrt", "abs": "abs",
	"asin": "asin", "arcsin": "asin", "acos": "acos", "arccos": "acos",
	"atan": "atan", "arctan": "atan", "sinh": "sinh", "cosh": "cosh", "tanh": "tanh",
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokNum:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, p.errAt(t.pos, fmt.Sprintf("invalid number %q", t.text))
		}
		return &Num{val: r}, nil
	case tokLParen:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errAt(closing.pos, "missing closing parenthesis")
		}
		return e, nil
	case tokIdent:
		return p.parseIdent(t)
	case tokEOF:
		return nil, p.errAt(t.pos, "unexpected end of input")
	}
	return nil, p.errAt(t.pos, fmt.Sprintf("unexpected %q", t.text))
}

func (p *parser) parseIdent(t token) (Expr, error) {
	if fn, ok := parseFuncs[t.text]; ok {
		if p.peek().kind != tokLParen {
			return nil, p.errAt(t.pos, fmt.Sprintf("function %s requires parentheses", t.text))
		}
		p.next()
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, p.errAt(closing.pos, "missing closing parenthesis")
		}
		if fn == "sqrt" {
			return &Pow{base: arg, exp: F(1, 2)}, nil
		}
		return funcOf(fn, arg), nil
	}
	for _, r := range p.opts.Reserved {
		if t.text == r {
			return nil, p.errAt(t.pos, fmt.Sprintf("%s is reserved for the integration constant", t.text))
		}
	}
	switch t.text {
	case "pi":
		return S("pi"), nil
	case "e", "E":
		return funcOf("exp", N(1)), nil
	}
	if p.peek().kind == tokLParen {
		return nil, p.errAt(t.pos, fmt.Sprintf("unknown function %q", t.text))
	}
	if len(p.opts.Variables) == 0 {
		return S(t.text), nil
	}
	for _, v := range p.opts.Variables {
		if t.text == v {
			return S(v), nil
		}
	}
	return nil, p.errAt(t.pos, fmt.Sprintf("unknown symbol %q (allowed: %s)", t.text, strings.Join(p.opts.Variables, ", ")))
}
