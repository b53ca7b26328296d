package logic

import (
	"fmt"
	"strings"
	"unicode"
)

// Parse builds an expression from its textual form, e.g.
// "AND(NOT(B), OR(A, X))". Combinator names are case-insensitive; node
// names are any run of letters, digits or underscores that is not a
// combinator. AND and OR take two or more operands, NOT exactly one.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("parsing %q: unexpected trailing input at offset %d", input, p.pos)
	}
	return expr, nil
}

// MustParse is Parse for expressions known to be valid at compile time,
// such as built-in demo topologies. It panics on error.
func MustParse(input string) Expr {
	expr, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return expr
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpr() (Expr, error) {
	p.skipSpace()
	name := p.readName()
	if name == "" {
		return nil, fmt.Errorf("parsing %q: expected node name or combinator at offset %d", p.input, p.pos)
	}

	switch strings.ToUpper(name) {
	case "AND", "OR", "NOT":
		args, err := p.parseArgs(strings.ToUpper(name))
		if err != nil {
			return nil, err
		}
		switch strings.ToUpper(name) {
		case "NOT":
			return Not(args[0]), nil
		case "AND":
			return And(args...), nil
		default:
			return Or(args...), nil
		}
	default:
		return Ref(name), nil
	}
}

func (p *parser) parseArgs(op string) ([]Expr, error) {
	p.skipSpace()
	if !p.consume('(') {
		return nil, fmt.Errorf("parsing %q: expected '(' after %s at offset %d", p.input, op, p.pos)
	}

	var args []Expr
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			break
		}
		return nil, fmt.Errorf("parsing %q: expected ',' or ')' at offset %d", p.input, p.pos)
	}

	if op == "NOT" && len(args) != 1 {
		return nil, fmt.Errorf("parsing %q: NOT takes exactly one operand, got %d", p.input, len(args))
	}
	if op != "NOT" && len(args) < 2 {
		return nil, fmt.Errorf("parsing %q: %s takes at least two operands, got %d", p.input, op, len(args))
	}
	return args, nil
}

func (p *parser) readName() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := rune(p.input[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' {
			break
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) consume(c byte) bool {
	if p.pos < len(p.input) && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}
