package coretools

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/harun/toolplan/pkg/toolexecutor"
)

const (
	maxExpressionLength = 1024
	maxExpressionDepth  = 64
)

// Evaluate computes an arithmetic expression. The grammar is closed:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "//") unary }
//	unary   = ("+" | "-") unary | power
//	power   = primary [ "**" unary ]
//	primary = number | "(" expr ")"
//
// Anything else, identifiers included, is a syntax error.
func Evaluate(expression string) (float64, error) {
	if len(expression) > maxExpressionLength {
		return 0, fmt.Errorf("expression too long")
	}
	p := &exprParser{src: expression}
	p.skipSpace()
	if p.done() {
		return 0, fmt.Errorf("empty expression")
	}
	v, err := p.expr(0)
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if !p.done() {
		return 0, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos+1)
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return v, nil
}

// FormatNumber renders a result without a trailing ".0" for whole numbers.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) done() bool { return p.pos >= len(p.src) }

func (p *exprParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n') {
		p.pos++
	}
}

// accept consumes tok if it is next.
func (p *exprParser) accept(tok string) bool {
	p.skipSpace()
	if len(p.src)-p.pos >= len(tok) && p.src[p.pos:p.pos+len(tok)] == tok {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *exprParser) expr(depth int) (float64, error) {
	if depth > maxExpressionDepth {
		return 0, fmt.Errorf("expression nested too deeply")
	}
	left, err := p.term(depth)
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept("+"):
			right, err := p.term(depth)
			if err != nil {
				return 0, err
			}
			left += right
		case p.accept("-"):
			right, err := p.term(depth)
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) term(depth int) (float64, error) {
	left, err := p.unary(depth)
	if err != nil {
		return 0, err
	}
	for {
		switch {
		case p.accept("//"):
			right, err := p.unary(depth)
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left = math.Floor(left / right)
		case p.accept("*"):
			right, err := p.unary(depth)
			if err != nil {
				return 0, err
			}
			left *= right
		case p.accept("/"):
			right, err := p.unary(depth)
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) unary(depth int) (float64, error) {
	if depth > maxExpressionDepth {
		return 0, fmt.Errorf("expression nested too deeply")
	}
	switch {
	case p.accept("-"):
		v, err := p.unary(depth + 1)
		return -v, err
	case p.accept("+"):
		return p.unary(depth + 1)
	}
	return p.power(depth)
}

func (p *exprParser) power(depth int) (float64, error) {
	base, err := p.primary(depth)
	if err != nil {
		return 0, err
	}
	if p.accept("**") {
		exp, err := p.unary(depth + 1)
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

func (p *exprParser) primary(depth int) (float64, error) {
	p.skipSpace()
	if p.done() {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	if p.accept("(") {
		v, err := p.expr(depth + 1)
		if err != nil {
			return 0, err
		}
		if !p.accept(")") {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		return v, nil
	}

	start := p.pos
	dots := 0
	for !p.done() {
		c := p.src[p.pos]
		if c == '.' {
			dots++
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("unexpected %q at position %d", p.src[p.pos], p.pos+1)
	}
	lit := p.src[start:p.pos]
	if dots > 1 || lit == "." {
		return 0, fmt.Errorf("invalid number %q", lit)
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", lit)
	}
	return v, nil
}

func mathTools(opts Options) []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{
		{
			Name:        "calculate_expression",
			Description: "Evaluate an arithmetic expression (numbers, + - * / // **, parentheses).",
			Parameters: []toolexecutor.ToolParameter{
				{Name: "expression", Description: "Arithmetic expression", Required: true},
			},
			Returns: "the numeric result as text",
			Handler: func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
				expr, err := requiredString(params, "expression")
				if err != nil {
					return nil, err
				}
				v, err := Evaluate(expr)
				if err != nil {
					return nil, err
				}
				return FormatNumber(v), nil
			},
		},
	}
}
