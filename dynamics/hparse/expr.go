package hparse

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
)

var braceRe = regexp.MustCompile(`\{[^{}]*\}`)

// substituteTemplate resolves every "{...}" group in template against
// a loop variable bound to value, the same textual-substitution role
// TryEvaluateExpression plays in HamiltonianSumTerm::fromString:
// "{i}" becomes the literal index, "{i+1}" becomes index+1, etc.
func substituteTemplate(template string, varName string, value int) (string, error) {
	var outerErr error
	result := braceRe.ReplaceAllStringFunc(template, func(group string) string {
		if outerErr != nil {
			return group
		}
		inner := group[1 : len(group)-1]
		v, err := evalExpr(inner, map[string]float64{varName: float64(value)})
		if err != nil {
			outerErr = err
			return group
		}
		if v == float64(int(v)) {
			return strconv.Itoa(int(v))
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	})
	if outerErr != nil {
		return "", outerErr
	}
	return result, nil
}

// evalExpr evaluates a small scalar arithmetic expression (+, -, *,
// /, unary minus, parens, numeric literals, and variable lookups
// against vars), the role exprtk plays in the original for both
// Hamiltonian coefficients and _SUM template substitution.
func evalExpr(expr string, vars map[string]float64) (float64, error) {
	p := &exprParser{src: expr, vars: vars}
	p.skipSpace()
	v, err := p.parseAddSub()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, dynerr.ParseError{Reason: fmt.Sprintf("unexpected trailing input in expression %q", expr)}
	}
	return v, nil
}

type exprParser struct {
	src  string
	pos  int
	vars map[string]float64
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) parseAddSub() (float64, error) {
	v, err := p.parseMulDiv()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+':
			p.pos++
			rhs, err := p.parseMulDiv()
			if err != nil {
				return 0, err
			}
			v += rhs
		case '-':
			p.pos++
			rhs, err := p.parseMulDiv()
			if err != nil {
				return 0, err
			}
			v -= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseMulDiv() (float64, error) {
	v, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*':
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			v *= rhs
		case '/':
			p.pos++
			rhs, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if rhs == 0 {
				return 0, dynerr.ParseError{Reason: "division by zero in expression"}
			}
			v /= rhs
		default:
			return v, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpace()
	if p.peek() == '-' {
		p.pos++
		v, err := p.parseUnary()
		return -v, err
	}
	if p.peek() == '+' {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		v, err := p.parseAddSub()
		if err != nil {
			return 0, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return 0, dynerr.ParseError{Reason: "unmatched ( in expression"}
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	if unicode.IsDigit(rune(p.peek())) || p.peek() == '.' {
		for p.pos < len(p.src) && (unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
			p.pos++
		}
		return strconv.ParseFloat(p.src[start:p.pos], 64)
	}

	if isIdentStart(p.peek()) {
		for p.pos < len(p.src) && isIdentPart(p.src[p.pos]) {
			p.pos++
		}
		name := p.src[start:p.pos]
		v, ok := p.vars[name]
		if !ok {
			return 0, dynerr.ParseError{Reason: fmt.Sprintf("unresolved variable %q", name)}
		}
		return v, nil
	}

	return 0, dynerr.ParseError{Reason: fmt.Sprintf("unexpected character %q in expression at position %d", string(rune(p.peek())), p.pos)}
}

func isIdentStart(b byte) bool {
	return unicode.IsLetter(rune(b)) || b == '_'
}

func isIdentPart(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)) || b == '_'
}
