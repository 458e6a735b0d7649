// Package hparse implements the Hamiltonian Parser: textual terms
// with _SUM loop macros, ||Dk/||Uk time-dependent channel binding,
// and (A±B) distribution, per spec.md 4.4. Grounded on
// original_source/xacc/Utils/Hamiltonian.cpp's GetLastOperator /
// UnwrapOpExpresion / HamiltonianSumTerm::fromString algorithm,
// reexpressed as a left-to-right recursive-descent parser instead of
// the original's back-to-front find_last_of("*") string slicing.
package hparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
	"github.com/kegliz/qplay-dynamics/dynamics/pulse"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

// OpRef names a single-site operator appearing in a term.
type OpRef struct {
	Op   qubit.Operator
	Site int
}

// Term is a parsed coefficient times a product of 1 or 2 site
// operators, optionally bound to a time-dependent channel name.
// Channel is empty for a static term.
type Term struct {
	Coef    complex128
	Ops     []OpRef
	Channel string
}

// Parse parses a single Hamiltonian grammar string against a variable
// environment, returning every physical term it expands to ("_SUM"
// unrolling and "(A±B)" distribution both produce more than one Term
// from a single input string). Returns a dynerr.ParseError or
// dynerr.ContractViolation on any grammar violation; the caller sees
// no partial Hamiltonian mutation since Parse itself builds no
// Hamiltonian state.
func Parse(s string, vars map[string]float64) ([]Term, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, dynerr.ParseError{Reason: "empty term"}
	}

	if strings.HasPrefix(s, "_SUM[") {
		return parseSum(s, vars)
	}
	return parseChanneled(s, vars)
}

// parseSum parses "_SUM[var,start,end,expr]" and unrolls it into the
// literal sum of expr[var<-start] + ... + expr[var<-end], inclusive
// both ends.
func parseSum(s string, vars map[string]float64) ([]Term, error) {
	if !strings.HasSuffix(s, "]") {
		return nil, dynerr.ParseError{Reason: "_SUM missing closing ]"}
	}
	inner := s[len("_SUM[") : len(s)-1]

	parts, err := splitTopLevel(inner, ',')
	if err != nil {
		return nil, err
	}
	if len(parts) != 4 {
		return nil, dynerr.ParseError{Reason: fmt.Sprintf("_SUM expects 4 comma-separated fields, got %d", len(parts))}
	}

	varName := strings.TrimSpace(parts[0])
	if varName == "" {
		return nil, dynerr.ParseError{Reason: "_SUM loop variable name is empty"}
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, dynerr.ParseError{Reason: fmt.Sprintf("_SUM start bound %q is not an integer", parts[1])}
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, dynerr.ParseError{Reason: fmt.Sprintf("_SUM end bound %q is not an integer", parts[2])}
	}
	exprTemplate := parts[3]

	if strings.Contains(exprTemplate, "_SUM[") {
		return nil, dynerr.ParseError{Reason: "nested _SUM is not supported"}
	}

	var out []Term
	for i := start; i <= end; i++ {
		resolved, err := substituteTemplate(exprTemplate, varName, i)
		if err != nil {
			return nil, err
		}
		terms, err := parseChanneled(resolved, vars)
		if err != nil {
			return nil, err
		}
		out = append(out, terms...)
	}
	return out, nil
}

// parseChanneled splits off an optional "||channel" suffix, parses
// the static-term body, and stamps the channel (if any) onto every
// term the body expands to, so that "c*(A±B)||Ch" distributes into
// "c*A||Ch ± c*B||Ch" as required.
func parseChanneled(s string, vars map[string]float64) ([]Term, error) {
	parts, err := splitTopLevel(s, '|')
	if err != nil {
		return nil, err
	}
	// "||" shows up as two adjacent '|' separators; splitTopLevel on a
	// single '|' yields an empty middle field for "A||B".
	var body, channel string
	switch len(parts) {
	case 1:
		body = parts[0]
	case 3:
		if strings.TrimSpace(parts[1]) != "" {
			return nil, dynerr.ParseError{Reason: "malformed channel separator, expected ||"}
		}
		body = parts[0]
		channel = strings.TrimSpace(parts[2])
	default:
		return nil, dynerr.ParseError{Reason: "malformed channel separator, expected at most one ||"}
	}

	if channel != "" {
		if _, _, err := pulse.ParseChannelName(channel); err != nil {
			return nil, err
		}
	}

	terms, err := parseStaticExpr(body, vars)
	if err != nil {
		return nil, err
	}
	if channel != "" {
		for i := range terms {
			terms[i].Channel = channel
		}
	}
	return terms, nil
}

// parseStaticExpr parses "coef*opAtSite", "coef*op1Q1*op2Q2", or
// "coef*(A±B)" (distribution), splitting on '*' at paren depth 0 and
// peeling operator operands off the right, following the same
// right-to-left structure as GetLastOperator without its
// find_last_of string-index bookkeeping.
func parseStaticExpr(s string, vars map[string]float64) ([]Term, error) {
	s = strings.TrimSpace(s)
	segs, err := splitTopLevel(s, '*')
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, dynerr.ParseError{Reason: "empty static term"}
	}

	var ops []OpRef
	var dist []distEntry
	i := len(segs) - 1
	for i >= 0 {
		seg := strings.TrimSpace(segs[i])
		if dist == nil && len(ops) == 0 && isParenGroup(seg) {
			inner := seg[1 : len(seg)-1]
			d, err := parseDistribution(inner, vars)
			if err != nil {
				return nil, err
			}
			dist = d
			i--
			continue
		}
		if op, site, err := parseOpAtSite(seg); err == nil && len(ops) < 2 && dist == nil {
			ops = append([]OpRef{{Op: op, Site: site}}, ops...)
			i--
			continue
		}
		break
	}

	coefExpr := strings.Join(segs[:i+1], "*")
	if strings.TrimSpace(coefExpr) == "" {
		coefExpr = "1"
	}
	coefVal, err := evalExpr(coefExpr, vars)
	if err != nil {
		return nil, err
	}
	coef := complex(coefVal, 0)

	if dist != nil {
		var out []Term
		for _, d := range dist {
			full := append(append([]OpRef{}, ops...), OpRef{Op: d.Op, Site: d.Site})
			if len(full) > 2 {
				return nil, dynerr.ContractViolation{Reason: "term has more than two operators"}
			}
			out = append(out, Term{Coef: coef * complex(d.Sign, 0) * d.Coef, Ops: full})
		}
		return out, nil
	}

	if len(ops) == 0 {
		return nil, dynerr.ParseError{Reason: fmt.Sprintf("no operator found in term %q", s)}
	}
	if len(ops) > 2 {
		return nil, dynerr.ContractViolation{Reason: "term has more than two operators"}
	}
	return []Term{{Coef: coef, Ops: ops}}, nil
}

type distEntry struct {
	Op   qubit.Operator
	Site int
	Sign float64
	Coef complex128
}

// parseDistribution parses the inside of a "(A±B)" group into signed
// operand entries. Each operand may itself carry its own "coef*"
// prefix (e.g. "2*X0-Y0"); a bare operand defaults to coefficient 1.
func parseDistribution(inner string, vars map[string]float64) ([]distEntry, error) {
	segs, signs, err := splitSigned(inner)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, dynerr.ParseError{Reason: "empty distribution group"}
	}

	var out []distEntry
	for idx, seg := range segs {
		seg = strings.TrimSpace(seg)
		terms, err := parseStaticExpr(seg, vars)
		if err != nil {
			return nil, err
		}
		if len(terms) != 1 || len(terms[0].Ops) != 1 {
			return nil, dynerr.ParseError{Reason: fmt.Sprintf("distribution operand %q must be a single single-site operator", seg)}
		}
		out = append(out, distEntry{Op: terms[0].Ops[0].Op, Site: terms[0].Ops[0].Site, Sign: signs[idx], Coef: complex(1, 0) * (terms[0].Coef)})
	}
	return out, nil
}

// parseOpAtSite splits a trailing run of digits (the site index) off
// a leading operator symbol, e.g. "X0" -> (X, 0), "SP12" -> (SP, 12).
func parseOpAtSite(s string) (qubit.Operator, int, error) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) || i == 0 {
		return 0, 0, dynerr.ParseError{Reason: fmt.Sprintf("%q is not an operator-at-site token", s)}
	}
	opStr := s[:i]
	siteStr := s[i:]
	site, err := strconv.Atoi(siteStr)
	if err != nil {
		return 0, 0, dynerr.ParseError{Reason: fmt.Sprintf("invalid site index in %q", s)}
	}
	op, err := qubit.ParseOperator(opStr)
	if err != nil {
		return 0, 0, err
	}
	return op, site, nil
}

// isParenGroup reports whether s is wrapped in a single matching
// outer pair of parentheses, e.g. "(X0+Y0)" but not "(X0)+(Y0)".
func isParenGroup(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// splitTopLevel splits s on every occurrence of sep that is not
// nested inside parentheses or brackets.
func splitTopLevel(s string, sep byte) ([]string, error) {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, dynerr.ParseError{Reason: "unmatched closing bracket"}
			}
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, dynerr.ParseError{Reason: "unmatched parentheses"}
	}
	out = append(out, s[start:])
	return out, nil
}

// splitSigned splits an expression like "X0+Y0-Z0" into operand
// strings and their signs ([+1,+1,-1] style, first operand's sign
// defaults to +1 unless explicitly prefixed by '-'), at paren depth
// 0. A leading unary sign is not a split point; every other '+' or
// '-' at depth 0 is, so exponent notation such as "1e-3" is not
// recognized.
func splitSigned(s string) ([]string, []float64, error) {
	var segs []string
	var signs []float64
	depth := 0
	start := 0
	sign := 1.0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
			if depth < 0 {
				return nil, nil, dynerr.ParseError{Reason: "unmatched closing bracket"}
			}
		case '+', '-':
			if depth == 0 {
				if i > start {
					segs = append(segs, s[start:i])
					signs = append(signs, sign)
				} else if i != 0 {
					return nil, nil, dynerr.ParseError{Reason: "empty operand in distribution group"}
				}
				sign = 1.0
				if s[i] == '-' {
					sign = -1.0
				}
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, nil, dynerr.ParseError{Reason: "unmatched parentheses"}
	}
	segs = append(segs, s[start:])
	signs = append(signs, sign)
	return segs, signs, nil
}
