// Package qubit implements the Operator Registry: it owns per-site
// symbolic operators, assigns each site its tensor position, and
// computes the global Hilbert-space dimension. Grounded on the same
// site-indexing arithmetic qc/simulator/qsim/state.go uses for its
// statevector (levels-per-qubit as powers of two, generalized here to
// arbitrary qudit dimension).
package qubit

import (
	"fmt"
	"math"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
)

// Operator is one of the symbolic single-site operators the parser
// and Kron Assembler both honour.
type Operator int

const (
	I Operator = iota
	X
	Y
	Z
	SP // |1><0|
	SM // |0><1|
	N  // number operator a^dagger a
	A  // annihilation / lowering
	ADag
	RAISE // alias of ADag
	LOWER // alias of A
)

func (o Operator) String() string {
	switch o {
	case I:
		return "I"
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	case SP:
		return "SP"
	case SM:
		return "SM"
	case N:
		return "N"
	case A:
		return "a"
	case ADag:
		return "a†"
	case RAISE:
		return "RAISE"
	case LOWER:
		return "LOWER"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

// ParseOperator resolves a wire-level operator symbol, case-sensitive
// as specified by the grammar (operator names are conventionally
// upper-case), with SP/SM/ladder aliases.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "I":
		return I, nil
	case "X":
		return X, nil
	case "Y":
		return Y, nil
	case "Z":
		return Z, nil
	case "SP":
		return SP, nil
	case "SM":
		return SM, nil
	case "N":
		return N, nil
	case "a", "A":
		return A, nil
	case "a†", "ADAG", "Adag":
		return ADag, nil
	case "RAISE":
		return RAISE, nil
	case "LOWER":
		return LOWER, nil
	default:
		return 0, dynerr.ParseError{Reason: fmt.Sprintf("unknown operator symbol %q", s)}
	}
}

// Site is a single qudit: its tensor-position bookkeeping and level
// count.
type Site struct {
	Index   int
	Levels  int
	NBefore int // product of the level counts of all sites before this one
}

// NAfter returns the size of the tensor factor to the right of this
// site within a space of the given global dimension.
func (s Site) NAfter(globalDim int) int {
	return globalDim / (s.NBefore * s.Levels)
}

// Registry owns the ordered collection of sites making up a system
// and computes the global tensor-product dimension as sites are
// added. Non-goals per spec: every site shares the same level count
// once created, but the registry itself does not enforce uniformity —
// callers constructing mixed-level systems are on their own, since
// spec.md restricts itself to uniform qudit levels.
type Registry struct {
	sites []Site
	dim   int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{dim: 1}
}

// Add allocates a new site with the given level count (2 for a
// qubit), assigns its NBefore from the sites already registered, and
// returns it.
func (r *Registry) Add(levels int) Site {
	s := Site{Index: len(r.sites), Levels: levels, NBefore: r.dim}
	r.sites = append(r.sites, s)
	r.dim *= levels
	return s
}

// GlobalDim returns D, the product of every registered site's level
// count.
func (r *Registry) GlobalDim() int { return r.dim }

// NumSites returns the number of registered sites.
func (r *Registry) NumSites() int { return len(r.sites) }

// Site returns the site previously returned by the i-th Add call.
func (r *Registry) Site(i int) (Site, error) {
	if i < 0 || i >= len(r.sites) {
		return Site{}, fmt.Errorf("qubit: site index %d out of range [0,%d)", i, len(r.sites))
	}
	return r.sites[i], nil
}

// Dense returns the site-local d x d dense matrix for an operator,
// where d = site.Levels. For d == 2 this is the standard Pauli /
// raising-lowering projection; for d > 2, a/a† act as bosonic ladder
// operators with a|n> = sqrt(n)|n-1>, per spec.md 4.1.
func Dense(op Operator, site Site) [][]complex128 {
	d := site.Levels
	m := make([][]complex128, d)
	for i := range m {
		m[i] = make([]complex128, d)
	}

	switch op {
	case I:
		for i := 0; i < d; i++ {
			m[i][i] = 1
		}
	case X:
		twoLevelPauliX(m)
	case Y:
		twoLevelPauliY(m)
	case Z:
		twoLevelPauliZ(m)
	case SP:
		if d >= 2 {
			m[1][0] = 1
		}
	case SM:
		if d >= 2 {
			m[0][1] = 1
		}
	case N:
		for n := 0; n < d; n++ {
			m[n][n] = complex(float64(n), 0)
		}
	case A, LOWER:
		for n := 1; n < d; n++ {
			m[n-1][n] = complex(math.Sqrt(float64(n)), 0)
		}
	case ADag, RAISE:
		for n := 1; n < d; n++ {
			m[n][n-1] = complex(math.Sqrt(float64(n)), 0)
		}
	}
	return m
}

// twoLevelPauliX/Y/Z act on the {|0>,|1>} subspace of the site; higher
// levels (d>2) are left at zero, matching spec.md's "standard
// Pauli/identity on a two-level projection of the site".
func twoLevelPauliX(m [][]complex128) {
	if len(m) < 2 {
		return
	}
	m[0][1] = 1
	m[1][0] = 1
}

func twoLevelPauliY(m [][]complex128) {
	if len(m) < 2 {
		return
	}
	m[0][1] = complex(0, -1)
	m[1][0] = complex(0, 1)
}

func twoLevelPauliZ(m [][]complex128) {
	if len(m) < 1 {
		return
	}
	m[0][0] = 1
	if len(m) >= 2 {
		m[1][1] = -1
	}
}
