// Package hamiltonian implements the Hamiltonian Builder: it
// accumulates static terms, Lindblad collapse operators, and
// time-dependent term references, then assembles the sparse
// Schrödinger- or Liouville-space operator the Time Integrator
// drives. Grounded on solver.c's time_step, which picks solve_A
// between full_A (Lindblad present) and ham_A (pure Schrödinger) and
// rebuilds the time-dependent part from cached per-term matrices.
package hamiltonian

import (
	"fmt"

	"github.com/kegliz/qplay-dynamics/dynamics/kron"
	"github.com/kegliz/qplay-dynamics/dynamics/lak"
	"github.com/kegliz/qplay-dynamics/dynamics/lak/dense"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

// TimeDepTerm is a single time-dependent contribution: its Schrödinger-
// space contributions (pre-computed, to be scaled by the pulse
// coefficient at each RHS call) and the channel id its coefficient
// function reads from.
type TimeDepTerm struct {
	ChannelID int
	// SchContribs are the Schrödinger-space (row,col,value) entries
	// for the bare operator (coefficient 1), i.e. O itself.
	SchContribs []lak.Entry
}

// Lindblad is a collapse operator L with decay rate kappa >= 0.
type Lindblad struct {
	L     [][]complex128 // dense D x D Schrödinger-space operator
	Kappa float64
}

// Builder accumulates Hamiltonian terms against a fixed Operator
// Registry. It mutates internal state with every Add* call and
// freezes everything on Assemble, mirroring the teacher's
// options-struct-then-mutate constructor idiom.
type Builder struct {
	registry *qubit.Registry

	constContribs []lak.Entry // accumulated Schrödinger-space static contributions
	timeDeps      []TimeDepTerm
	lindblads     []Lindblad

	assembled bool
}

// NewBuilder creates a Builder bound to the given registry. The
// registry must already have every site added (system size fixed)
// before any term is added.
func NewBuilder(registry *qubit.Registry) *Builder {
	return &Builder{registry: registry}
}

// HasLindblad reports whether any dissipator has been registered,
// i.e. whether solve_A must be full_A (Liouville) rather than ham_A
// (Schrödinger).
func (b *Builder) HasLindblad() bool { return len(b.lindblads) > 0 }

func (b *Builder) site(q int) (qubit.Site, error) {
	return b.registry.Site(q)
}

// AddConstTerm1 adds a static single-operator term c*op(q).
func (b *Builder) AddConstTerm1(op qubit.Operator, q int, c complex128) error {
	if b.assembled {
		return fmt.Errorf("hamiltonian: AddConstTerm1 after Assemble")
	}
	site, err := b.site(q)
	if err != nil {
		return err
	}
	b.constContribs = append(b.constContribs, kron.Embed1(c, op, site, b.registry.GlobalDim())...)
	return nil
}

// AddConstTerm2 adds a static two-operator term c*op1(q1)*op2(q2).
func (b *Builder) AddConstTerm2(op1 qubit.Operator, q1 int, op2 qubit.Operator, q2 int, c complex128) error {
	if b.assembled {
		return fmt.Errorf("hamiltonian: AddConstTerm2 after Assemble")
	}
	s1, err := b.site(q1)
	if err != nil {
		return err
	}
	s2, err := b.site(q2)
	if err != nil {
		return err
	}
	b.constContribs = append(b.constContribs, kron.Embed2(c, op1, s1, op2, s2, b.registry.GlobalDim())...)
	return nil
}

// AddTimeDepTerm1 registers a single-operator term op(q) bound to
// channel channelID, coefficient resolved at integration time by the
// Pulse Channel Controller. The bare-operator contributions (c=1) are
// cached now so the RHS callback only needs to rescale, not
// re-embed, at every step.
func (b *Builder) AddTimeDepTerm1(op qubit.Operator, q int, channelID int) error {
	if b.assembled {
		return fmt.Errorf("hamiltonian: AddTimeDepTerm1 after Assemble")
	}
	site, err := b.site(q)
	if err != nil {
		return err
	}
	contribs := kron.Embed1(1, op, site, b.registry.GlobalDim())
	b.timeDeps = append(b.timeDeps, TimeDepTerm{ChannelID: channelID, SchContribs: contribs})
	return nil
}

// AddTimeDepTerm2 registers a two-operator time-dependent term.
func (b *Builder) AddTimeDepTerm2(op1 qubit.Operator, q1 int, op2 qubit.Operator, q2 int, channelID int) error {
	if b.assembled {
		return fmt.Errorf("hamiltonian: AddTimeDepTerm2 after Assemble")
	}
	s1, err := b.site(q1)
	if err != nil {
		return err
	}
	s2, err := b.site(q2)
	if err != nil {
		return err
	}
	contribs := kron.Embed2(1, op1, s1, op2, s2, b.registry.GlobalDim())
	b.timeDeps = append(b.timeDeps, TimeDepTerm{ChannelID: channelID, SchContribs: contribs})
	return nil
}

// AddQubitDecay registers a Lindblad term with L = SM_q and rate
// kappa, automatically switching the integrator to Liouville mode
// (solve_A := full_A) once Assemble is called.
func (b *Builder) AddQubitDecay(q int, kappa float64) error {
	if b.assembled {
		return fmt.Errorf("hamiltonian: AddQubitDecay after Assemble")
	}
	site, err := b.site(q)
	if err != nil {
		return err
	}
	dim := b.registry.GlobalDim()
	local := qubit.Dense(qubit.SM, site)
	full := make([][]complex128, dim)
	for i := range full {
		full[i] = make([]complex128, dim)
	}
	nAfter := site.NAfter(dim)
	for r := 0; r < site.Levels; r++ {
		for c := 0; c < site.Levels; c++ {
			v := local[r][c]
			if v == 0 {
				continue
			}
			for before := 0; before < site.NBefore; before++ {
				for after := 0; after < nAfter; after++ {
					row := (before*site.Levels+r)*nAfter + after
					col := (before*site.Levels+c)*nAfter + after
					full[row][col] = v
				}
			}
		}
	}
	b.lindblads = append(b.lindblads, Lindblad{L: full, Kappa: kappa})
	return nil
}

// Assembled is the frozen output of Assemble: ham_A (Schrödinger-
// space), full_A (Liouville-space, populated only when Lindblad terms
// exist), and the per-channel time-dependent matrices, all with the
// non-zero pattern pre-registered via kron.ZeroPattern.
type Assembled struct {
	Dim      int // Schrödinger-space dimension D
	HamA     *dense.Matrix
	FullA    *dense.Matrix // nil unless HasLindblad
	TimeDeps []TimeDepTerm
	// LiouvilleTimeDeps holds the same time-dependent terms re-embedded
	// into Liouville space (I⊗O − O⊗I, bare coefficient 1, the -i and
	// pulse-amplitude factors applied per step by the integrator),
	// populated only when HasLindblad.
	LiouvilleTimeDeps []TimeDepTerm
	Lindblads         []Lindblad
}

// SolveDim returns the dimension of whichever matrix the integrator
// should actually drive: D for Schrödinger, D^2 for Liouville.
func (a *Assembled) SolveDim() int {
	if a.FullA != nil {
		return a.Dim * a.Dim
	}
	return a.Dim
}

// Assemble freezes the builder and produces the Assembled matrix set.
// Calling Assemble twice is an error: once frozen the pattern may not
// be re-derived (spec.md's "after assembly the non-zero pattern is
// frozen").
func (b *Builder) Assemble() (*Assembled, error) {
	if b.assembled {
		return nil, fmt.Errorf("hamiltonian: Assemble called twice")
	}
	b.assembled = true

	d := b.registry.GlobalDim()
	hamA := dense.New(d, d)

	zeroPattern := kron.ZeroPattern(append([][]lak.Entry{b.constContribs}, timeDepContribsOnly(b.timeDeps)...)...)
	hamA.AddValues(zeroPattern)
	hamA.AddValues(b.constContribs)
	if err := hamA.Assemble(); err != nil {
		return nil, err
	}

	out := &Assembled{Dim: d, HamA: hamA, TimeDeps: b.timeDeps, Lindblads: b.lindblads}

	if b.HasLindblad() {
		fullDim := d * d
		fullA := dense.New(fullDim, fullDim)

		liouvilleConst := kron.EmbedLiouville(b.constContribs, d)
		scaleEntries(liouvilleConst, complex(0, -1))

		var liouvilleTD [][]lak.Entry
		out.LiouvilleTimeDeps = make([]TimeDepTerm, len(b.timeDeps))
		for i, td := range b.timeDeps {
			l := kron.EmbedLiouville(td.SchContribs, d)
			liouvilleTD = append(liouvilleTD, l)
			out.LiouvilleTimeDeps[i] = TimeDepTerm{ChannelID: td.ChannelID, SchContribs: l}
		}

		var dissipContribs []lak.Entry
		for _, lb := range b.lindblads {
			dissipContribs = append(dissipContribs, dissipatorContribs(lb, d)...)
		}

		zeroFull := kron.ZeroPattern(append(append([][]lak.Entry{liouvilleConst, dissipContribs}, liouvilleTD...))...)
		fullA.AddValues(zeroFull)
		fullA.AddValues(liouvilleConst)
		fullA.AddValues(dissipContribs)
		if err := fullA.Assemble(); err != nil {
			return nil, err
		}
		out.FullA = fullA
	}

	return out, nil
}

func timeDepContribsOnly(tds []TimeDepTerm) [][]lak.Entry {
	out := make([][]lak.Entry, len(tds))
	for i, td := range tds {
		out[i] = td.SchContribs
	}
	return out
}

func scaleEntries(entries []lak.Entry, c complex128) {
	for i := range entries {
		entries[i].Value *= c
	}
}

// dissipatorContribs computes the dense Liouville-space contribution
// of kappa*(L ⊗ conj(L) − 1/2 I⊗(L†L) − 1/2 (L†L)^T⊗I) acting on
// vec(rho) under row-major flattening, the standard GKSL
// superoperator form of kappa*(L rho L† − 1/2{L†L, rho}).
func dissipatorContribs(lb Lindblad, d int) []lak.Entry {
	l := lb.L
	lDag := conjTranspose(l)
	lDagL := matMulDense(lDag, l)

	var out []lak.Entry
	// L rho L†: vec form is (L ⊗ conj(L)) vec(rho) under row-major
	// flattening where the left Kronecker factor acts on the row
	// index and the right on the column index of rho.
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			lv := l[i][j]
			if lv == 0 {
				continue
			}
			for k := 0; k < d; k++ {
				for m := 0; m < d; m++ {
					cv := conj(l[k][m])
					if cv == 0 {
						continue
					}
					row := i*d + k
					col := j*d + m
					out = append(out, lak.Entry{Row: row, Col: col, Value: complex(lb.Kappa, 0) * lv * cv})
				}
			}
		}
	}

	// -1/2 (I ⊗ L†L) vec(rho): acts on the column index of rho.
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			v := lDagL[i][j]
			if v == 0 {
				continue
			}
			for k := 0; k < d; k++ {
				row := k*d + i
				col := k*d + j
				out = append(out, lak.Entry{Row: row, Col: col, Value: complex(-0.5*lb.Kappa, 0) * v})
			}
		}
	}

	// -1/2 (L†L)^T ⊗ I) vec(rho): acts on the row index of rho.
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			v := lDagL[j][i] // transpose
			if v == 0 {
				continue
			}
			for k := 0; k < d; k++ {
				row := i*d + k
				col := j*d + k
				out = append(out, lak.Entry{Row: row, Col: col, Value: complex(-0.5*lb.Kappa, 0) * v})
			}
		}
	}

	return out
}

func conj(c complex128) complex128 { return complex(real(c), -imag(c)) }

func conjTranspose(m [][]complex128) [][]complex128 {
	n := len(m)
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[j][i] = conj(m[i][j])
		}
	}
	return out
}

func matMulDense(a, b [][]complex128) [][]complex128 {
	n := len(a)
	out := make([][]complex128, n)
	for i := range out {
		out[i] = make([]complex128, n)
		for j := 0; j < n; j++ {
			var sum complex128
			for k := 0; k < n; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}
