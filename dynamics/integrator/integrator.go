// Package integrator implements the Time Integrator: an adaptive
// explicit step (embedded Bogacki-Shampine 3(2)) with an optional
// linearly-implicit fallback for stiff static Hamiltonians, plus the
// two standing events every run carries - unconditional renormalization
// and discrete gate application - and the steady-state solve for
// Lindblad systems. Grounded on solver.c's time_step driver loop (pick
// solve_A, advance, renormalize, check the next scheduled gate) and
// the stabilization-row trick its steady_state routine uses.
package integrator

import (
	"math"
	"math/cmplx"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
	"github.com/kegliz/qplay-dynamics/dynamics/gate"
	"github.com/kegliz/qplay-dynamics/dynamics/hamiltonian"
	"github.com/kegliz/qplay-dynamics/dynamics/kron"
	"github.com/kegliz/qplay-dynamics/dynamics/lak"
	"github.com/kegliz/qplay-dynamics/dynamics/lak/dense"
	"github.com/kegliz/qplay-dynamics/dynamics/pulse"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

// Options tunes the adaptive step controller. Zero-value Options is
// replaced by DefaultOptions by New.
type Options struct {
	AbsTol       float64
	RelTol       float64
	MinStep      float64
	MaxGrowth    float64
	MinShrink    float64
	SafetyFactor float64
}

// DefaultOptions matches the tolerances solver.c's adaptive RK driver
// runs with by default.
func DefaultOptions() Options {
	return Options{
		AbsTol:       1e-9,
		RelTol:       1e-6,
		MinStep:      1e-12,
		MaxGrowth:    5,
		MinShrink:    0.2,
		SafetyFactor: 0.9,
	}
}

// Monitor is called once per accepted step (and once at t=0 before any
// step), the same role ts_monitor plays in the original: step index,
// current time, and the current state (Schrödinger statevector or
// row-major-flattened density matrix, per asm.FullA != nil).
type Monitor func(step int, t float64, x []complex128)

// Result summarizes a completed Run.
type Result struct {
	FinalTime     float64
	Steps         int
	Accepted      int
	Rejected      int
	GatesApplied  int
}

// Integrator drives one assembled Hamiltonian/Lindblad system forward
// in time, consulting a Pulse Channel Controller for time-dependent
// coefficients and a Gate Scheduler for discrete gate events.
type Integrator struct {
	asm      *hamiltonian.Assembled
	registry *qubit.Registry
	pulseCtl *pulse.Controller
	gates    *gate.Scheduler
	stiff    bool
	opts     Options
}

// New builds an Integrator. pulseCtl and gates may be nil (a purely
// static, gate-free system). stiff requests the linearly-implicit
// fallback step, which is rejected with a dynerr.InvalidState when the
// system carries Lindblad or time-dependent terms (spec.md's stiff
// solver is a Schrödinger-only, time-independent path).
func New(asm *hamiltonian.Assembled, registry *qubit.Registry, pulseCtl *pulse.Controller, gates *gate.Scheduler, stiff bool, opts Options) (*Integrator, error) {
	if stiff && (asm.FullA != nil || len(asm.TimeDeps) > 0) {
		return nil, dynerr.InvalidState{Reason: "stiff solver does not support Lindblad dissipation or time-dependent terms"}
	}
	if opts == (Options{}) {
		opts = DefaultOptions()
	}
	return &Integrator{asm: asm, registry: registry, pulseCtl: pulseCtl, gates: gates, stiff: stiff, opts: opts}, nil
}

func (it *Integrator) stateDim() int { return it.asm.SolveDim() }

// rhs evaluates dx/dt at (t,x): -i*H*x (Schrödinger) or L*x plus the
// pulse-weighted time-dependent contributions (Liouville, when
// Lindblad terms are present), per solver.c's time-dependent
// right-hand side assembly.
func (it *Integrator) rhs(t float64, x []complex128) []complex128 {
	n := it.stateDim()
	y := make([]complex128, n)

	if it.asm.FullA != nil {
		it.asm.FullA.MulVec(x, y)
		for _, td := range it.asm.LiouvilleTimeDeps {
			amp := it.amplitude(td.ChannelID, t)
			if amp == 0 {
				continue
			}
			applyEntries(td.SchContribs, x, y, complex(0, -amp))
		}
		return y
	}

	hy := make([]complex128, n)
	it.asm.HamA.MulVec(x, hy)
	for i := range y {
		y[i] = complex(0, -1) * hy[i]
	}
	for _, td := range it.asm.TimeDeps {
		amp := it.amplitude(td.ChannelID, t)
		if amp == 0 {
			continue
		}
		applyEntries(td.SchContribs, x, y, complex(0, -amp))
	}
	return y
}

func (it *Integrator) amplitude(channelID int, t float64) float64 {
	if it.pulseCtl == nil {
		return 0
	}
	return it.pulseCtl.Amplitude(channelID, t)
}

func applyEntries(entries []lak.Entry, x, y []complex128, scale complex128) {
	for _, e := range entries {
		y[e.Row] += scale * e.Value * x[e.Col]
	}
}

// Run advances x (mutated in place to the final state) from t=0 to
// tMax, taking at most stepsMax accepted steps, applying
// renormalization after every step and any scheduled gate whose time
// is reached. dt0 is the initial trial step.
func (it *Integrator) Run(x []complex128, tMax, dt0 float64, stepsMax int, monitor Monitor) (*Result, error) {
	t := 0.0
	h := dt0
	res := &Result{}

	if monitor != nil {
		monitor(0, t, x)
	}

	for t < tMax && res.Steps < stepsMax {
		hTry := h
		if t+hTry > tMax {
			hTry = tMax - t
		}
		// Clamp the trial step to land exactly on the next scheduled
		// gate's time rather than root-finding the Gate event's zero
		// crossing mid-step: the discrete-event equivalent of shrinking
		// h to the root, since our events are known in advance.
		var firingGate *gate.ScheduledGate
		if it.gates != nil {
			if next, ok := it.gates.Peek(); ok && next.Time > t && next.Time <= t+hTry {
				hTry = next.Time - t
				g := next
				firingGate = &g
			}
		}

		var xNew []complex128
		var err error
		hUsed := hTry
		var hNext float64
		if it.stiff {
			xNew, err = it.stepImplicit(t, x, hTry)
			hNext = hTry
		} else {
			xNew, hUsed, hNext, err = it.stepAdaptive(t, x, hTry, res)
		}
		if err != nil {
			return res, err
		}

		copy(x, xNew)
		t += hUsed
		res.Steps++
		res.Accepted++

		it.normalize(x)

		if firingGate != nil && hUsed == hTry {
			if _, ok := it.gates.Pop(); ok {
				if err := it.applyGate(*firingGate, x); err != nil {
					return res, err
				}
				res.GatesApplied++
			}
		}

		if monitor != nil {
			monitor(res.Steps, t, x)
		}

		h = hNext
		if h < it.opts.MinStep {
			h = it.opts.MinStep
		}
	}

	res.FinalTime = t
	return res, nil
}

// stepAdaptive runs the embedded Bogacki-Shampine 3(2) pair at trial
// step hTry, shrinking and retrying until the local error estimate
// falls within tolerance, then returns the new state, the step size
// actually taken, and the proposed next step size.
func (it *Integrator) stepAdaptive(t float64, x []complex128, hTry float64, res *Result) ([]complex128, float64, float64, error) {
	h := hTry
	for {
		y3, y2 := it.bogackiShampine(t, x, h)
		errNorm := it.errorNorm(x, y3, y2)

		if errNorm <= 1 || h <= it.opts.MinStep {
			factor := it.opts.SafetyFactor
			if errNorm > 0 {
				factor *= math.Pow(errNorm, -1.0/3.0)
			} else {
				factor = it.opts.MaxGrowth
			}
			if factor > it.opts.MaxGrowth {
				factor = it.opts.MaxGrowth
			}
			if factor < it.opts.MinShrink {
				factor = it.opts.MinShrink
			}
			return y3, h, h * factor, nil
		}

		res.Rejected++
		shrink := it.opts.SafetyFactor * math.Pow(errNorm, -1.0/3.0)
		if shrink < it.opts.MinShrink {
			shrink = it.opts.MinShrink
		}
		h *= shrink
	}
}

// bogackiShampine computes the 3rd-order solution y3 and the embedded
// 2nd-order solution y2 for a single step of size h at (t,x).
func (it *Integrator) bogackiShampine(t float64, x []complex128, h float64) (y3, y2 []complex128) {
	k1 := it.rhs(t, x)
	x2 := axpyVec(x, h/2, k1)
	k2 := it.rhs(t+h/2, x2)
	x3 := axpyVec(x, 3*h/4, k2)
	k3 := it.rhs(t+3*h/4, x3)

	y3 = combine(x, h, []float64{2.0 / 9, 1.0 / 3, 4.0 / 9}, [][]complex128{k1, k2, k3})
	k4 := it.rhs(t+h, y3)
	y2 = combine(x, h, []float64{7.0 / 24, 1.0 / 4, 1.0 / 3, 1.0 / 8}, [][]complex128{k1, k2, k3, k4})
	return y3, y2
}

func axpyVec(x []complex128, h float64, k []complex128) []complex128 {
	out := make([]complex128, len(x))
	for i := range x {
		out[i] = x[i] + complex(h, 0)*k[i]
	}
	return out
}

func combine(x []complex128, h float64, coeffs []float64, ks [][]complex128) []complex128 {
	out := make([]complex128, len(x))
	copy(out, x)
	for i := range coeffs {
		c := complex(h*coeffs[i], 0)
		for j := range out {
			out[j] += c * ks[i][j]
		}
	}
	return out
}

// errorNorm computes the weighted RMS norm of (y3-y2) against an
// absolute+relative tolerance envelope, the standard embedded-pair
// step-acceptance criterion: <=1 accepts.
func (it *Integrator) errorNorm(x, y3, y2 []complex128) float64 {
	var sum float64
	n := len(x)
	for i := 0; i < n; i++ {
		scale := it.opts.AbsTol + it.opts.RelTol*math.Max(cmplx.Abs(x[i]), cmplx.Abs(y3[i]))
		if scale == 0 {
			scale = it.opts.AbsTol
		}
		d := cmplx.Abs(y3[i]-y2[i]) / scale
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// stepImplicit takes one linearly-implicit (Rosenbrock-W, gamma=1,
// which for a linear autonomous system reduces to backward Euler)
// step: solve (I - h*A)*k = h*f(t,x) for k via GMRES, then x' = x+k.
// Used only for the static Schrödinger-only stiff path.
func (it *Integrator) stepImplicit(t float64, x []complex128, h float64) ([]complex128, error) {
	n := it.stateDim()
	f := it.rhs(t, x)
	b := make([]complex128, n)
	for i := range b {
		b[i] = complex(h, 0) * f[i]
	}

	sys := stiffSystemMatrix(it.asm.HamA, h)
	k := make([]complex128, n)
	solver := dense.GMRES{}
	if err := solver.Solve(sys, b, k, lak.DefaultKSPOptions()); err != nil {
		return nil, dynerr.NumericalFailure{Reason: err.Error()}
	}

	out := make([]complex128, n)
	for i := range out {
		out[i] = x[i] + k[i]
	}
	return out, nil
}

// stiffSystemMatrix builds I - h*A where A = -i*HamA, i.e. I + i*h*HamA,
// the linear system each backward-Euler-style implicit step solves.
func stiffSystemMatrix(ham *dense.Matrix, h float64) *dense.Matrix {
	d, _ := ham.Dim()
	m := dense.New(d, d)
	coeff := complex(0, h)
	var entries []lak.Entry
	for r := 0; r < d; r++ {
		for c := 0; c < d; c++ {
			v := ham.At(r, c)
			if r == c {
				v = 1 + coeff*v
			} else {
				v = coeff * v
			}
			if v != 0 {
				entries = append(entries, lak.Entry{Row: r, Col: c, Value: v})
			}
		}
	}
	m.AddValues(entries)
	m.Assemble()
	return m
}

// normalize implements the Normalization event (direction 0, fires
// unconditionally after every step): rescale a Schrödinger state
// vector to unit norm, or a Liouville-flattened density matrix so its
// trace is 1.
func (it *Integrator) normalize(x []complex128) {
	if it.asm.FullA != nil {
		var trace complex128
		for i := 0; i < it.asm.Dim; i++ {
			trace += x[i*it.asm.Dim+i]
		}
		tr := real(trace)
		if tr == 0 {
			return
		}
		c := complex(1/tr, 0)
		for i := range x {
			x[i] *= c
		}
		return
	}

	var sumSq float64
	for _, v := range x {
		sumSq += real(v)*real(v) + imag(v)*imag(v)
	}
	n := math.Sqrt(sumSq)
	if n == 0 {
		return
	}
	c := complex(1/n, 0)
	for i := range x {
		x[i] *= c
	}
}

// applyGate embeds a scheduled gate's unitary into the full Hilbert
// space and applies it: direct matrix-vector for a Schrödinger state,
// or U*rho*U† for a Liouville-flattened density matrix.
func (it *Integrator) applyGate(g gate.ScheduledGate, x []complex128) error {
	s1, err := it.registry.Site(g.Qubit1)
	if err != nil {
		return err
	}
	u := g.Unitary()

	var entries []lak.Entry
	if g.Type.TwoQubit() {
		s2, err := it.registry.Site(g.Qubit2)
		if err != nil {
			return err
		}
		entries = kron.EmbedDense2(u, s1, s2, it.asm.Dim)
	} else {
		entries = kron.EmbedDense1(u, s1, it.asm.Dim)
	}

	y := make([]complex128, len(x))
	if it.asm.FullA != nil {
		applyUnitaryLiouville(entries, it.asm.Dim, x, y)
	} else {
		for _, e := range entries {
			y[e.Row] += e.Value * x[e.Col]
		}
	}
	copy(x, y)
	return nil
}

// applyUnitaryLiouville computes vec(rho') = (U⊗conj(U))vec(rho) from
// U's full-space sparse entries, i.e. rho' = U*rho*U† under row-major
// flattening. Quadratic in nnz(entries); fine for the reference
// backend's modest Hilbert-space sizes.
func applyUnitaryLiouville(entries []lak.Entry, d int, x, y []complex128) {
	for _, e1 := range entries {
		for _, e2 := range entries {
			v := e1.Value * cmplx.Conj(e2.Value)
			if v == 0 {
				continue
			}
			row := e1.Row*d + e2.Row
			col := e1.Col*d + e2.Col
			y[row] += v * x[col]
		}
	}
}

// cloneWithRow copies src's assembled values into a fresh matrix with
// one row overwritten by rowVals, bypassing SAME_NONZERO_PATTERN since
// the stabilization row's support need not match the original
// generator's sparsity.
func cloneWithRow(src *dense.Matrix, replaceRow int, rowVals map[int]complex128) *dense.Matrix {
	rows, cols := src.Dim()
	out := dense.New(rows, cols)
	var entries []lak.Entry
	for r := 0; r < rows; r++ {
		if r == replaceRow {
			continue
		}
		for c := 0; c < cols; c++ {
			v := src.At(r, c)
			if v != 0 {
				entries = append(entries, lak.Entry{Row: r, Col: c, Value: v})
			}
		}
	}
	for c, v := range rowVals {
		entries = append(entries, lak.Entry{Row: replaceRow, Col: c, Value: v})
	}
	out.AddValues(entries)
	out.Assemble()
	return out
}

// SteadyState solves for the stationary density matrix of a Lindblad
// system via the stabilization-row trick: since the Liouville
// generator is singular (trace is conserved), row 0 is replaced by
// the trace=1 constraint, and the resulting system is solved with
// GMRES at spec.md's steady-state tolerances (restart 100, rtol
// 1e-11), mirroring solver.c's steady_state routine.
func (it *Integrator) SteadyState() ([]complex128, error) {
	if it.asm.FullA == nil {
		return nil, dynerr.InvalidState{Reason: "steady state requires a Lindblad (Liouville-space) system"}
	}
	d := it.asm.Dim
	n := d * d
	replaceRow := 0

	rowVals := make(map[int]complex128, d)
	for i := 0; i < d; i++ {
		rowVals[i*d+i] = 1
	}

	a := cloneWithRow(it.asm.FullA, replaceRow, rowVals)
	b := make([]complex128, n)
	b[replaceRow] = 1
	x := make([]complex128, n)
	x[replaceRow] = 1

	solver := dense.GMRES{}
	if err := solver.Solve(a, b, x, lak.DefaultKSPOptions()); err != nil {
		return nil, dynerr.NumericalFailure{Reason: err.Error()}
	}
	return x, nil
}
