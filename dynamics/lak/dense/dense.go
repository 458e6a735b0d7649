// Package dense is the in-process reference Linear-Algebra Kernel
// backend: dense-backed sparse matrices (dense storage, sparse API)
// and a restarted GMRES solver. It exists so dynamics is runnable and
// testable without a real PETSc-class LAK wired in; production
// deployments swap lak.Matrix/lak.Solver implementations without
// touching dynamics/qubit, dynamics/kron, dynamics/hamiltonian, or
// dynamics/integrator.
package dense

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/kegliz/qplay-dynamics/dynamics/lak"
)

// Matrix is a dense D x D complex matrix satisfying lak.Matrix. The
// "sparsity pattern" tracked by assembled is advisory only: dense
// storage has no pattern to violate, but AddValues after Assemble
// still only touches positions recorded before assembly, preserving
// the SAME_NONZERO_PATTERN contract for callers that rely on it.
type Matrix struct {
	rows, cols int
	data       []complex128
	pattern    map[int]bool
	assembled  bool
}

// New allocates a zero rows x cols matrix.
func New(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, data: make([]complex128, rows*cols), pattern: make(map[int]bool)}
}

func (m *Matrix) Dim() (int, int) { return m.rows, m.cols }

func (m *Matrix) idx(row, col int) int { return row*m.cols + col }

// AddValues accumulates entries. Before Assemble, any position is
// accepted and registers the pattern. After Assemble, a position not
// already in the pattern is a programmer error: the caller violated
// SAME_NONZERO_PATTERN.
func (m *Matrix) AddValues(entries []lak.Entry) {
	for _, e := range entries {
		i := m.idx(e.Row, e.Col)
		if m.assembled && !m.pattern[i] {
			panic(fmt.Sprintf("dense: AddValues at (%d,%d) after Assemble violates SAME_NONZERO_PATTERN", e.Row, e.Col))
		}
		m.pattern[i] = true
		m.data[i] += e.Value
	}
}

func (m *Matrix) ZeroEntries() {
	for i := range m.data {
		m.data[i] = 0
	}
}

func (m *Matrix) Assemble() error {
	m.assembled = true
	return nil
}

func (m *Matrix) MulVec(x []complex128, y []complex128) {
	for r := 0; r < m.rows; r++ {
		var sum complex128
		base := r * m.cols
		for c := 0; c < m.cols; c++ {
			v := m.data[base+c]
			if v != 0 {
				sum += v * x[c]
			}
		}
		y[r] = sum
	}
}

func (m *Matrix) Clone() lak.Matrix {
	out := New(m.rows, m.cols)
	copy(out.data, m.data)
	for k, v := range m.pattern {
		out.pattern[k] = v
	}
	out.assembled = m.assembled
	return out
}

// CopyFrom replaces this matrix's values (not its pattern) with src's,
// the dense analogue of MatCopy(src, dst, SAME_NONZERO_PATTERN).
func (m *Matrix) CopyFrom(src *Matrix) error {
	if m.rows != src.rows || m.cols != src.cols {
		return fmt.Errorf("dense: CopyFrom dimension mismatch (%dx%d vs %dx%d)", m.rows, m.cols, src.rows, src.cols)
	}
	copy(m.data, src.data)
	return nil
}

// At returns the value at (row, col), mainly for tests.
func (m *Matrix) At(row, col int) complex128 { return m.data[m.idx(row, col)] }

// GMRES is a restarted GMRES Krylov solver satisfying lak.Solver.
// Solve takes opts.RTol/Restart matching solver.c's
// KSPGMRESSetRestart(100)/rtol 1e-11 defaults. It always applies a
// Jacobi (diagonal) right preconditioner, treating any zero diagonal
// entry as 1; it does not implement PCASM's block-local smoothing.
type GMRES struct{}

func (GMRES) Solve(a lak.Matrix, b, x []complex128, opts lak.KSPOptions) error {
	m, ok := a.(*Matrix)
	if !ok {
		return fmt.Errorf("dense.GMRES: unsupported matrix type %T", a)
	}
	n := len(b)
	if opts.Restart <= 0 {
		opts.Restart = 100
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 10000
	}

	diag := make([]complex128, n)
	for i := 0; i < n; i++ {
		d := m.At(i, i)
		if d == 0 {
			d = 1
		}
		diag[i] = d
	}
	precond := func(v []complex128) []complex128 {
		out := make([]complex128, n)
		for i := range v {
			out[i] = v[i] / diag[i]
		}
		return out
	}

	bNorm := norm2(b)
	if bNorm == 0 {
		bNorm = 1
	}

	for iter := 0; iter < opts.MaxIter; iter += opts.Restart {
		r := residual(m, b, x)
		if norm2(r)/bNorm < opts.RTol {
			return nil
		}
		if err := gmresCycle(m, x, r, precond, opts.Restart); err != nil {
			return err
		}
	}

	r := residual(m, b, x)
	if norm2(r)/bNorm >= opts.RTol {
		return fmt.Errorf("lak: GMRES did not converge to rtol %g within %d iterations", opts.RTol, opts.MaxIter)
	}
	return nil
}

func residual(m *Matrix, b, x []complex128) []complex128 {
	n := len(b)
	ax := make([]complex128, n)
	m.MulVec(x, ax)
	r := make([]complex128, n)
	for i := range r {
		r[i] = b[i] - ax[i]
	}
	return r
}

// gmresCycle runs a single restart cycle of Arnoldi-based GMRES,
// updating x in place.
func gmresCycle(m *Matrix, x, r0 []complex128, precond func([]complex128) []complex128, restart int) error {
	n := len(r0)
	beta := norm2(r0)
	if beta == 0 {
		return nil
	}

	v := make([][]complex128, restart+1)
	v[0] = scale(r0, complex(1/beta, 0))

	h := make([][]complex128, restart+1)
	for i := range h {
		h[i] = make([]complex128, restart)
	}

	g := make([]complex128, restart+1)
	g[0] = complex(beta, 0)

	cs := make([]complex128, restart)
	sn := make([]complex128, restart)

	k := 0
	for ; k < restart; k++ {
		w := make([]complex128, n)
		m.MulVec(precond(v[k]), w)

		for i := 0; i <= k; i++ {
			h[i][k] = dot(v[i], w)
			w = axpy(w, -h[i][k], v[i])
		}
		h[k+1][k] = complex(norm2(w), 0)
		if real(h[k+1][k]) < 1e-14 {
			k++
			break
		}
		v[k+1] = scale(w, complex(1/real(h[k+1][k]), 0))

		for i := 0; i < k; i++ {
			applyRotation(h, k, i, cs[i], sn[i])
		}
		cs[k], sn[k] = givens(h[k][k], h[k+1][k])
		h[k][k] = cs[k]*h[k][k] + sn[k]*h[k+1][k]
		h[k+1][k] = 0

		g[k+1] = -sn[k] * g[k]
		g[k] = cs[k] * g[k]

		if cmplx.Abs(g[k+1]) < 1e-14 {
			k++
			break
		}
	}

	y := backSolve(h, g, k)
	dx := make([]complex128, n)
	for i := 0; i < k; i++ {
		dx = axpy(dx, -y[i], precond(v[i]))
	}
	for i := range x {
		x[i] -= dx[i]
	}
	return nil
}

func applyRotation(h [][]complex128, k, i int, c, s complex128) {
	temp := c*h[i][k] + s*h[i+1][k]
	h[i+1][k] = -cmplx.Conj(s)*h[i][k] + cmplx.Conj(c)*h[i+1][k]
	h[i][k] = temp
}

func givens(a, b complex128) (c, s complex128) {
	if b == 0 {
		return 1, 0
	}
	denom := math.Hypot(cmplx.Abs(a), cmplx.Abs(b))
	return complex(cmplx.Abs(a)/denom, 0), (a / complex(cmplx.Abs(a), 0)) * complex(cmplx.Abs(b)/denom, 0)
}

func backSolve(h [][]complex128, g []complex128, k int) []complex128 {
	y := make([]complex128, k)
	for i := k - 1; i >= 0; i-- {
		sum := g[i]
		for j := i + 1; j < k; j++ {
			sum -= h[i][j] * y[j]
		}
		if h[i][i] == 0 {
			y[i] = 0
			continue
		}
		y[i] = sum / h[i][i]
	}
	return y
}

func norm2(v []complex128) float64 {
	var s float64
	for _, c := range v {
		s += real(c)*real(c) + imag(c)*imag(c)
	}
	return math.Sqrt(s)
}

func dot(a, b []complex128) complex128 {
	var s complex128
	for i := range a {
		s += cmplx.Conj(a[i]) * b[i]
	}
	return s
}

func scale(v []complex128, c complex128) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = c * x
	}
	return out
}

func axpy(y []complex128, a complex128, x []complex128) []complex128 {
	out := make([]complex128, len(y))
	for i := range y {
		out[i] = y[i] + a*x[i]
	}
	return out
}
