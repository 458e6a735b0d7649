// Package lak defines the abstract Linear-Algebra Kernel seam: sparse
// matrices, vectors, and the assembly/solve primitives the rest of
// dynamics builds against. A real deployment wires this to a PETSc-
// class backend; dynamics/lak/dense provides an in-process reference
// implementation so the core runs standalone.
package lak

// Entry is a single ADD_VALUES-style sparse contribution: add Value
// at (Row, Col). Multiple entries at the same position accumulate.
type Entry struct {
	Row, Col int
	Value    complex128
}

// Matrix is the sparse operator contract the Kron Assembler and
// Hamiltonian Builder emit contributions into, and the Time
// Integrator reads from. Assembly is two-phase: AddValues may be
// called freely before Assemble; after Assemble the non-zero pattern
// is frozen and further AddValues calls must target positions already
// established (SAME_NONZERO_PATTERN).
type Matrix interface {
	Dim() (rows, cols int)
	AddValues(entries []Entry)
	// ZeroEntries clears all values while keeping the non-zero
	// pattern intact, the same contract as MatZeroEntries.
	ZeroEntries()
	Assemble() error
	// MulVec computes y = A*x, y must be pre-sized to Dim() rows.
	MulVec(x []complex128, y []complex128)
	// Clone returns a new Matrix with the same pattern and values.
	Clone() Matrix
}

// Vector is the abstract dense vector the integrator evolves.
type Vector = []complex128

// KSPOptions holds the GMRES knobs the steady-state solver uses
// against a real KSP-backed LAK. It has no preconditioner setting; the
// choice of preconditioner is left to the Solver implementation.
type KSPOptions struct {
	Restart   int
	RTol      float64
	MaxIter   int
}

// DefaultKSPOptions returns GMRES restart 100, rtol 1e-11, and at most
// 10000 iterations. Additive Schwarz preconditioning is not available:
// dynamics/lak/dense's GMRES applies a diagonal (Jacobi) preconditioner.
func DefaultKSPOptions() KSPOptions {
	return KSPOptions{Restart: 100, RTol: 1e-11, MaxIter: 10000}
}

// Solver is the abstract Krylov solve the steady-state solver drives;
// dynamics/lak/dense implements it with a restarted GMRES loop over
// Matrix.MulVec.
type Solver interface {
	Solve(a Matrix, b, x []complex128, opts KSPOptions) error
}
