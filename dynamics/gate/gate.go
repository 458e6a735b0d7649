// Package gate implements the Gate Scheduler: a time-ordered queue of
// discrete gates the Time Integrator applies mid-evolution via its
// Gate event, plus the dense unitary matrices those gates act with.
// Distinct from qc/gate's circuit-IR value objects (which describe a
// whole fresh one-shot circuit); this package's gates are scheduled
// against a continuously-evolving state vector or density matrix.
// Wire names and gate-type set grounded on
// original_source/python/toolkit.c's QuaCCircuit_add_gate string
// switch, including CZX/CmZ/CXZ which spec.md's distillation dropped
// from prose but keeps in its own wire-values table.
package gate

import (
	"container/heap"
	"math"
	"math/cmplx"
	"strings"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
)

// Type is a discrete gate's wire-level type, matching spec.md §6's
// bit-exact gate naming table.
type Type string

const (
	CNOT Type = "CNOT"
	CZ   Type = "CZ"
	CZX  Type = "CZX"
	CmZ  Type = "CmZ"
	CXZ  Type = "CXZ"
	H    Type = "H"
	X    Type = "X"
	Y    Type = "Y"
	Z    Type = "Z"
	I    Type = "I"
	RX   Type = "RX"
	RY   Type = "RY"
	RZ   Type = "RZ"
)

// ParseType resolves a wire gate name case-insensitively.
func ParseType(s string) (Type, error) {
	switch strings.ToUpper(s) {
	case "CNOT":
		return CNOT, nil
	case "CZ":
		return CZ, nil
	case "CZX":
		return CZX, nil
	case "CMZ":
		return CmZ, nil
	case "CXZ":
		return CXZ, nil
	case "H":
		return H, nil
	case "X":
		return X, nil
	case "Y":
		return Y, nil
	case "Z":
		return Z, nil
	case "I":
		return I, nil
	case "RX":
		return RX, nil
	case "RY":
		return RY, nil
	case "RZ":
		return RZ, nil
	default:
		return "", dynerr.ParseError{Reason: "unknown gate name " + s}
	}
}

// TwoQubit reports whether a gate type acts on two qubits.
func (t Type) TwoQubit() bool { return t.twoQubit() }

// twoQubit reports whether a gate type requires Qubit2.
func (t Type) twoQubit() bool {
	switch t {
	case CNOT, CZ, CZX, CmZ, CXZ:
		return true
	default:
		return false
	}
}

// ScheduledGate is a single discrete gate bound to an application
// time, mirroring toolkit.c's add_gate(gate, qubit1, qubit2, angle,
// time) signature.
type ScheduledGate struct {
	Type   Type
	Time   float64
	Qubit1 int
	Qubit2 int // -1 when the gate is single-qubit
	Angle  float64
}

// Validate enforces the ContractViolation invariants from spec.md §7:
// two-qubit gates require Qubit2 >= 0, and a gate may not be
// scheduled at a negative time.
func (g ScheduledGate) Validate() error {
	if g.Time < 0 {
		return dynerr.ContractViolation{Reason: "gate scheduled at negative time"}
	}
	if g.Type.twoQubit() && g.Qubit2 < 0 {
		return dynerr.ContractViolation{Reason: "two-qubit gate " + string(g.Type) + " missing qubit2"}
	}
	return nil
}

// Unitary returns the gate's dense 2x2 (single-qubit) or 4x4
// (two-qubit) unitary matrix in the computational basis, grounded on
// qc/simulator/qsim/state.go's per-gate amplitude arithmetic
// (Hadamard's 1/sqrt(2) mixing, the phase gates' sign flips)
// generalized to explicit matrix form so dynamics/integrator can
// apply it either to a Schrödinger-space state vector directly or
// conjugate a Liouville-space density matrix with it.
func (g ScheduledGate) Unitary() [][]complex128 {
	switch g.Type {
	case I:
		return ident(2)
	case X:
		return [][]complex128{{0, 1}, {1, 0}}
	case Y:
		return [][]complex128{{0, complex(0, -1)}, {complex(0, 1), 0}}
	case Z:
		return [][]complex128{{1, 0}, {0, -1}}
	case H:
		s := complex(1/math.Sqrt2, 0)
		return [][]complex128{{s, s}, {s, -s}}
	case RX:
		c := complex(math.Cos(g.Angle/2), 0)
		s := complex(0, -math.Sin(g.Angle/2))
		return [][]complex128{{c, s}, {s, c}}
	case RY:
		c := complex(math.Cos(g.Angle/2), 0)
		s := complex(math.Sin(g.Angle/2), 0)
		return [][]complex128{{c, -s}, {s, c}}
	case RZ:
		return [][]complex128{
			{cmplx.Exp(complex(0, -g.Angle/2)), 0},
			{0, cmplx.Exp(complex(0, g.Angle/2))},
		}
	case CNOT:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 0, 1},
			{0, 0, 1, 0},
		}
	case CZ:
		return [][]complex128{
			{1, 0, 0, 0},
			{0, 1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, -1},
		}
	case CZX:
		// CZ followed by an X on the target: controlled (Z then X) == controlled "ZX".
		return matMul(cnotLike(zxMatrix()), ident(4))
	case CmZ:
		// controlled -Z: phase -1 on both |10> and |11>.
		return [][]complex128{
			{1, 0, 0, 0},
			{0, -1, 0, 0},
			{0, 0, 1, 0},
			{0, 0, 0, -1},
		}
	case CXZ:
		return cnotLike(xzMatrix())
	default:
		return ident(2)
	}
}

func ident(n int) [][]complex128 {
	m := make([][]complex128, n)
	for i := range m {
		m[i] = make([]complex128, n)
		m[i][i] = 1
	}
	return m
}

func zxMatrix() [][]complex128 {
	z := [][]complex128{{1, 0}, {0, -1}}
	x := [][]complex128{{0, 1}, {1, 0}}
	return matMul(x, z)
}

func xzMatrix() [][]complex128 {
	z := [][]complex128{{1, 0}, {0, -1}}
	x := [][]complex128{{0, 1}, {1, 0}}
	return matMul(z, x)
}

// cnotLike builds the controlled-op 4x4 matrix for a single-qubit
// target operation op, applied to the target qubit whenever the
// control qubit is |1>.
func cnotLike(op [][]complex128) [][]complex128 {
	m := ident(4)
	// basis order |control,target>: 00,01,10,11
	m[2][2], m[2][3] = op[0][0], op[0][1]
	m[3][2], m[3][3] = op[1][0], op[1][1]
	return m
}

func matMul(a, b [][]complex128) [][]complex128 {
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

// heapItem wraps a ScheduledGate for container/heap ordering by time.
type heapItem struct {
	gate ScheduledGate
}

type gateHeap []heapItem

func (h gateHeap) Len() int            { return len(h) }
func (h gateHeap) Less(i, j int) bool  { return h[i].gate.Time < h[j].gate.Time }
func (h gateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *gateHeap) Push(x any)         { *h = append(*h, x.(heapItem)) }
func (h *gateHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Scheduler maintains a priority queue of scheduled gates keyed by
// application time, exposing the event function the Time Integrator
// consumes for its Gate event (direction -1, per spec.md §4.5).
type Scheduler struct {
	h gateHeap
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	heap.Init(&s.h)
	return s
}

// Add validates and enqueues a gate.
func (s *Scheduler) Add(g ScheduledGate) error {
	if err := g.Validate(); err != nil {
		return err
	}
	heap.Push(&s.h, heapItem{gate: g})
	return nil
}

// Len reports how many gates remain scheduled.
func (s *Scheduler) Len() int { return s.h.Len() }

// Peek returns the next gate to apply without removing it.
func (s *Scheduler) Peek() (ScheduledGate, bool) {
	if s.h.Len() == 0 {
		return ScheduledGate{}, false
	}
	return s.h[0].gate, true
}

// Pop removes and returns the next gate to apply, in time order.
func (s *Scheduler) Pop() (ScheduledGate, bool) {
	if s.h.Len() == 0 {
		return ScheduledGate{}, false
	}
	item := heap.Pop(&s.h).(heapItem)
	return item.gate, true
}

// EventValue returns time-until-next-gate at time t: positive before
// the next gate's application time, crossing to negative once t
// reaches it, so the integrator's Gate event (direction -1) fires on
// that crossing. Returns +Inf if no gates remain.
func (s *Scheduler) EventValue(t float64) float64 {
	next, ok := s.Peek()
	if !ok {
		return math.Inf(1)
	}
	return next.Time - t
}
