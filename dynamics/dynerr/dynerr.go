// Package dynerr defines the five abstract error kinds spec.md §7
// names (NotInitialized, InvalidState, ParseError, ContractViolation,
// NumericalFailure), shared across the dynamics/* packages the same
// way qc/gate.ErrUnknownGate and qc/dag.ErrBadQubit are small
// per-package sentinel/struct errors with a fixed message shape.
package dynerr

import "fmt"

// NotInitialized reports a simulation API invoked before
// initialization. This module has no Initialize function, and no code
// path in it returns NotInitialized.
type NotInitialized struct{ Op string }

func (e NotInitialized) Error() string {
	return fmt.Sprintf("dynamics: %s called before Initialize", e.Op)
}

// InvalidState reports an operation attempted in the wrong state. The
// integrator returns it for the stiff solver combined with Lindblad
// terms or time dependence, and for SteadyState on a system without
// Lindblad terms. There is no CreateQubits call and no persistent
// stabilization row, so neither is checked here.
type InvalidState struct{ Reason string }

func (e InvalidState) Error() string { return fmt.Sprintf("dynamics: invalid state: %s", e.Reason) }

// ParseError covers unknown gate names, unknown operator symbols,
// malformed Hamiltonian strings, and unknown pulse formats.
type ParseError struct{ Reason string }

func (e ParseError) Error() string { return fmt.Sprintf("dynamics: parse error: %s", e.Reason) }

// ContractViolation covers a two-qubit gate missing qubit2, a term
// with more than two operators, and a gate scheduled at time < 0.
type ContractViolation struct{ Reason string }

func (e ContractViolation) Error() string {
	return fmt.Sprintf("dynamics: contract violation: %s", e.Reason)
}

// NumericalFailure surfaces a solver divergence or tolerance-not-met
// report from the Linear-Algebra Kernel.
type NumericalFailure struct{ Reason string }

func (e NumericalFailure) Error() string {
	return fmt.Sprintf("dynamics: numerical failure: %s", e.Reason)
}
