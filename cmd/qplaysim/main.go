package main

import (
	"fmt"

	"github.com/kegliz/qplay-dynamics/dynamics"
	"github.com/kegliz/qplay-dynamics/dynamics/gate"
	"github.com/kegliz/qplay-dynamics/dynamics/hparse"
	"github.com/kegliz/qplay-dynamics/dynamics/integrator"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

func main() {
	fmt.Println("--- Rabi oscillation (single driven qubit) ---")
	rabiOscillation()
	fmt.Println("\n--- Single-qubit decay to the ground state ---")
	qubitDecaySteadyState()
	fmt.Println("\n--- In-flight X gate ---")
	inFlightGate()
}

// rabiOscillation drives a single qubit with a static sigma_x term and
// reports the final populations after the Rabi evolution.
func rabiOscillation() {
	sim, err := dynamics.New(dynamics.SimulationOptions{NumQubits: 1})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	terms, err := hparse.Parse("1.0*X0", nil)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	for _, t := range terms {
		if err := sim.Builder().AddConstTerm1(t.Ops[0].Op, t.Ops[0].Site, t.Coef); err != nil {
			fmt.Println("build error:", err)
			return
		}
	}

	it, asm, err := sim.BuildIntegrator(false, integrator.DefaultOptions())
	if err != nil {
		fmt.Println("integrator error:", err)
		return
	}

	x := make([]complex128, asm.SolveDim())
	x[0] = 1

	result, err := it.Run(x, 10.0, 0.01, 100000, nil)
	if err != nil {
		fmt.Println("run error:", err)
		return
	}
	fmt.Printf("accepted=%d rejected=%d final populations: |0>=%.4f |1>=%.4f\n",
		result.Accepted, result.Rejected, prob(x[0]), prob(x[1]))
}

// qubitDecaySteadyState drives a qubit with spontaneous decay and
// solves directly for its stationary density matrix.
func qubitDecaySteadyState() {
	sim, err := dynamics.New(dynamics.SimulationOptions{NumQubits: 1})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := sim.Builder().AddConstTerm1(qubit.Z, 0, 0.5); err != nil {
		fmt.Println("build error:", err)
		return
	}
	if err := sim.Builder().AddQubitDecay(0, 0.1); err != nil {
		fmt.Println("decay error:", err)
		return
	}

	it, _, err := sim.BuildIntegrator(false, integrator.DefaultOptions())
	if err != nil {
		fmt.Println("integrator error:", err)
		return
	}

	rho, err := it.SteadyState()
	if err != nil {
		fmt.Println("steady-state error:", err)
		return
	}
	fmt.Printf("steady-state populations: p0=%.6f p1=%.6f\n", real(rho[0]), real(rho[3]))
}

// inFlightGate schedules a single X gate mid-evolution of an otherwise
// static system and reports the population flip it causes.
func inFlightGate() {
	sim, err := dynamics.New(dynamics.SimulationOptions{NumQubits: 1})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	if err := sim.Builder().AddConstTerm1(qubit.Z, 0, 0.01); err != nil {
		fmt.Println("build error:", err)
		return
	}
	if err := sim.AddGate(gate.ScheduledGate{Type: gate.X, Time: 1.0, Qubit1: 0, Qubit2: -1}); err != nil {
		fmt.Println("gate error:", err)
		return
	}

	it, asm, err := sim.BuildIntegrator(false, integrator.DefaultOptions())
	if err != nil {
		fmt.Println("integrator error:", err)
		return
	}

	x := make([]complex128, asm.SolveDim())
	x[0] = 1

	result, err := it.Run(x, 2.0, 0.05, 100000, nil)
	if err != nil {
		fmt.Println("run error:", err)
		return
	}
	fmt.Printf("gatesApplied=%d final populations: |0>=%.4f |1>=%.4f\n",
		result.GatesApplied, prob(x[0]), prob(x[1]))
}

func prob(a complex128) float64 { return real(a)*real(a) + imag(a)*imag(a) }
