// Package dynamics ties the Operator Registry, Hamiltonian Builder,
// Pulse Channel Controller, Gate Scheduler, and Time Integrator
// together into a single Simulation value, replacing the process-wide
// globals (_hamiltonian, _time_dep_list, stab_added, ...) the original
// C implementation mutated in place. Grounded on appServer's
// options-struct-plus-embedded-logger constructor shape
// (internal/app/app.go) and qc/simulator/registry.go's guarded,
// mutex-protected lifecycle.
package dynamics

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
	"github.com/kegliz/qplay-dynamics/dynamics/gate"
	"github.com/kegliz/qplay-dynamics/dynamics/hamiltonian"
	"github.com/kegliz/qplay-dynamics/dynamics/integrator"
	"github.com/kegliz/qplay-dynamics/dynamics/pulse"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
	"github.com/kegliz/qplay-dynamics/internal/logger"
)

// processLock enforces "only one simulation may be in flight at a time
// per process" (spec.md 5): QuaC's globals made concurrent simulations
// impossible by construction; we keep that restriction explicit
// instead of silently allowing data races across Simulation values
// that happen to share no state but would still contend for whichever
// real LAK backend is wired in.
var processLock sync.Mutex

// SimulationOptions configures a new Simulation.
type SimulationOptions struct {
	NumQubits int
	Levels    int // levels per site; 2 for ordinary qubits
	Logger    *logger.Logger
}

// Simulation owns one system's Operator Registry, Hamiltonian Builder,
// Pulse Channel Controller, and Gate Scheduler, and drives it with a
// Time Integrator. It is a value to be constructed per run rather than
// a singleton, unlike the global state it replaces.
type Simulation struct {
	logger *logger.Logger

	id       string
	registry *qubit.Registry
	builder  *hamiltonian.Builder
	channels *pulse.ChannelRegistry
	gates    *gate.Scheduler

	pulseCfg pulse.Config

	locked bool
}

// New constructs a Simulation over NumQubits sites of the given level
// count. NumQubits <= 0 is a dynerr.ContractViolation: a simulation
// needs at least one site to mean anything.
func New(opts SimulationOptions) (*Simulation, error) {
	if opts.NumQubits <= 0 {
		return nil, dynerr.ContractViolation{Reason: "NumQubits must be positive"}
	}
	levels := opts.Levels
	if levels <= 0 {
		levels = 2
	}

	registry := qubit.NewRegistry()
	for i := 0; i < opts.NumQubits; i++ {
		registry.Add(levels)
	}

	s := &Simulation{
		logger:   opts.Logger,
		id:       uuid.New().String(),
		registry: registry,
		builder:  hamiltonian.NewBuilder(registry),
		channels: pulse.NewChannelRegistry(),
		gates:    gate.NewScheduler(),
		pulseCfg: pulse.Config{
			Dt:       1,
			LOFreqs:  make(map[int]float64),
			Library:  make(pulse.Library),
			Schedule: make(map[int][]pulse.ScheduleEntry),
			FrameChg: make(map[int][]pulse.FrameChangeEntry),
		},
	}
	if s.logger != nil {
		s.logger.Info().Str("simID", s.id).Int("numQubits", opts.NumQubits).Int("levels", levels).Msg("simulation created")
	}
	return s, nil
}

// ID returns this simulation's run id.
func (s *Simulation) ID() string { return s.id }

// Registry exposes the Operator Registry for direct term construction.
func (s *Simulation) Registry() *qubit.Registry { return s.registry }

// Builder exposes the Hamiltonian Builder for direct term construction.
func (s *Simulation) Builder() *hamiltonian.Builder { return s.builder }

// Channels exposes the channel-name registry so callers can resolve
// "D0"/"U1"-style names to stable ids before registering pulses.
func (s *Simulation) Channels() *pulse.ChannelRegistry { return s.channels }

// Gates exposes the Gate Scheduler for scheduling discrete gates.
func (s *Simulation) Gates() *gate.Scheduler { return s.gates }

// SetDt sets the pulse sample period shared by every channel.
func (s *Simulation) SetDt(dt float64) { s.pulseCfg.Dt = dt }

// SetLOFreq sets channel id's local-oscillator frequency in Hz.
func (s *Simulation) SetLOFreq(channelID int, freq float64) { s.pulseCfg.LOFreqs[channelID] = freq }

// AddPulse registers a named pulse envelope in the shared library.
func (s *Simulation) AddPulse(name string, samples []complex128) { s.pulseCfg.Library[name] = samples }

// Schedule binds a named pulse to a channel starting at startTime.
func (s *Simulation) Schedule(channelID int, pulseName string, startTime float64) {
	s.pulseCfg.Schedule[channelID] = append(s.pulseCfg.Schedule[channelID], pulse.ScheduleEntry{PulseName: pulseName, StartTime: startTime})
}

// FrameChange registers an instantaneous phase-shift command on a
// channel.
func (s *Simulation) FrameChange(channelID int, startTime, phase float64) {
	s.pulseCfg.FrameChg[channelID] = append(s.pulseCfg.FrameChg[channelID], pulse.FrameChangeEntry{StartTime: startTime, Phase: phase})
}

// AddGate schedules a discrete gate for in-flight application.
func (s *Simulation) AddGate(g gate.ScheduledGate) error {
	return s.gates.Add(g)
}

// Acquire locks the process-wide simulation slot. Release must be
// called (typically via defer) once the simulation completes.
func (s *Simulation) Acquire() {
	processLock.Lock()
	s.locked = true
}

// Release unlocks the process-wide simulation slot.
func (s *Simulation) Release() {
	if s.locked {
		processLock.Unlock()
		s.locked = false
	}
}

// BuildIntegrator assembles the accumulated Hamiltonian/Lindblad terms
// and returns a ready-to-run Time Integrator bound to this
// simulation's pulse and gate state.
func (s *Simulation) BuildIntegrator(stiff bool, opts integrator.Options) (*integrator.Integrator, *hamiltonian.Assembled, error) {
	asm, err := s.builder.Assemble()
	if err != nil {
		return nil, nil, err
	}
	ctl := pulse.NewController(s.pulseCfg)
	it, err := integrator.New(asm, s.registry, ctl, s.gates, stiff, opts)
	if err != nil {
		return nil, nil, err
	}
	return it, asm, nil
}
