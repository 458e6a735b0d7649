package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kegliz/qplay-dynamics/dynamics"
	"github.com/kegliz/qplay-dynamics/dynamics/gate"
	"github.com/kegliz/qplay-dynamics/dynamics/hparse"
	"github.com/kegliz/qplay-dynamics/dynamics/integrator"
	"github.com/kegliz/qplay-dynamics/dynamics/report"
)

// complexJSON is the wire shape for a single complex128 sample.
type complexJSON struct {
	Re float64 `json:"re"`
	Im float64 `json:"im"`
}

func (c complexJSON) value() complex128 { return complex(c.Re, c.Im) }

// SimulateRequest is the pulse-mode dynamics simulation request
// contract: a Hamiltonian given as a list of textual terms (per the
// Hamiltonian Parser's grammar), optional Lindblad decays, an optional
// pulse schedule, optional discrete gates, and backend/integrator
// knobs.
type SimulateRequest struct {
	NumQubits int                `json:"numQubits"`
	Levels    int                `json:"levels"`
	HStr      []string           `json:"h_str"`
	Vars      map[string]float64 `json:"vars"`

	Decays []struct {
		Qubit int     `json:"qubit"`
		Kappa float64 `json:"kappa"`
	} `json:"decays"`

	Pulses  map[string][]complexJSON `json:"pulses"`
	LOFreqs map[string]float64       `json:"loFreqs"`

	Schedule []struct {
		Channel string  `json:"channel"`
		Pulse   string  `json:"pulse"`
		Start   float64 `json:"start"`
	} `json:"schedule"`

	FrameChanges []struct {
		Channel string  `json:"channel"`
		Start   float64 `json:"start"`
		Phase   float64 `json:"phase"`
	} `json:"frameChanges"`

	Gates []struct {
		Type   string  `json:"type"`
		Time   float64 `json:"time"`
		Qubit1 int     `json:"qubit1"`
		Qubit2 int     `json:"qubit2"`
		Angle  float64 `json:"angle"`
	} `json:"gates"`

	InitialState []complexJSON `json:"initialState"`

	Backend struct {
		Dt          float64 `json:"dt"`
		StepsMax    int     `json:"stepsMax"`
		TimeMax     float64 `json:"timeMax"`
		StiffSolver bool    `json:"stiffSolver"`
	} `json:"backend"`

	CSVPath string `json:"csvPath"`
}

// TimestepPoint is one monitored instant in the response trajectory.
type TimestepPoint struct {
	Time        float64   `json:"time"`
	NbPops      int       `json:"nbPops"`
	Populations []float64 `json:"populations"`
}

// SimulateResponse is the pulse-mode dynamics simulation result.
type SimulateResponse struct {
	SimID        string          `json:"simId"`
	NbSteps      int             `json:"nbSteps"`
	GatesApplied int             `json:"gatesApplied"`
	FinalTime    float64         `json:"finalTime"`
	Expectations []float64       `json:"expectations"`
	TsData       []TimestepPoint `json:"tsData"`
	CSVPath      string          `json:"csvPath,omitempty"`
}

// SimulateDynamics is the handler for the /api/simulate endpoint: it
// builds a Simulation from the request's Hamiltonian/pulse/gate
// description, runs the Time Integrator, and returns the resulting
// trajectory and final-state populations.
func (a *appServer) SimulateDynamics(c *gin.Context) {
	l, err := a.getLoggerFromContext(c)
	if err != nil {
		panic("logger not found in context")
	}
	l.Debug().Msg("serving dynamics simulation endpoint")

	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Error().Err(err).Msg("binding JSON failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	resp, err := a.runSimulation(&req)
	if err != nil {
		l.Error().Err(err).Msg("dynamics simulation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a *appServer) runSimulation(req *SimulateRequest) (*SimulateResponse, error) {
	sim, err := dynamics.New(dynamics.SimulationOptions{NumQubits: req.NumQubits, Levels: req.Levels, Logger: a.logger})
	if err != nil {
		return nil, err
	}

	if err := addHamiltonianTerms(sim, req.HStr, req.Vars); err != nil {
		return nil, err
	}
	for _, d := range req.Decays {
		if err := sim.Builder().AddQubitDecay(d.Qubit, d.Kappa); err != nil {
			return nil, err
		}
	}

	if req.Backend.Dt > 0 {
		sim.SetDt(req.Backend.Dt)
	}
	for name, samples := range req.Pulses {
		vals := make([]complex128, len(samples))
		for i, s := range samples {
			vals[i] = s.value()
		}
		sim.AddPulse(name, vals)
	}
	for name, freq := range req.LOFreqs {
		id, err := sim.Channels().Resolve(name)
		if err != nil {
			return nil, err
		}
		sim.SetLOFreq(id, freq)
	}
	for _, s := range req.Schedule {
		id, err := sim.Channels().Resolve(s.Channel)
		if err != nil {
			return nil, err
		}
		sim.Schedule(id, s.Pulse, s.Start)
	}
	for _, fc := range req.FrameChanges {
		id, err := sim.Channels().Resolve(fc.Channel)
		if err != nil {
			return nil, err
		}
		sim.FrameChange(id, fc.Start, fc.Phase)
	}
	for _, g := range req.Gates {
		t, err := gate.ParseType(g.Type)
		if err != nil {
			return nil, err
		}
		if err := sim.AddGate(gate.ScheduledGate{Type: t, Time: g.Time, Qubit1: g.Qubit1, Qubit2: g.Qubit2, Angle: g.Angle}); err != nil {
			return nil, err
		}
	}

	sim.Acquire()
	defer sim.Release()

	it, asm, err := sim.BuildIntegrator(req.Backend.StiffSolver, integrator.DefaultOptions())
	if err != nil {
		return nil, err
	}

	n := asm.SolveDim()
	x := make([]complex128, n)
	if len(req.InitialState) > 0 {
		if len(req.InitialState) != n {
			return nil, fmt.Errorf("initialState has %d entries, expected %d", len(req.InitialState), n)
		}
		for i, s := range req.InitialState {
			x[i] = s.value()
		}
	} else {
		x[0] = 1
	}

	stepsMax := req.Backend.StepsMax
	if stepsMax <= 0 {
		stepsMax = 100000000
	}
	timeMax := req.Backend.TimeMax
	if timeMax <= 0 {
		timeMax = 8.0
	}
	dt0 := req.Backend.Dt
	if dt0 <= 0 {
		dt0 = timeMax / 1000
	}

	var tsData []TimestepPoint
	monitor := func(step int, t float64, x []complex128) {
		pops := populations(asm.Dim, asm.FullA != nil, x)
		tsData = append(tsData, TimestepPoint{Time: t, NbPops: len(pops), Populations: pops})
	}

	result, err := it.Run(x, timeMax, dt0, stepsMax, monitor)
	if err != nil {
		return nil, err
	}

	resp := &SimulateResponse{
		SimID:        sim.ID(),
		NbSteps:      result.Steps,
		GatesApplied: result.GatesApplied,
		FinalTime:    result.FinalTime,
		Expectations: populations(asm.Dim, asm.FullA != nil, x),
		TsData:       tsData,
	}

	if req.CSVPath != "" {
		var rows []report.TimestepRow
		for _, p := range tsData {
			rows = append(rows, report.TimestepRow{Time: p.Time, Populations: p.Populations})
		}
		path, err := report.WriteCSV(req.CSVPath, time.Now().Format("20060102_15:04:05"), rows)
		if err != nil {
			return nil, err
		}
		resp.CSVPath = path
	}

	return resp, nil
}

// addHamiltonianTerms parses every textual term and adds it to the
// builder as either a constant or time-dependent contribution,
// resolving channel names to stable ids as they're encountered.
func addHamiltonianTerms(sim *dynamics.Simulation, hStr []string, vars map[string]float64) error {
	for _, s := range hStr {
		terms, err := hparse.Parse(s, vars)
		if err != nil {
			return err
		}
		for _, term := range terms {
			if term.Channel == "" {
				switch len(term.Ops) {
				case 1:
					if err := sim.Builder().AddConstTerm1(term.Ops[0].Op, term.Ops[0].Site, term.Coef); err != nil {
						return err
					}
				case 2:
					if err := sim.Builder().AddConstTerm2(term.Ops[0].Op, term.Ops[0].Site, term.Ops[1].Op, term.Ops[1].Site, term.Coef); err != nil {
						return err
					}
				}
				continue
			}
			id, err := sim.Channels().Resolve(term.Channel)
			if err != nil {
				return err
			}
			switch len(term.Ops) {
			case 1:
				if err := sim.Builder().AddTimeDepTerm1(term.Ops[0].Op, term.Ops[0].Site, id); err != nil {
					return err
				}
			case 2:
				if err := sim.Builder().AddTimeDepTerm2(term.Ops[0].Op, term.Ops[0].Site, term.Ops[1].Op, term.Ops[1].Site, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// populations returns the diagonal populations of the current state:
// |amplitude|^2 per basis state for a Schrödinger vector, or the real
// part of the density matrix diagonal for a Liouville-flattened one.
func populations(dim int, liouville bool, x []complex128) []float64 {
	out := make([]float64, dim)
	if liouville {
		for i := 0; i < dim; i++ {
			out[i] = real(x[i*dim+i])
		}
		return out
	}
	for i := 0; i < dim; i++ {
		out[i] = real(x[i])*real(x[i]) + imag(x[i])*imag(x[i])
	}
	return out
}
