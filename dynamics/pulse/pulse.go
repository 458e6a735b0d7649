// Package pulse implements the Pulse Channel Controller: channel
// name/id resolution, pulse schedule sampling, frame-change phase
// accumulation, and LO mixing, per spec.md 4.3. Grounded on
// QuaC_Pulse_Visitor.cpp's BackendChannelConfigs/PulseScheduleEntry/
// FrameChangeCommandEntry shapes.
package pulse

import (
	"fmt"
	"math"
	"math/cmplx"
	"regexp"
	"strconv"

	"github.com/kegliz/qplay-dynamics/dynamics/dynerr"
)

var channelNameRe = regexp.MustCompile(`^([DU])(\d+)$`)

// ChannelKind distinguishes drive channels ("Dk") from control
// channels ("Uk").
type ChannelKind int

const (
	Drive ChannelKind = iota
	Control
)

// ParseChannelName validates and decomposes a wire channel name like
// "D1" or "U2". Malformed names are a ParseError per spec.md's
// Hamiltonian Parser failure conditions (channel names share the
// grammar's [DU]\d+ production).
func ParseChannelName(name string) (ChannelKind, int, error) {
	m := channelNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, dynerr.ParseError{Reason: fmt.Sprintf("malformed channel name %q", name)}
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, dynerr.ParseError{Reason: fmt.Sprintf("malformed channel index in %q: %v", name, err)}
	}
	kind := Drive
	if m[1] == "U" {
		kind = Control
	}
	return kind, n, nil
}

// ChannelRegistry resolves "Dk"/"Uk" channel names to stable integer
// ids, assigned in registration order and held fixed for the lifetime
// of a simulation.
type ChannelRegistry struct {
	ids   map[string]int
	names []string
}

// NewChannelRegistry returns an empty registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{ids: make(map[string]int)}
}

// Resolve returns the stable id for name, assigning a new one on
// first sight.
func (r *ChannelRegistry) Resolve(name string) (int, error) {
	if _, _, err := ParseChannelName(name); err != nil {
		return 0, err
	}
	if id, ok := r.ids[name]; ok {
		return id, nil
	}
	id := len(r.names)
	r.ids[name] = id
	r.names = append(r.names, name)
	return id, nil
}

// Name returns the channel name registered under id.
func (r *ChannelRegistry) Name(id int) (string, error) {
	if id < 0 || id >= len(r.names) {
		return "", fmt.Errorf("pulse: unknown channel id %d", id)
	}
	return r.names[id], nil
}

// ScheduleEntry is one active pulse on a channel: the pulse name
// (looked up in the Library) and its start time; its stop time is
// implicit from sample count * dt.
type ScheduleEntry struct {
	PulseName string
	StartTime float64
}

// FrameChangeEntry is an instantaneous phase-shift command.
type FrameChangeEntry struct {
	StartTime float64
	Phase     float64
}

// Library maps a pulse name to its finite ordered sequence of complex
// envelope samples.
type Library map[string][]complex128

// Config mirrors BackendChannelConfigs: the sample period and the LO
// (local oscillator) frequency for each channel id.
type Config struct {
	Dt       float64
	LOFreqs  map[int]float64 // channel id -> nu_k (Hz, not angular)
	Library  Library
	Schedule map[int][]ScheduleEntry
	FrameChg map[int][]FrameChangeEntry
}

// Controller answers Amplitude(channel, t) queries, the coefficient
// function the Time Integrator's RHS callback defers to for every
// time-dependent term.
type Controller struct {
	cfg Config
}

// NewController binds a Controller to a fixed backend configuration.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Amplitude implements spec.md 4.3's four-step algorithm: locate the
// active pulse, sample it, accumulate frame-change phase, and mix
// with the LO carrier.
func (c *Controller) Amplitude(channel int, t float64) float64 {
	dt := c.cfg.Dt
	if dt <= 0 {
		dt = 1
	}

	a := c.sampleEnvelope(channel, t, dt)
	if a == 0 {
		return 0
	}

	phi := c.framePhase(channel, t)
	omega := 2 * math.Pi * c.cfg.LOFreqs[channel]
	carrier := cmplx.Exp(complex(0, -(omega*t + phi)))
	return real(a * carrier)
}

// sampleEnvelope locates the unique active pulse on channel whose
// [start, start+len*dt) window contains t, and samples it at the
// corresponding index. Returns 0 if no pulse is active (the channel's
// output is 0 outside the union of pulse envelopes, per invariant 6).
func (c *Controller) sampleEnvelope(channel int, t, dt float64) complex128 {
	for _, entry := range c.cfg.Schedule[channel] {
		samples, ok := c.cfg.Library[entry.PulseName]
		if !ok || len(samples) == 0 {
			continue
		}
		stop := entry.StartTime + float64(len(samples))*dt
		if t < entry.StartTime || t >= stop {
			continue
		}
		idx := int(math.Floor((t - entry.StartTime) / dt))
		if idx < 0 || idx >= len(samples) {
			continue
		}
		return samples[idx]
	}
	return 0
}

// framePhase sums every frame-change entry on channel with
// StartTime <= t (half-open from the left, so an FC exactly at t is
// included), implementing idempotence: two FCs at the same time sum
// the same as one FC with the combined phase, since addition is
// commutative and associative.
func (c *Controller) framePhase(channel int, t float64) float64 {
	var phi float64
	for _, fc := range c.cfg.FrameChg[channel] {
		if fc.StartTime <= t {
			phi += fc.Phase
		}
	}
	return phi
}
