package gate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeCaseInsensitive(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	tp, err := ParseType("cnot")
	require.NoError(err)
	assert.Equal(CNOT, tp)

	tp, err = ParseType("rx")
	require.NoError(err)
	assert.Equal(RX, tp)

	_, err = ParseType("bogus")
	assert.Error(err)
}

func TestValidateRejectsMissingQubit2(t *testing.T) {
	g := ScheduledGate{Type: CNOT, Time: 1, Qubit1: 0, Qubit2: -1}
	assert.Error(t, g.Validate())
}

func TestValidateRejectsNegativeTime(t *testing.T) {
	g := ScheduledGate{Type: X, Time: -1, Qubit1: 0, Qubit2: -1}
	assert.Error(t, g.Validate())
}

func TestDoubleXIsIdentity(t *testing.T) {
	assert := assert.New(t)
	g := ScheduledGate{Type: X, Qubit1: 0, Qubit2: -1}
	u := g.Unitary()
	uu := matMul(u, u)
	for i := range uu {
		for j := range uu[i] {
			want := complex128(0)
			if i == j {
				want = 1
			}
			assert.InDelta(real(want), real(uu[i][j]), 1e-10)
			assert.InDelta(imag(want), imag(uu[i][j]), 1e-10)
		}
	}
}

func TestRXAtZeroAngleIsIdentity(t *testing.T) {
	assert := assert.New(t)
	g := ScheduledGate{Type: RX, Angle: 0}
	u := g.Unitary()
	assert.InDelta(1, real(u[0][0]), 1e-12)
	assert.InDelta(1, real(u[1][1]), 1e-12)
	assert.InDelta(0, cmplxAbs(u[0][1]), 1e-12)
}

func TestRXAtPiMatchesX(t *testing.T) {
	assert := assert.New(t)
	g := ScheduledGate{Type: RX, Angle: math.Pi}
	u := g.Unitary()
	// RX(pi) = -i*X up to global phase; magnitudes should match X.
	assert.InDelta(1, cmplxAbs(u[0][1]), 1e-10)
	assert.InDelta(1, cmplxAbs(u[1][0]), 1e-10)
	assert.InDelta(0, cmplxAbs(u[0][0]), 1e-10)
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func TestSchedulerOrdersByTime(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := NewScheduler()
	require.NoError(s.Add(ScheduledGate{Type: X, Time: 5, Qubit1: 0, Qubit2: -1}))
	require.NoError(s.Add(ScheduledGate{Type: H, Time: 1, Qubit1: 0, Qubit2: -1}))
	require.NoError(s.Add(ScheduledGate{Type: Y, Time: 3, Qubit1: 0, Qubit2: -1}))

	g1, ok := s.Pop()
	require.True(ok)
	assert.Equal(H, g1.Type)

	g2, ok := s.Pop()
	require.True(ok)
	assert.Equal(Y, g2.Type)

	g3, ok := s.Pop()
	require.True(ok)
	assert.Equal(X, g3.Type)

	_, ok = s.Pop()
	assert.False(ok)
}

func TestEventValueCrossesZeroAtGateTime(t *testing.T) {
	assert := assert.New(t)
	s := NewScheduler()
	_ = s.Add(ScheduledGate{Type: X, Time: 2, Qubit1: 0, Qubit2: -1})

	assert.Greater(s.EventValue(0), 0.0)
	assert.Less(s.EventValue(3), 0.0)
}
