package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegliz/qplay-dynamics/dynamics/integrator"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

func TestNewRejectsNonPositiveQubitCount(t *testing.T) {
	_, err := New(SimulationOptions{NumQubits: 0})
	assert.Error(t, err)
}

func TestNewDefaultsLevelsToTwo(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s, err := New(SimulationOptions{NumQubits: 2})
	require.NoError(err)
	assert.Equal(4, s.Registry().GlobalDim())
	assert.NotEmpty(s.ID())
}

func TestAcquireReleaseIsExclusive(t *testing.T) {
	require := require.New(t)

	s1, err := New(SimulationOptions{NumQubits: 1})
	require.NoError(err)
	s2, err := New(SimulationOptions{NumQubits: 1})
	require.NoError(err)

	s1.Acquire()
	acquired := make(chan struct{})
	go func() {
		s2.Acquire()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should have blocked while first holds the lock")
	default:
	}

	s1.Release()
	<-acquired
	s2.Release()
}

func TestBuildIntegratorSmokeTest(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s, err := New(SimulationOptions{NumQubits: 1})
	require.NoError(err)
	require.NoError(s.Builder().AddConstTerm1(qubit.X, 0, 1))

	it, asm, err := s.BuildIntegrator(false, integrator.DefaultOptions())
	require.NoError(err)
	require.NotNil(it)
	assert.Equal(2, asm.Dim)

	x := []complex128{1, 0}
	res, err := it.Run(x, 1.0, 0.05, 10000, nil)
	require.NoError(err)
	assert.Greater(res.Accepted, 0)
}
