package hamiltonian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

func TestAssembleSchrodingerOnly(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := qubit.NewRegistry()
	r.Add(2)
	b := NewBuilder(r)
	require.NoError(b.AddConstTerm1(qubit.X, 0, 1))

	asm, err := b.Assemble()
	require.NoError(err)
	assert.False(b.HasLindblad())
	assert.Nil(asm.FullA)
	assert.Equal(2, asm.Dim)
	assert.Equal(2, asm.SolveDim())

	rows, cols := asm.HamA.Dim()
	assert.Equal(2, rows)
	assert.Equal(2, cols)
	assert.Equal(complex(1, 0), asm.HamA.At(0, 1))
	assert.Equal(complex(1, 0), asm.HamA.At(1, 0))
}

func TestAssembleTwiceFails(t *testing.T) {
	require := require.New(t)
	r := qubit.NewRegistry()
	r.Add(2)
	b := NewBuilder(r)
	require.NoError(b.AddConstTerm1(qubit.X, 0, 1))
	_, err := b.Assemble()
	require.NoError(err)
	_, err = b.Assemble()
	assert.Error(t, err)
}

func TestAddTermAfterAssembleFails(t *testing.T) {
	require := require.New(t)
	r := qubit.NewRegistry()
	r.Add(2)
	b := NewBuilder(r)
	require.NoError(b.AddConstTerm1(qubit.X, 0, 1))
	_, err := b.Assemble()
	require.NoError(err)

	err = b.AddConstTerm1(qubit.Z, 0, 1)
	assert.Error(t, err)
}

func TestLindbladSwitchesToLiouville(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := qubit.NewRegistry()
	r.Add(2)
	b := NewBuilder(r)
	require.NoError(b.AddConstTerm1(qubit.Z, 0, 0.5))
	require.NoError(b.AddQubitDecay(0, 0.1))

	assert.True(b.HasLindblad())
	asm, err := b.Assemble()
	require.NoError(err)
	require.NotNil(asm.FullA)
	assert.Equal(4, asm.SolveDim())

	// The dissipator's action on a maximally excited population (rho=|1><1|,
	// i.e. vec index 3) must remove population at rate kappa: the (0,3)
	// entry of the generator (population flow into |0><0|) should be kappa.
	assert.InDelta(0.1, real(asm.FullA.At(0, 3)), 1e-12)
}
