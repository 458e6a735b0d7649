package dense

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegliz/qplay-dynamics/dynamics/lak"
)

func TestAddValuesAccumulates(t *testing.T) {
	assert := assert.New(t)
	m := New(2, 2)
	m.AddValues([]lak.Entry{{Row: 0, Col: 0, Value: 1}, {Row: 0, Col: 0, Value: 2}})
	assert.Equal(complex(3, 0), m.At(0, 0))
}

func TestAddValuesAfterAssemblePanicsOnNewPosition(t *testing.T) {
	m := New(2, 2)
	m.AddValues([]lak.Entry{{Row: 0, Col: 0, Value: 1}})
	require.NoError(t, m.Assemble())
	assert.Panics(t, func() {
		m.AddValues([]lak.Entry{{Row: 1, Col: 1, Value: 1}})
	})
}

func TestMulVec(t *testing.T) {
	assert := assert.New(t)
	m := New(2, 2)
	m.AddValues([]lak.Entry{
		{Row: 0, Col: 0, Value: 2}, {Row: 0, Col: 1, Value: 1},
		{Row: 1, Col: 0, Value: 0}, {Row: 1, Col: 1, Value: 3},
	})
	require.NoError(t, m.Assemble())

	x := []complex128{1, 1}
	y := make([]complex128, 2)
	m.MulVec(x, y)
	assert.Equal(complex(3, 0), y[0])
	assert.Equal(complex(3, 0), y[1])
}

func TestGMRESSolvesDiagonalSystem(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	m := New(3, 3)
	m.AddValues([]lak.Entry{
		{Row: 0, Col: 0, Value: 2}, {Row: 1, Col: 1, Value: 4}, {Row: 2, Col: 2, Value: 1},
	})
	require.NoError(m.Assemble())

	b := []complex128{2, 8, 5}
	x := make([]complex128, 3)
	solver := GMRES{}
	err := solver.Solve(m, b, x, lak.DefaultKSPOptions())
	require.NoError(err)

	assert.InDelta(1, real(x[0]), 1e-6)
	assert.InDelta(2, real(x[1]), 1e-6)
	assert.InDelta(5, real(x[2]), 1e-6)
}

func TestCloneIsIndependent(t *testing.T) {
	assert := assert.New(t)
	m := New(1, 1)
	m.AddValues([]lak.Entry{{Row: 0, Col: 0, Value: 5}})
	require.NoError(t, m.Assemble())

	clone := m.Clone().(*Matrix)
	clone.ZeroEntries()

	assert.Equal(complex(5, 0), m.At(0, 0))
	assert.Equal(complex(0, 0), clone.At(0, 0))
}
