package qubit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperator(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		sym  string
		want Operator
	}{
		{"I", I}, {"X", X}, {"Y", Y}, {"Z", Z},
		{"SP", SP}, {"SM", SM}, {"N", N},
		{"a", A}, {"A", A}, {"RAISE", RAISE}, {"LOWER", LOWER},
	}
	for _, tt := range tests {
		got, err := ParseOperator(tt.sym)
		assert.NoError(err)
		assert.Equal(tt.want, got)
	}

	_, err := ParseOperator("bogus")
	assert.Error(err)
}

func TestRegistryTensorPositions(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := NewRegistry()
	s0 := r.Add(2)
	s1 := r.Add(2)
	s2 := r.Add(2)

	assert.Equal(8, r.GlobalDim())
	assert.Equal(3, r.NumSites())

	assert.Equal(1, s0.NBefore)
	assert.Equal(2, s1.NBefore)
	assert.Equal(4, s2.NBefore)

	assert.Equal(4, s0.NAfter(8))
	assert.Equal(2, s1.NAfter(8))
	assert.Equal(1, s2.NAfter(8))

	got, err := r.Site(1)
	require.NoError(err)
	assert.Equal(s1, got)

	_, err = r.Site(3)
	assert.Error(err)
}

func TestDensePauliX(t *testing.T) {
	assert := assert.New(t)
	site := Site{Index: 0, Levels: 2, NBefore: 1}
	m := Dense(X, site)
	assert.Equal(complex128(0), m[0][0])
	assert.Equal(complex128(1), m[0][1])
	assert.Equal(complex128(1), m[1][0])
	assert.Equal(complex128(0), m[1][1])
}

func TestDenseLadderOperators(t *testing.T) {
	assert := assert.New(t)
	// a three-level qudit: a|1> = sqrt(1)|0>, a|2> = sqrt(2)|1>
	site := Site{Index: 0, Levels: 3, NBefore: 1}
	a := Dense(A, site)
	assert.InDelta(1.0, real(a[0][1]), 1e-12)
	assert.InDelta(1.4142135623730951, real(a[1][2]), 1e-12)

	adag := Dense(ADag, site)
	assert.InDelta(1.0, real(adag[1][0]), 1e-12)
	assert.InDelta(1.4142135623730951, real(adag[2][1]), 1e-12)
}
