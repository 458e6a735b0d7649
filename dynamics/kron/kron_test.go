package kron

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kegliz/qplay-dynamics/dynamics/lak"
	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

// toDense materializes a sparse entry list into a dense dim x dim
// matrix for easy assertion in tests.
func toDense(entries []lak.Entry, dim int) [][]complex128 {
	m := make([][]complex128, dim)
	for i := range m {
		m[i] = make([]complex128, dim)
	}
	for _, e := range entries {
		m[e.Row][e.Col] += e.Value
	}
	return m
}

func TestEmbed1DeltaFunctionIdentity(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistryFixture()
	s0, _ := r.Site(0)

	entries := Embed1(1, qubit.X, s0, r.GlobalDim())
	m := toDense(entries, r.GlobalDim())

	// X on qubit 0 of a 2-qubit system: |00> (index 0) flips to |10>
	// (index 2), so <10|X0|00> should be 1 and <00|X0|00> should be 0.
	assert.Equal(complex128(0), m[0][0])
	assert.Equal(complex128(1), m[2][0])
}

func TestEmbed2DifferentSitesIsKroneckerProduct(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistryFixture()
	s0, _ := r.Site(0)
	s1, _ := r.Site(1)

	entries := Embed2(1, qubit.X, s0, qubit.X, s1, r.GlobalDim())
	m := toDense(entries, r.GlobalDim())

	// X0*X1 flips both bits: |00> -> |11>, basis index 0 -> 3.
	assert.Equal(complex128(1), m[3][0])
	assert.Equal(complex128(0), m[0][0])
}

func TestEmbed2SameSiteMultipliesOperators(t *testing.T) {
	assert := assert.New(t)
	r := NewRegistryFixture()
	s0, _ := r.Site(0)

	// X*X on the same site is identity.
	entries := Embed2(1, qubit.X, s0, qubit.X, s0, r.GlobalDim())
	m := toDense(entries, r.GlobalDim())
	assert.Equal(complex128(1), m[0][0])
	assert.Equal(complex128(1), m[2][2])
}

func TestZeroPatternDeduplicates(t *testing.T) {
	assert := assert.New(t)
	a := []lak.Entry{{Row: 0, Col: 0, Value: 1}, {Row: 1, Col: 1, Value: 2}}
	b := []lak.Entry{{Row: 0, Col: 0, Value: 5}, {Row: 2, Col: 2, Value: 7}}
	out := ZeroPattern(a, b)
	assert.Len(out, 3)
	for _, e := range out {
		assert.Equal(complex128(0), e.Value)
	}
}

// NewRegistryFixture returns a 2-qubit registry for test convenience.
func NewRegistryFixture() *qubit.Registry {
	r := qubit.NewRegistry()
	r.Add(2)
	r.Add(2)
	return r
}
