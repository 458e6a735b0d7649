package hparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kegliz/qplay-dynamics/dynamics/qubit"
)

func TestParseSimpleTerm(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	terms, err := Parse("2.0*X0", nil)
	require.NoError(err)
	require.Len(terms, 1)
	assert.Equal(complex(2, 0), terms[0].Coef)
	assert.Equal(qubit.X, terms[0].Ops[0].Op)
	assert.Equal(0, terms[0].Ops[0].Site)
	assert.Empty(terms[0].Channel)
}

func TestParseTwoOperatorTerm(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	terms, err := Parse("0.5*X0*Z1", nil)
	require.NoError(err)
	require.Len(terms, 1)
	require.Len(terms[0].Ops, 2)
	assert.Equal(qubit.X, terms[0].Ops[0].Op)
	assert.Equal(0, terms[0].Ops[0].Site)
	assert.Equal(qubit.Z, terms[0].Ops[1].Op)
	assert.Equal(1, terms[0].Ops[1].Site)
}

func TestParseSumExpandsInclusive(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	terms, err := Parse("_SUM[i,0,2,1.0*X{i}]", nil)
	require.NoError(err)
	require.Len(terms, 3)
	for i, term := range terms {
		assert.Equal(complex(1, 0), term.Coef)
		assert.Equal(i, term.Ops[0].Site)
		assert.Equal(qubit.X, term.Ops[0].Op)
	}
}

func TestParseDistributionWithChannel(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	terms, err := Parse("0.5*(X0+Y0)||D1", nil)
	require.NoError(err)
	require.Len(terms, 2)

	assert.Equal(complex(0.5, 0), terms[0].Coef)
	assert.Equal(qubit.X, terms[0].Ops[0].Op)
	assert.Equal("D1", terms[0].Channel)

	assert.Equal(complex(0.5, 0), terms[1].Coef)
	assert.Equal(qubit.Y, terms[1].Ops[0].Op)
	assert.Equal("D1", terms[1].Channel)
}

func TestParseDistributionWithMinusSign(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	terms, err := Parse("(X0-Y0)", nil)
	require.NoError(err)
	require.Len(terms, 2)
	assert.Equal(complex(1, 0), terms[0].Coef)
	assert.Equal(complex(-1, 0), terms[1].Coef)
}

func TestParseVariableCoefficient(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	terms, err := Parse("omega*X0", map[string]float64{"omega": 3.5})
	require.NoError(err)
	require.Len(terms, 1)
	assert.Equal(complex(3.5, 0), terms[0].Coef)
}

func TestParseRejectsMoreThanTwoOperators(t *testing.T) {
	_, err := Parse("X0*Y0*Z0", nil)
	assert.Error(t, err)
}

func TestParseRejectsNestedSum(t *testing.T) {
	_, err := Parse("_SUM[i,0,1,_SUM[j,0,1,X{j}]]", nil)
	assert.Error(t, err)
}

func TestParseRejectsMalformedChannel(t *testing.T) {
	_, err := Parse("X0||Q9", nil)
	assert.Error(t, err)
}
