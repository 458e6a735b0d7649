package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGetDeleteRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := New()
	id, err := s.Save("definition-payload")
	require.NoError(err)
	assert.NotEmpty(id)

	got, err := s.Get(id)
	require.NoError(err)
	assert.Equal("definition-payload", got)

	s.Delete(id)
	_, err = s.Get(id)
	assert.Error(err)
}

func TestGetUnknownIDFails(t *testing.T) {
	s := New()
	_, err := s.Get("does-not-exist")
	assert.Error(t, err)
}

func TestSaveAssignsDistinctIDs(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	s := New()
	id1, err := s.Save("a")
	require.NoError(err)
	id2, err := s.Save("b")
	require.NoError(err)
	assert.NotEqual(id1, id2)
}
