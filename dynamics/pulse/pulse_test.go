package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannelName(t *testing.T) {
	assert := assert.New(t)

	kind, n, err := ParseChannelName("D1")
	assert.NoError(err)
	assert.Equal(Drive, kind)
	assert.Equal(1, n)

	kind, n, err = ParseChannelName("U12")
	assert.NoError(err)
	assert.Equal(Control, kind)
	assert.Equal(12, n)

	_, _, err = ParseChannelName("Q9")
	assert.Error(err)
	_, _, err = ParseChannelName("D")
	assert.Error(err)
}

func TestChannelRegistryStableIDs(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	r := NewChannelRegistry()
	id0, err := r.Resolve("D0")
	require.NoError(err)
	id1, err := r.Resolve("D1")
	require.NoError(err)
	again, err := r.Resolve("D0")
	require.NoError(err)

	assert.Equal(id0, again)
	assert.NotEqual(id0, id1)

	name, err := r.Name(id1)
	require.NoError(err)
	assert.Equal("D1", name)
}

func TestControllerZeroOutsideEnvelope(t *testing.T) {
	assert := assert.New(t)

	cfg := Config{
		Dt:      1,
		LOFreqs: map[int]float64{0: 0},
		Library: Library{"p": []complex128{1, 1, 1}},
		Schedule: map[int][]ScheduleEntry{
			0: {{PulseName: "p", StartTime: 5}},
		},
		FrameChg: map[int][]FrameChangeEntry{},
	}
	ctl := NewController(cfg)

	assert.Equal(0.0, ctl.Amplitude(0, 0))
	assert.Equal(0.0, ctl.Amplitude(0, 4))
	assert.NotEqual(0.0, ctl.Amplitude(0, 5))
	assert.Equal(0.0, ctl.Amplitude(0, 8))
}

func TestFrameChangeIdempotence(t *testing.T) {
	assert := assert.New(t)

	cfgSingle := Config{
		Dt:      1,
		LOFreqs: map[int]float64{0: 0},
		Library: Library{"p": []complex128{1, 1, 1, 1, 1}},
		Schedule: map[int][]ScheduleEntry{
			0: {{PulseName: "p", StartTime: 0}},
		},
		FrameChg: map[int][]FrameChangeEntry{
			0: {{StartTime: 1, Phase: 1.2}},
		},
	}
	cfgSplit := Config{
		Dt:      cfgSingle.Dt,
		LOFreqs: cfgSingle.LOFreqs,
		Library: cfgSingle.Library,
		Schedule: cfgSingle.Schedule,
		FrameChg: map[int][]FrameChangeEntry{
			0: {{StartTime: 1, Phase: 0.7}, {StartTime: 1, Phase: 0.5}},
		},
	}

	a := NewController(cfgSingle).Amplitude(0, 3)
	b := NewController(cfgSplit).Amplitude(0, 3)
	assert.InDelta(a, b, 1e-12)
}
