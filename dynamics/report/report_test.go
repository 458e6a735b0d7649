package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuffixedInsertsBeforeExtension(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("out_20260730.csv", suffixed("out.csv", "20260730"))
	assert.Equal("out_20260730", suffixed("out", "20260730"))
	assert.Equal("dir.with.dots/out_20260730.csv", suffixed("dir.with.dots/out.csv", "20260730"))
	assert.Equal("out.csv", suffixed("out.csv", ""))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "run.csv")

	rows := []TimestepRow{
		{Time: 0, Populations: []float64{1, 0}},
		{Time: 0.5, Populations: []float64{0.5, 0.5}},
	}
	final, err := WriteCSV(path, "stamp", rows)
	require.NoError(err)
	assert.Equal(filepath.Join(dir, "run_stamp.csv"), final)

	data, err := os.ReadFile(final)
	require.NoError(err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(lines, 3)
	assert.Equal("time,p0,p1", lines[0])
	assert.Equal("0,1,0", lines[1])
	assert.Equal("0.5,0.5,0.5", lines[2])
}

func TestWriteCSVEmptyRows(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "empty.csv")

	final, err := WriteCSV(path, "", nil)
	require.NoError(err)
	assert.Equal(path, final)

	data, err := os.ReadFile(final)
	require.NoError(err)
	assert.Equal("time\n", string(data))
}
