package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFeaturesYAML(t *testing.T) {
	fs, err := DecodeFeatures(strings.NewReader(`
features:
  - {id: a, x: 0, y: 0, tool: T1}
  - {id: b, x: 10, y: 0, z: 2}
`))
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, "T1", fs[0].Tool)
	require.NotNil(t, fs[1].Z)
	assert.Equal(t, 2.0, *fs[1].Z)
	assert.Nil(t, fs[0].Z)
}

func TestDecodeFeaturesJSONList(t *testing.T) {
	fs, err := DecodeFeatures(strings.NewReader(`[{"x": 1, "y": 2}, {"x": 3, "y": 4, "tool": "T2"}]`))
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.Equal(t, 3.0, fs[1].X)
}

func TestDecodeJobs(t *testing.T) {
	jf, err := DecodeJobs(strings.NewReader(`
machines: [M1, M2]
jobs:
  - id: A
    processingTime: 3
    dueDate: 10
    machine1Time: 1
    machine2Time: 2
    operations:
      - {machine: M1, processingTime: 1}
      - {machine: M2, processingTime: 2}
  - {id: B, processingTime: 1, arrivalTime: 2}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M2"}, jf.Machines)
	require.Len(t, jf.Jobs, 2)
	require.NotNil(t, jf.Jobs[0].DueDate)
	assert.Equal(t, 10.0, *jf.Jobs[0].DueDate)
	assert.Len(t, jf.Jobs[0].Operations, 2)
	assert.Nil(t, jf.Jobs[1].DueDate)
	assert.Equal(t, 2.0, jf.Jobs[1].ArrivalTime)

	jf, err = DecodeJobs(strings.NewReader(`[{"id": "x", "processingTime": 4}]`))
	require.NoError(t, err)
	assert.Len(t, jf.Jobs, 1)
	assert.Empty(t, jf.Machines)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "features.json")
	require.NoError(t, os.WriteFile(fp, []byte(`{"features": [{"x": 1, "y": 1}]}`), 0o644))
	fs, err := LoadFeatures(fp)
	require.NoError(t, err)
	assert.Len(t, fs, 1)

	jp := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(jp, []byte("- {id: a, processingTime: 1}\n"), 0o644))
	jf, err := LoadJobs(jp)
	require.NoError(t, err)
	assert.Len(t, jf.Jobs, 1)

	_, err = LoadJobs(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeFeatures(strings.NewReader(""))
	assert.Error(t, err)
	_, err = DecodeJobs(strings.NewReader("jobs: {not: a list}"))
	assert.Error(t, err)
}
