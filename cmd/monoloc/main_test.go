package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/api"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestRun_SampleLocal(t *testing.T) {
	resetViper(t)
	out := filepath.Join(t.TempDir(), "resp.json")
	viper.Set("output", out)

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), &buf))

	assert.Contains(t, buf.String(), "request sample: 2 target(s)")
	assert.Contains(t, buf.String(), "person_01")
	assert.Contains(t, buf.String(), "person_02")

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var data api.ResponseData
	require.NoError(t, json.Unmarshal(b, &data))
	require.Len(t, data.Results, 2)
	assert.InDelta(t, 10.014, data.Results[0].ComputationDetails.CalculatedDepth, 1e-2)
}

func TestRun_TerrainOverride(t *testing.T) {
	resetViper(t)
	viper.Set("terrain", "mount")

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), &buf))
	assert.Contains(t, buf.String(), "alt=")
}

func TestRun_InputFile(t *testing.T) {
	resetViper(t)
	body := sampleRequest()
	body.ReqID = "from-file"
	body.Targets = body.Targets[:1]
	b, err := json.Marshal(body)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, b, 0644))
	viper.Set("input", path)

	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), &buf))
	assert.Contains(t, buf.String(), "request from-file: 1 target(s)")
}

func TestRun_BadInput(t *testing.T) {
	resetViper(t)
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	viper.Set("input", path)

	assert.ErrorContains(t, run(context.Background(), &bytes.Buffer{}), "parsing")

	viper.Set("input", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, run(context.Background(), &bytes.Buffer{}), "reading request")
}

func TestRun_InvalidTerrain(t *testing.T) {
	resetViper(t)
	viper.Set("terrain", "swamp")
	assert.ErrorContains(t, run(context.Background(), &bytes.Buffer{}), "unknown terrain")
}
