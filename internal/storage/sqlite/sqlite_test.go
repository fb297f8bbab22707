package sqlitestorage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/database"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/model"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, interval time.Duration) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		DSN:          filepath.Join(dir, "live.db"),
		DumpPath:     filepath.Join(dir, "dump.db"),
		DumpInterval: interval,
	}
}

func localization(reqID string) *core.Localization {
	return &core.Localization{
		RequestID:  reqID,
		ReceivedAt: time.Now().UTC(),
		Terrain:    core.TerrainOblique,
		Camera:     core.CameraConfig{DeviceID: "cam_02", GPS: core.GPS{Lat: 22.5, Lng: 114.0, Alt: 40}},
		Detections: 1,
	}
}

func countRequests(t *testing.T, path string) int64 {
	t.Helper()
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	var n int64
	require.NoError(t, db.Model(&model.LocalizationRequest{}).Count(&n).Error)
	return n
}

func TestClose_DumpsToDisk(t *testing.T) {
	cfg := testConfig(t, time.Hour)
	b, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())

	require.NoError(t, b.RecordLocalization(localization("req-1")))
	require.NoError(t, b.RecordLocalization(localization("req-2")))
	require.NoError(t, b.Close())

	assert.Equal(t, int64(2), countRequests(t, cfg.DumpPath))
}

func TestDumpLoop(t *testing.T) {
	cfg := testConfig(t, 20*time.Millisecond)
	b, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { _ = b.Close() })

	assert.Eventually(t, func() bool {
		_, err := os.Stat(cfg.DumpPath)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestClose_NoDumpPath(t *testing.T) {
	cfg := testConfig(t, 0)
	cfg.DumpPath = ""
	b, err := New(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}
