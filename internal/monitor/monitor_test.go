package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/localize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats localize.Stats

func (f fakeStats) Stats() localize.Stats { return localize.Stats(f) }

type fakeQueue int

func (q fakeQueue) Pending() int { return int(q) }

func TestGetStatus(t *testing.T) {
	s := NewService(Dependencies{
		Stats:   fakeStats{Requests: 4, Targets: 7, Omitted: 1},
		Queue:   fakeQueue(3),
		Storage: "postgres",
	})
	s.started = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return s.started.Add(90*time.Second + 300*time.Millisecond) }

	st := s.GetStatus()
	assert.Equal(t, "1m30s", st.Uptime)
	assert.Equal(t, "postgres", st.Storage)
	assert.Equal(t, 3, st.PendingWrites)
	assert.Equal(t, int64(4), st.Localize.Requests)
	assert.Equal(t, int64(7), st.Localize.Targets)
}

func TestGetStatus_NoSources(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Equal(t, DefaultInterval, s.deps.Interval)

	st := s.GetStatus()
	assert.Zero(t, st.PendingWrites)
	assert.Equal(t, localize.Stats{}, st.Localize)
}

func TestWriteStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{Stats: fakeStats{Requests: 2}, StatusPath: path})

	_, err := s.WriteStatus()
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.Unmarshal(b, &st))
	assert.Equal(t, int64(2), st.Localize.Requests)
}

func TestWriteStatus_NoPath(t *testing.T) {
	s := NewService(Dependencies{})
	_, err := s.WriteStatus()
	assert.NoError(t, err)
}

func TestStartStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	s := NewService(Dependencies{
		Stats:      fakeStats{Requests: 1},
		Queue:      fakeQueue(1),
		StatusPath: path,
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "second Start is a no-op")
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}

func TestStart_BadPathKeepsRunning(t *testing.T) {
	s := NewService(Dependencies{
		StatusPath: filepath.Join(t.TempDir(), "missing", "status.json"),
		Interval:   5 * time.Millisecond,
	})
	require.NoError(t, s.Start())
	time.Sleep(20 * time.Millisecond)
	assert.True(t, s.IsRunning())
	s.Stop()
}
