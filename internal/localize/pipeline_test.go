package localize

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/dispatcher"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	seen []string
	err  error
}

func (s *recordingSink) RecordLocalization(l *core.Localization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, l.RequestID)
	return s.err
}

func (s *recordingSink) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func newTestPipeline(t *testing.T, sinks ...Sink) (*Pipeline, *dispatcher.Dispatcher) {
	t.Helper()
	d, err := dispatcher.New(quietLogger)
	require.NoError(t, err)
	return NewPipeline(newTestService(t, 2), d, 8, sinks...), d
}

func TestCommandFor(t *testing.T) {
	assert.Equal(t, CommandFlat, CommandFor(core.TerrainFlat))
	assert.Equal(t, CommandMount, CommandFor(core.TerrainOblique))
}

func TestPipeline_RegistersCommands(t *testing.T) {
	_, d := newTestPipeline(t)
	assert.True(t, d.HasHandler(CommandFlat))
	assert.True(t, d.HasHandler(CommandMount))
	assert.False(t, d.HasHandler(CommandPersist), "no sinks, no persist command")
	d.Close()
}

func TestPipeline_LocalizesAndPersists(t *testing.T) {
	sink1, sink2 := &recordingSink{}, &recordingSink{}
	p, d := newTestPipeline(t, sink1, sink2)

	for _, id := range []string{"a", "b", "c"} {
		loc, err := p.Localize(context.Background(), Request{
			RequestID:  id,
			Terrain:    core.TerrainOblique,
			Camera:     testCamera(),
			Detections: []core.Detection{person(700)},
		})
		require.NoError(t, err)
		assert.Equal(t, core.TerrainOblique, loc.Terrain)
		assert.True(t, loc.Targets[0].Estimate.HasAltitude)
	}

	d.Close()
	assert.Equal(t, []string{"a", "b", "c"}, sink1.requests())
	assert.Equal(t, []string{"a", "b", "c"}, sink2.requests())
}

func TestPipeline_TerrainComesFromCommand(t *testing.T) {
	_, d := newTestPipeline(t)
	defer d.Close()

	res, err := d.Dispatch(dispatcher.Event{
		Command: CommandFlat,
		Payload: Request{Terrain: core.TerrainOblique, Camera: testCamera(), Detections: []core.Detection{person(700)}},
	})
	require.NoError(t, err)
	loc := res.(*core.Localization)
	assert.Equal(t, core.TerrainFlat, loc.Terrain)
	assert.False(t, loc.ReceivedAt.IsZero(), "received time falls back to the event timestamp")
}

func TestPipeline_SinkErrorDoesNotFailRequest(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	p, d := newTestPipeline(t, sink)

	_, err := p.Localize(context.Background(), Request{RequestID: "x", Camera: testCamera()})
	require.NoError(t, err)

	d.Close()
	assert.Equal(t, []string{"x"}, sink.requests())
}

func TestPipeline_ConfigErrorIsNotPersisted(t *testing.T) {
	sink := &recordingSink{}
	p, d := newTestPipeline(t, sink)

	cam := testCamera()
	cam.Hardware.SensorWidthMM = 0
	_, err := p.Localize(context.Background(), Request{Camera: cam})
	assert.Error(t, err)

	d.Close()
	assert.Empty(t, sink.requests())
}

func TestLocalizeHandler_BadPayload(t *testing.T) {
	_, err := localizeHandler(newTestService(t, 1), core.TerrainFlat)(dispatcher.Event{Payload: 42})
	assert.EqualError(t, err, "unexpected payload int")
}

func TestPersistHandler_JoinsErrors(t *testing.T) {
	ok := &recordingSink{}
	bad := &recordingSink{err: errors.New("boom")}

	_, err := persistHandler([]Sink{bad, ok})(dispatcher.Event{Payload: &core.Localization{RequestID: "r"}})
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []string{"r"}, ok.requests())
}
