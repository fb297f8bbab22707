package localize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/dispatcher"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// Dispatcher commands.
const (
	CommandFlat    = "localize:flat"
	CommandMount   = "localize:mount"
	CommandPersist = "persist"
)

// DefaultPersistQueue is the persist buffer size when none is configured.
const DefaultPersistQueue = 1024

// Sink receives finished localizations. Storage backends and the influx
// manager both satisfy it.
type Sink interface {
	RecordLocalization(l *core.Localization) error
}

// CommandFor returns the localize command for a terrain.
func CommandFor(t core.Terrain) string {
	if t == core.TerrainFlat {
		return CommandFlat
	}
	return CommandMount
}

// Pipeline routes requests through a dispatcher: a synchronous localize
// command per terrain and, when sinks are configured, a buffered persist
// command that records results off the request path.
type Pipeline struct {
	d       *dispatcher.Dispatcher
	persist bool
	logger  *slog.Logger
}

// NewPipeline registers the service's handlers on d.
func NewPipeline(svc *Service, d *dispatcher.Dispatcher, persistQueue int, sinks ...Sink) *Pipeline {
	if persistQueue <= 0 {
		persistQueue = DefaultPersistQueue
	}

	for _, t := range []core.Terrain{core.TerrainFlat, core.TerrainOblique} {
		d.Register(CommandFor(t), localizeHandler(svc, t), dispatcher.Logged())
	}

	p := &Pipeline{d: d, logger: svc.logger}
	if len(sinks) > 0 {
		d.Register(CommandPersist, persistHandler(sinks), dispatcher.Buffered(persistQueue), dispatcher.Logged())
		p.persist = true
	}
	return p
}

// Localize runs req and queues the result for persistence. A full persist
// queue is logged, never returned: the caller still gets its result.
func (p *Pipeline) Localize(ctx context.Context, req Request) (*core.Localization, error) {
	res, err := p.d.Dispatch(dispatcher.Event{
		Command: CommandFor(req.Terrain),
		Payload: req,
		Context: ctx,
	})
	if err != nil {
		return nil, err
	}
	loc := res.(*core.Localization)

	if p.persist {
		if _, err := p.d.Dispatch(dispatcher.Event{Command: CommandPersist, Payload: loc}); err != nil {
			p.logger.WarnContext(ctx, "localization not persisted", "req_id", loc.RequestID, "error", err)
		}
	}
	return loc, nil
}

func localizeHandler(svc *Service, terrain core.Terrain) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		req, ok := e.Payload.(Request)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		req.Terrain = terrain
		if req.ReceivedAt.IsZero() {
			req.ReceivedAt = e.Timestamp
		}
		return svc.Localize(e.Ctx(), req)
	}
}

func persistHandler(sinks []Sink) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		loc, ok := e.Payload.(*core.Localization)
		if !ok {
			return nil, fmt.Errorf("unexpected payload %T", e.Payload)
		}
		var errs []error
		for _, s := range sinks {
			if err := s.RecordLocalization(loc); err != nil {
				errs = append(errs, fmt.Errorf("%T: %w", s, err))
			}
		}
		return nil, errors.Join(errs...)
	}
}
