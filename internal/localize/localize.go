// Package localize runs one localization request end to end: camera
// validation, per-detection ranging, geodetic projection and uncertainty
// regions.
package localize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/geo"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/logging"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/ranging"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// Request is one batch of detections from a single camera frame.
type Request struct {
	RequestID  string
	ReceivedAt time.Time
	Terrain    core.Terrain
	Camera     core.CameraConfig
	Detections []core.Detection
}

// Localizer turns a request into a localization.
type Localizer interface {
	Localize(ctx context.Context, req Request) (*core.Localization, error)
}

// Options configures a Service. Zero values take defaults.
type Options struct {
	Ranging ranging.Options
	// RegionHalfWidth is the angular half-width of each uncertainty wedge in degrees.
	RegionHalfWidth float64
	// Workers bounds concurrent ranging within one request.
	Workers int
	Logger  *slog.Logger
}

// Service localizes requests. It is safe for concurrent use.
type Service struct {
	estimator *ranging.Estimator
	halfWidth float64
	workers   int
	logger    *slog.Logger

	requests metric.Int64Counter
	targets  metric.Int64Counter
	omitted  metric.Int64Counter

	stats struct {
		requests, targets, omitted, rejected atomic.Int64
		lastDuration                         atomic.Int64
	}
}

// Stats is a snapshot of what a Service has processed since it was created.
type Stats struct {
	Requests     int64         `json:"requests"`
	Targets      int64         `json:"targets"`
	Omitted      int64         `json:"omitted"`
	Rejected     int64         `json:"rejected"`
	LastDuration time.Duration `json:"lastDuration"`
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	s := &Service{
		estimator: ranging.New(opts.Ranging),
		halfWidth: opts.RegionHalfWidth,
		workers:   opts.Workers,
		logger:    opts.Logger,
	}
	if s.halfWidth <= 0 {
		s.halfWidth = geo.DefaultHalfWidth
	}
	if s.workers <= 0 {
		s.workers = runtime.NumCPU()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	m := meter()
	var err error
	s.requests, err = m.Int64Counter("localize.requests",
		metric.WithDescription("Localization requests completed, by terrain"))
	if err != nil {
		return nil, fmt.Errorf("creating requests counter: %w", err)
	}
	s.targets, err = m.Int64Counter("localize.targets",
		metric.WithDescription("Targets localized, by terrain and reference mode"))
	if err != nil {
		return nil, fmt.Errorf("creating targets counter: %w", err)
	}
	s.omitted, err = m.Int64Counter("localize.targets.omitted",
		metric.WithDescription("Detections omitted because the ground could not be intersected"))
	if err != nil {
		return nil, fmt.Errorf("creating omitted counter: %w", err)
	}
	return s, nil
}

// Estimator returns the ranging estimator in use.
func (s *Service) Estimator() *ranging.Estimator { return s.estimator }

// Stats returns the running totals.
func (s *Service) Stats() Stats {
	return Stats{
		Requests:     s.stats.requests.Load(),
		Targets:      s.stats.targets.Load(),
		Omitted:      s.stats.omitted.Load(),
		Rejected:     s.stats.rejected.Load(),
		LastDuration: time.Duration(s.stats.lastDuration.Load()),
	}
}

// TargetID names a target by its input position: person_01, person_02, ...
func TargetID(index int) string {
	return fmt.Sprintf("person_%02d", index+1)
}

// Localize ranges every detection of req. A camera configuration error
// fails the whole request before any ranging. Detections whose line of
// sight never meets the ground are omitted; the rest keep input order.
func (s *Service) Localize(ctx context.Context, req Request) (*core.Localization, error) {
	start := time.Now()
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = start
	}
	ctx = logging.WithRequest(ctx, req.RequestID, req.Camera.DeviceID)

	if err := s.estimator.Validate(req.Camera); err != nil {
		s.stats.rejected.Add(1)
		s.logger.WarnContext(ctx, "rejected camera configuration", "error", err)
		return nil, err
	}

	origin := req.Camera.GPS.Point()
	projector := s.estimator.Options().Projector
	results := make([]*core.Target, len(req.Detections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, det := range req.Detections {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			est, err := s.estimator.Estimate(req.Terrain, req.Camera, i, det)
			if errors.Is(err, ranging.ErrGeometryInfeasible) {
				s.logger.DebugContext(ctx, "target omitted", "index", i, "error", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("detection %d: %w", i, err)
			}

			region := geo.BuildRegion(projector, origin, est.Bearing, est.DistanceMin, est.DistanceMax, s.halfWidth)
			results[i] = &core.Target{
				TargetID: TargetID(i),
				Estimate: est,
				Region:   region,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	loc := &core.Localization{
		RequestID:  req.RequestID,
		ReceivedAt: req.ReceivedAt,
		Terrain:    req.Terrain,
		Camera:     req.Camera,
		Detections: len(req.Detections),
		Targets:    make([]core.Target, 0, len(results)),
	}
	for _, t := range results {
		if t != nil {
			loc.Targets = append(loc.Targets, *t)
		}
	}
	loc.Duration = time.Since(start)

	s.record(ctx, loc)
	return loc, nil
}

func (s *Service) record(ctx context.Context, loc *core.Localization) {
	s.stats.requests.Add(1)
	s.stats.targets.Add(int64(len(loc.Targets)))
	s.stats.omitted.Add(int64(loc.Omitted()))
	s.stats.lastDuration.Store(int64(loc.Duration))

	terrain := attribute.String("terrain", loc.Terrain.String())
	s.requests.Add(ctx, 1, metric.WithAttributes(terrain))
	for _, t := range loc.Targets {
		s.targets.Add(ctx, 1, metric.WithAttributes(terrain, attribute.String("mode", t.Estimate.Mode.String())))
	}
	if n := loc.Omitted(); n > 0 {
		s.omitted.Add(ctx, int64(n), metric.WithAttributes(terrain))
	}

	s.logger.InfoContext(ctx, "localized",
		"terrain", loc.Terrain.String(),
		"detections", loc.Detections,
		"targets", len(loc.Targets),
		"omitted", loc.Omitted(),
		"duration", loc.Duration,
	)
}
