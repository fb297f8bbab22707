// internal/storage/memory/memory.go
package memory

import (
	"slices"
	"sync"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// Backend keeps localizations in memory and exports them to JSON on Close.
type Backend struct {
	cfg     config.MemoryConfig
	started time.Time
	now     func() time.Time

	records        []core.Localization
	lastExportPath string

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
		now: time.Now,
	}
}

// Init starts a new session.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.started = b.now()
	b.records = nil
	return nil
}

// Close exports the session. An empty session writes nothing.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) == 0 {
		return nil
	}
	return b.exportJSON()
}

// RecordLocalization stores a deep copy of l.
func (b *Backend) RecordLocalization(l *core.Localization) error {
	c := *l
	c.Camera.Distortion = slices.Clone(l.Camera.Distortion)
	c.Targets = make([]core.Target, len(l.Targets))
	for i, t := range l.Targets {
		t.Estimate.Keypoints = slices.Clone(t.Estimate.Keypoints)
		c.Targets[i] = t
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, c)
	return nil
}

// Localizations returns a copy of everything recorded this session.
func (b *Backend) Localizations() []core.Localization {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.records)
}

// GetExportedFilePath returns the path written by the last Close.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
