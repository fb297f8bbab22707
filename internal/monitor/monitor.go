package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/localize"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/logging"
)

// DefaultInterval is how often the status file is rewritten.
const DefaultInterval = time.Second

// StatsSource reports localization totals.
type StatsSource interface {
	Stats() localize.Stats
}

// QueueSource reports writes waiting on a storage backend.
type QueueSource interface {
	Pending() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Stats      StatsSource
	// Queue is optional; only batching backends have one.
	Queue      QueueSource
	StatusPath string
	Interval   time.Duration
	Storage    string
}

// Status is one snapshot of the running service.
type Status struct {
	Time          time.Time      `json:"time"`
	Uptime        string         `json:"uptime"`
	Storage       string         `json:"storage"`
	PendingWrites int            `json:"pendingWrites"`
	Localize      localize.Stats `json:"localize"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	started   time.Time
	now       func() time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{
		deps:    deps,
		started: time.Now(),
		now:     time.Now,
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status.
func (s *Service) GetStatus() Status {
	now := s.now()
	st := Status{
		Time:    now,
		Uptime:  now.Sub(s.started).Truncate(time.Second).String(),
		Storage: s.deps.Storage,
	}
	if s.deps.Stats != nil {
		st.Localize = s.deps.Stats.Stats()
	}
	if s.deps.Queue != nil {
		st.PendingWrites = s.deps.Queue.Pending()
	}
	return st
}

// WriteStatus replaces the status file with the current status.
func (s *Service) WriteStatus() (Status, error) {
	st := s.GetStatus()
	if s.deps.StatusPath == "" {
		return st, nil
	}
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return st, fmt.Errorf("encoding status: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusPath, append(b, '\n'), 0644); err != nil {
		return st, fmt.Errorf("writing status file: %w", err)
	}
	return st, nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				st, err := s.WriteStatus()
				if err != nil {
					s.log(err.Error(), "ERROR")
					continue
				}
				if st.PendingWrites > 0 {
					s.log(fmt.Sprintf("%d localizations waiting on storage", st.PendingWrites), "DEBUG")
				}
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for its goroutine.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}

func (s *Service) log(msg, level string) {
	if s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog("statusMonitor", msg, level)
	}
}
