// Package gormstorage implements the storage.Backend interface on GORM with
// an internal queue and a background DB writer goroutine. Without an
// injected DB it connects to Postgres.
package gormstorage

import (
	"fmt"
	"sync"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/database"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/logging"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/model"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/model/convert"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/queue"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"

	"gorm.io/gorm"
)

// Writer defaults.
const (
	DefaultFlushInterval = 2 * time.Second
	DefaultBatchSize     = 500
	DefaultMaxQueue      = 50000
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	LogManager    *logging.SlogManager
	FlushInterval time.Duration
	// BatchSize caps the requests written per transaction.
	BatchSize int
	// MaxQueue bounds unwritten requests; the oldest are dropped past it.
	MaxQueue int
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	requests *queue.Queue[model.LocalizationRequest]
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	if deps.BatchSize <= 0 {
		deps.BatchSize = DefaultBatchSize
	}
	if deps.MaxQueue <= 0 {
		deps.MaxQueue = DefaultMaxQueue
	}
	return &Backend{
		deps:     deps,
		requests: queue.New[model.LocalizationRequest](deps.MaxQueue),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
// If no DB was injected via Dependencies, it creates its own postgres connection.
func (b *Backend) Init() error {
	b.stopChan = make(chan struct{})

	if b.deps.DB == nil {
		db, err := database.OpenPostgres(database.PostgresDSN())
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
		if err = sqlDB.Ping(); err != nil {
			return fmt.Errorf("failed to validate connection: %w", err)
		}
		sqlDB.SetMaxOpenConns(10)
		b.deps.DB = db
	}

	b.deps.LogManager.WriteLog("setupDB", "Migrating schema", "INFO")
	if err := database.Setup(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}
	b.deps.LogManager.WriteLog("setupDB", "Database setup complete", "INFO")

	b.startDBWriter()
	return nil
}

// DB returns the connection in use, nil before Init.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Close stops the DB writer goroutine after a final flush.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() {
		if b.stopChan != nil {
			close(b.stopChan)
		}
	})
	b.wg.Wait()
	return nil
}

// RecordLocalization converts the localization to GORM rows and queues them.
func (b *Backend) RecordLocalization(l *core.Localization) error {
	row, err := convert.CoreToLocalizationRequest(*l)
	if err != nil {
		return fmt.Errorf("failed to convert localization %s: %w", l.RequestID, err)
	}
	if n := b.requests.Push(row); n > 0 {
		b.deps.LogManager.WriteLog(":DB:WRITER:", fmt.Sprintf("Write queue full, dropped %d oldest requests", n), "WARN")
	}
	return nil
}

// Pending returns the number of queued, unwritten requests.
func (b *Backend) Pending() int {
	return b.requests.Len()
}

// Dropped returns how many requests were evicted from a full queue.
func (b *Backend) Dropped() uint64 {
	return b.requests.Dropped()
}

// Flush writes everything queued so far, one transaction per batch.
func (b *Backend) Flush() {
	if b.deps.DB == nil {
		return
	}
	log := b.deps.LogManager.WriteLog
	start := time.Now()
	written := writeQueue(b.deps.DB, b.requests, b.deps.BatchSize, "localization requests", log)
	if written > 0 {
		log(":DB:WRITER:", fmt.Sprintf("Wrote %d localization requests in %s", written, time.Since(start)), "DEBUG")
	}
}

// writeQueue drains a queue into the database in batches, stopping at the
// first failed batch, which goes back to the head of the queue for the next
// cycle. It returns the number of items written.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], batchSize int, name string, log func(string, string, string)) int {
	written := 0
	for !q.Empty() {
		items := q.Take(batchSize)

		tx := db.Begin()
		if err := tx.Create(&items).Error; err != nil {
			log(":DB:WRITER:", fmt.Sprintf("Error creating %s: %v", name, err), "ERROR")
			tx.Rollback()
			q.Requeue(items...)
			return written
		}
		if err := tx.Commit().Error; err != nil {
			log(":DB:WRITER:", fmt.Sprintf("Error committing %s: %v", name, err), "ERROR")
			q.Requeue(items...)
			return written
		}
		written += len(items)
	}
	return written
}

// startDBWriter starts the background goroutine that periodically drains the queue into the DB.
func (b *Backend) startDBWriter() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ticker := time.NewTicker(b.deps.FlushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-b.stopChan:
				b.Flush()
				return
			case <-ticker.C:
				b.Flush()
			}
		}
	}()
}
