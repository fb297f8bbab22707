// internal/storage/factory.go
package storage

import (
	"fmt"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/logging"
	gormstorage "github.com/handle999/YOLO-MonoPed-Depth/internal/storage/gorm"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/storage/memory"
	sqlitestorage "github.com/handle999/YOLO-MonoPed-Depth/internal/storage/sqlite"
)

// NewBackend creates a storage backend based on configuration. The backend
// is not initialized; callers run Init.
func NewBackend(cfg config.StorageConfig, logManager *logging.SlogManager) (Backend, error) {
	writer := gormstorage.Dependencies{
		LogManager:    logManager,
		FlushInterval: cfg.Writer.FlushInterval,
		BatchSize:     cfg.Writer.BatchSize,
		MaxQueue:      cfg.Writer.MaxQueue,
	}
	switch cfg.Type {
	case "postgres":
		return gormstorage.New(writer), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			DumpInterval: cfg.SQLite.DumpInterval,
			DumpPath:     cfg.SQLite.DumpPath,
			Writer:       writer,
		}, logManager)
	case "memory":
		return memory.New(cfg.Memory), nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
