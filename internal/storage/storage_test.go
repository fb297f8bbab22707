// internal/storage/storage_test.go
package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/internal/config"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/storage"
	gormstorage "github.com/handle999/YOLO-MonoPed-Depth/internal/storage/gorm"
	"github.com/handle999/YOLO-MonoPed-Depth/internal/storage/memory"
	sqlitestorage "github.com/handle999/YOLO-MonoPed-Depth/internal/storage/sqlite"
	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time interface checks
var (
	_ storage.Backend    = storage.Nop{}
	_ storage.Backend    = (*gormstorage.Backend)(nil)
	_ storage.Backend    = (*sqlitestorage.Backend)(nil)
	_ storage.Backend    = (*memory.Backend)(nil)
	_ storage.Exportable = (*memory.Backend)(nil)
)

func TestNewBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    any
		wantErr string
	}{
		{name: "memory", cfg: config.StorageConfig{Type: "memory", Memory: config.MemoryConfig{OutputDir: dir}}, want: &memory.Backend{}},
		{name: "none", cfg: config.StorageConfig{Type: "none"}, want: storage.Nop{}},
		{name: "empty", cfg: config.StorageConfig{}, want: storage.Nop{}},
		{name: "postgres", cfg: config.StorageConfig{Type: "postgres"}, want: &gormstorage.Backend{}},
		{name: "sqlite", cfg: config.StorageConfig{Type: "sqlite", SQLite: config.SQLiteConfig{
			DumpInterval: time.Minute,
			DumpPath:     filepath.Join(dir, "dump.db"),
		}}, want: &sqlitestorage.Backend{}},
		{name: "unknown", cfg: config.StorageConfig{Type: "redis"}, wantErr: "unknown storage type: redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := storage.NewBackend(tt.cfg, nil)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}

func TestNop(t *testing.T) {
	var b storage.Backend = storage.Nop{}
	assert.NoError(t, b.Init())
	assert.NoError(t, b.RecordLocalization(&core.Localization{}))
	assert.NoError(t, b.Close())
}
