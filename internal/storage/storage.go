// internal/storage/storage.go
package storage

import "github.com/handle999/YOLO-MonoPed-Depth/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// RecordLocalization stores one finished request. Implementations must
	// not retain l past the call unless they copy it.
	RecordLocalization(l *core.Localization) error
}

// Exportable is an optional interface for backends that write their
// records to a file on Close.
type Exportable interface {
	GetExportedFilePath() string
}

// Nop discards everything. It backs storage.type "none".
type Nop struct{}

func (Nop) Init() error { return nil }

func (Nop) Close() error { return nil }

func (Nop) RecordLocalization(*core.Localization) error { return nil }
