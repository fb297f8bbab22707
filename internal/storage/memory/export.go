// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/handle999/YOLO-MonoPed-Depth/pkg/core"
)

// Export is the root JSON structure of a session file.
type Export struct {
	SessionStart  time.Time           `json:"sessionStart"`
	ExportedAt    time.Time           `json:"exportedAt"`
	Requests      int                 `json:"requests"`
	Targets       int                 `json:"targets"`
	Omitted       int                 `json:"omitted"`
	Devices       []string            `json:"devices"`
	Localizations []core.Localization `json:"localizations"`
}

// exportJSON writes the session to a (optionally gzipped) JSON file.
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	timestamp := b.started.UTC().Format("20060102_150405")
	filename := fmt.Sprintf("localizations_%s.json", timestamp)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() Export {
	export := Export{
		SessionStart:  b.started,
		ExportedAt:    b.now(),
		Requests:      len(b.records),
		Devices:       make([]string, 0),
		Localizations: b.records,
	}

	for _, l := range b.records {
		export.Targets += len(l.Targets)
		export.Omitted += l.Omitted()
		if l.Camera.DeviceID != "" && !slices.Contains(export.Devices, l.Camera.DeviceID) {
			export.Devices = append(export.Devices, l.Camera.DeviceID)
		}
	}
	slices.Sort(export.Devices)

	return export
}

func writeJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data Export) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
