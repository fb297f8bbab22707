package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds a per-process log file path such as
// logs/monoloc-server.20260212_213836.log.
func LogFilePath(logsDir, component string, start time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", component, start.Format("20060102_150405")),
	)
}
