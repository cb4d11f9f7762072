package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/logger"
)

// CSVExporter writes each result set to a timestamped file in a directory
type CSVExporter struct {
	dir  string
	now  func() time.Time
	path string
}

// NewCSVExporter creates an exporter writing into dir, creating it if needed.
// A leading ~/ is expanded to the home directory.
func NewCSVExporter(dir string) (*CSVExporter, error) {
	if dir == "" {
		dir = "."
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &CSVExporter{
		dir: dir,
		now: time.Now,
	}, nil
}

// Filename returns the export file name for a run finishing at t
func Filename(t time.Time) string {
	return fmt.Sprintf("sample_events_%d.csv", t.Unix())
}

// Export writes rs to <dir>/sample_events_<unix>.csv
func (e *CSVExporter) Export(rs *event.ResultSet) error {
	path := filepath.Join(e.dir, Filename(e.now()))

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rs); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}

	e.path = path
	logger.Info("Exported results", logger.Fields{
		"path":    path,
		"records": rs.Len(),
	})
	return nil
}

// Path returns the file written by the last successful Export
func (e *CSVExporter) Path() string {
	return e.path
}
