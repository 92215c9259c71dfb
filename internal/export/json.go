package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir is the fixed output directory for export artifacts.
const DefaultDir = "garmin_exports"

const dateLayout = "2006-01-02"

// Writer serializes run results as indented JSON files under one output
// directory, which it owns: created on demand, files overwritten silently.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{dir: dir}
}

func (w *Writer) Dir() string { return w.dir }

// Write marshals v and writes it to filename inside the output directory,
// replacing any previous artifact of the same name. Returns the full path of
// the written file.
func (w *Writer) Write(v any, filename string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	path := filepath.Join(w.dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// DailyFilename names the daily artifact from the resolved range.
func DailyFilename(start, end time.Time) string {
	return fmt.Sprintf("garmin_daily_%s_%s.json", start.Format(dateLayout), end.Format(dateLayout))
}

// ActivitiesFilename names the activity artifact from the run date.
func ActivitiesFilename(day time.Time) string {
	return fmt.Sprintf("garmin_activities_%s.json", day.Format(dateLayout))
}
