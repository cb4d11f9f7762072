package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pfrederiksen/event-enricher/internal/event"
	"github.com/pfrederiksen/event-enricher/internal/pipeline"
)

var (
	_ pipeline.Exporter = (*CSVExporter)(nil)
	_ pipeline.Exporter = (*WriterExporter)(nil)
)

func sampleResultSet() *event.ResultSet {
	rs := event.NewResultSet("https://10times.com/events")
	rs.Add(event.NewRecord(event.Stub{SourceURL: "https://10times.com/acme-expo"}, "Acme Events", "Acme Expo 2026", &event.Domain{
		URL:    "https://www.acme-events.com/",
		Source: event.SourceDirectory,
		Host:   "acme-events.com",
	}))
	rs.Add(event.NewRecord(event.Stub{SourceURL: "https://10times.com/global-food-summit"}, "Food, Drink & Co", "Global \"Food\" Summit", &event.Domain{
		URL:    "example.com",
		Source: event.SourceLookup,
		Host:   "example.com",
	}))
	rs.Add(event.NewRecord(event.Stub{SourceURL: "https://10times.com/devcon-berlin"}, "", "DevCon Berlin", nil))
	return rs
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResultSet()); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}

	want := [][]string{
		{"url", "organizer", "title", "domain", "domain_source", "organizer_host"},
		{"https://10times.com/acme-expo", "Acme Events", "Acme Expo 2026", "https://www.acme-events.com/", "directory", "acme-events.com"},
		{"https://10times.com/global-food-summit", "Food, Drink & Co", "Global \"Food\" Summit", "example.com", "lookup", "example.com"},
		{"https://10times.com/devcon-berlin", "", "DevCon Berlin", "", "", ""},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, event.NewResultSet("https://10times.com/events")); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if got := buf.String(); got != "url,organizer,title,domain,domain_source,organizer_host\n" {
		t.Errorf("WriteCSV() = %q, want header only", got)
	}
}

func TestCSVExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	exp, err := NewCSVExporter(dir)
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}
	exp.now = func() time.Time { return time.Unix(1760400000, 0) }

	if err := exp.Export(sampleResultSet()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	wantPath := filepath.Join(dir, "sample_events_1760400000.csv")
	if exp.Path() != wantPath {
		t.Errorf("Path() = %q, want %q", exp.Path(), wantPath)
	}

	data, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 4 {
		t.Errorf("export has %d lines, want 4", lines)
	}
}

func TestNewCSVExporter_HomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	exp, err := NewCSVExporter("~/exports")
	if err != nil {
		t.Fatalf("NewCSVExporter() error = %v", err)
	}
	if exp.dir != filepath.Join(home, "exports") {
		t.Errorf("dir = %q, want %q", exp.dir, filepath.Join(home, "exports"))
	}
	if _, err := os.Stat(exp.dir); err != nil {
		t.Errorf("output directory not created: %v", err)
	}
}

func TestNewCSVExporter_Unwritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewCSVExporter(filepath.Join(file, "out")); err == nil {
		t.Error("NewCSVExporter() expected error when parent is a file")
	}
}

func TestWriterExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriterExporter(&buf).Export(sampleResultSet()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "url,organizer,title") {
		t.Errorf("Export() output = %q", buf.String())
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(time.Unix(42, 0)); got != "sample_events_42.csv" {
		t.Errorf("Filename() = %q", got)
	}
}
