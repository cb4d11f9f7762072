package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pfrederiksen/event-enricher/internal/event"
)

// Header is the CSV column order
var Header = []string{"url", "organizer", "title", "domain", "domain_source", "organizer_host"}

// WriteCSV writes rs as CSV with a header row. Absent fields are empty cells.
func WriteCSV(w io.Writer, rs *event.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range rs.Records {
		row := []string{
			r.SourceURL,
			r.Organizer,
			r.Title,
			r.DomainURL(),
			string(r.DomainSource()),
			r.DomainHost(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.SourceURL, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriterExporter writes CSV to an io.Writer, such as stdout
type WriterExporter struct {
	w io.Writer
}

// NewWriterExporter creates an exporter writing to w
func NewWriterExporter(w io.Writer) *WriterExporter {
	return &WriterExporter{w: w}
}

// Export writes rs to the underlying writer
func (e *WriterExporter) Export(rs *event.ResultSet) error {
	return WriteCSV(e.w, rs)
}
