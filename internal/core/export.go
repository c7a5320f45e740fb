package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LocalCSVHeader is the first line of a local CSV export.
const LocalCSVHeader = "email,domain,site"

// LocalCSV renders extracted rows as "email,domain,site" lines joined by
// "\n", with no trailing newline.
//
// Fields are joined with a bare comma and are not quoted. A comma inside a
// field shifts the columns of that line; downstream tools that read these
// files depend on the plain format.
func LocalCSV(rows []ExtractedRow) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, LocalCSVHeader)
	for _, r := range rows {
		lines = append(lines, r.Email+","+r.Domain+","+r.Site)
	}
	return strings.Join(lines, "\n")
}

// EncodeLocalCSV writes LocalCSV(rows) to w.
func EncodeLocalCSV(w io.Writer, rows []ExtractedRow) error {
	_, err := io.WriteString(w, LocalCSV(rows))
	return err
}

// ExportType selects which rows a server-rendered export contains.
type ExportType string

const (
	ExportAll       ExportType = "all"
	ExportValid     ExportType = "valid"
	ExportInvalid   ExportType = "invalid"
	ExportAcceptAll ExportType = "accept_all"
)

// ParseExportType accepts all, valid, invalid and accept_all. Empty and
// "any" mean all.
func ParseExportType(s string) (ExportType, error) {
	switch t := ExportType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", StatusAny:
		return ExportAll, nil
	case ExportAll, ExportValid, ExportInvalid, ExportAcceptAll:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown export type %q", ErrExportFailed, s)
	}
}

// ExportFileName returns the download name for a server-rendered export.
func ExportFileName(t ExportType, jobID string) string {
	if t == "" {
		t = ExportAll
	}
	return fmt.Sprintf("results-%s-%s.csv", t, jobID)
}

// Exporter streams server-rendered exports.
type Exporter struct {
	downloader ExportDownloader
}

// NewExporter creates an Exporter.
func NewExporter(d ExportDownloader) *Exporter {
	return &Exporter{downloader: d}
}

// Open starts an export. The caller closes the returned body. Every failure
// wraps ErrExportFailed; nothing is retried.
func (e *Exporter) Open(ctx context.Context, jobID string, t ExportType) (io.ReadCloser, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: empty job id", ErrExportFailed)
	}
	body, err := e.downloader.Download(ctx, jobID, t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: empty response", ErrExportFailed)
	}
	return body, nil
}

// Export copies the export for jobID to w unchanged and returns the byte count.
func (e *Exporter) Export(ctx context.Context, jobID string, t ExportType, w io.Writer) (int64, error) {
	body, err := e.Open(ctx, jobID, t)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("%w: copy: %w", ErrExportFailed, err)
	}
	slog.Debug("export streamed", "job_id", jobID, "type", t, "bytes", n)
	return n, nil
}
