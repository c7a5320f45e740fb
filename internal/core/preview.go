package core

// preview.go turns an uploaded file into a header-keyed sample.
//
// Only the first few data rows are read. The heuristic never looks further,
// and the job service reads the whole file itself after submission.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// DefaultPreviewRows is the number of data rows sampled from a file.
const DefaultPreviewRows = 5

var acceptedExtensions = map[string]bool{
	".csv": true,
	".txt": true,
}

var acceptedMediaTypes = map[string]bool{
	"text/csv":                 true,
	"text/plain":               true,
	"application/vnd.ms-excel": true,
}

// delimiters are tried in order when sniffing the header line.
var delimiters = []rune{',', '\t', ';', '|'}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CheckFileType accepts .csv and .txt files by name, or the matching media
// types when the name has no usable extension.
func CheckFileType(name, contentType string) error {
	if acceptedExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil
	}
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil && acceptedMediaTypes[mt] {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, name)
}

// PreviewFile checks the file type and parses the preview. A file failing
// the type check is never read.
func PreviewFile(f UploadFile, maxRows int) (Preview, error) {
	if err := CheckFileType(f.Name, f.ContentType); err != nil {
		return Preview{}, err
	}
	return ParsePreview(bytes.NewReader(f.Data), maxRows)
}

// ParsePreview reads the header and up to maxRows non-blank data rows.
//
// Short rows are padded with empty cells and long rows are truncated to the
// header width. On any structural error no preview is returned.
func ParsePreview(r io.Reader, maxRows int) (Preview, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}

	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Preview{}, fmt.Errorf("%w: empty file", ErrParse)
	}
	if err != nil {
		return Preview{}, fmt.Errorf("%w: header: %v", ErrParse, err)
	}

	fields, err := buildFieldSet(header)
	if err != nil {
		return Preview{}, err
	}

	rows := make([]PreviewRow, 0, maxRows)
	for len(rows) < maxRows {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Preview{}, fmt.Errorf("%w: %v", ErrParse, err)
		}
		if isBlankRecord(record) {
			continue
		}
		for i := range record {
			record[i] = strings.ToValidUTF8(record[i], "�")
		}
		rows = append(rows, newPreviewRow(fields, record))
	}

	return Preview{Fields: fields, Rows: rows}, nil
}

func buildFieldSet(header []string) (FieldSet, error) {
	fields := make(FieldSet, 0, len(header))
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.ToValidUTF8(name, "�")
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: header column %d is blank", ErrParse, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate header column %q", ErrParse, name)
		}
		seen[name] = true
		fields = append(fields, name)
	}
	return fields, nil
}

// sniffDelimiter picks the delimiter that occurs most often, outside quotes,
// in the first line. Defaults to comma.
func sniffDelimiter(br *bufio.Reader) rune {
	buf, _ := br.Peek(4096)
	line := buf
	if i := bytes.IndexByte(buf, '\n'); i >= 0 {
		line = buf[:i]
	}

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, c := range string(line) {
		if c == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[c]++
		}
	}

	best := ','
	for _, d := range delimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
