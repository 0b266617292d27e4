// Package tabular decodes delimited learner files into header-keyed rows.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotText is returned when uploaded content is not a text document.
var ErrNotText = errors.New("content is not a text/csv document")

// Table is a decoded CSV document. Rows are keyed by header name; cells
// missing from short rows are absent from the map.
type Table struct {
	Header []string
	Rows   []map[string]string
}

// Sniff rejects binary payloads before they reach the decoder.
func Sniff(data []byte) (string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return "text/plain", nil
	}
	mime := mimetype.Detect(data)
	for m := mime; m != nil; m = m.Parent() {
		if m.Is("text/plain") || m.Is("text/csv") {
			return mime.String(), nil
		}
	}
	return mime.String(), fmt.Errorf("%w: detected %s", ErrNotText, mime.String())
}

// Decode reads a CSV document with a header row.
func Decode(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}
	names := normaliseHeader(header)

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		if isBlank(record) {
			continue
		}
		row := make(map[string]string, len(names))
		for i, name := range names {
			if i >= len(record) {
				break
			}
			if _, dup := row[name]; dup {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return Table{Header: unique(names), Rows: rows}, nil
}

// DecodeBytes sniffs and decodes an in-memory upload.
func DecodeBytes(data []byte) (Table, error) {
	if _, err := Sniff(data); err != nil {
		return Table{}, err
	}
	return Decode(bytes.NewReader(data))
}

func normaliseHeader(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		out[i] = strings.TrimSpace(name)
	}
	return out
}

// unique keeps the first occurrence of each column name.
func unique(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
