// Package csvutil holds the column lookup shared by the CSV readers.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Header maps column names to positions.
type Header map[string]int

// NewReader returns a csv.Reader tolerant of ragged rows.
func NewReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	return reader
}

// ReadHeader reads the first record and indexes it. A UTF-8 BOM on the first
// column is ignored.
func ReadHeader(reader *csv.Reader) (Header, error) {
	record, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(Header, len(record))
	for i, name := range record {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h, nil
}

// Has reports whether the column exists.
func (h Header) Has(name string) bool {
	_, ok := h[name]
	return ok
}

// Require returns an error naming the first missing column.
func (h Header) Require(names ...string) error {
	for _, name := range names {
		if !h.Has(name) {
			return fmt.Errorf("missing column %q", name)
		}
	}
	return nil
}

// Get returns the trimmed value of a column, or "" when absent.
func (h Header) Get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
