package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andrew/rag-pipeline/pkg/models"
)

// ParseRecords reads a batch of records from r. The batch may be a JSON
// array of record objects or a stream of concatenated objects (NDJSON).
// Input order is preserved.
func ParseRecords(r io.Reader) ([]models.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch input: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var records []models.Record
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("invalid batch array: %w", err)
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		for {
			var rec models.Record
			if err := dec.Decode(&rec); errors.Is(err, io.EOF) {
				break
			} else if err != nil {
				return nil, fmt.Errorf("invalid record at position %d: %w", len(records), err)
			}
			records = append(records, rec)
		}
	}

	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("record at position %d has no id", i)
		}
	}
	return records, nil
}

// LoadRecords reads a batch of records from a file.
func LoadRecords(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	records, err := ParseRecords(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return records, nil
}
