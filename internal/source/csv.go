package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/doorsync/internal/core"
)

// ReadCSV reads every record of a CSV table. Rows may differ in length and
// stray quotes are tolerated, as spreadsheet exports often contain both.
func ReadCSV(r io.Reader, maxBytes int64) ([]core.Row, error) {
	cr := csv.NewReader(WrapForStreaming(r, maxBytes))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return core.RowsFromStrings(records), nil
}

// CSVSource reads the tables from local CSV files. Deleted may be empty.
type CSVSource struct {
	Directory string
	Codes     string
	Deleted   string
	SkipRows  int
}

// Fetch implements RowSource.
func (s *CSVSource) Fetch(ctx context.Context) (core.Tables, error) {
	var tables core.Tables
	for _, t := range targets(&tables, s.Directory, s.Codes, s.Deleted) {
		if err := ctx.Err(); err != nil {
			return core.Tables{}, err
		}
		if t.ref == "" {
			continue
		}
		rows, err := readCSVFile(t.ref)
		if err != nil {
			return core.Tables{}, fetchError(t.name, err)
		}
		t.fill(rows, s.SkipRows, 0)
	}
	return tables, nil
}

func readCSVFile(path string) ([]core.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, 0)
}
