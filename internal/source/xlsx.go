package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/doorsync/internal/core"
)

// ReadXLSX reads the first worksheet of an uploaded workbook.
func ReadXLSX(r io.Reader, maxBytes int64) ([]core.Row, error) {
	if maxBytes > 0 {
		r = &sizeLimitReader{r: r, limit: maxBytes, remaining: maxBytes}
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		if errors.Is(err, ErrFileTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid workbook: no sheets")
	}
	return readSheet(f, sheets[0])
}

func readSheet(f *excelize.File, sheet string) ([]core.Row, error) {
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return core.RowsFromStrings(records), nil
}

// XLSXSource reads the tables from named sheets of one local workbook.
// Deleted may be empty.
type XLSXSource struct {
	Workbook  string
	Directory string
	Codes     string
	Deleted   string
	SkipRows  int
}

// Fetch implements RowSource.
func (s *XLSXSource) Fetch(ctx context.Context) (core.Tables, error) {
	f, err := excelize.OpenFile(s.Workbook)
	if err != nil {
		return core.Tables{}, fetchError("workbook", err)
	}
	defer f.Close()

	var tables core.Tables
	for _, t := range targets(&tables, s.Directory, s.Codes, s.Deleted) {
		if err := ctx.Err(); err != nil {
			return core.Tables{}, err
		}
		if t.ref == "" {
			continue
		}
		rows, err := readSheet(f, t.ref)
		if err != nil {
			return core.Tables{}, fetchError(t.name, err)
		}
		t.fill(rows, s.SkipRows, 0)
	}
	return tables, nil
}
