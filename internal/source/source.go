// Package source retrieves the three raw tables of a batch run: the
// household directory, the code assignments and the deleted codes.
//
// Every source returns rows exactly as stored; cleaning and validation
// happen in the engine. Header rows are dropped according to the profile's
// skip_rows setting.
package source

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/doorsync/internal/config"
	"github.com/JonMunkholm/doorsync/internal/core"
)

// RowSource fetches the tables of one batch run.
type RowSource interface {
	Fetch(ctx context.Context) (core.Tables, error)
}

// ErrFetch is matched by every error a source returns for a table or
// workbook it could not read.
var ErrFetch = core.ErrFetch

// fetchError wraps err for the named table; the text reads "fetch <what>: <err>".
func fetchError(what string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrFetch, what, err)
}

// target is where one fetched table lands in Tables.
type target struct {
	name   string
	ref    string // file path, sheet name or A1 range
	rows   *[]core.Row
	offset *int
}

func targets(tables *core.Tables, directory, codes, deleted string) []target {
	return []target{
		{TableDirectory, directory, &tables.Directory, &tables.DirectoryOffset},
		{TableCodes, codes, &tables.Codes, &tables.CodesOffset},
		{TableDeleted, deleted, &tables.Deleted, &tables.DeletedOffset},
	}
}

// fill stores rows without the first skip of them. above is the number of
// sheet rows before the first fetched row.
func (t target) fill(rows []core.Row, skip, above int) {
	*t.rows = SkipRows(rows, skip)
	*t.offset = above + max(skip, 0)
}

// Table names used in error messages.
const (
	TableDirectory = "directory"
	TableCodes     = "codes"
	TableDeleted   = "deleted"
)

// New builds the source described by the profile. pool is only used, and
// must be non-nil, for postgres sources.
func New(p config.SourceProfile, pool *pgxpool.Pool) (RowSource, error) {
	switch p.Kind {
	case config.SourceCSV:
		return &CSVSource{
			Directory: p.Directory,
			Codes:     p.Codes,
			Deleted:   p.Deleted,
			SkipRows:  p.SkipRows,
		}, nil
	case config.SourceXLSX:
		return &XLSXSource{
			Workbook:  p.Workbook,
			Directory: p.Directory,
			Codes:     p.Codes,
			Deleted:   p.Deleted,
			SkipRows:  p.SkipRows,
		}, nil
	case config.SourceSheets:
		return NewSheetsSource(p), nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres source requires DATABASE_URL")
		}
		return NewPostgresSource(pool, p), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", p.Kind)
	}
}

// ReadUpload parses an uploaded table. Workbooks are recognised by their
// .xlsx extension and read from the first sheet; anything else is CSV.
func ReadUpload(filename string, r io.Reader, maxBytes int64) ([]core.Row, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ReadXLSX(r, maxBytes)
	}
	return ReadCSV(r, maxBytes)
}

// SkipRows drops the first n rows.
func SkipRows(rows []core.Row, n int) []core.Row {
	if n <= 0 {
		return rows
	}
	if n >= len(rows) {
		return nil
	}
	return rows[n:]
}
