package core

// convert.go holds the cell helpers shared by the code book and the reconciler.
//
// Sheets arrive as rows of loosely typed text. Exports from spreadsheet tools
// add their own artifacts (Excel formula prefixes, surrounding quotes,
// padding), so codes, code types, directory numbers and phone numbers go
// through CleanCell before they are parsed. Text that is copied into the
// import file (names, devices, notes) and address cells are read with Raw
// and kept exactly as written.

import (
	"strconv"
	"strings"
)

// Row is one raw table row. Columns are addressed by position and trailing
// empty cells may be missing altogether.
type Row []string

// Has reports whether column i is present in the row.
func (r Row) Has(i int) bool {
	return i >= 0 && i < len(r)
}

// Raw returns column i exactly as retrieved, or "" when absent.
func (r Row) Raw(i int) string {
	if !r.Has(i) {
		return ""
	}
	return r[i]
}

// Cell returns column i cleaned with CleanCell, or "" when absent.
func (r Row) Cell(i int) string {
	return CleanCell(r.Raw(i))
}

// Tables bundles the three inputs of a batch run.
//
// The offsets count the sheet rows above the first row of each table (a
// header row, a range that starts below row 1). Error messages add them so
// that the row numbers they report match the sheet.
type Tables struct {
	Directory []Row
	Codes     []Row
	Deleted   []Row

	DirectoryOffset int
	CodesOffset     int
	DeletedOffset   int
}

// RowsFromStrings converts a [][]string, as returned by CSV and workbook
// readers, into rows.
func RowsFromStrings(records [][]string) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row(rec)
	}
	return rows
}

// CleanCell removes common spreadsheet artifacts from a cell value:
//   - Trims whitespace
//   - Removes Excel formula prefix (="...")
//   - Removes surrounding double quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// parseEntryCode parses a keypad code. Only plain digits are accepted so that
// signs or decimal points in the sheet are reported instead of silently coerced.
func parseEntryCode(s string) (int, bool) {
	s = CleanCell(s)
	if !isDigits(s) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxEntryCode {
		return 0, false
	}
	return n, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
