// Package output renders reconciled entries as a DoorKing Account Manager
// import document.
//
// Every line starts with the account name, followed by the 13 entry
// columns. The header line starts with "ACCOUNT".
package output

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/doorsync/internal/core"
)

// Format is an output document type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name case-insensitively. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want csv or xlsx)", s)
	}
}

// ContentType returns the MIME type for downloads.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// accountHeader prefixes the entry headers in every document.
const accountHeader = "ACCOUNT"

// Records returns the document as rows of cells: the header row followed by
// one row per entry.
func Records(account string, entries []core.Entry) [][]string {
	records := make([][]string, 0, len(entries)+1)
	records = append(records, append([]string{accountHeader}, core.Headers()...))
	for _, e := range entries {
		records = append(records, append([]string{account}, e.Fields()...))
	}
	return records
}
