package source

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/doorsync/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind    string
		want    string
		wantErr bool
	}{
		{config.SourceCSV, "*source.CSVSource", false},
		{config.SourceXLSX, "*source.XLSXSource", false},
		{config.SourceSheets, "*source.SheetsSource", false},
		{config.SourcePostgres, "", true}, // no pool
		{"ftp", "", true},
	}
	for _, tt := range tests {
		src, err := New(config.SourceProfile{Kind: tt.kind}, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if got := typeName(src); got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *CSVSource:
		return "*source.CSVSource"
	case *XLSXSource:
		return "*source.XLSXSource"
	case *SheetsSource:
		return "*source.SheetsSource"
	case *PostgresSource:
		return "*source.PostgresSource"
	}
	return "unknown"
}

func TestRowsQuery(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"doorsync_rows", `SELECT cells FROM "doorsync_rows" WHERE sheet = $1 ORDER BY position`},
		{"staging.rows", `SELECT cells FROM "staging"."rows" WHERE sheet = $1 ORDER BY position`},
		{`bad"name`, `SELECT cells FROM "bad""name" WHERE sheet = $1 ORDER BY position`},
	}
	for _, tt := range tests {
		if got := rowsQuery(tt.table); got != tt.want {
			t.Errorf("rowsQuery(%q) = %q, want %q", tt.table, got, tt.want)
		}
	}
	if !strings.Contains(rowsQuery("x"), "ORDER BY position") {
		t.Error("rows must be ordered")
	}
}
