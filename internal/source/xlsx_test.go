package source

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildWorkbook writes sheets in order; the first replaces the default sheet.
func buildWorkbook(t *testing.T, sheets map[string][][]any, order []string) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, name := range order {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for r, values := range sheets[name] {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatal(err)
			}
			row := values
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	return f
}

func TestReadXLSX(t *testing.T) {
	f := buildWorkbook(t, map[string][][]any{
		"Codes": {
			{"Street", "House", "Name", "Code", "Type"},
			{"Oak", "12", "", "0042", "PERMANENT"},
		},
	}, []string{"Codes"})
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadXLSX(&buf, 0)
	if err != nil {
		t.Fatalf("ReadXLSX() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[1].Raw(3) != "0042" || rows[1].Raw(4) != "PERMANENT" {
		t.Errorf("row = %q", rows[1])
	}
}

func TestXLSXSource_Fetch(t *testing.T) {
	f := buildWorkbook(t, map[string][][]any{
		"Directory": {
			{"Street", "House", "", "Dir", "Name", "Phone"},
			{"Oak", "12", "", "#005", "Smith", "555-1234567", "D1"},
		},
		"Codes": {
			{"Street", "House", "Name", "Code", "Type"},
			{"Oak", "12", "", "1200", "PERMANENT"},
		},
		"Deleted": {
			{"Code"},
			{"1111"},
		},
	}, []string{"Directory", "Codes", "Deleted"})

	path := filepath.Join(t.TempDir(), "doorking.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src := &XLSXSource{Workbook: path, Directory: "Directory", Codes: "Codes", Deleted: "Deleted", SkipRows: 1}
	tables, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(tables.Directory) != 1 || tables.Directory[0].Raw(6) != "D1" {
		t.Errorf("Directory = %q", tables.Directory)
	}
	if len(tables.Codes) != 1 || len(tables.Deleted) != 1 || tables.Deleted[0].Raw(0) != "1111" {
		t.Errorf("Codes = %q, Deleted = %q", tables.Codes, tables.Deleted)
	}

	src.Codes = "Missing"
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("Fetch() expected error for a missing sheet")
	}
}
