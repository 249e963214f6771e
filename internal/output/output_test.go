package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/doorsync/internal/core"
)

func testEntries(t *testing.T) []core.Entry {
	t.Helper()
	builders := []core.EntryBuilder{
		{
			DisplayName:     "Smith",
			PhoneNumber:     "1234567",
			DirectoryNumber: core.IntPtr(5),
			EntryCode:       core.IntPtr(1200),
			SecurityLevel:   core.IntPtr(1),
			DeviceNumbers:   []string{"D1", "D2"},
			Notes:           "12 Oak",
		},
		{
			DisplayName:   "Acme, Inc",
			Vendor:        true,
			EntryCode:     core.IntPtr(30),
			SecurityLevel: core.IntPtr(2),
		},
	}
	entries := make([]core.Entry, len(builders))
	for i, b := range builders {
		e, err := b.Build()
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		entries[i] = e
	}
	return entries
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, "Oak Hills", testEntries(t)); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	want := strings.Join([]string{
		"ACCOUNT,Resident,H,AAC,PHONE,DIR,ENT,SL,DEVICE#,NOTES,VENDOR,DEVICE2,DEVICE3,DEVICE4",
		"Oak Hills,Smith,N,,1234567,005,1200,01,D1,12 Oak,N,D2,,",
		`Oak Hills,"Acme, Inc",N,,,,0030,02,,,Y,,,`,
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("WriteCSV() =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, "Oak Hills", nil); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("expected only the header line, got %q", buf.String())
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, "Oak Hills", testEntries(t)); err != nil {
		t.Fatalf("WriteXLSX() error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows() error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "ACCOUNT" || rows[0][1] != "Resident" {
		t.Errorf("header row = %v", rows[0])
	}
	// codes keep their padding
	if rows[2][6] != "0030" {
		t.Errorf("ENT cell = %q, want 0030", rows[2][6])
	}
	if rows[1][0] != "Oak Hills" || rows[1][1] != "Smith" {
		t.Errorf("first entry row = %v", rows[1])
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doorking.csv")

	if err := WriteFile(path, FormatCSV, "Oak Hills", testEntries(t)); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !strings.HasPrefix(string(data), "ACCOUNT,Resident") {
		t.Errorf("unexpected file contents %q", data)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Errorf("temporary files left behind: %v", files)
	}
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "doorking.csv")
	if err := WriteFile(path, FormatCSV, "Oak Hills", nil); err == nil {
		t.Error("WriteFile() expected error for missing directory")
	}
}

func TestFormat_Metadata(t *testing.T) {
	if FormatXLSX.Extension() != ".xlsx" || FormatCSV.Extension() != ".csv" {
		t.Error("unexpected extensions")
	}
	if !strings.HasPrefix(FormatCSV.ContentType(), "text/csv") {
		t.Errorf("ContentType() = %q", FormatCSV.ContentType())
	}
}
