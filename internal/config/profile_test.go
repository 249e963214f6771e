package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/doorsync/internal/core"
)

const sheetsProfile = `
account_name: Oak Hills HOA
local_phone_prefix: "555"
security_levels:
  - entry_code_type: PERMANENT
    security_level: 1
  - entry_code_type: limited
    security_level: 2
source:
  kind: sheets
  sheet_id: sheet-123
  api_key: ${DOORSYNC_TEST_KEY}
  directory: Directory!A2:J
  codes: Codes!A2:F
`

func TestParseProfile(t *testing.T) {
	t.Setenv("DOORSYNC_TEST_KEY", "key-from-env")

	p, err := ParseProfile([]byte(sheetsProfile))
	if err != nil {
		t.Fatalf("ParseProfile() error: %v", err)
	}

	if p.AccountName != "Oak Hills HOA" {
		t.Errorf("AccountName = %q", p.AccountName)
	}
	if p.Source.APIKey != "key-from-env" {
		t.Errorf("Source.APIKey = %q, want expanded env value", p.Source.APIKey)
	}
	if p.Source.BaseURL != DefaultSheetsBaseURL {
		t.Errorf("Source.BaseURL = %q, want default", p.Source.BaseURL)
	}
	if p.Output.Path != DefaultOutputPath || p.Output.Format != "csv" {
		t.Errorf("Output = %+v, want defaults", p.Output)
	}

	settings, err := p.Settings()
	if err != nil {
		t.Fatalf("Settings() error: %v", err)
	}
	if settings.LocalPhonePrefix != "555" {
		t.Errorf("LocalPhonePrefix = %q", settings.LocalPhonePrefix)
	}
	if lvl, err := settings.SecurityLevels.Level(core.Limited); err != nil || lvl != 2 {
		t.Errorf("Level(LIMITED) = %d, %v, want 2", lvl, err)
	}
}

func TestParseProfile_Defaults(t *testing.T) {
	p, err := ParseProfile([]byte(`
account_name: Elm
local_phone_prefix: "916"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source:
  directory: dir.csv
  codes: codes.csv
`))
	if err != nil {
		t.Fatalf("ParseProfile() error: %v", err)
	}
	if p.Source.Kind != SourceCSV {
		t.Errorf("Source.Kind = %q, want csv", p.Source.Kind)
	}

	p, err = ParseProfile([]byte(`
account_name: Elm
local_phone_prefix: "916"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source:
  kind: POSTGRES
  directory: directory
  codes: codes
`))
	if err != nil {
		t.Fatalf("ParseProfile() error: %v", err)
	}
	if p.Source.Kind != SourcePostgres || p.Source.Table != DefaultStagingTable {
		t.Errorf("Source = %+v, want postgres with default table", p.Source)
	}
}

func TestParseProfile_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantText []string
	}{
		{
			name: "missing account and bad prefix",
			doc: `
local_phone_prefix: "55"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source: {directory: d.csv, codes: c.csv}
`,
			wantText: []string{"account_name", "local_phone_prefix"},
		},
		{
			name: "unknown code type",
			doc: `
account_name: Oak
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: TEMPORARY, security_level: 1}
source: {directory: d.csv, codes: c.csv}
`,
			wantText: []string{"security_levels", "TEMPORARY"},
		},
		{
			name: "no security levels",
			doc: `
account_name: Oak
local_phone_prefix: "555"
source: {directory: d.csv, codes: c.csv}
`,
			wantText: []string{"security_levels"},
		},
		{
			name: "sheets without credentials",
			doc: `
account_name: Oak
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source: {kind: sheets, sheet_id: x, directory: A, codes: B}
`,
			wantText: []string{"api_key"},
		},
		{
			name: "refresh token without client",
			doc: `
account_name: Oak
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source: {kind: sheets, sheet_id: x, directory: A, codes: B, refresh_token: r}
`,
			wantText: []string{"source.client_id", "source.client_secret"},
		},
		{
			name: "xlsx without workbook",
			doc: `
account_name: Oak
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source: {kind: xlsx, directory: Directory, codes: Codes}
`,
			wantText: []string{"source.workbook"},
		},
		{
			name: "unknown source kind and output format",
			doc: `
account_name: Oak
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source: {kind: ftp}
output: {format: pdf}
`,
			wantText: []string{"source.kind", "output.format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.doc))
			if err == nil {
				t.Fatal("ParseProfile() expected error")
			}
			if !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("error should wrap ErrInvalidProfile: %v", err)
			}
			for _, want := range tt.wantText {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should mention %q: %v", want, err)
				}
			}
		})
	}
}

func TestParseProfile_UnknownField(t *testing.T) {
	_, err := ParseProfile([]byte("account_name: Oak\nlocal_prefix: \"555\"\n"))
	if err == nil || !strings.Contains(err.Error(), "parse profile") {
		t.Errorf("expected parse error for unknown field, got %v", err)
	}
}

func TestLoadProfile(t *testing.T) {
	t.Setenv("DOORSYNC_TEST_KEY", "k")
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(sheetsProfile), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error: %v", err)
	}
	if p.Source.SheetID != "sheet-123" {
		t.Errorf("Source.SheetID = %q", p.Source.SheetID)
	}

	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadProfile() expected error for missing file")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("DOORSYNC_TEST_KEY", "secret")
	os.Unsetenv("DOORSYNC_TEST_UNSET")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"braced reference", "api_key: ${DOORSYNC_TEST_KEY}", "api_key: secret"},
		{"dollar amount", "account_name: Oak $5 HOA", "account_name: Oak $5 HOA"},
		{"bare reference kept", "account_name: $DOORSYNC_TEST_KEY", "account_name: $DOORSYNC_TEST_KEY"},
		{"trailing dollar", "account_name: Oak$", "account_name: Oak$"},
		{"unset reference", "api_key: ${DOORSYNC_TEST_UNSET}", "api_key: "},
		{"not a name", "note: ${1abc}", "note: ${1abc}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(expandEnv([]byte(tt.in))); got != tt.want {
				t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseProfile_KeepsDollarSigns(t *testing.T) {
	t.Setenv("DOORSYNC_TEST_KEY", "key-from-env")
	doc := strings.Replace(sheetsProfile, "Oak Hills HOA", "Oak $ave HOA", 1)

	p, err := ParseProfile([]byte(doc))
	if err != nil {
		t.Fatalf("ParseProfile() error: %v", err)
	}
	if p.AccountName != "Oak $ave HOA" {
		t.Errorf("AccountName = %q, want %q", p.AccountName, "Oak $ave HOA")
	}
	if p.Source.APIKey != "key-from-env" {
		t.Errorf("Source.APIKey = %q, want %q", p.Source.APIKey, "key-from-env")
	}
}

func TestParseProfile_RefreshToken(t *testing.T) {
	p, err := ParseProfile([]byte(`
account_name: Oak
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
source:
  kind: sheets
  sheet_id: x
  directory: Directory!A2:J
  codes: Codes!A2:F
  client_id: id
  client_secret: shh
  refresh_token: r
`))
	if err != nil {
		t.Fatalf("ParseProfile() error: %v", err)
	}
	if p.Source.TokenURL != DefaultTokenURL {
		t.Errorf("Source.TokenURL = %q, want %q", p.Source.TokenURL, DefaultTokenURL)
	}
}
