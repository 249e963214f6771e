package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/doorsync/internal/core"
	"github.com/JonMunkholm/doorsync/internal/output"
)

// ErrInvalidProfile is wrapped by every profile validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Source kinds.
const (
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

// Defaults applied to a loaded profile.
const (
	DefaultOutputPath    = "/tmp/doorking.csv"
	DefaultStagingTable  = "doorsync_rows"
	DefaultSheetsBaseURL = "https://sheets.googleapis.com"
	DefaultTokenURL      = "https://oauth2.googleapis.com/token"
)

// Profile describes one DoorKing account and where its tables live.
//
// Example:
//
//	account_name: Oak Hills HOA
//	local_phone_prefix: "555"
//	security_levels:
//	  - entry_code_type: PERMANENT
//	    security_level: 1
//	  - entry_code_type: LIMITED
//	    security_level: 2
//	source:
//	  kind: sheets
//	  sheet_id: 1AbC...
//	  api_key: ${SHEETS_API_KEY}
//	  directory: Directory!A2:J
//	  codes: Codes!A2:F
//	  deleted: Deleted!A2:A
//	output:
//	  path: /tmp/doorking.csv
//	  format: csv
type Profile struct {
	AccountName      string                 `yaml:"account_name"`
	LocalPhonePrefix string                 `yaml:"local_phone_prefix"`
	SecurityLevels   []SecurityLevelProfile `yaml:"security_levels"`
	Source           SourceProfile          `yaml:"source"`
	Output           OutputProfile          `yaml:"output"`
}

// SecurityLevelProfile maps one entry code type to a security level.
type SecurityLevelProfile struct {
	EntryCodeType string `yaml:"entry_code_type"`
	SecurityLevel int    `yaml:"security_level"`
}

// SourceProfile selects and configures the table source. Directory, Codes
// and Deleted name the three tables in the source's own terms: file paths
// for csv, sheet names for xlsx, A1 ranges for sheets, and sheet keys for
// postgres. Deleted is optional everywhere.
type SourceProfile struct {
	Kind     string `yaml:"kind"`
	SkipRows int    `yaml:"skip_rows"`

	Directory string `yaml:"directory"`
	Codes     string `yaml:"codes"`
	Deleted   string `yaml:"deleted"`

	// xlsx
	Workbook string `yaml:"workbook"`

	// sheets
	SheetID     string `yaml:"sheet_id"`
	APIKey      string `yaml:"api_key"`
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"`

	// OAuth refresh token flow; access tokens are refreshed as they expire.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	TokenURL     string `yaml:"token_url"`

	// postgres
	Table string `yaml:"table"`
}

// OutputProfile is where the batch command writes the import document.
type OutputProfile struct {
	Path   string `yaml:"path"`
	Format string `yaml:"format"`
}

// LoadProfile reads, expands and validates the profile at path. A leading
// "~/" is resolved against the home directory and ${VAR} references in the
// document are replaced from the environment before parsing, so secrets can
// stay out of the file. A bare "$" is left alone.
func LoadProfile(path string) (*Profile, error) {
	resolved, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// envRef matches the ${VAR} references replaced by expandEnv.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} with the value of VAR. Unset variables expand
// to "". Other uses of "$", such as "$5" or "$VAR", are kept as written.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}

// ParseProfile parses and validates a profile document.
func ParseProfile(data []byte) (*Profile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(expandEnv(data)))
	dec.KnownFields(true)

	var p Profile
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}

	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) applyDefaults() {
	p.Source.Kind = strings.ToLower(strings.TrimSpace(p.Source.Kind))
	if p.Source.Kind == "" {
		p.Source.Kind = SourceCSV
	}
	if p.Source.Kind == SourceSheets && p.Source.BaseURL == "" {
		p.Source.BaseURL = DefaultSheetsBaseURL
	}
	if p.Source.Kind == SourceSheets && p.Source.RefreshToken != "" && p.Source.TokenURL == "" {
		p.Source.TokenURL = DefaultTokenURL
	}
	if p.Source.Kind == SourcePostgres && p.Source.Table == "" {
		p.Source.Table = DefaultStagingTable
	}
	if p.Output.Path == "" {
		p.Output.Path = DefaultOutputPath
	}
	if p.Output.Format == "" {
		p.Output.Format = string(output.FormatCSV)
	}
}

// Validate checks the profile and reports every problem at once.
func (p *Profile) Validate() error {
	var errs []string

	if strings.TrimSpace(p.AccountName) == "" {
		errs = append(errs, "account_name is required")
	}
	if !isPhonePrefix(p.LocalPhonePrefix) {
		errs = append(errs, fmt.Sprintf("local_phone_prefix (%q) must be three digits", p.LocalPhonePrefix))
	}
	if len(p.SecurityLevels) == 0 {
		errs = append(errs, "security_levels must map at least one entry code type")
	} else if _, err := core.NewSecurityLevels(p.SecurityLevelMappings()); err != nil {
		errs = append(errs, "security_levels: "+err.Error())
	}

	errs = append(errs, p.Source.validate()...)

	if _, err := output.ParseFormat(p.Output.Format); err != nil {
		errs = append(errs, "output.format: "+err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidProfile, strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s *SourceProfile) validate() []string {
	var errs []string
	if s.SkipRows < 0 {
		errs = append(errs, "source.skip_rows must be non-negative")
	}

	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Sprintf("source.%s is required for %s sources", field, s.Kind))
		}
	}

	switch s.Kind {
	case SourceCSV:
		require("directory", s.Directory)
		require("codes", s.Codes)
	case SourceXLSX:
		require("workbook", s.Workbook)
		require("directory", s.Directory)
		require("codes", s.Codes)
	case SourceSheets:
		require("sheet_id", s.SheetID)
		require("directory", s.Directory)
		require("codes", s.Codes)
		if s.APIKey == "" && s.AccessToken == "" && s.RefreshToken == "" {
			errs = append(errs, "source.api_key, source.access_token or source.refresh_token is required for sheets sources")
		}
		if s.RefreshToken != "" {
			require("client_id", s.ClientID)
			require("client_secret", s.ClientSecret)
		}
	case SourcePostgres:
		require("directory", s.Directory)
		require("codes", s.Codes)
	default:
		errs = append(errs, fmt.Sprintf("source.kind (%q) must be one of: csv, xlsx, sheets, postgres", s.Kind))
	}
	return errs
}

// SecurityLevelMappings converts the configured levels for the engine.
func (p *Profile) SecurityLevelMappings() []core.SecurityLevelMapping {
	out := make([]core.SecurityLevelMapping, len(p.SecurityLevels))
	for i, l := range p.SecurityLevels {
		out[i] = core.SecurityLevelMapping{EntryCodeType: l.EntryCodeType, SecurityLevel: l.SecurityLevel}
	}
	return out
}

// Settings returns the engine settings for this account.
func (p *Profile) Settings() (core.Settings, error) {
	levels, err := core.NewSecurityLevels(p.SecurityLevelMappings())
	if err != nil {
		return core.Settings{}, err
	}
	return core.Settings{
		AccountName:      p.AccountName,
		LocalPhonePrefix: p.LocalPhonePrefix,
		SecurityLevels:   levels,
	}, nil
}

func isPhonePrefix(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
