package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/doorsync/internal/config"
	"github.com/JonMunkholm/doorsync/internal/core"
)

// writeFixture lays out CSV tables and a profile in dir and returns the
// profile path.
func writeFixture(t *testing.T, dir, codes string) string {
	t.Helper()
	files := map[string]string{
		"directory.csv": "Street,House,Unused,Dir,Name,Phone,Device\nOak,12,x,#005,Smith,555-1234567,D1\n",
		"codes.csv":     codes,
		"deleted.csv":   "Code\n1111\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	profile := fmt.Sprintf(`
account_name: Oak Hills HOA
local_phone_prefix: "555"
security_levels:
  - {entry_code_type: PERMANENT, security_level: 1}
  - {entry_code_type: LIMITED, security_level: 2}
source:
  kind: csv
  skip_rows: 1
  directory: %[1]s/directory.csv
  codes: %[1]s/codes.csv
  deleted: %[1]s/deleted.csv
output:
  path: %[1]s/doorking.csv
`, dir)
	path := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const fixtureCodes = "Street,House,Name,Code,Type\nOak,12,,1200,PERMANENT\n,,Acme,3000,LIMITED\n"

func TestRunSync_WritesFile(t *testing.T) {
	dir := t.TempDir()
	profile := writeFixture(t, dir, fixtureCodes)

	err := runSync(context.Background(), syncOptions{profile: profile}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("runSync() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "doorking.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "ACCOUNT," + core.HeaderLine() + "\n" +
		"Oak Hills HOA,Smith,N,,1234567,005,1200,01,D1,12 Oak,N,,,\n" +
		"Oak Hills HOA,Acme,N,,,,3000,02,,,Y,,,\n"
	if string(data) != want {
		t.Errorf("output =\n%s\nwant\n%s", data, want)
	}
}

func TestRunSync_DryRun(t *testing.T) {
	dir := t.TempDir()
	profile := writeFixture(t, dir, fixtureCodes)

	var stdout bytes.Buffer
	err := runSync(context.Background(), syncOptions{profile: profile, dryRun: true}, &stdout, io.Discard)
	if err != nil {
		t.Fatalf("runSync() error: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "ACCOUNT,Resident,") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "doorking.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run must not write the output file")
	}
}

func TestRunSync_OverridesOutput(t *testing.T) {
	dir := t.TempDir()
	profile := writeFixture(t, dir, fixtureCodes)
	out := filepath.Join(dir, "custom.xlsx")

	err := runSync(context.Background(), syncOptions{profile: profile, out: out, format: "xlsx"}, io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("runSync() error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("xlsx output should be a zip archive")
	}
}

func TestRunSync_InvalidInputWritesNothing(t *testing.T) {
	dir := t.TempDir()
	profile := writeFixture(t, dir, fixtureCodes+"Oak,12,,1111,PERMANENT\n")

	err := runSync(context.Background(), syncOptions{profile: profile}, io.Discard, io.Discard)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("runSync() error = %v, want ErrInvalidInput", err)
	}
	if got := core.MapError(err).Code; got != "COD003" {
		t.Errorf("MapError code = %s, want COD003", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "doorking.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Error("failed run must not write the output file")
	}
}

func TestRunSync_MissingProfile(t *testing.T) {
	err := runSync(context.Background(), syncOptions{profile: filepath.Join(t.TempDir(), "none.yaml")}, io.Discard, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "read profile") {
		t.Errorf("runSync() error = %v, want read profile error", err)
	}
}

func TestRunSync_ProfileFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOORSYNC_PROFILE", writeFixture(t, dir, fixtureCodes))

	if err := runSync(context.Background(), syncOptions{}, io.Discard, io.Discard); err != nil {
		t.Fatalf("runSync() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doorking.csv")); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	dir := t.TempDir()
	profile := writeFixture(t, dir, fixtureCodes)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"headers"}, core.HeaderLine() + "\n"},
		{[]string{"version"}, "doorsync version " + Version + "\n"},
		{[]string{"validate", "--profile", profile}, `profile ok: account "Oak Hills HOA", csv source` + "\n" +
			"warning: no security level for DELIVERY; codes of that type will be rejected\n"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			var stdout bytes.Buffer
			cmd := rootCmd(&stdout, io.Discard)
			cmd.SetArgs(tt.args)
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if stdout.String() != tt.want {
				t.Errorf("output = %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestRootCmd_ValidateRejectsBadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("account_name: Oak\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cmd := rootCmd(io.Discard, io.Discard)
	cmd.SetArgs([]string{"validate", "-p", path})
	err := cmd.Execute()
	if !errors.Is(err, config.ErrInvalidProfile) {
		t.Errorf("Execute() error = %v, want ErrInvalidProfile", err)
	}
}
