package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/doorsync/internal/core"
)

// Write renders entries in the given format.
func Write(w io.Writer, format Format, account string, entries []core.Entry) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, account, entries)
	case FormatXLSX:
		return WriteXLSX(w, account, entries)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteFile writes the document to path. The file is written to a temporary
// sibling and renamed into place, so a failed run never leaves a truncated
// import file behind.
func WriteFile(path string, format Format, account string, entries []core.Entry) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Write(tmp, format, account, entries); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
