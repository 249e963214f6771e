package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/doorsync/internal/core"
)

// WriteCSV writes the import document as CSV. Fields containing commas or
// quotes are quoted.
func WriteCSV(w io.Writer, account string, entries []core.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Records(account, entries)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
