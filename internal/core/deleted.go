package core

// columnDeletedCode is the only column read from the deleted codes table.
const columnDeletedCode = 0

// DeletedCodeSet holds codes that were retired and must not be handed out again.
type DeletedCodeSet map[int]struct{}

// Contains reports whether code has been retired.
func (s DeletedCodeSet) Contains(code int) bool {
	_, ok := s[code]
	return ok
}

// ParseDeletedCodes reads column 0 of each row as a retired code. Blank rows
// are ignored; listing a code twice fails with DuplicateCodeError.
func ParseDeletedCodes(rows []Row) (DeletedCodeSet, error) {
	return parseDeletedCodes(rows, 0)
}

// parseDeletedCodes numbers rows from offset+1.
func parseDeletedCodes(rows []Row, offset int) (DeletedCodeSet, error) {
	codes := make(DeletedCodeSet, len(rows))
	for i, row := range rows {
		raw := row.Cell(columnDeletedCode)
		if raw == "" {
			continue
		}
		code, ok := parseEntryCode(raw)
		if !ok {
			return nil, &MalformedCodeError{Table: "deleted codes", Row: offset + i + 1, Value: raw}
		}
		if codes.Contains(code) {
			return nil, &DuplicateCodeError{Code: code}
		}
		codes[code] = struct{}{}
	}
	return codes, nil
}
