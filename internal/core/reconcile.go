package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Directory table columns. Column 2 is not used by the import.
const (
	columnDirStreet          = 0
	columnDirHouseNumber     = 1
	columnDirDirectoryNumber = 3
	columnDirDisplayName     = 4
	columnDirPhoneNumber     = 5
	columnDirFirstDevice     = 6
)

const (
	// phonePrefixLen is the length of the area code in AAA-NNNNNNN.
	phonePrefixLen = 3

	legacyEntryNotes = "Legacy entry"
)

// Reconciler turns directory rows and a code book into DoorKing entries.
type Reconciler struct {
	localPhonePrefix string
	levels           SecurityLevels
	rowOffset        int
}

// NewReconciler returns a reconciler. Phone numbers whose prefix equals
// localPhonePrefix are written without an area code.
func NewReconciler(localPhonePrefix string, levels SecurityLevels) *Reconciler {
	return &Reconciler{localPhonePrefix: localPhonePrefix, levels: levels}
}

// WithRowOffset makes errors number directory rows from offset+1.
func (r *Reconciler) WithRowOffset(offset int) *Reconciler {
	r.rowOffset = offset
	return r
}

// household holds the fields of a directory row shared by every entry
// emitted for it.
type household struct {
	key             AddressKey
	displayName     string
	notes           string
	directoryNumber int
	areaCode        string
	phoneNumber     string
	devices         []string
}

// Reconcile walks the directory in row order and drains book. For each row it
// emits a visible primary entry, carrying one PERMANENT code if the address
// has any, followed by a hidden entry per additional PERMANENT code and per
// LIMITED code. Vendor entries and then legacy resident entries follow.
//
// The book is consumed: when Reconcile returns, successfully or not, it must
// not be reused.
func (r *Reconciler) Reconcile(directory []Row, book *CodeBook) ([]Entry, error) {
	var entries []Entry
	for i, row := range directory {
		rowEntries, err := r.householdEntries(r.rowOffset+i+1, row, book)
		if err != nil {
			return nil, err
		}
		entries = append(entries, rowEntries...)
	}

	if book.ResidentCount() > 0 {
		return nil, &UnconsumedResidentCodesError{Codes: book.Remaining()}
	}

	for _, vc := range book.VendorCodes() {
		e, err := r.vendorEntry(vc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	for _, lc := range book.LegacyCodes() {
		e, err := r.legacyEntry(lc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *Reconciler) householdEntries(line int, row Row, book *CodeBook) ([]Entry, error) {
	h, err := r.parseHousehold(line, row)
	if err != nil {
		return nil, err
	}

	primary := EntryBuilder{
		DisplayName:     h.displayName,
		AreaCode:        h.areaCode,
		PhoneNumber:     h.phoneNumber,
		DirectoryNumber: IntPtr(h.directoryNumber),
		DeviceNumbers:   h.devices,
		Notes:           h.notes,
	}
	if code, ok := book.LookupAndRemoveResidentCode(h.key, Permanent); ok {
		if err := r.setCode(&primary, code); err != nil {
			return nil, err
		}
	}
	// A household with only LIMITED codes keeps an uncoded primary entry.

	first, err := primary.Build()
	if err != nil {
		return nil, err
	}
	result := []Entry{first}

	suffix := 2
	for _, expansion := range []struct {
		codeType EntryCodeType
		note     string
	}{
		{Permanent, "permanent"},
		{Limited, "limited"},
	} {
		for {
			code, ok := book.LookupAndRemoveResidentCode(h.key, expansion.codeType)
			if !ok {
				break
			}
			hidden := EntryBuilder{
				DisplayName: fmt.Sprintf("%s %d", h.displayName, suffix),
				Hidden:      true,
				Notes:       h.notes + " " + expansion.note,
			}
			suffix++
			if err := r.setCode(&hidden, code); err != nil {
				return nil, err
			}
			e, err := hidden.Build()
			if err != nil {
				return nil, err
			}
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *Reconciler) parseHousehold(line int, row Row) (household, error) {
	h := household{
		key:         NewAddressKey(row),
		displayName: row.Raw(columnDirDisplayName),
		notes:       fmt.Sprintf("%s %s", row.Raw(columnDirHouseNumber), row.Raw(columnDirStreet)),
	}

	dirNumber, ok := parseDirectoryNumber(row.Cell(columnDirDirectoryNumber))
	if !ok {
		return household{}, &MalformedDirectoryNumberError{Row: line, Value: row.Cell(columnDirDirectoryNumber)}
	}
	h.directoryNumber = dirNumber

	prefix, number, ok := splitPhoneNumber(row.Cell(columnDirPhoneNumber))
	if !ok {
		return household{}, &MalformedPhoneNumberError{Row: line, Value: row.Cell(columnDirPhoneNumber)}
	}
	if prefix != r.localPhonePrefix {
		h.areaCode = prefix
	}
	h.phoneNumber = number

	for col := columnDirFirstDevice; col < columnDirFirstDevice+MaxDeviceNumbers; col++ {
		if device := row.Raw(col); device != "" {
			h.devices = append(h.devices, device)
		}
	}
	return h, nil
}

func (r *Reconciler) vendorEntry(vc NamedCode) (Entry, error) {
	b := EntryBuilder{DisplayName: vc.Name, Vendor: true}
	if err := r.setCode(&b, vc.Code); err != nil {
		return Entry{}, err
	}
	return b.Build()
}

func (r *Reconciler) legacyEntry(lc NamedCode) (Entry, error) {
	if lc.Code.Type != Permanent {
		return Entry{}, &InvalidLegacyCodeTypeError{Name: lc.Name, Code: lc.Code}
	}
	b := EntryBuilder{DisplayName: lc.Name, Hidden: true, Notes: legacyEntryNotes}
	if err := r.setCode(&b, lc.Code); err != nil {
		return Entry{}, err
	}
	return b.Build()
}

// setCode fills the entry code and its security level.
func (r *Reconciler) setCode(b *EntryBuilder, code EntryCode) error {
	level, err := r.levels.Level(code.Type)
	if err != nil {
		return err
	}
	b.EntryCode = IntPtr(code.Code)
	b.SecurityLevel = IntPtr(level)
	return nil
}

// parseDirectoryNumber parses "#NNN".
func parseDirectoryNumber(s string) (int, bool) {
	digits, ok := strings.CutPrefix(s, "#")
	if !ok || !isDigits(digits) {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// splitPhoneNumber splits "AAA-NNNNNNN" into its prefix and number.
func splitPhoneNumber(s string) (prefix, number string, ok bool) {
	if len(s) <= phonePrefixLen || s[phonePrefixLen] != '-' {
		return "", "", false
	}
	return s[:phonePrefixLen], s[phonePrefixLen+1:], true
}

// Reconcile runs the whole engine over one set of tables: it parses the
// deleted codes, builds the code book and reconciles the directory against it.
func Reconcile(tables Tables, localPhonePrefix string, levels SecurityLevels) ([]Entry, error) {
	deleted, err := parseDeletedCodes(tables.Deleted, tables.DeletedOffset)
	if err != nil {
		return nil, fmt.Errorf("parse deleted codes: %w", err)
	}
	book, err := buildCodeBook(tables.Codes, deleted, tables.CodesOffset)
	if err != nil {
		return nil, fmt.Errorf("build code book: %w", err)
	}
	entries, err := NewReconciler(localPhonePrefix, levels).
		WithRowOffset(tables.DirectoryOffset).
		Reconcile(tables.Directory, book)
	if err != nil {
		return nil, fmt.Errorf("reconcile directory: %w", err)
	}
	return entries, nil
}
