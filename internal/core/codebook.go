package core

import (
	"sort"
)

// Code assignment table columns.
const (
	columnCodeStreet      = 0
	columnCodeHouseNumber = 1
	columnCodeName        = 2
	columnCodeEntryCode   = 3
	columnCodeType        = 4
	columnCodeNotes       = 5

	// minCodeColumns is the narrowest row that still specifies a code.
	minCodeColumns = 4
)

// AddressKey correlates directory rows with resident codes. It is built from
// the street and house number cells exactly as written; "Oak " and "Oak" are
// different addresses.
type AddressKey struct {
	Street      string
	HouseNumber string
}

// NewAddressKey builds the key for a row whose street and house number live
// in columns 0 and 1, which holds for both the directory and the code table.
func NewAddressKey(row Row) AddressKey {
	return AddressKey{Street: row.Raw(0), HouseNumber: row.Raw(1)}
}

func (k AddressKey) String() string {
	return k.HouseNumber + " " + k.Street
}

// ResidentCode is a code still assigned to an address.
type ResidentCode struct {
	Address AddressKey
	Code    EntryCode
}

// NamedCode is a vendor or legacy resident code.
type NamedCode struct {
	Name string
	Code EntryCode
}

// namedCodes keeps one code per name in insertion order.
type namedCodes struct {
	order []string
	codes map[string]EntryCode
}

func newNamedCodes() namedCodes {
	return namedCodes{codes: make(map[string]EntryCode)}
}

// put stores code under name and returns the existing code when the name is taken.
func (n *namedCodes) put(name string, code EntryCode) (EntryCode, bool) {
	if existing, ok := n.codes[name]; ok {
		return existing, false
	}
	n.codes[name] = code
	n.order = append(n.order, name)
	return EntryCode{}, true
}

func (n namedCodes) list() []NamedCode {
	out := make([]NamedCode, len(n.order))
	for i, name := range n.order {
		out[i] = NamedCode{Name: name, Code: n.codes[name]}
	}
	return out
}

// CodeBook is the parsed code assignment table, split into resident, vendor
// and legacy resident codes. Resident codes are drained by the reconciler;
// the code book is owned by a single reconciliation pass.
type CodeBook struct {
	resident map[AddressKey][]EntryCode
	vendors  namedCodes
	legacy   namedCodes
}

// NewCodeBook returns an empty code book.
func NewCodeBook() *CodeBook {
	return &CodeBook{
		resident: make(map[AddressKey][]EntryCode),
		vendors:  newNamedCodes(),
		legacy:   newNamedCodes(),
	}
}

// BuildCodeBook parses the code assignment table. Rows with fewer than four
// cells carry no code and are skipped. A row with a street is a resident
// code; without one it is a vendor code when the name column is set and a
// legacy resident code, named by the notes column, otherwise. Names are
// kept exactly as written, so a name of only spaces still marks a vendor.
func BuildCodeBook(rows []Row, deleted DeletedCodeSet) (*CodeBook, error) {
	return buildCodeBook(rows, deleted, 0)
}

// buildCodeBook numbers rows from offset+1.
func buildCodeBook(rows []Row, deleted DeletedCodeSet, offset int) (*CodeBook, error) {
	book := NewCodeBook()
	for i, row := range rows {
		if len(row) < minCodeColumns {
			continue // no code specified on this row
		}
		line := offset + i + 1

		raw := row.Cell(columnCodeEntryCode)
		digits, ok := parseEntryCode(raw)
		if !ok {
			return nil, &MalformedCodeError{Table: "codes", Row: line, Value: raw}
		}
		if deleted.Contains(digits) {
			return nil, &DeletedCodeReusedError{Row: line, Code: digits}
		}

		typeName := row.Cell(columnCodeType)
		codeType, ok := ParseEntryCodeType(typeName)
		if !ok {
			return nil, &UnknownCodeTypeError{Row: line, Value: typeName}
		}
		code := EntryCode{Code: digits, Type: codeType}

		if row.Raw(columnCodeStreet) != "" {
			book.AddResidentCode(NewAddressKey(row), code)
			continue
		}
		if name := row.Raw(columnCodeName); name != "" {
			if err := book.AddVendorCode(name, code); err != nil {
				return nil, err
			}
			continue
		}
		if err := book.AddLegacyCode(row.Raw(columnCodeNotes), code); err != nil {
			return nil, err
		}
	}
	return book, nil
}

// AddResidentCode assigns code to key. Adding the same code and type twice
// at one address is a no-op.
func (b *CodeBook) AddResidentCode(key AddressKey, code EntryCode) {
	for _, c := range b.resident[key] {
		if c == code {
			return
		}
	}
	b.resident[key] = append(b.resident[key], code)
}

// AddVendorCode assigns code to a vendor; each vendor holds exactly one code.
func (b *CodeBook) AddVendorCode(name string, code EntryCode) error {
	if existing, ok := b.vendors.put(name, code); !ok {
		return &DuplicateVendorCodeError{Name: name, Existing: existing, Duplicate: code}
	}
	return nil
}

// AddLegacyCode assigns code to a legacy resident; each holds exactly one code.
func (b *CodeBook) AddLegacyCode(name string, code EntryCode) error {
	if existing, ok := b.legacy.put(name, code); !ok {
		return &DuplicateLegacyCodeError{Name: name, Existing: existing, Duplicate: code}
	}
	return nil
}

// LookupAndRemoveResidentCode removes and returns one code of the requested
// type assigned to key. Codes of one type at one address are interchangeable;
// repeated calls drain them until the second result is false.
func (b *CodeBook) LookupAndRemoveResidentCode(key AddressKey, codeType EntryCodeType) (EntryCode, bool) {
	codes := b.resident[key]
	for i, c := range codes {
		if c.Type != codeType {
			continue
		}
		rest := append(codes[:i:i], codes[i+1:]...)
		if len(rest) == 0 {
			delete(b.resident, key)
		} else {
			b.resident[key] = rest
		}
		return c, true
	}
	return EntryCode{}, false
}

// ResidentCount returns the number of resident codes not yet drained.
func (b *CodeBook) ResidentCount() int {
	n := 0
	for _, codes := range b.resident {
		n += len(codes)
	}
	return n
}

// Remaining lists the resident codes not yet drained, ordered by address and code.
func (b *CodeBook) Remaining() []ResidentCode {
	var out []ResidentCode
	for key, codes := range b.resident {
		for _, c := range codes {
			out = append(out, ResidentCode{Address: key, Code: c})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Address.Street != out[j].Address.Street {
			return out[i].Address.Street < out[j].Address.Street
		}
		if out[i].Address.HouseNumber != out[j].Address.HouseNumber {
			return out[i].Address.HouseNumber < out[j].Address.HouseNumber
		}
		if out[i].Code.Code != out[j].Code.Code {
			return out[i].Code.Code < out[j].Code.Code
		}
		return out[i].Code.Type < out[j].Code.Type
	})
	return out
}

// VendorCodes returns vendor codes in the order they appeared.
func (b *CodeBook) VendorCodes() []NamedCode {
	return b.vendors.list()
}

// LegacyCodes returns legacy resident codes in the order they appeared.
func (b *CodeBook) LegacyCodes() []NamedCode {
	return b.legacy.list()
}
