package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxDeviceNumbers is the number of device columns in the import format.
const MaxDeviceNumbers = 4

// headers are the Account Manager column names, in field order.
var headers = []string{
	"Resident", "H", "AAC", "PHONE", "DIR", "ENT", "SL",
	"DEVICE#", "NOTES", "VENDOR", "DEVICE2", "DEVICE3", "DEVICE4",
}

// Headers returns the 13 column names of an entry line.
func Headers() []string {
	return append([]string(nil), headers...)
}

// HeaderLine returns the column names joined by commas.
func HeaderLine() string {
	return strings.Join(headers, ",")
}

// Entry is one DoorKing directory entry. Entries are immutable; build them
// with EntryBuilder.
type Entry struct {
	displayName     string
	hidden          bool
	areaCode        string
	phoneNumber     string
	directoryNumber *int
	entryCode       *int
	securityLevel   *int
	deviceNumbers   []string
	notes           string
	vendor          bool
}

// EntryBuilder collects the fields of an Entry. Zero values mean "absent".
// A builder is a plain value; Build copies everything it needs.
type EntryBuilder struct {
	DisplayName     string
	Hidden          bool
	AreaCode        string
	PhoneNumber     string
	DirectoryNumber *int
	EntryCode       *int
	SecurityLevel   *int
	DeviceNumbers   []string
	Notes           string
	Vendor          bool
}

// Build validates the builder and returns the entry. The entry code and
// security level must be set together, and at most MaxDeviceNumbers devices
// are allowed.
func (b EntryBuilder) Build() (Entry, error) {
	if (b.EntryCode == nil) != (b.SecurityLevel == nil) {
		return Entry{}, &IncompleteEntryCodeError{Name: b.DisplayName}
	}
	if len(b.DeviceNumbers) > MaxDeviceNumbers {
		return Entry{}, &TooManyDevicesError{Name: b.DisplayName, Count: len(b.DeviceNumbers)}
	}
	return Entry{
		displayName:     b.DisplayName,
		hidden:          b.Hidden,
		areaCode:        b.AreaCode,
		phoneNumber:     b.PhoneNumber,
		directoryNumber: copyInt(b.DirectoryNumber),
		entryCode:       copyInt(b.EntryCode),
		securityLevel:   copyInt(b.SecurityLevel),
		deviceNumbers:   append([]string(nil), b.DeviceNumbers...),
		notes:           b.Notes,
		vendor:          b.Vendor,
	}, nil
}

// IntPtr returns a pointer to v, for filling EntryBuilder fields.
func IntPtr(v int) *int {
	return &v
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return IntPtr(*p)
}

func (e Entry) DisplayName() string { return e.displayName }
func (e Entry) Hidden() bool        { return e.hidden }
func (e Entry) AreaCode() string    { return e.areaCode }
func (e Entry) PhoneNumber() string { return e.phoneNumber }
func (e Entry) Notes() string       { return e.notes }
func (e Entry) Vendor() bool        { return e.vendor }

// DirectoryNumber returns the directory number and whether it is set.
func (e Entry) DirectoryNumber() (int, bool) { return derefInt(e.directoryNumber) }

// EntryCode returns the keypad code and whether it is set.
func (e Entry) EntryCode() (int, bool) { return derefInt(e.entryCode) }

// SecurityLevel returns the security level and whether it is set.
func (e Entry) SecurityLevel() (int, bool) { return derefInt(e.securityLevel) }

// DeviceNumbers returns a copy of the device numbers.
func (e Entry) DeviceNumbers() []string {
	return append([]string(nil), e.deviceNumbers...)
}

func derefInt(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Fields renders the entry as the 13 import columns, in Headers order.
func (e Entry) Fields() []string {
	return []string{
		e.displayName,
		yesNo(e.hidden),
		prefixed("1", e.areaCode),
		e.phoneNumber,
		padded("%03d", e.directoryNumber),
		padded("%04d", e.entryCode),
		padded("%02d", e.securityLevel),
		e.device(0),
		e.notes,
		yesNo(e.vendor),
		e.device(1),
		e.device(2),
		e.device(3),
	}
}

// Line renders the entry as one comma-joined import line.
func (e Entry) Line() string {
	return strings.Join(e.Fields(), ",")
}

func (e Entry) String() string {
	return e.Line()
}

func (e Entry) device(i int) string {
	if i >= len(e.deviceNumbers) {
		return ""
	}
	return e.deviceNumbers[i]
}

func yesNo(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func padded(format string, p *int) string {
	if p == nil {
		return ""
	}
	return fmt.Sprintf(format, *p)
}

// entryJSON is the wire shape used by the preview API.
type entryJSON struct {
	DisplayName     string   `json:"displayName"`
	Hidden          bool     `json:"hidden"`
	AreaCode        string   `json:"areaCode,omitempty"`
	PhoneNumber     string   `json:"phoneNumber,omitempty"`
	DirectoryNumber *int     `json:"directoryNumber,omitempty"`
	EntryCode       *int     `json:"entryCode,omitempty"`
	SecurityLevel   *int     `json:"securityLevel,omitempty"`
	DeviceNumbers   []string `json:"deviceNumbers,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	Vendor          bool     `json:"vendor"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		DisplayName:     e.displayName,
		Hidden:          e.hidden,
		AreaCode:        e.areaCode,
		PhoneNumber:     e.phoneNumber,
		DirectoryNumber: e.directoryNumber,
		EntryCode:       e.entryCode,
		SecurityLevel:   e.securityLevel,
		DeviceNumbers:   e.deviceNumbers,
		Notes:           e.notes,
		Vendor:          e.vendor,
	})
}
