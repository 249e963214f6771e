package core

// errors.go defines the failures the reconciliation engine can report.
//
// Every failure is fatal for the batch. Each type carries the offending code,
// name or address so the sheet can be corrected, and all of them match
// ErrInvalidInput through errors.Is so callers can tell bad data apart from
// I/O problems without enumerating types.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is matched by every data error produced by the engine.
var ErrInvalidInput = errors.New("invalid input")

// ErrFetch is matched by errors from table sources that could not read a
// table. Its text is the "fetch" that starts those messages.
var ErrFetch = errors.New("fetch")

// invalidInput is embedded by the engine's error types.
type invalidInput struct{}

// Is implements errors.Is support.
func (invalidInput) Is(target error) bool {
	return target == ErrInvalidInput
}

// MalformedCodeError reports a code cell that is not a number in [0, 9999].
type MalformedCodeError struct {
	invalidInput
	Table string
	Row   int
	Value string
}

func (e *MalformedCodeError) Error() string {
	return fmt.Sprintf("%s row %d: malformed entry code %q", e.Table, e.Row, e.Value)
}

// DuplicateCodeError reports a code listed twice on the deleted codes table.
type DuplicateCodeError struct {
	invalidInput
	Code int
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("duplicate deleted entry code %04d", e.Code)
}

// DeletedCodeReusedError reports an assignment of a retired code.
type DeletedCodeReusedError struct {
	invalidInput
	Row  int
	Code int
}

func (e *DeletedCodeReusedError) Error() string {
	return fmt.Sprintf("codes row %d: code %04d is present on the deleted entry codes table", e.Row, e.Code)
}

// UnknownCodeTypeError reports a type cell that is not PERMANENT, LIMITED or DELIVERY.
type UnknownCodeTypeError struct {
	invalidInput
	Row   int
	Value string
}

func (e *UnknownCodeTypeError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("unknown entry code type %q", e.Value)
	}
	return fmt.Sprintf("codes row %d: unknown entry code type %q", e.Row, e.Value)
}

// DuplicateVendorCodeError reports a second code for the same vendor.
type DuplicateVendorCodeError struct {
	invalidInput
	Name      string
	Existing  EntryCode
	Duplicate EntryCode
}

func (e *DuplicateVendorCodeError) Error() string {
	return fmt.Sprintf("unsupported: multiple codes for vendor %q (%s, %s)", e.Name, e.Existing, e.Duplicate)
}

// DuplicateLegacyCodeError reports a second code for the same legacy resident.
type DuplicateLegacyCodeError struct {
	invalidInput
	Name      string
	Existing  EntryCode
	Duplicate EntryCode
}

func (e *DuplicateLegacyCodeError) Error() string {
	return fmt.Sprintf("unsupported: multiple codes for legacy resident %q (%s, %s)", e.Name, e.Existing, e.Duplicate)
}

// MalformedDirectoryNumberError reports a directory number without the
// leading '#' or with non-numeric digits.
type MalformedDirectoryNumberError struct {
	invalidInput
	Row   int
	Value string
}

func (e *MalformedDirectoryNumberError) Error() string {
	return fmt.Sprintf("directory row %d: malformed directory number %q (want #NNN)", e.Row, e.Value)
}

// MalformedPhoneNumberError reports a phone number not shaped AAA-NNNNNNN.
type MalformedPhoneNumberError struct {
	invalidInput
	Row   int
	Value string
}

func (e *MalformedPhoneNumberError) Error() string {
	return fmt.Sprintf("directory row %d: malformed phone number %q (want AAA-NNNNNNN)", e.Row, e.Value)
}

// MissingSecurityLevelError reports a code type with no configured security level.
type MissingSecurityLevelError struct {
	invalidInput
	Type EntryCodeType
}

func (e *MissingSecurityLevelError) Error() string {
	return fmt.Sprintf("no security level configured for entry code type %s", e.Type)
}

// TooManyDevicesError reports an entry with more than MaxDeviceNumbers devices.
type TooManyDevicesError struct {
	invalidInput
	Name  string
	Count int
}

func (e *TooManyDevicesError) Error() string {
	return fmt.Sprintf("entry %q has %d device numbers (max %d)", e.Name, e.Count, MaxDeviceNumbers)
}

// IncompleteEntryCodeError reports an entry code without a security level or
// the other way around.
type IncompleteEntryCodeError struct {
	invalidInput
	Name string
}

func (e *IncompleteEntryCodeError) Error() string {
	return fmt.Sprintf("entry %q must set entry code and security level together", e.Name)
}

// UnconsumedResidentCodesError reports resident codes whose address never
// appeared in the directory.
type UnconsumedResidentCodesError struct {
	invalidInput
	Codes []ResidentCode
}

func (e *UnconsumedResidentCodesError) Error() string {
	parts := make([]string, len(e.Codes))
	for i, rc := range e.Codes {
		parts[i] = fmt.Sprintf("%s @ %s", rc.Code, rc.Address)
	}
	return fmt.Sprintf("unencoded resident codes: %s", strings.Join(parts, "; "))
}

// InvalidLegacyCodeTypeError reports a legacy resident code that is not PERMANENT.
type InvalidLegacyCodeTypeError struct {
	invalidInput
	Name string
	Code EntryCode
}

func (e *InvalidLegacyCodeTypeError) Error() string {
	return fmt.Sprintf("legacy resident %q has %s code %04d; only PERMANENT is allowed", e.Name, e.Code.Type, e.Code.Code)
}
