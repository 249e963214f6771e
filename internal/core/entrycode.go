package core

import (
	"fmt"
	"strings"
)

// MaxEntryCode is the largest code a DoorKing keypad accepts.
const MaxEntryCode = 9999

// EntryCodeType classifies an access code.
type EntryCodeType int

const (
	Permanent EntryCodeType = iota + 1
	Limited
	Delivery
)

// EntryCodeTypes lists every known type in declaration order.
var EntryCodeTypes = []EntryCodeType{Permanent, Limited, Delivery}

// String returns the upper-case name used in sheets and configuration.
func (t EntryCodeType) String() string {
	switch t {
	case Permanent:
		return "PERMANENT"
	case Limited:
		return "LIMITED"
	case Delivery:
		return "DELIVERY"
	default:
		return fmt.Sprintf("EntryCodeType(%d)", int(t))
	}
}

// ParseEntryCodeType parses a type name case-insensitively.
func ParseEntryCodeType(s string) (EntryCodeType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PERMANENT":
		return Permanent, true
	case "LIMITED":
		return Limited, true
	case "DELIVERY":
		return Delivery, true
	default:
		return 0, false
	}
}

// EntryCode is a keypad code and its type. Two codes are equal when both
// the digits and the type match.
type EntryCode struct {
	Code int
	Type EntryCodeType
}

func (c EntryCode) String() string {
	return fmt.Sprintf("%04d %s", c.Code, c.Type)
}
