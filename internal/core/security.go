package core

import "fmt"

// SecurityLevelMapping is one configured type → level pair, as read from the
// sync profile.
type SecurityLevelMapping struct {
	EntryCodeType string
	SecurityLevel int
}

// SecurityLevels maps each code type to the DoorKing security level it grants.
type SecurityLevels map[EntryCodeType]int

// NewSecurityLevels builds the lookup table from configuration. Type names
// are case-insensitive; naming a type twice is an error.
func NewSecurityLevels(mappings []SecurityLevelMapping) (SecurityLevels, error) {
	levels := make(SecurityLevels, len(mappings))
	for _, m := range mappings {
		t, ok := ParseEntryCodeType(m.EntryCodeType)
		if !ok {
			return nil, &UnknownCodeTypeError{Value: m.EntryCodeType}
		}
		if _, dup := levels[t]; dup {
			return nil, fmt.Errorf("security level for %s configured twice", t)
		}
		if m.SecurityLevel < 0 || m.SecurityLevel > 99 {
			return nil, fmt.Errorf("security level %d for %s out of range 0-99", m.SecurityLevel, t)
		}
		levels[t] = m.SecurityLevel
	}
	return levels, nil
}

// Level returns the security level for t.
func (s SecurityLevels) Level(t EntryCodeType) (int, error) {
	level, ok := s[t]
	if !ok {
		return 0, &MissingSecurityLevelError{Type: t}
	}
	return level, nil
}

// Unmapped lists the known code types without a level, in declaration
// order. Codes of these types fail reconciliation.
func (s SecurityLevels) Unmapped() []EntryCodeType {
	var out []EntryCodeType
	for _, t := range EntryCodeTypes {
		if _, ok := s[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}
