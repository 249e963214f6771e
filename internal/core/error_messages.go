// Package core error catalog.
//
// # Error Codes Reference
//
// Errors shown to users carry a code they can quote to support staff.
// Codes are grouped by category:
//
// # Code Table Errors (COD001-COD099)
//
//	COD001 - Malformed code: a code cell is not a number between 0000 and 9999
//	COD002 - Duplicate deleted code: a code is listed twice on the deleted codes table
//	COD003 - Deleted code reused: a retired code is assigned again
//	COD004 - Unknown code type: the type cell is not PERMANENT, LIMITED or DELIVERY
//	COD005 - Duplicate vendor: a vendor has more than one code
//	COD006 - Duplicate legacy resident: a legacy resident has more than one code
//	COD007 - Unconsumed resident code: a code's address is missing from the directory
//	COD008 - Invalid legacy code: a legacy resident code is not PERMANENT
//
// # Directory Errors (DIR001-DIR099)
//
//	DIR001 - Malformed directory number (want #NNN)
//	DIR002 - Malformed phone number (want AAA-NNNNNNN)
//
// # Entry Errors (ENT001-ENT099)
//
//	ENT001 - Too many device numbers on one entry
//	ENT002 - Entry code set without a security level, or the reverse
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - No security level configured for a code type
//	CFG002 - Sync profile is invalid
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Table could not be retrieved from the source
//	SRC002 - No table source is configured for this server
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Invalid workbook
//	FILE004 - No file provided
//	FILE005 - Unsupported output format
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Too many reconciliations in progress
//	RUN002 - Request cancelled
//	RUN003 - Request timed out
//
// # Rate Limit Errors (RATE001-RATE099)
//
//	RATE001 - Too many requests from one client
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the technical error.
//
// # Matching
//
// Typed engine errors are matched first with errors.As, so wrapping never
// hides them. Everything else falls through to case-insensitive substring
// patterns; the first matching pattern wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// typedMessage maps an engine error type to its user message.
type typedMessage struct {
	match func(error) bool
	msg   UserMessage
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

var typedMessages = []typedMessage{
	{isType[*MalformedCodeError], UserMessage{
		Message: "An entry code is not a number between 0000 and 9999",
		Action:  "Fix the code cell named in the details",
		Code:    "COD001",
	}},
	{isType[*DuplicateCodeError], UserMessage{
		Message: "A code is listed twice on the deleted codes table",
		Action:  "Remove the duplicate row from the deleted codes table",
		Code:    "COD002",
	}},
	{isType[*DeletedCodeReusedError], UserMessage{
		Message: "A deleted entry code is assigned again",
		Action:  "Pick a new code or remove it from the deleted codes table",
		Code:    "COD003",
	}},
	{isType[*UnknownCodeTypeError], UserMessage{
		Message: "Unknown entry code type",
		Action:  "Use PERMANENT, LIMITED or DELIVERY",
		Code:    "COD004",
	}},
	{isType[*DuplicateVendorCodeError], UserMessage{
		Message: "A vendor has more than one entry code",
		Action:  "Keep a single code per vendor",
		Code:    "COD005",
	}},
	{isType[*DuplicateLegacyCodeError], UserMessage{
		Message: "A legacy resident has more than one entry code",
		Action:  "Keep a single code per legacy resident",
		Code:    "COD006",
	}},
	{isType[*UnconsumedResidentCodesError], UserMessage{
		Message: "Some resident codes belong to addresses missing from the directory",
		Action:  "Add the addresses to the directory or remove the codes",
		Code:    "COD007",
	}},
	{isType[*InvalidLegacyCodeTypeError], UserMessage{
		Message: "A legacy resident code is not PERMANENT",
		Action:  "Change the code type to PERMANENT or retire the code",
		Code:    "COD008",
	}},
	{isType[*MalformedDirectoryNumberError], UserMessage{
		Message: "A directory number is malformed",
		Action:  "Write directory numbers as #NNN",
		Code:    "DIR001",
	}},
	{isType[*MalformedPhoneNumberError], UserMessage{
		Message: "A phone number is malformed",
		Action:  "Write phone numbers as AAA-NNNNNNN",
		Code:    "DIR002",
	}},
	{isType[*TooManyDevicesError], UserMessage{
		Message: "An entry has too many device numbers",
		Action:  "Keep at most four device numbers per household",
		Code:    "ENT001",
	}},
	{isType[*IncompleteEntryCodeError], UserMessage{
		Message: "An entry code was set without a security level",
		Action:  "Please contact support",
		Code:    "ENT002",
	}},
	{isType[*MissingSecurityLevelError], UserMessage{
		Message: "No security level is configured for an entry code type",
		Action:  "Add the type to security_levels in the sync profile",
		Code:    "CFG001",
	}},
	{func(err error) bool { return errors.Is(err, ErrTooManyRuns) }, UserMessage{
		Message: "System is busy processing other reconciliations",
		Action:  "Please wait a moment and try again",
		Code:    "RUN001",
	}},
	{func(err error) bool { return errors.Is(err, context.Canceled) }, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RUN002",
	}},
	{func(err error) bool { return errors.Is(err, context.DeadlineExceeded) }, UserMessage{
		Message: "Request timed out",
		Action:  "Try again or check the source connection",
		Code:    "RUN003",
	}},
	{func(err error) bool { return errors.Is(err, ErrFetch) }, UserMessage{
		Message: "A table could not be retrieved from the source",
		Action:  "Check the source settings and try again",
		Code:    "SRC001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "invalid profile",
		msg: UserMessage{
			Message: "The sync profile is invalid",
			Action:  "Fix the fields listed in the details",
			Code:    "CFG002",
		},
	},
	{
		pattern: "no table source configured",
		msg: UserMessage{
			Message: "This server has no table source configured",
			Action:  "Upload the tables instead",
			Code:    "SRC002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file or remove unused sheets",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "File is not a valid Excel workbook",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A required file was not selected",
			Action:  "Select the directory and code assignment files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "Unsupported output format",
			Action:  "Use csv or xlsx",
			Code:    "FILE005",
		},
	},
	{
		pattern: "rate limit exceeded",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a minute and try again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "too many reconciliations",
		msg: UserMessage{
			Message: "System is busy processing other reconciliations",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Engine
// error types are recognised anywhere in the wrap chain; other errors are
// matched on their text. Unknown errors map to ERR000.
//
// Example:
//
//	msg := MapError(fmt.Errorf("build code book: %w", &DeletedCodeReusedError{Row: 4, Code: 1234}))
//	// msg.Code == "COD003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, tm := range typedMessages {
		if tm.match(err) {
			return tm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
