package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # CSV Errors (CSV001-CSV099)
//
//	CSV001 - Malformed CSV: The file could not be read as CSV
//	         Action: Check for unbalanced quotes near the reported line
//	         Match: *ParseError
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file into smaller files
//	          Match: ErrFileTooLarge, "file too large"
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save file as UTF-8 encoding
//	          Match: "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to import
//	          Match: "no file provided"
//
//	FILE005 - Empty file: The file has no data rows
//	          Action: Export a backup first and use it as a template
//	          Match: "empty file"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date: Use YYYY-MM-DD
//	VAL003 - Required field is empty
//	VAL006 - Value is not in the allowed list
//	VAL007 - Invalid import mode
//	VAL008 - Unknown collection: ErrUnknownCollection
//
// Validation errors carry the field name in the message.
//
// # Store Errors (STORE001-STORE099)
//
//	STORE001 - Duplicate id: "duplicate key", "unique constraint"
//	STORE002 - Connection refused
//	STORE003 - Connection reset
//	STORE004 - Timeout
//	STORE005 - Busy: "deadlock", "database is locked"
//	STORE006 - Not found: ErrNotFound
//	STORE000 - Any other *StoreError
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Nothing to import: ErrEmptyImport
//	IMP002 - System busy: ErrTooManyImports
//	IMP003 - Request cancelled: context.Canceled
//	IMP004 - Request timed out: context.DeadlineExceeded
//
// # Session Errors (AUTH001-AUTH099)
//
//	AUTH001 - Sign-in required: "session required"
//	AUTH002 - Session invalid or expired: "invalid session"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Typed errors and sentinels are matched first with errors.As and errors.Is,
// so wrapping never hides them. Remaining errors are matched case-insensitively
// against the pattern list. The first match wins.

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

var (
	msgMalformedCSV = UserMessage{
		Message: "The file could not be read as CSV",
		Action:  "Check for unbalanced quotes near the reported line",
		Code:    "CSV001",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller files",
		Code:    "FILE001",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}
	msgEmptyFile = UserMessage{
		Message: "The file has no data rows",
		Action:  "Export a backup first and use it as a template",
		Code:    "FILE005",
	}
	msgUnknownCollection = UserMessage{
		Message: "Unknown collection",
		Action:  "Use actions or register",
		Code:    "VAL008",
	}
	msgNotFound = UserMessage{
		Message: "Record not found",
		Action:  "It may have been deleted. Reload and try again",
		Code:    "STORE006",
	}
	msgStoreFailed = UserMessage{
		Message: "The record store rejected the change",
		Action:  "Please try again. If it keeps failing, contact support",
		Code:    "STORE000",
	}
	msgEmptyImport = UserMessage{
		Message: "No rows to import",
		Action:  "Every row needs a value in its main column",
		Code:    "IMP001",
	}
	msgTooManyImports = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP003",
	}
	msgDeadline = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "IMP004",
	}
)

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins; keep specific patterns before general ones.
var errorPatterns = []errorPattern{
	// Store constraint and connectivity errors.
	{pattern: "duplicate key", msg: UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Use merge mode to update existing records",
		Code:    "STORE001",
	}},
	{pattern: "unique constraint", msg: UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Use merge mode to update existing records",
		Code:    "STORE001",
	}},
	{pattern: "connection refused", msg: UserMessage{
		Message: "Unable to connect to the record store",
		Action:  "Please try again in a few moments",
		Code:    "STORE002",
	}},
	{pattern: "connection reset", msg: UserMessage{
		Message: "Connection to the record store was interrupted",
		Action:  "Please try again",
		Code:    "STORE003",
	}},
	{pattern: "timeout", msg: UserMessage{
		Message: "Operation timed out",
		Action:  "Please try again later",
		Code:    "STORE004",
	}},
	{pattern: "deadlock", msg: UserMessage{
		Message: "The record store was busy with conflicting changes",
		Action:  "Please try again",
		Code:    "STORE005",
	}},
	{pattern: "database is locked", msg: UserMessage{
		Message: "The record store was busy with conflicting changes",
		Action:  "Please try again",
		Code:    "STORE005",
	}},

	// Validation.
	{pattern: "invalid date", msg: UserMessage{
		Message: "Invalid date format detected",
		Action:  "Use YYYY-MM-DD",
		Code:    "VAL001",
	}},
	{pattern: "required field", msg: UserMessage{
		Message: "Required field is empty",
		Action:  "Fill in the required field",
		Code:    "VAL003",
	}},
	{pattern: "invalid enum", msg: UserMessage{
		Message: "Value is not in the allowed list",
		Action:  "Check the allowed values for this field",
		Code:    "VAL006",
	}},
	{pattern: "invalid import mode", msg: UserMessage{
		Message: "Invalid import mode",
		Action:  "Use replace or merge",
		Code:    "VAL007",
	}},

	// Files.
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "encoding error", msg: msgEncoding},
	{pattern: "no file provided", msg: UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to import",
		Code:    "FILE004",
	}},
	{pattern: "empty file", msg: msgEmptyFile},

	// Sessions.
	{pattern: "session required", msg: UserMessage{
		Message: "Sign-in required",
		Action:  "Sign in and try again",
		Code:    "AUTH001",
	}},
	{pattern: "invalid session", msg: UserMessage{
		Message: "Your session is invalid or has expired",
		Action:  "Sign in again",
		Code:    "AUTH002",
	}},

	// Rate limiting.
	{pattern: "rate limit", msg: UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check application logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	err := fmt.Errorf("action 42: %w", ErrNotFound)
//	msg := MapError(err)
//	// msg.Code == "STORE006"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}
	if msg, ok := matchPattern(err.Error()); ok {
		return msg
	}

	var se *StoreError
	if errors.As(err, &se) {
		return msgStoreFailed
	}
	return defaultMessage
}

// mapTyped matches typed errors and sentinels.
func mapTyped(err error) (UserMessage, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		switch {
		case strings.HasPrefix(pe.Msg, "empty file"):
			return msgEmptyFile, true
		case strings.HasPrefix(pe.Msg, "encoding error"):
			return msgEncoding, true
		}
		msg := msgMalformedCSV
		if pe.Line > 0 {
			msg.Message = fmt.Sprintf("%s (line %d)", msg.Message, pe.Line)
		}
		return msg, true
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		msg, ok := matchPattern(ve.Message)
		if !ok {
			msg = UserMessage{Action: "Correct the value and try again", Code: "VAL000"}
		}
		if ve.Field != "" {
			msg.Message = ve.Field + ": " + ve.Message
		} else {
			msg.Message = ve.Message
		}
		return msg, true
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return msgNotFound, true
	case errors.Is(err, ErrUnknownCollection):
		return msgUnknownCollection, true
	case errors.Is(err, ErrEmptyImport):
		return msgEmptyImport, true
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports, true
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge, true
	case errors.Is(err, context.Canceled):
		return msgCancelled, true
	case errors.Is(err, context.DeadlineExceeded):
		return msgDeadline, true
	}
	return UserMessage{}, false
}

func matchPattern(text string) (UserMessage, bool) {
	text = strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(text, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
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
