package core

// error_messages.go maps technical errors to user-friendly messages with codes
// for support reference. Operators quote the code when a batch reports
// failures so the cause can be diagnosed without the raw API payload.
//
// Error codes are grouped by category:
//
//	AUTH001 - API key rejected
//	          Patterns: "http 401", "http 403", "not authenticated", "unauthorized"
//	RATE001 - Rate limited
//	          Patterns: "http 429", "rate limit", "complexity budget"
//	API001  - Remote server error
//	          Patterns: "http 500" .. "http 504"
//	BRD001  - Board not found
//	          Patterns: "board not found", "resourcenotfound"
//	COL001  - Column value rejected
//	          Patterns: "columnvalueexception", "invalid column"
//	NET001  - Connection refused
//	NET002  - Connection reset
//	NET003  - Network timeout
//	UPL004  - Cancelled ("context canceled")
//	UPL005  - Deadline exceeded ("context deadline exceeded")
//	FILE001 - Input file not found
//	FILE002 - Workbook password wrong or missing
//	FILE003 - Not a readable workbook
//	CFG001  - Missing configuration
//	ERR000  - Fallback when nothing matches
//
// Patterns are matched case-insensitively using strings.Contains. The first
// matching pattern wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgAuth = UserMessage{
		Message: "The API key was rejected",
		Action:  "Check MONDAY_API_KEY and that the key can write to the board",
		Code:    "AUTH001",
	}
	msgRate = UserMessage{
		Message: "The API rate limit was reached",
		Action:  "Lower --batch, raise --delay, or raise --retries and --max-delay",
		Code:    "RATE001",
	}
	msgServer = UserMessage{
		Message: "The API returned a server error",
		Action:  "Try again later; rerun with --skip-imported to avoid duplicates",
		Code:    "API001",
	}
	msgColumn = UserMessage{
		Message: "A column value was rejected by the board",
		Action:  "Check --user-id-col and --user-name-col against the board's column ids",
		Code:    "COL001",
	}
)

var errorPatterns = []errorPattern{
	// =========================================================================
	// Authorization (AUTH001)
	// =========================================================================
	{pattern: "http 401", msg: msgAuth},
	{pattern: "http 403", msg: msgAuth},
	{pattern: "not authenticated", msg: msgAuth},
	{pattern: "unauthorized", msg: msgAuth},

	// =========================================================================
	// Rate limiting (RATE001)
	// =========================================================================
	{pattern: "http 429", msg: msgRate},
	{pattern: "rate limit", msg: msgRate},
	{pattern: "complexity budget", msg: msgRate},

	// =========================================================================
	// Remote server errors (API001)
	// =========================================================================
	{pattern: "http 500", msg: msgServer},
	{pattern: "http 502", msg: msgServer},
	{pattern: "http 503", msg: msgServer},
	{pattern: "http 504", msg: msgServer},

	// =========================================================================
	// Board and column errors (BRD001, COL001)
	// =========================================================================
	{
		pattern: "board not found",
		msg: UserMessage{
			Message: "The board does not exist or is not visible to this key",
			Action:  "Check --board / MONDAY_USER_BOARD_ID",
			Code:    "BRD001",
		},
	},
	{
		pattern: "resourcenotfound",
		msg: UserMessage{
			Message: "The board does not exist or is not visible to this key",
			Action:  "Check --board / MONDAY_USER_BOARD_ID",
			Code:    "BRD001",
		},
	},
	{pattern: "columnvalueexception", msg: msgColumn},
	{pattern: "invalid column", msg: msgColumn},

	// =========================================================================
	// Cancellation (UPL004, UPL005) - before the generic timeout pattern
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The run was cancelled",
			Action:  "Rerun when ready; created items are not rolled back",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Raise --api-timeout or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Network errors (NET001-NET003)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the API",
			Action:  "Check --api-url and your network",
			Code:    "NET001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The API connection was interrupted",
			Action:  "Please try again",
			Code:    "NET002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Raise --api-timeout or try again later",
			Code:    "NET003",
		},
	},

	// =========================================================================
	// Input file errors (FILE001-FILE003)
	// =========================================================================
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The input file was not found",
			Action:  "Check the --file path",
			Code:    "FILE001",
		},
	},
	{
		pattern: "password",
		msg: UserMessage{
			Message: "The workbook password is wrong or missing",
			Action:  "Pass the correct --password",
			Code:    "FILE002",
		},
	},
	{
		pattern: "zip: not a valid zip file",
		msg: UserMessage{
			Message: "The file is not a readable workbook",
			Action:  "Save the file as .xlsx or export it to .csv",
			Code:    "FILE003",
		},
	},

	// =========================================================================
	// Configuration (CFG001)
	// =========================================================================
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "Required configuration is missing",
			Action:  "Set the flag or environment variable named in the error",
			Code:    "CFG001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log output for the original error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first pattern match, or the ERR000 fallback.
//
// Example:
//
//	err := errors.New("HTTP 429: Too Many Requests")
//	msg := MapError(err)
//	// msg.Code == "RATE001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
