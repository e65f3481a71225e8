package core

// error_messages.go maps technical errors to user-facing messages.
//
// Users quote the code to support. Codes are grouped by category:
//
//	FILE001 - File too large          "file too large", "request body too large"
//	FILE002 - Invalid CSV             "failed to parse csv"
//	FILE003 - Encoding error          "encoding error"
//	FILE004 - No file                 "no file provided", "no files loaded", "no csv files found"
//	FILE005 - Empty file              "empty file"
//	FILE006 - Read error              "failed to read"
//	FILE007 - Too many files          "too many files"
//	FILE008 - Folder unavailable      "invalid folder name", "folder loading is not configured"
//
//	EDIT001 - Invalid key             "invalid translation key"
//	EDIT002 - Unknown column          "file index out of range"
//
//	TR001   - Translation API error   "translation api error", "translation request"
//	TR002   - Nothing to translate    "nothing to translate"
//	TR003   - Job expired             "translation job not found"
//	TR004   - Translation disabled    "translation is not configured"
//
//	SES001  - Session expired         "session not found"
//	SES002  - Files reloaded          "stale session"
//
//	SAVE001 - Save cancelled          "save cancelled"
//
//	UPL002  - System busy             "too many concurrent loads"
//	REQ001  - Request timed out       "context deadline exceeded"
//	REQ002  - Request cancelled       "context canceled"
//	REQ003  - Bad request             "invalid request"
//	RATE001 - Rate limited            "rate limit"
//
//	ERR000  - Unknown error           fallback, check the logs
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones. An encoding or
// empty-file parse error must match before the generic parse pattern.

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

var errorPatterns = []errorPattern{
	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "One or more files exceed the 10MB limit",
			Action:  "Split the file or remove unused keys",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The selection is larger than the server accepts",
			Action:  "Open fewer files at once",
			Code:    "FILE001",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "A selected file is empty",
			Action:  "Select CSV files that contain key,translation rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "failed to parse csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check that every line is a key,translation pair",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select one or more CSV files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no files loaded",
		msg: UserMessage{
			Message: "No files are loaded",
			Action:  "Select one or more CSV files first",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no csv files found",
		msg: UserMessage{
			Message: "No CSV files found in the selected folder",
			Action:  "Choose a folder that contains .csv files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "failed to read",
		msg: UserMessage{
			Message: "A file could not be read",
			Action:  "Select the files again",
			Code:    "FILE006",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files selected",
			Action:  "Select fewer files at once",
			Code:    "FILE007",
		},
	},
	{
		pattern: "invalid folder name",
		msg: UserMessage{
			Message: "Folder not available",
			Action:  "Pick a folder from the list",
			Code:    "FILE008",
		},
	},
	{
		pattern: "folder loading is not configured",
		msg: UserMessage{
			Message: "Opening server folders is disabled",
			Action:  "Select files from your computer instead",
			Code:    "FILE008",
		},
	},

	// Edit errors
	{
		pattern: "invalid translation key",
		msg: UserMessage{
			Message: "That key cannot be edited",
			Action:  "Keys must be non-empty and not the header",
			Code:    "EDIT001",
		},
	},
	{
		pattern: "file index out of range",
		msg: UserMessage{
			Message: "That column no longer exists",
			Action:  "Reload the page",
			Code:    "EDIT002",
		},
	},

	// Translation errors
	{
		pattern: "translation api error",
		msg: UserMessage{
			Message: "The translation service returned an error",
			Action:  "Check the API key and quota, then try again",
			Code:    "TR001",
		},
	},
	{
		pattern: "translation request",
		msg: UserMessage{
			Message: "The translation service could not be reached",
			Action:  "Please try again in a few moments",
			Code:    "TR001",
		},
	},
	{
		pattern: "nothing to translate",
		msg: UserMessage{
			Message: "No empty or unmodified translations found",
			Action:  "Clear a cell to have it translated",
			Code:    "TR002",
		},
	},
	{
		pattern: "translation job not found",
		msg: UserMessage{
			Message: "Translation job not found",
			Action:  "The job may have expired. Start a new translation",
			Code:    "TR003",
		},
	},
	{
		pattern: "translation is not configured",
		msg: UserMessage{
			Message: "Machine translation is not available",
			Action:  "Set TRANSLATE_API_KEY on the server",
			Code:    "TR004",
		},
	},

	// Session errors
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Editor session not found",
			Action:  "The session may have expired. Reload the page",
			Code:    "SES001",
		},
	},
	{
		pattern: "stale session",
		msg: UserMessage{
			Message: "The files were reloaded while this was running",
			Action:  "Repeat the action on the new files",
			Code:    "SES002",
		},
	},

	// Save errors
	{
		pattern: "save cancelled",
		msg: UserMessage{
			Message: "Save was cancelled",
			Action:  "The files will be downloaded instead",
			Code:    "SAVE001",
		},
	},

	// Request errors
	{
		pattern: "too many concurrent loads",
		msg: UserMessage{
			Message: "System is busy loading other files",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Reload the page and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try fewer files or check your connection",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The first
// matching pattern wins; ERR000 is returned when none match.
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
