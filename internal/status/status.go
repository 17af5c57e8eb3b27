// Package status defines the wire status codes exchanged in response frames
// and the internal sentinel errors that map onto them.
package status

import "errors"

// Code is a wire status value carried in every response frame.
type Code uint32

// Wire status codes. OK is success; all others are 1001-1025 per the
// protocol's external interface contract.
const (
	OK Code = 0

	NotFound           Code = 1001
	Unauthorized       Code = 1002
	Locked             Code = 1003
	InvalidArgs        Code = 1004
	ServerUnavailable  Code = 1005
	FileExists         Code = 1006
	InvalidFilename    Code = 1007
	InvalidUsername    Code = 1008
	SentenceOutOfRange Code = 1009
	WordOutOfRange     Code = 1010
	WritePermission    Code = 1011
	ReadPermission     Code = 1012
	OwnerRequired      Code = 1013
	Network            Code = 1014
	StorageFull        Code = 1015
	InvalidOperation   Code = 1016
	ConcurrentWrite    Code = 1017
	InvalidFormat      Code = 1018
	Timeout            Code = 1019
	Internal           Code = 1020
	UserNotFound       Code = 1021
	AlreadyConnected   Code = 1022
	NotConnected       Code = 1023
	UndoNotAvailable   Code = 1024
	ExecutionFailed    Code = 1025
)

var names = map[Code]string{
	OK:                 "OK",
	NotFound:           "NOT_FOUND",
	Unauthorized:       "UNAUTHORIZED",
	Locked:             "LOCKED",
	InvalidArgs:        "INVALID_ARGS",
	ServerUnavailable:  "SERVER_UNAVAILABLE",
	FileExists:         "FILE_EXISTS",
	InvalidFilename:    "INVALID_FILENAME",
	InvalidUsername:    "INVALID_USERNAME",
	SentenceOutOfRange: "SENTENCE_OUT_OF_RANGE",
	WordOutOfRange:     "WORD_OUT_OF_RANGE",
	WritePermission:    "WRITE_PERMISSION",
	ReadPermission:     "READ_PERMISSION",
	OwnerRequired:      "OWNER_REQUIRED",
	Network:            "NETWORK",
	StorageFull:        "STORAGE_FULL",
	InvalidOperation:   "INVALID_OPERATION",
	ConcurrentWrite:    "CONCURRENT_WRITE",
	InvalidFormat:      "INVALID_FORMAT",
	Timeout:            "TIMEOUT",
	Internal:           "INTERNAL",
	UserNotFound:       "USER_NOT_FOUND",
	AlreadyConnected:   "ALREADY_CONNECTED",
	NotConnected:       "NOT_CONNECTED",
	UndoNotAvailable:   "UNDO_NOT_AVAILABLE",
	ExecutionFailed:    "EXECUTION_FAILED",
}

// String returns the wire name of the code (e.g. "LOCKED").
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Error adapts a Code to the error interface so it can be returned and
// wrapped by internal APIs without losing the wire status it maps to.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Code.String() + ": " + e.Message
	}
	return e.Code.String()
}

// New builds a status Error with a message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Of returns code if err is (or wraps) a *Error, else Internal.
// This is the single translation point between internal errors and the
// wire status carried in a response frame.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return Internal
}
