package restructure

import (
	"errors"
	"fmt"
)

// Code is the stable machine-readable identifier of a failure.
type Code string

const (
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeDecode         Code = "DECODE_ERROR"
	CodeInvalidRange   Code = "INVALID_PAGE_RANGE"
	CodeNoBookmarks    Code = "NO_BOOKMARKS"
	CodeMergeFailure   Code = "PDF_MERGE_ERROR"
	CodeSplitFailure   Code = "PDF_SPLIT_ERROR"
)

// Error is returned by every Engine operation.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code Code, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg += ": " + err.Error()
	}
	return &Error{Code: code, Message: msg, Err: err}
}
