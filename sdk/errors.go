package sdk

import (
	"errors"
	"fmt"
)

// Error represents an API error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// NewError creates a new error
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Common error codes
const (
	// Success
	CodeSuccess = 0

	// Common errors (1xxx)
	CodeInvalidParam    = 1001
	CodeInternalServer  = 1002
	CodeUnauthorized    = 1003
	CodeForbidden       = 1004
	CodeNotFound        = 1005
	CodeTooManyRequests = 1006
	CodeNoPermission    = 1007

	// Auth errors (2xxx)
	CodeTokenInvalid  = 2001
	CodeTokenExpired  = 2002
	CodeTokenMissing  = 2003
	CodeTokenMismatch = 2004
	CodeLoginFailed   = 2005
	CodeUserNotFound  = 2006
	CodeUserExists    = 2007
	CodePasswordWrong = 2008

	// Message/conversation errors (4xxx)
	CodeMessageNotFound = 4001
	CodeConvNotFound    = 4003
	CodeSendFailed      = 4005
	CodeNotParticipant  = 4010

	// Validation errors (41xx)
	CodeEmptyBody        = 4101
	CodeBodyTooLong      = 4102
	CodeSelfConversation = 4103
	CodeMissingMsgToken  = 4104

	// WebSocket errors (5xxx)
	CodeConnOverLimit   = 5001
	CodeConnClosed      = 5002
	CodeInvalidProtocol = 5003
	CodePushFailed      = 5004
)

// Predefined errors
var (
	ErrInvalidParam   = NewError(CodeInvalidParam, "invalid parameter")
	ErrInternalServer = NewError(CodeInternalServer, "internal server error")
	ErrUnauthorized   = NewError(CodeUnauthorized, "unauthorized")
	ErrNoPermission   = NewError(CodeNoPermission, "no permission to access this resource")

	ErrTokenInvalid = NewError(CodeTokenInvalid, "token invalid")
	ErrUserNotFound = NewError(CodeUserNotFound, "user not found")

	ErrConvNotFound   = NewError(CodeConvNotFound, "conversation not found")
	ErrSendFailed     = NewError(CodeSendFailed, "message send failed")
	ErrNotParticipant = NewError(CodeNotParticipant, "sender is not a conversation participant")
)

// IsValidation reports whether err is a validation failure: surfaced to the
// user immediately, never retried.
func IsValidation(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == CodeInvalidParam || (e.Code >= 4101 && e.Code <= 4199)
}

// IsPermission reports whether err is a permission failure
func IsPermission(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == CodeNoPermission || e.Code == CodeForbidden || e.Code == CodeNotParticipant
}

// IsTransient reports whether err marks a backend failure that is safe to
// retry with the same idempotency token.
func IsTransient(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == CodeInternalServer || e.Code == CodeSendFailed
}
