package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// IsValidation reports whether the code is a validation failure: surfaced to
// the user immediately, never retried.
func IsValidation(code int) bool {
	return code == ErrInvalidParam.Code ||
		(code >= 4101 && code <= 4199)
}

// IsPermission reports whether the code is a permission failure: fatal to
// the operation, never retried automatically.
func IsPermission(code int) bool {
	return code == ErrNoPermission.Code || code == ErrForbidden.Code ||
		code == ErrNotParticipant.Code
}

// IsTransient reports whether the code marks a store/backend failure that is
// safe to retry with the same idempotency token.
func IsTransient(code int) bool {
	return code == ErrInternalServer.Code || code == ErrSendFailed.Code
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam    = New(1001, "invalid parameter")
	ErrInternalServer  = New(1002, "internal server error")
	ErrUnauthorized    = New(1003, "unauthorized")
	ErrForbidden       = New(1004, "forbidden")
	ErrNotFound        = New(1005, "not found")
	ErrTooManyRequests = New(1006, "too many requests")
	ErrNoPermission    = New(1007, "no permission to access this resource")

	// Auth errors (2xxx)
	ErrTokenInvalid  = New(2001, "token invalid")
	ErrTokenExpired  = New(2002, "token expired")
	ErrTokenMissing  = New(2003, "token missing")
	ErrTokenMismatch = New(2004, "token user mismatch")
	ErrLoginFailed   = New(2005, "login failed")
	ErrUserNotFound  = New(2006, "user not found")
	ErrUserExists    = New(2007, "user already exists")
	ErrPasswordWrong = New(2008, "password wrong")

	// Message/conversation errors (4xxx)
	ErrMessageNotFound = New(4001, "message not found")
	ErrConvNotFound    = New(4003, "conversation not found")
	ErrSendFailed      = New(4005, "message send failed")
	ErrNotParticipant  = New(4010, "sender is not a conversation participant")

	// Validation errors (41xx)
	ErrEmptyBody        = New(4101, "message body is empty")
	ErrBodyTooLong      = New(4102, "message body exceeds maximum length")
	ErrSelfConversation = New(4103, "cannot start a conversation with yourself")
	ErrMissingMsgToken  = New(4104, "client_msg_id is required")

	// WebSocket errors (5xxx)
	ErrConnOverLimit   = New(5001, "connection over max limit")
	ErrConnClosed      = New(5002, "connection closed")
	ErrInvalidProtocol = New(5003, "invalid protocol")
	ErrPushFailed      = New(5004, "push event failed")
)
