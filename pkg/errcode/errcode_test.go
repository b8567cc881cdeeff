package errcode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCodeAndAppendsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	wrapped := ErrInternalServer.Wrap(cause)

	assert.Equal(t, ErrInternalServer.Code, wrapped.Code)
	assert.Contains(t, wrapped.Msg, "connection refused")

	// Wrapping nil returns the original error unchanged
	assert.Same(t, ErrInternalServer, ErrInternalServer.Wrap(nil))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrInvalidParam.Code))
	assert.True(t, IsValidation(ErrEmptyBody.Code))
	assert.True(t, IsValidation(ErrBodyTooLong.Code))
	assert.True(t, IsValidation(ErrSelfConversation.Code))
	assert.True(t, IsValidation(ErrMissingMsgToken.Code))

	assert.False(t, IsValidation(ErrInternalServer.Code))
	assert.False(t, IsValidation(ErrNoPermission.Code))
	assert.False(t, IsValidation(ErrSendFailed.Code))
}

func TestIsPermission(t *testing.T) {
	assert.True(t, IsPermission(ErrNoPermission.Code))
	assert.True(t, IsPermission(ErrForbidden.Code))
	assert.True(t, IsPermission(ErrNotParticipant.Code))

	assert.False(t, IsPermission(ErrInvalidParam.Code))
	assert.False(t, IsPermission(ErrInternalServer.Code))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrInternalServer.Code))
	assert.True(t, IsTransient(ErrSendFailed.Code))

	assert.False(t, IsTransient(ErrEmptyBody.Code))
	assert.False(t, IsTransient(ErrNotParticipant.Code))
	assert.False(t, IsTransient(ErrTokenInvalid.Code))
}

func TestClassesAreDisjoint(t *testing.T) {
	all := []*Error{
		ErrInvalidParam, ErrInternalServer, ErrUnauthorized, ErrForbidden,
		ErrNotFound, ErrTooManyRequests, ErrNoPermission,
		ErrTokenInvalid, ErrTokenExpired, ErrTokenMissing, ErrTokenMismatch,
		ErrLoginFailed, ErrUserNotFound, ErrUserExists, ErrPasswordWrong,
		ErrMessageNotFound, ErrConvNotFound, ErrSendFailed, ErrNotParticipant,
		ErrEmptyBody, ErrBodyTooLong, ErrSelfConversation, ErrMissingMsgToken,
		ErrConnOverLimit, ErrConnClosed, ErrInvalidProtocol, ErrPushFailed,
	}
	for _, e := range all {
		classes := 0
		if IsValidation(e.Code) {
			classes++
		}
		if IsPermission(e.Code) {
			classes++
		}
		if IsTransient(e.Code) {
			classes++
		}
		assert.LessOrEqual(t, classes, 1, "code %d belongs to more than one class", e.Code)
	}
}
