package sdk

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsValidation(NewError(CodeInvalidParam, "")))
	assert.True(t, IsValidation(NewError(CodeEmptyBody, "")))
	assert.True(t, IsValidation(NewError(CodeBodyTooLong, "")))
	assert.True(t, IsValidation(NewError(CodeSelfConversation, "")))
	assert.True(t, IsValidation(NewError(CodeMissingMsgToken, "")))
	assert.False(t, IsValidation(NewError(CodeInternalServer, "")))
	assert.False(t, IsValidation(NewError(CodeNoPermission, "")))

	assert.True(t, IsPermission(NewError(CodeNoPermission, "")))
	assert.True(t, IsPermission(NewError(CodeForbidden, "")))
	assert.True(t, IsPermission(NewError(CodeNotParticipant, "")))
	assert.False(t, IsPermission(NewError(CodeEmptyBody, "")))

	assert.True(t, IsTransient(NewError(CodeInternalServer, "")))
	assert.True(t, IsTransient(NewError(CodeSendFailed, "")))
	assert.False(t, IsTransient(NewError(CodeEmptyBody, "")))
	assert.False(t, IsTransient(NewError(CodeNotParticipant, "")))
}

func TestErrorClassificationUnwrapsChains(t *testing.T) {
	wrapped := fmt.Errorf("send attempt 1: %w", NewError(CodeInternalServer, "internal server error"))
	assert.True(t, IsTransient(wrapped))
	assert.False(t, IsValidation(wrapped))
}

func TestErrorClassificationIgnoresForeignErrors(t *testing.T) {
	plain := errors.New("connection refused")
	assert.False(t, IsValidation(plain))
	assert.False(t, IsPermission(plain))
	assert.False(t, IsTransient(plain))
	assert.False(t, IsValidation(nil))
}
