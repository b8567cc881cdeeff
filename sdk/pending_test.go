package sdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPendingConversation(t *testing.T) {
	p := NewPendingConversation("co__7", "Coach Seven", RoleCoach, "avatar.png", 1000)

	assert.Equal(t, "pending_co__7", p.Id)
	assert.Equal(t, "co__7", p.TargetId)

	info := p.ToConversationInfo()
	assert.Equal(t, p.Id, info.ConversationId)
	assert.Equal(t, "Coach Seven", info.CounterpartName)
	assert.Equal(t, RoleCoach, info.CounterpartRole)
	assert.Equal(t, int64(0), info.UnreadCount)
	assert.Nil(t, info.LastMessageAt)
}

func TestIsPendingConversationId(t *testing.T) {
	assert.True(t, IsPendingConversationId("pending_co__7"))
	assert.False(t, IsPendingConversationId("dm_co__7:pl__42"))
	assert.False(t, IsPendingConversationId("pending_"))
	assert.False(t, IsPendingConversationId(""))
}
