package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/TianUrien/playr-chat/pkg/constant"
)

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// Pair is a normalized, order-independent participant pair.
// Low and High are the two user ids under lexicographic order, Low < High.
type Pair struct {
	Low  string
	High string
}

// NormalizePair builds the canonical pair for two participants.
// The same Pair is produced regardless of argument order. A self-pair or an
// empty id is invalid input, never a conversation.
func NormalizePair(a, b string) (Pair, error) {
	if a == "" || b == "" {
		return Pair{}, fmt.Errorf("empty participant id")
	}
	if a == b {
		return Pair{}, fmt.Errorf("self conversation: %s", a)
	}
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}, nil
}

// ConversationId returns the canonical conversation id for the pair.
// Format: dm_{low}:{high}
// Uses ":" as separator between user ids to support ids containing "_"
func (p Pair) ConversationId() string {
	return fmt.Sprintf("%s%s:%s", constant.DirectConversationPrefix, p.Low, p.High)
}

// Has reports whether userId is one of the pair's participants.
func (p Pair) Has(userId string) bool {
	return userId == p.Low || userId == p.High
}

// CounterpartOf returns the other participant of the pair.
func (p Pair) CounterpartOf(userId string) (string, error) {
	switch userId {
	case p.Low:
		return p.High, nil
	case p.High:
		return p.Low, nil
	default:
		return "", fmt.Errorf("user %s is not a participant", userId)
	}
}

// ParseConversationId parses a canonical conversation id back into its pair.
func ParseConversationId(conversationId string) (Pair, error) {
	if !strings.HasPrefix(conversationId, constant.DirectConversationPrefix) {
		return Pair{}, fmt.Errorf("invalid conversation id: %q", conversationId)
	}
	participants := conversationId[len(constant.DirectConversationPrefix):]
	idx := strings.Index(participants, ":")
	if idx <= 0 || idx == len(participants)-1 {
		return Pair{}, fmt.Errorf("invalid conversation id: %q", conversationId)
	}
	low, high := participants[:idx], participants[idx+1:]
	if low >= high {
		return Pair{}, fmt.Errorf("conversation id not in canonical order: %q", conversationId)
	}
	return Pair{Low: low, High: high}, nil
}

// IsDirectConversation checks if a conversation id is a canonical pair id.
func IsDirectConversation(conversationId string) bool {
	_, err := ParseConversationId(conversationId)
	return err == nil
}
