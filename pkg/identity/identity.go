package identity

import (
	"fmt"
	"strconv"
)

const prefixLength = 4

// Role defines the member role on the platform.
type Role string

const (
	RolePlayer Role = "player"
	RoleCoach  Role = "coach"
	RoleClub   Role = "club"
)

// Member represents a platform identity that maps to a chat user id.
type Member struct {
	Id   int64
	Role Role
}

// ToChatUserId converts a Member to the chat system's string user id.
//
//	Member{Id: 42, Role: RolePlayer}.ToChatUserId() => "pl__42"
//	Member{Id: 7, Role: RoleCoach}.ToChatUserId()   => "co__7"
//	Member{Id: 3, Role: RoleClub}.ToChatUserId()    => "cl__3"
func (m *Member) ToChatUserId() (string, error) {
	switch m.Role {
	case RolePlayer:
		return fmt.Sprintf("pl__%d", m.Id), nil
	case RoleCoach:
		return fmt.Sprintf("co__%d", m.Id), nil
	case RoleClub:
		return fmt.Sprintf("cl__%d", m.Id), nil
	default:
		return "", fmt.Errorf("failed to build chat user id, role: %s", m.Role)
	}
}

// FromChatUserId parses a chat user id string back into a Member.
// Returns an error if the format is unrecognised.
func (m *Member) FromChatUserId(userId string) error {
	if m == nil {
		return fmt.Errorf("member is nil")
	}
	if len(userId) < prefixLength+1 {
		return fmt.Errorf("invalid userId: %q", userId)
	}
	prefix := userId[:prefixLength]
	idStr := userId[prefixLength:]
	switch prefix {
	case "pl__":
		m.Role = RolePlayer
	case "co__":
		m.Role = RoleCoach
	case "cl__":
		m.Role = RoleClub
	default:
		return fmt.Errorf("unknown prefix: %q", prefix)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id: %q", idStr)
	}
	m.Id = id
	return nil
}
