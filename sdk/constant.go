package sdk

// Member roles
const (
	RolePlayer = "player"
	RoleCoach  = "coach"
	RoleClub   = "club"
)

// Change feed event kinds
const (
	EventConversationInsert = "conversation.insert"
	EventMessageInsert      = "message.insert"
	EventMessageRead        = "message.read"
)

// Conversation id prefixes
const (
	DirectConversationPrefix  = "dm_"
	PendingConversationPrefix = "pending_"
)

// Platform Ids
const (
	PlatformIdUnknown = 0
	PlatformIdIOS     = 1
	PlatformIdAndroid = 2
	PlatformIdWeb     = 5
)
