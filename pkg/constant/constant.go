package constant

// User roles
const (
	RolePlayer = "player"
	RoleCoach  = "coach"
	RoleClub   = "club"
)

// ValidRole checks a role string against the known roles.
func ValidRole(role string) bool {
	switch role {
	case RolePlayer, RoleCoach, RoleClub:
		return true
	}
	return false
}

// Message body bounds
const (
	MaxMessageBodyLen = 2000
)

// Conversation id prefix for direct (two-party) conversations
const (
	DirectConversationPrefix = "dm_"
)

// Change feed event kinds. Events are invalidation hints: they name the
// conversation that changed, never carry denormalized state.
const (
	EventConversationInsert = "conversation.insert"
	EventMessageInsert      = "message.insert"
	EventMessageRead        = "message.read"
)

// Platform Ids
const (
	PlatformIdUnknown = 0
	PlatformIdIOS     = 1
	PlatformIdAndroid = 2
	PlatformIdWeb     = 5
)

// Redis key patterns (without prefix, use RedisKey() to get full key)
const (
	redisKeyToken = "token:%s:%d" // token:{user_id}:{platform_id}
)

// redisKeyPrefix is the global prefix for all Redis keys
var redisKeyPrefix = "playr:"

// InitRedisKeyPrefix initializes the Redis key prefix from config
func InitRedisKeyPrefix(prefix string) {
	if prefix != "" {
		redisKeyPrefix = prefix
	}
}

// GetRedisKeyPrefix returns the current Redis key prefix
func GetRedisKeyPrefix() string {
	return redisKeyPrefix
}

// Redis key getters with prefix
func RedisKeyToken() string { return redisKeyPrefix + redisKeyToken }
