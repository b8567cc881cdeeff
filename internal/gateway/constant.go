package gateway

import "time"

// WebSocket protocol identifiers
const (
	// Request identifiers
	WSWatchConvs = 1001 // Replace the connection's watched conversation set

	// Response identifiers
	WSPushEvent     = 2001 // Server push change event
	WSKickOnlineMsg = 2002 // Kick user offline
)

// Timeout constants
const (
	// WriteWait is time allowed to write a message to the peer
	WriteWait = 10 * time.Second

	// PongWait is time allowed to read the next pong message from the peer
	PongWait = 30 * time.Second

	// PingPeriod is period between pings. Must be less than PongWait
	PingPeriod = (PongWait * 9) / 10
)

// Query parameter keys
const (
	QueryToken      = "token"
	QuerySendId     = "send_id"
	QueryPlatformId = "platform_id"
	QuerySDKType    = "sdk_type"
)
