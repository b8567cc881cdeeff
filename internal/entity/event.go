package entity

// ChangeEvent is an invalidation hint pushed over the change feed. It names
// what changed and where; clients refetch through the API for the payload.
type ChangeEvent struct {
	Kind           string `json:"kind"`
	ConversationId string `json:"conversation_id"`
	At             int64  `json:"at"`
}
