package entity

// Conversation represents a direct conversation between two participants.
// Participants are stored in canonical order; the unique index on
// conversation_id is what enforces one row per unordered pair.
type Conversation struct {
	Id              int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ConversationId  string `json:"conversation_id" gorm:"column:conversation_id;uniqueIndex"`
	ParticipantLow  string `json:"participant_low" gorm:"column:participant_low;index"`
	ParticipantHigh string `json:"participant_high" gorm:"column:participant_high;index"`
	CreatedAt       int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:milli"`
	UpdatedAt       int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:milli"`
	LastMessageAt   *int64 `json:"last_message_at" gorm:"column:last_message_at"`
}

// TableName returns the table name for Conversation
func (Conversation) TableName() string {
	return "conversations"
}

// Pair returns the conversation's canonical participant pair.
func (c *Conversation) Pair() Pair {
	return Pair{Low: c.ParticipantLow, High: c.ParticipantHigh}
}

// ConversationSummary is the denormalized read model for the conversation
// list: counterpart display identity, last message and unread count are
// pre-joined server side.
type ConversationSummary struct {
	ConversationId    string  `json:"conversation_id"`
	CounterpartId     string  `json:"counterpart_id"`
	CounterpartName   string  `json:"counterpart_name"`
	CounterpartRole   string  `json:"counterpart_role"`
	CounterpartAvatar string  `json:"counterpart_avatar,omitempty"`
	LastMessageBody   *string `json:"last_message_body,omitempty"`
	LastMessageSender string  `json:"last_message_sender,omitempty"`
	LastMessageAt     *int64  `json:"last_message_at,omitempty"`
	UnreadCount       int64   `json:"unread_count"`
	CreatedAt         int64   `json:"created_at"`
	UpdatedAt         int64   `json:"updated_at"`
}

// ConversationSummaryRow is the scan target for the summary join.
type ConversationSummaryRow struct {
	Conversation
	CounterpartId     string  `gorm:"column:counterpart_id"`
	CounterpartName   string  `gorm:"column:counterpart_name"`
	CounterpartRole   string  `gorm:"column:counterpart_role"`
	CounterpartAvatar string  `gorm:"column:counterpart_avatar"`
	LastMessageBody   *string `gorm:"column:last_message_body"`
	LastMessageSender string  `gorm:"column:last_message_sender"`
	UnreadCount       int64   `gorm:"column:unread_count"`
}

// ToSummary converts a scanned row to the API read model.
func (r *ConversationSummaryRow) ToSummary() *ConversationSummary {
	return &ConversationSummary{
		ConversationId:    r.ConversationId,
		CounterpartId:     r.CounterpartId,
		CounterpartName:   r.CounterpartName,
		CounterpartRole:   r.CounterpartRole,
		CounterpartAvatar: r.CounterpartAvatar,
		LastMessageBody:   r.LastMessageBody,
		LastMessageSender: r.LastMessageSender,
		LastMessageAt:     r.LastMessageAt,
		UnreadCount:       r.UnreadCount,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
