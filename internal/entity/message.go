package entity

// Message represents a message in a direct conversation.
// ClientMsgId is the client-minted idempotency token: the unique index on it
// makes retried sends resolve to the original row. ReadAt is null until the
// counterpart marks the conversation read; unread counts are derived from it.
type Message struct {
	Id             int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	ConversationId string `json:"conversation_id" gorm:"column:conversation_id;index"`
	SenderId       string `json:"sender_id" gorm:"column:sender_id"`
	Body           string `json:"body" gorm:"column:body;type:text"`
	ClientMsgId    string `json:"client_msg_id" gorm:"column:client_msg_id;uniqueIndex"`
	SentAt         int64  `json:"sent_at" gorm:"column:sent_at"`
	ReadAt         *int64 `json:"read_at" gorm:"column:read_at"`
	CreatedAt      int64  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      int64  `json:"updated_at" gorm:"column:updated_at"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// IsRead reports whether the message has been read by the counterpart.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// MessageInfo represents message info for API response
type MessageInfo struct {
	Id             int64  `json:"id"`
	ConversationId string `json:"conversation_id"`
	SenderId       string `json:"sender_id"`
	Body           string `json:"body"`
	ClientMsgId    string `json:"client_msg_id"`
	SentAt         int64  `json:"sent_at"`
	ReadAt         *int64 `json:"read_at,omitempty"`
}

// ToMessageInfo converts Message to MessageInfo
func (m *Message) ToMessageInfo() *MessageInfo {
	return &MessageInfo{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		SenderId:       m.SenderId,
		Body:           m.Body,
		ClientMsgId:    m.ClientMsgId,
		SentAt:         m.SentAt,
		ReadAt:         m.ReadAt,
	}
}
