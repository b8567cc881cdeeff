package sdk

// Response represents the standard API response
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// UserInfo represents public user info
type UserInfo struct {
	Id        string  `json:"id"`
	Role      string  `json:"role"`
	Name      string  `json:"name"`
	Avatar    string  `json:"avatar"`
	Bio       string  `json:"bio,omitempty"`
	Extra     *string `json:"extra,omitempty"`
	CreatedAt int64   `json:"created_at"`
}

// MessageInfo represents message info
type MessageInfo struct {
	Id             int64  `json:"id"`
	ConversationId string `json:"conversation_id"`
	SenderId       string `json:"sender_id"`
	Body           string `json:"body"`
	ClientMsgId    string `json:"client_msg_id"`
	SentAt         int64  `json:"sent_at"`
	ReadAt         *int64 `json:"read_at,omitempty"`
}

// ConversationInfo is the server's conversation list entry: counterpart
// profile, last message preview and derived unread count.
type ConversationInfo struct {
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

// ChangeEvent is an invalidation hint received over the change feed
type ChangeEvent struct {
	Kind           string `json:"kind"`
	ConversationId string `json:"conversation_id"`
	At             int64  `json:"at"`
}

// ===== Request types =====

// RegisterRequest represents user registration request
type RegisterRequest struct {
	UserId   string `json:"user_id,omitempty"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Avatar   string `json:"avatar,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// LoginRequest represents user login request
type LoginRequest struct {
	UserId     string `json:"user_id"`
	Password   string `json:"password"`
	PlatformId int    `json:"platform_id"`
}

// LoginResponse represents user login response
type LoginResponse struct {
	Token    string    `json:"token"`
	UserInfo *UserInfo `json:"user_info"`
}

// UpdateUserRequest represents user update request
type UpdateUserRequest struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Bio    string `json:"bio,omitempty"`
	Extra  string `json:"extra,omitempty"`
}

// SendMessageRequest represents send message request
type SendMessageRequest struct {
	ClientMsgId    string `json:"client_msg_id"`
	RecvId         string `json:"recv_id,omitempty"`
	ConversationId string `json:"conversation_id,omitempty"`
	Body           string `json:"body"`
}

// MarkReadRequest represents mark read request
type MarkReadRequest struct {
	ConversationId string `json:"conversation_id"`
}

// ListMessagesResponse represents list messages response
type ListMessagesResponse struct {
	Messages []*MessageInfo `json:"messages"`
}

// ConversationListResponse represents conversation list response
type ConversationListResponse struct {
	Conversations []*ConversationInfo `json:"conversations"`
}

// UnreadCountResponse represents unread count response
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// TotalUnreadResponse represents total unread badge response
type TotalUnreadResponse struct {
	TotalUnread int64 `json:"total_unread"`
}
