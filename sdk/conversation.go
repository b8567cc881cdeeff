package sdk

import (
	"context"
	"strconv"
)

// GetConversationList gets the current user's conversations
func (c *Client) GetConversationList(ctx context.Context, limit int) ([]*ConversationInfo, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var result ConversationListResponse
	if err := c.get(ctx, "/conversation/list", params, &result); err != nil {
		return nil, err
	}
	return result.Conversations, nil
}

// GetConversation gets a specific conversation
func (c *Client) GetConversation(ctx context.Context, conversationId string) (*ConversationInfo, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result ConversationInfo
	if err := c.get(ctx, "/conversation/info", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetConversationWith resolves the conversation with a peer by the canonical
// pair. Returns ErrConvNotFound when no message has ever been exchanged.
func (c *Client) GetConversationWith(ctx context.Context, peerId string) (*ConversationInfo, error) {
	params := map[string]string{"peer_id": peerId}
	var result ConversationInfo
	if err := c.get(ctx, "/conversation/with", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkRead marks a conversation as read
func (c *Client) MarkRead(ctx context.Context, conversationId string) error {
	req := &MarkReadRequest{ConversationId: conversationId}
	return c.post(ctx, "/conversation/mark_read", req, nil)
}

// GetUnreadCount gets the unread count for a conversation
func (c *Client) GetUnreadCount(ctx context.Context, conversationId string) (int64, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result UnreadCountResponse
	if err := c.get(ctx, "/conversation/unread_count", params, &result); err != nil {
		return 0, err
	}
	return result.UnreadCount, nil
}

// GetTotalUnread gets the total unread badge across all conversations
func (c *Client) GetTotalUnread(ctx context.Context) (int64, error) {
	var result TotalUnreadResponse
	if err := c.get(ctx, "/conversation/total_unread", nil, &result); err != nil {
		return 0, err
	}
	return result.TotalUnread, nil
}
