package sdk

import (
	"context"
	"strconv"
)

// SendMessage sends a message. ClientMsgId is the idempotency token; retrying
// the same request returns the original message, never a duplicate.
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*MessageInfo, error) {
	var result MessageInfo
	if err := c.post(ctx, "/msg/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendTextMessage is a convenience method to send a message to a peer
func (c *Client) SendTextMessage(ctx context.Context, clientMsgId, recvId, body string) (*MessageInfo, error) {
	return c.SendMessage(ctx, &SendMessageRequest{
		ClientMsgId: clientMsgId,
		RecvId:      recvId,
		Body:        body,
	})
}

// ListMessages lists the newest messages of a conversation, ascending by
// sent time
func (c *Client) ListMessages(ctx context.Context, conversationId string, limit int) ([]*MessageInfo, error) {
	params := map[string]string{
		"conversation_id": conversationId,
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result ListMessagesResponse
	if err := c.get(ctx, "/msg/list", params, &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}
