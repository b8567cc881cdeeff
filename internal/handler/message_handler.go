package handler

import (
	"context"
	"strconv"

	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/TianUrien/playr-chat/internal/middleware"
	"github.com/TianUrien/playr-chat/internal/service"
	"github.com/TianUrien/playr-chat/pkg/errcode"
	"github.com/TianUrien/playr-chat/pkg/response"
	"github.com/cloudwego/hertz/pkg/app"
)

// MessageHandler handles message-related requests
type MessageHandler struct {
	chatService *service.ChatService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(chatService *service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// SendMessage handles send message request
func (h *MessageHandler) SendMessage(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	var req service.SendMessageRequest
	if err := c.BindAndValidate(&req); err != nil {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	msg, err := h.chatService.SendMessage(ctx, userId, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	response.Success(ctx, c, msg.ToMessageInfo())
}

// ListMessages handles list messages request
func (h *MessageHandler) ListMessages(ctx context.Context, c *app.RequestContext) {
	userId := middleware.GetUserId(c)
	if userId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrUnauthorized)
		return
	}

	conversationId := c.Query("conversation_id")
	if conversationId == "" {
		response.ErrorWithCode(ctx, c, errcode.ErrInvalidParam)
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.chatService.ListMessages(ctx, userId, conversationId, limit)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	infos := make([]*entity.MessageInfo, 0, len(messages))
	for _, msg := range messages {
		infos = append(infos, msg.ToMessageInfo())
	}

	response.Success(ctx, c, map[string]interface{}{
		"messages": infos,
	})
}
