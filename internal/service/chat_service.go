package service

import (
	"context"

	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/TianUrien/playr-chat/internal/repository"
	"github.com/TianUrien/playr-chat/pkg/constant"
	"github.com/TianUrien/playr-chat/pkg/errcode"
	"github.com/mbeoliero/kit/log"
	"gorm.io/gorm"
)

// EventPusher fans change-feed events out to connected participants.
type EventPusher interface {
	AsyncPushEvent(event *entity.ChangeEvent, userIds []string)
}

// ChatService owns the send pipeline and read-state transitions.
type ChatService struct {
	msgRepo  *repository.MessageRepo
	convRepo *repository.ConversationRepo
	userRepo *repository.UserRepo
	repos    *repository.Repositories
	pusher   EventPusher
}

// NewChatService creates a new ChatService
func NewChatService(repos *repository.Repositories) *ChatService {
	return &ChatService{
		msgRepo:  repos.Message,
		convRepo: repos.Conversation,
		userRepo: repos.User,
		repos:    repos,
	}
}

// SetPusher sets the change-feed pusher
func (s *ChatService) SetPusher(pusher EventPusher) {
	s.pusher = pusher
}

// SendMessageRequest represents a send message request. Exactly one of
// RecvId and ConversationId is required; ClientMsgId is the idempotency
// token, minted once per user action and reused across retries.
type SendMessageRequest struct {
	ClientMsgId    string `json:"client_msg_id"`
	RecvId         string `json:"recv_id,omitempty"`
	ConversationId string `json:"conversation_id,omitempty"`
	Body           string `json:"body"`
}

// SendMessage runs the send pipeline:
// validate, resolve the canonical pair, upsert the conversation, insert the
// message idempotently, and touch the conversation timestamps in the same
// transaction. A duplicate token returns the original message, not an error.
func (s *ChatService) SendMessage(ctx context.Context, senderId string, req *SendMessageRequest) (*entity.Message, error) {
	if req.ClientMsgId == "" {
		return nil, errcode.ErrMissingMsgToken
	}
	if req.Body == "" {
		return nil, errcode.ErrEmptyBody
	}
	if len(req.Body) > constant.MaxMessageBodyLen {
		return nil, errcode.ErrBodyTooLong
	}

	pair, err := s.resolvePair(senderId, req)
	if err != nil {
		return nil, err
	}

	now := entity.NowUnixMilli()
	var msg *entity.Message
	var created bool

	err = s.repos.Transaction(ctx, func(tx *gorm.DB) error {
		conv, convCreated, err := s.convRepo.UpsertPair(ctx, tx, pair)
		if err != nil {
			return err
		}
		created = convCreated

		msg = &entity.Message{
			ConversationId: conv.ConversationId,
			SenderId:       senderId,
			Body:           req.Body,
			ClientMsgId:    req.ClientMsgId,
			SentAt:         now,
		}

		inserted, err := s.msgRepo.InsertIdempotent(ctx, tx, msg)
		if err != nil {
			return err
		}
		if !inserted {
			// Retried send: hand back the original row untouched.
			existing, err := s.msgRepo.GetByClientMsgId(ctx, tx, req.ClientMsgId)
			if err != nil {
				return err
			}
			if existing == nil {
				return gorm.ErrRecordNotFound
			}
			log.CtxDebug(ctx, "duplicate message: client_msg_id=%s", req.ClientMsgId)
			msg = existing
			return nil
		}

		return s.convRepo.TouchLastMessage(ctx, tx, conv.ConversationId, now)
	})

	if err != nil {
		if e, ok := err.(*errcode.Error); ok {
			return nil, e
		}
		log.CtxError(ctx, "send message failed: %v", err)
		return nil, errcode.ErrSendFailed
	}

	if s.pusher != nil {
		targets := []string{pair.Low, pair.High}
		if created {
			s.pusher.AsyncPushEvent(&entity.ChangeEvent{
				Kind:           constant.EventConversationInsert,
				ConversationId: msg.ConversationId,
				At:             now,
			}, targets)
		}
		s.pusher.AsyncPushEvent(&entity.ChangeEvent{
			Kind:           constant.EventMessageInsert,
			ConversationId: msg.ConversationId,
			At:             now,
		}, targets)
	}

	log.CtxInfo(ctx, "message sent: sender_id=%s, conversation_id=%s, client_msg_id=%s",
		senderId, msg.ConversationId, msg.ClientMsgId)
	return msg, nil
}

// resolvePair resolves the canonical pair of the send target and checks the
// sender is a participant.
func (s *ChatService) resolvePair(senderId string, req *SendMessageRequest) (entity.Pair, error) {
	if req.ConversationId != "" {
		pair, err := entity.ParseConversationId(req.ConversationId)
		if err != nil {
			return entity.Pair{}, errcode.ErrInvalidParam.Wrap(err)
		}
		if !pair.Has(senderId) {
			return entity.Pair{}, errcode.ErrNotParticipant
		}
		return pair, nil
	}

	if req.RecvId == "" {
		return entity.Pair{}, errcode.ErrInvalidParam
	}
	if req.RecvId == senderId {
		return entity.Pair{}, errcode.ErrSelfConversation
	}
	pair, err := entity.NormalizePair(senderId, req.RecvId)
	if err != nil {
		return entity.Pair{}, errcode.ErrInvalidParam.Wrap(err)
	}
	return pair, nil
}

// ListMessages gets the newest messages of a conversation, ascending by sent
// time, after a participant check.
func (s *ChatService) ListMessages(ctx context.Context, userId, conversationId string, limit int) ([]*entity.Message, error) {
	pair, err := entity.ParseConversationId(conversationId)
	if err != nil {
		return nil, errcode.ErrInvalidParam.Wrap(err)
	}
	if !pair.Has(userId) {
		return nil, errcode.ErrNoPermission
	}

	messages, err := s.msgRepo.ListByConversation(ctx, conversationId, limit)
	if err != nil {
		log.CtxError(ctx, "list messages failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	return messages, nil
}

// MarkRead stamps read timestamps on the counterpart's unread messages.
// Best-effort from the client's point of view; pushing the read event lets
// the counterpart refresh delivery state.
func (s *ChatService) MarkRead(ctx context.Context, userId, conversationId string) error {
	pair, err := entity.ParseConversationId(conversationId)
	if err != nil {
		return errcode.ErrInvalidParam.Wrap(err)
	}
	if !pair.Has(userId) {
		return errcode.ErrNoPermission
	}

	marked, err := s.msgRepo.MarkRead(ctx, conversationId, userId)
	if err != nil {
		log.CtxError(ctx, "mark read failed: %v", err)
		return errcode.ErrInternalServer
	}

	if marked > 0 && s.pusher != nil {
		s.pusher.AsyncPushEvent(&entity.ChangeEvent{
			Kind:           constant.EventMessageRead,
			ConversationId: conversationId,
			At:             entity.NowUnixMilli(),
		}, []string{pair.Low, pair.High})
	}

	return nil
}

// UnreadCount derives the unread count of one conversation for the user.
func (s *ChatService) UnreadCount(ctx context.Context, userId, conversationId string) (int64, error) {
	pair, err := entity.ParseConversationId(conversationId)
	if err != nil {
		return 0, errcode.ErrInvalidParam.Wrap(err)
	}
	if !pair.Has(userId) {
		return 0, errcode.ErrNoPermission
	}

	count, err := s.msgRepo.CountUnread(ctx, conversationId, userId)
	if err != nil {
		log.CtxError(ctx, "count unread failed: %v", err)
		return 0, errcode.ErrInternalServer
	}
	return count, nil
}

// TotalUnread derives the user's unread badge across all conversations.
func (s *ChatService) TotalUnread(ctx context.Context, userId string) (int64, error) {
	count, err := s.msgRepo.CountUnreadTotal(ctx, userId)
	if err != nil {
		log.CtxError(ctx, "count total unread failed: %v", err)
		return 0, errcode.ErrInternalServer
	}
	return count, nil
}
