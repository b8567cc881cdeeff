package service

import (
	"context"

	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/TianUrien/playr-chat/internal/repository"
	"github.com/TianUrien/playr-chat/pkg/errcode"
	"github.com/mbeoliero/kit/log"
)

// ConversationService serves the conversation list read model.
type ConversationService struct {
	convRepo *repository.ConversationRepo
	userRepo *repository.UserRepo
}

// NewConversationService creates a new ConversationService
func NewConversationService(repos *repository.Repositories) *ConversationService {
	return &ConversationService{
		convRepo: repos.Conversation,
		userRepo: repos.User,
	}
}

// ListConversations gets the user's conversations as summaries, ordered by
// last message time descending with never-messaged conversations last.
func (s *ConversationService) ListConversations(ctx context.Context, userId string, limit int) ([]*entity.ConversationSummary, error) {
	rows, err := s.convRepo.ListSummaries(ctx, userId, limit)
	if err != nil {
		log.CtxError(ctx, "list conversations failed: user_id=%s, err=%v", userId, err)
		return nil, errcode.ErrInternalServer
	}

	summaries := make([]*entity.ConversationSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.ToSummary())
	}
	return summaries, nil
}

// GetConversation gets the summary of one conversation for the user.
func (s *ConversationService) GetConversation(ctx context.Context, userId, conversationId string) (*entity.ConversationSummary, error) {
	pair, err := entity.ParseConversationId(conversationId)
	if err != nil {
		return nil, errcode.ErrInvalidParam.Wrap(err)
	}
	if !pair.Has(userId) {
		return nil, errcode.ErrNoPermission
	}

	row, err := s.convRepo.GetSummary(ctx, userId, conversationId)
	if err != nil {
		log.CtxError(ctx, "get conversation failed: conversation_id=%s, err=%v", conversationId, err)
		return nil, errcode.ErrInternalServer
	}
	if row == nil {
		return nil, errcode.ErrConvNotFound
	}
	return row.ToSummary(), nil
}

// GetConversationWith resolves the conversation between the user and a peer
// by the canonical pair. Returns ErrConvNotFound when the pair has never
// exchanged a message; the caller may present a pending conversation instead.
func (s *ConversationService) GetConversationWith(ctx context.Context, userId, peerId string) (*entity.ConversationSummary, error) {
	pair, err := entity.NormalizePair(userId, peerId)
	if err != nil {
		return nil, errcode.ErrInvalidParam.Wrap(err)
	}

	row, err := s.convRepo.GetSummary(ctx, userId, pair.ConversationId())
	if err != nil {
		log.CtxError(ctx, "get conversation with peer failed: peer_id=%s, err=%v", peerId, err)
		return nil, errcode.ErrInternalServer
	}
	if row == nil {
		return nil, errcode.ErrConvNotFound
	}
	return row.ToSummary(), nil
}
