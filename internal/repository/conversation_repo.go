package repository

import (
	"context"
	"errors"

	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepo is the repository for conversation operations
type ConversationRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewConversationRepo creates a new ConversationRepo
func NewConversationRepo(db *gorm.DB, rdb *redis.Client) *ConversationRepo {
	return &ConversationRepo{db: db, rdb: rdb}
}

// UpsertPair creates the conversation for a canonical pair if it does not
// exist, and returns the stored row either way. Two processes racing on the
// same pair both get the winner's row back: the unique index on
// conversation_id plus ON CONFLICT DO NOTHING resolves the race, not a
// query-then-insert in application code.
// Returns (conversation, created, error).
func (r *ConversationRepo) UpsertPair(ctx context.Context, tx *gorm.DB, pair entity.Pair) (*entity.Conversation, bool, error) {
	if tx == nil {
		tx = r.db
	}
	now := entity.NowUnixMilli()

	conv := &entity.Conversation{
		ConversationId:  pair.ConversationId(),
		ParticipantLow:  pair.Low,
		ParticipantHigh: pair.High,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conversation_id"}},
		DoNothing: true,
	}).Create(conv)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected > 0

	// Re-read so the loser of a create race returns the winner's row.
	stored, err := r.getByConversationIdTx(ctx, tx, pair.ConversationId())
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return stored, created, nil
}

// GetByConversationId gets a conversation by its canonical id
func (r *ConversationRepo) GetByConversationId(ctx context.Context, conversationId string) (*entity.Conversation, error) {
	return r.getByConversationIdTx(ctx, r.db, conversationId)
}

func (r *ConversationRepo) getByConversationIdTx(ctx context.Context, tx *gorm.DB, conversationId string) (*entity.Conversation, error) {
	var conv entity.Conversation
	err := tx.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

// TouchLastMessage bumps the conversation's updated_at and last_message_at.
// Owned by the store as a side effect of the message insert; callers run it
// inside the same transaction as the insert.
func (r *ConversationRepo) TouchLastMessage(ctx context.Context, tx *gorm.DB, conversationId string, sentAt int64) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&entity.Conversation{}).
		Where("conversation_id = ?", conversationId).
		Updates(map[string]interface{}{
			"updated_at":      entity.NowUnixMilli(),
			"last_message_at": sentAt,
		}).Error
}

// summarySelect is the denormalized projection for the conversation list:
// counterpart profile, last message and derived unread count in one query.
const summarySelect = `
	c.*,
	u.id AS counterpart_id,
	u.name AS counterpart_name,
	u.role AS counterpart_role,
	u.avatar AS counterpart_avatar,
	lm.body AS last_message_body,
	lm.sender_id AS last_message_sender,
	(SELECT COUNT(*) FROM messages m
		WHERE m.conversation_id = c.conversation_id
		  AND m.sender_id <> ?
		  AND m.read_at IS NULL) AS unread_count
`

// ListSummaries gets the user's conversations with the pre-joined read
// model, ordered by last message time descending, never-messaged last.
func (r *ConversationRepo) ListSummaries(ctx context.Context, userId string, limit int) ([]*entity.ConversationSummaryRow, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var rows []*entity.ConversationSummaryRow
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select(summarySelect, userId).
		Joins("JOIN users u ON u.id = IF(c.participant_low = ?, c.participant_high, c.participant_low)", userId).
		Joins(`LEFT JOIN messages lm ON lm.id = (
			SELECT id FROM messages
			WHERE conversation_id = c.conversation_id
			ORDER BY sent_at DESC, id DESC LIMIT 1)`).
		Where("? IN (c.participant_low, c.participant_high)", userId).
		Order("c.last_message_at IS NULL, c.last_message_at DESC, c.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetSummary gets the read model for a single conversation of the user.
func (r *ConversationRepo) GetSummary(ctx context.Context, userId, conversationId string) (*entity.ConversationSummaryRow, error) {
	var row entity.ConversationSummaryRow
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select(summarySelect, userId).
		Joins("JOIN users u ON u.id = IF(c.participant_low = ?, c.participant_high, c.participant_low)", userId).
		Joins(`LEFT JOIN messages lm ON lm.id = (
			SELECT id FROM messages
			WHERE conversation_id = c.conversation_id
			ORDER BY sent_at DESC, id DESC LIMIT 1)`).
		Where("c.conversation_id = ? AND ? IN (c.participant_low, c.participant_high)", conversationId, userId).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
