package repository

import (
	"context"
	"errors"

	"github.com/TianUrien/playr-chat/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepo is the repository for message operations
type MessageRepo struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewMessageRepo creates a new MessageRepo
func NewMessageRepo(db *gorm.DB, rdb *redis.Client) *MessageRepo {
	return &MessageRepo{db: db, rdb: rdb}
}

// InsertIdempotent inserts a message keyed by its client_msg_id. A retried
// send with the same token affects zero rows; the caller then loads the
// original row with GetByClientMsgId. The unique index carries the
// at-most-once guarantee, the pre-insert existence check does not.
func (r *MessageRepo) InsertIdempotent(ctx context.Context, tx *gorm.DB, msg *entity.Message) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	now := entity.NowUnixMilli()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_msg_id"}},
		DoNothing: true,
	}).Create(msg)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetByClientMsgId gets a message by its idempotency token
func (r *MessageRepo) GetByClientMsgId(ctx context.Context, tx *gorm.DB, clientMsgId string) (*entity.Message, error) {
	if tx == nil {
		tx = r.db
	}
	var msg entity.Message
	err := tx.WithContext(ctx).
		Where("client_msg_id = ?", clientMsgId).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListByConversation gets messages of a conversation ordered by sent time.
// limit caps the newest messages returned; they come back ascending.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationId string, limit int) ([]*entity.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []*entity.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("sent_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to ascending order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkRead stamps read_at on every unread message in the conversation not
// authored by the reader. Returns the number of messages marked.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationId, readerId string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationId, readerId).
		Updates(map[string]interface{}{
			"read_at":    entity.NowUnixMilli(),
			"updated_at": entity.NowUnixMilli(),
		})
	return res.RowsAffected, res.Error
}

// CountUnread derives the unread count for one conversation: messages
// authored by the counterpart with a null read timestamp. Always recomputed
// from message rows, never read from a counter.
func (r *MessageRepo) CountUnread(ctx context.Context, conversationId, userId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read_at IS NULL", conversationId, userId).
		Count(&count).Error
	return count, err
}

// CountUnreadTotal derives the user's unread badge across all their
// conversations.
func (r *MessageRepo) CountUnreadTotal(ctx context.Context, userId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("messages m").
		Joins("JOIN conversations c ON c.conversation_id = m.conversation_id").
		Where("? IN (c.participant_low, c.participant_high)", userId).
		Where("m.sender_id <> ? AND m.read_at IS NULL", userId).
		Count(&count).Error
	return count, err
}
