package postgres

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akimon658/twittra/internal/domain"
)

const (
	syncCandidateWindow   = 24 * time.Hour
	topReactedWindow      = 7 * 24 * time.Hour
	allowlistWindow       = 30 * 24 * time.Hour
	topReactedDecayExp    = 1.8
	topReactedDecayOffset = 2.0
)

// MessageRepository is the GORM-backed port.MessageRepository.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) LatestMessageTime(ctx context.Context) (time.Time, bool, error) {
	var latest sql.NullTime
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("MAX(created_at)").
		Scan(&latest).Error
	if err != nil {
		return time.Time{}, false, &domain.DatabaseError{Op: "latest_message_time", Err: err}
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return latest.Time, true, nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id domain.ID) (domain.Message, bool, error) {
	var message domain.Message
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, &domain.DatabaseError{Op: "find_message_by_id", Err: err}
	}

	reactions, err := r.loadReactions(ctx, id)
	if err != nil {
		return domain.Message{}, false, err
	}
	message.Reactions = reactions

	return message, true, nil
}

func (r *MessageRepository) loadReactions(ctx context.Context, messageID domain.ID) ([]domain.Reaction, error) {
	var reactions []domain.Reaction
	err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Find(&reactions).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "load_reactions", Err: err}
	}
	return reactions, nil
}

func (r *MessageRepository) FindSyncCandidates(ctx context.Context, now time.Time) ([]domain.SyncCandidate, error) {
	var candidates []domain.SyncCandidate
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Select("id AS message_id, created_at, last_crawled_at").
		Where("created_at >= ?", now.Add(-syncCandidateWindow)).
		Find(&candidates).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_sync_candidates", Err: err}
	}
	return candidates, nil
}

// Save upserts message by id: scalar fields overwritten, last_crawled_at
// set to now, reaction set replaced to exactly match message.Reactions.
func (r *MessageRepository) Save(ctx context.Context, message domain.Message, now time.Time) error {
	return r.saveAll(ctx, []domain.Message{message}, now)
}

func (r *MessageRepository) SaveBatch(ctx context.Context, messages []domain.Message, now time.Time) error {
	if len(messages) == 0 {
		return nil
	}
	return r.saveAll(ctx, messages, now)
}

func (r *MessageRepository) saveAll(ctx context.Context, messages []domain.Message, now time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, message := range messages {
			message.LastCrawledAt = now

			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"user_id", "channel_id", "content", "created_at", "updated_at", "last_crawled_at"}),
			}).Create(&message).Error
			if err != nil {
				return err
			}

			if err := tx.Where("message_id = ?", message.ID).Delete(&domain.Reaction{}).Error; err != nil {
				return err
			}

			if len(message.Reactions) > 0 {
				reactions := make([]domain.Reaction, len(message.Reactions))
				for i, reaction := range message.Reactions {
					reaction.MessageID = message.ID
					reactions[i] = reaction
				}
				if err := tx.Create(&reactions).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return &domain.DatabaseError{Op: "save_message", Err: err}
	}
	return nil
}

func (r *MessageRepository) RemoveReaction(ctx context.Context, messageID, stampID, userID domain.ID) error {
	err := r.db.WithContext(ctx).
		Where("message_id = ? AND stamp_id = ? AND user_id = ?", messageID, stampID, userID).
		Delete(&domain.Reaction{}).Error
	if err != nil {
		return &domain.DatabaseError{Op: "remove_reaction", Err: err}
	}
	return nil
}

func (r *MessageRepository) MarkMessagesAsRead(ctx context.Context, userID domain.ID, messageIDs []domain.ID) error {
	if len(messageIDs) == 0 {
		return nil
	}

	marks := make([]domain.ReadMark, len(messageIDs))
	for i, id := range messageIDs {
		marks[i] = domain.ReadMark{UserID: userID, MessageID: id}
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&marks).Error
	if err != nil {
		return &domain.DatabaseError{Op: "mark_messages_as_read", Err: err}
	}
	return nil
}

// FindTopReactedMessages ranks messages from the last 7 days by a
// time-decayed reaction score, excluding ones authored or already read by
// viewerID.
func (r *MessageRepository) FindTopReactedMessages(ctx context.Context, viewerID domain.ID, limit int, now time.Time) ([]domain.MessageListItem, error) {
	const query = `
		SELECT m.*,
			SUM(r.stamp_count) / POWER(EXTRACT(EPOCH FROM (? - m.created_at)) / 3600.0 + ?, ?) AS score
		FROM messages m
		JOIN reactions r ON r.message_id = m.id
		WHERE m.created_at >= ?
			AND m.user_id <> ?
			AND NOT EXISTS (
				SELECT 1 FROM read_messages rm WHERE rm.message_id = m.id AND rm.user_id = ?
			)
		GROUP BY m.id
		ORDER BY score DESC
		LIMIT ?
	`

	var rows []domain.Message
	err := r.db.WithContext(ctx).Raw(query,
		now, topReactedDecayOffset, topReactedDecayExp,
		now.Add(-topReactedWindow), viewerID, viewerID, limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_top_reacted_messages", Err: err}
	}

	return r.toListItems(ctx, rows)
}

func (r *MessageRepository) FindMessagesByAuthorAllowlist(ctx context.Context, authorIDs []domain.ID, limit int, viewerID domain.ID, now time.Time) ([]domain.MessageListItem, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	var rows []domain.Message
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", now.Add(-allowlistWindow)).
		Where("user_id IN ?", authorIDs).
		Where("NOT EXISTS (SELECT 1 FROM read_messages rm WHERE rm.message_id = messages.id AND rm.user_id = ?)", viewerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_messages_by_author_allowlist", Err: err}
	}

	return r.toListItems(ctx, rows)
}

func (r *MessageRepository) FindMessagesByChannelAllowlist(ctx context.Context, channelIDs []domain.ID, limit int, viewerID domain.ID, now time.Time) ([]domain.MessageListItem, error) {
	if len(channelIDs) == 0 {
		return nil, nil
	}

	var rows []domain.Message
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", now.Add(-allowlistWindow)).
		Where("channel_id IN ?", channelIDs).
		Where("user_id <> ?", viewerID).
		Where("NOT EXISTS (SELECT 1 FROM read_messages rm WHERE rm.message_id = messages.id AND rm.user_id = ?)", viewerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_messages_by_channel_allowlist", Err: err}
	}

	return r.toListItems(ctx, rows)
}

func (r *MessageRepository) toListItems(ctx context.Context, messages []domain.Message) ([]domain.MessageListItem, error) {
	items := make([]domain.MessageListItem, len(messages))
	for i, m := range messages {
		reactions, err := r.loadReactions(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		m.Reactions = reactions
		items[i] = domain.MessageListItem{Message: m}
	}
	return items, nil
}
