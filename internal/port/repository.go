package port

import (
	"context"
	"time"

	"github.com/akimon658/twittra/internal/domain"
)

// Repository bundles the three entity stores the rest of the core depends
// on, so a crawler or service can hold one concrete, sized value instead
// of three separate constructor arguments.
type Repository struct {
	Message MessageRepository
	Stamp   StampRepository
	User    UserRepository
}

// MessageRepository is the message/reaction/read-mark store. All methods
// fail with a *domain.DatabaseError (I/O) or *domain.SerializationError
// (decode); these are not declared in the signatures because Go has no
// checked exceptions, but callers should assume any returned error is one
// of those two kinds unless documented otherwise.
type MessageRepository interface {
	// LatestMessageTime returns the maximum CreatedAt across all stored
	// messages, used as the crawler's water mark. ok is false when the
	// store is empty.
	LatestMessageTime(ctx context.Context) (t time.Time, ok bool, err error)
	// FindByID loads a message with its reactions. ok is false on miss.
	FindByID(ctx context.Context, id domain.ID) (msg domain.Message, ok bool, err error)
	// FindSyncCandidates returns all messages with CreatedAt >= now-24h,
	// with their LastCrawledAt.
	FindSyncCandidates(ctx context.Context, now time.Time) ([]domain.SyncCandidate, error)
	// Save upserts message by id: scalar fields overwritten, LastCrawledAt
	// set to now, reaction set replaced to exactly match message.Reactions
	// (delete-then-insert in one transaction).
	Save(ctx context.Context, message domain.Message, now time.Time) error
	// SaveBatch applies Save's semantics atomically per invocation; a
	// no-op on empty input with no I/O side effects.
	SaveBatch(ctx context.Context, messages []domain.Message, now time.Time) error
	// RemoveReaction deletes the single (messageID, stampID, userID)
	// triple if present.
	RemoveReaction(ctx context.Context, messageID, stampID, userID domain.ID) error
	// MarkMessagesAsRead is an idempotent insertion of ReadMarks; a no-op
	// on empty input.
	MarkMessagesAsRead(ctx context.Context, userID domain.ID, messageIDs []domain.ID) error
	// FindTopReactedMessages ranks messages from the last 7 days,
	// excluding those authored by or already read by viewerID, by the
	// time-decayed score reaction_count / (age_hours + 2)^1.8.
	FindTopReactedMessages(ctx context.Context, viewerID domain.ID, limit int, now time.Time) ([]domain.MessageListItem, error)
	// FindMessagesByAuthorAllowlist returns messages from the last 30
	// days whose author is in authorIDs, excluding those already read by
	// viewerID, newest first. An empty allowlist returns an empty slice.
	FindMessagesByAuthorAllowlist(ctx context.Context, authorIDs []domain.ID, limit int, viewerID domain.ID, now time.Time) ([]domain.MessageListItem, error)
	// FindMessagesByChannelAllowlist returns messages from the last 30
	// days in the listed channels, excluding those authored by or read
	// by viewerID, newest first.
	FindMessagesByChannelAllowlist(ctx context.Context, channelIDs []domain.ID, limit int, viewerID domain.ID, now time.Time) ([]domain.MessageListItem, error)
}

// StampRepository is the stamp (reaction-kind) store.
type StampRepository interface {
	FindByID(ctx context.Context, id domain.ID) (stamp domain.Stamp, ok bool, err error)
	Save(ctx context.Context, stamp domain.Stamp) error
	SaveBatch(ctx context.Context, stamps []domain.Stamp) error
	// FindFrequentlyStampedChannelsBy ranks channel ids by how often
	// userID reacted in that channel, most often first.
	FindFrequentlyStampedChannelsBy(ctx context.Context, userID domain.ID, limit int) ([]domain.ID, error)
}

// UserRepository is the user/token store.
type UserRepository interface {
	FindByID(ctx context.Context, id domain.ID) (user domain.User, ok bool, err error)
	Save(ctx context.Context, user domain.User) error
	SaveToken(ctx context.Context, userID domain.ID, accessToken string) error
	FindTokenByUserID(ctx context.Context, userID domain.ID) (token domain.Token, ok bool, err error)
	// FindRandomValidToken returns a uniformly random token among those
	// stored, or ok=false if none exist.
	FindRandomValidToken(ctx context.Context) (token domain.Token, ok bool, err error)
	// FindFrequentlyStampedUsersBy returns authors whose messages viewer
	// has reacted to, most often first.
	FindFrequentlyStampedUsersBy(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error)
	// FindSimilarUsers returns other users whose reactions co-occur on
	// messages viewer has also reacted to, most often first.
	FindSimilarUsers(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error)
}
