package port

import (
	"context"
	"time"

	"github.com/akimon658/twittra/internal/domain"
)

// UpstreamClient is the thin adapter over the upstream chat platform's HTTP
// API. Exactly one production implementation wraps real HTTP
// (internal/upstream.Client); others are test doubles.
type UpstreamClient interface {
	// SearchSince returns messages with CreatedAt >= since, ordered by
	// creation time.
	SearchSince(ctx context.Context, token domain.Token, since time.Time) ([]domain.Message, error)
	GetMessage(ctx context.Context, token domain.Token, id domain.ID) (domain.Message, error)
	GetUser(ctx context.Context, token domain.Token, id domain.ID) (domain.User, error)
	// GetUserIcon returns the icon bytes and content type, one of
	// image/gif, image/jpeg, image/png.
	GetUserIcon(ctx context.Context, token domain.Token, id domain.ID) ([]byte, string, error)
	GetStamp(ctx context.Context, token domain.Token, id domain.ID) (domain.Stamp, error)
	GetStamps(ctx context.Context, token domain.Token) ([]domain.Stamp, error)
	// GetStampImage returns the image bytes and content type, one of
	// image/gif, image/jpeg, image/png, image/svg+xml.
	GetStampImage(ctx context.Context, token domain.Token, id domain.ID) ([]byte, string, error)
	// AddMessageStamp adds count (a delta >= 1) to the reaction.
	AddMessageStamp(ctx context.Context, token domain.Token, messageID, stampID domain.ID, count int32) error
	// RemoveMessageStamp is idempotent on the upstream side.
	RemoveMessageStamp(ctx context.Context, token domain.Token, messageID, stampID domain.ID) error
}
