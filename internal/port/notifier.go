package port

import (
	"context"

	"github.com/akimon658/twittra/internal/domain"
)

// Notifier is the push channel for per-message update events. Delivery is
// fire-and-forget: implementations must log and swallow their own
// failures rather than returning an error the ingestion engine would have
// to handle.
type Notifier interface {
	NotifyMessageUpdated(ctx context.Context, message domain.Message)
}
