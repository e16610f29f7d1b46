// Package service implements the Cache-Through and Timeline/Recommendation
// services: the synchronous read/write API the (out-of-scope) HTTP handler
// layer calls into.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/port"
)

// CacheThroughService provides read-through/write-through access to users,
// stamps, messages, and reactions over the upstream, with optimistic local
// mutation of reaction removals.
type CacheThroughService struct {
	repo   port.Repository
	client port.UpstreamClient
	clock  func() time.Time
	log    *logrus.Entry
}

// New builds a CacheThroughService over repo and client.
func New(repo port.Repository, client port.UpstreamClient, log *logrus.Entry) *CacheThroughService {
	return &CacheThroughService{repo: repo, client: client, clock: time.Now, log: log}
}

// GetUserByID implements the read-through pattern of spec §4.4 for users:
// repository first, upstream on miss, write-back before return.
func (s *CacheThroughService) GetUserByID(ctx context.Context, id domain.ID) (domain.User, error) {
	if user, ok, err := s.repo.User.FindByID(ctx, id); err != nil {
		return domain.User{}, err
	} else if ok {
		return user, nil
	}

	token, ok, err := s.repo.User.FindRandomValidToken(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.NoTokenForUserFetch()
	}

	user, err := s.client.GetUser(ctx, token, id)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.repo.User.Save(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// GetUserIcon never caches: it always spends a valid token on a live
// upstream call and returns the bytes verbatim.
func (s *CacheThroughService) GetUserIcon(ctx context.Context, id domain.ID) ([]byte, string, error) {
	token, ok, err := s.repo.User.FindRandomValidToken(ctx)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", domain.NoTokenForUserIcon()
	}
	return s.client.GetUserIcon(ctx, token, id)
}

// GetStampByID is the read-through pattern for stamps.
func (s *CacheThroughService) GetStampByID(ctx context.Context, id domain.ID) (domain.Stamp, error) {
	if stamp, ok, err := s.repo.Stamp.FindByID(ctx, id); err != nil {
		return domain.Stamp{}, err
	} else if ok {
		return stamp, nil
	}

	token, ok, err := s.repo.User.FindRandomValidToken(ctx)
	if err != nil {
		return domain.Stamp{}, err
	}
	if !ok {
		return domain.Stamp{}, domain.NoTokenForStampFetch()
	}

	stamp, err := s.client.GetStamp(ctx, token, id)
	if err != nil {
		return domain.Stamp{}, err
	}
	if err := s.repo.Stamp.Save(ctx, stamp); err != nil {
		return domain.Stamp{}, err
	}
	return stamp, nil
}

func (s *CacheThroughService) GetStampImage(ctx context.Context, id domain.ID) ([]byte, string, error) {
	token, ok, err := s.repo.User.FindRandomValidToken(ctx)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", domain.NoTokenForStampImage()
	}
	return s.client.GetStampImage(ctx, token, id)
}

// ListStamps always fetches the full listing from upstream via GetStamps,
// bulk-saves it, and returns it.
func (s *CacheThroughService) ListStamps(ctx context.Context) ([]domain.Stamp, error) {
	token, ok, err := s.repo.User.FindRandomValidToken(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NoTokenForStampsList()
	}

	stamps, err := s.client.GetStamps(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Stamp.SaveBatch(ctx, stamps); err != nil {
		return nil, err
	}
	return stamps, nil
}

// SearchStamps calls ListStamps (always a fresh upstream listing) and
// filters client-side by substring containment.
func (s *CacheThroughService) SearchStamps(ctx context.Context, name string) ([]domain.Stamp, error) {
	stamps, err := s.ListStamps(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]domain.Stamp, 0, len(stamps))
	for _, stamp := range stamps {
		if strings.Contains(stamp.Name, name) {
			filtered = append(filtered, stamp)
		}
	}
	return filtered, nil
}

// AddMessageStamp adds a reaction upstream, then re-reads the message to
// reconcile the authoritative reaction set before persisting it locally.
func (s *CacheThroughService) AddMessageStamp(ctx context.Context, userID, messageID, stampID domain.ID, count int32) error {
	token, ok, err := s.repo.User.FindTokenByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NoTokenForUser(userID)
	}

	if err := s.client.AddMessageStamp(ctx, token, messageID, stampID, count); err != nil {
		return err
	}

	message, err := s.client.GetMessage(ctx, token, messageID)
	if err != nil {
		return err
	}

	return s.repo.Message.Save(ctx, message, s.clock())
}

// RemoveMessageStamp is optimistic: the upstream deletion is not followed
// by a reconciling read, because the upstream has observable lag between a
// reaction delete and subsequent reads returning the updated set — a
// get_message refresh could re-introduce the removed reaction. Deleting
// the local triple directly converges correctly once the crawler's next
// refresh observes the upstream's own convergence.
func (s *CacheThroughService) RemoveMessageStamp(ctx context.Context, userID, messageID, stampID domain.ID) error {
	token, ok, err := s.repo.User.FindTokenByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NoTokenForUser(userID)
	}

	if err := s.client.RemoveMessageStamp(ctx, token, messageID, stampID); err != nil {
		return err
	}

	return s.repo.Message.RemoveReaction(ctx, messageID, stampID, userID)
}

// MarkMessagesAsRead forwards to the repository's idempotent insertion.
func (s *CacheThroughService) MarkMessagesAsRead(ctx context.Context, userID domain.ID, messageIDs []domain.ID) error {
	return s.repo.Message.MarkMessagesAsRead(ctx, userID, messageIDs)
}
