package rediscache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/port"
)

// UserRepository decorates a port.UserRepository with an L1 read-through
// cache over FindByID. Save writes through and then invalidates the cached
// entry. Every other method passes straight through: token writes and
// lookups, and the signal queries backing recommendations, are either
// rarely repeated within a tick or must always see fresh data.
type UserRepository struct {
	inner port.UserRepository
	cache *manager
}

func NewUserRepository(inner port.UserRepository, client *redis.Client, log *logrus.Entry) *UserRepository {
	return &UserRepository{inner: inner, cache: newManager(client, "user", log)}
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	return getOrLoad(ctx, r.cache, userKey(id), func() (domain.User, bool, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	if err := r.inner.Save(ctx, user); err != nil {
		return err
	}
	r.cache.invalidate(ctx, userKey(user.ID))
	return nil
}

func (r *UserRepository) SaveToken(ctx context.Context, userID domain.ID, accessToken string) error {
	return r.inner.SaveToken(ctx, userID, accessToken)
}

func (r *UserRepository) FindTokenByUserID(ctx context.Context, userID domain.ID) (domain.Token, bool, error) {
	return r.inner.FindTokenByUserID(ctx, userID)
}

func (r *UserRepository) FindRandomValidToken(ctx context.Context) (domain.Token, bool, error) {
	return r.inner.FindRandomValidToken(ctx)
}

func (r *UserRepository) FindFrequentlyStampedUsersBy(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error) {
	return r.inner.FindFrequentlyStampedUsersBy(ctx, viewer, limit)
}

func (r *UserRepository) FindSimilarUsers(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error) {
	return r.inner.FindSimilarUsers(ctx, viewer, limit)
}
