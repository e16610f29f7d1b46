package rediscache

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/port"
)

// StampRepository decorates a port.StampRepository with an L1 read-through
// cache over FindByID. Stamp sets rarely change, so this is the highest
// hit-rate cache in the system.
type StampRepository struct {
	inner port.StampRepository
	cache *manager
}

func NewStampRepository(inner port.StampRepository, client *redis.Client, log *logrus.Entry) *StampRepository {
	return &StampRepository{inner: inner, cache: newManager(client, "stamp", log)}
}

func (r *StampRepository) FindByID(ctx context.Context, id domain.ID) (domain.Stamp, bool, error) {
	return getOrLoad(ctx, r.cache, stampKey(id), func() (domain.Stamp, bool, error) {
		return r.inner.FindByID(ctx, id)
	})
}

func (r *StampRepository) Save(ctx context.Context, stamp domain.Stamp) error {
	if err := r.inner.Save(ctx, stamp); err != nil {
		return err
	}
	r.cache.invalidate(ctx, stampKey(stamp.ID))
	return nil
}

func (r *StampRepository) SaveBatch(ctx context.Context, stamps []domain.Stamp) error {
	if err := r.inner.SaveBatch(ctx, stamps); err != nil {
		return err
	}
	for _, stamp := range stamps {
		r.cache.invalidate(ctx, stampKey(stamp.ID))
	}
	return nil
}

func (r *StampRepository) FindFrequentlyStampedChannelsBy(ctx context.Context, userID domain.ID, limit int) ([]domain.ID, error) {
	return r.inner.FindFrequentlyStampedChannelsBy(ctx, userID, limit)
}
