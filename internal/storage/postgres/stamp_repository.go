package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akimon658/twittra/internal/domain"
)

// StampRepository is the GORM-backed port.StampRepository.
type StampRepository struct {
	db *gorm.DB
}

func NewStampRepository(db *gorm.DB) *StampRepository {
	return &StampRepository{db: db}
}

func (r *StampRepository) FindByID(ctx context.Context, id domain.ID) (domain.Stamp, bool, error) {
	var stamp domain.Stamp
	err := r.db.WithContext(ctx).First(&stamp, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Stamp{}, false, nil
		}
		return domain.Stamp{}, false, &domain.DatabaseError{Op: "find_stamp_by_id", Err: err}
	}
	return stamp, true, nil
}

func (r *StampRepository) Save(ctx context.Context, stamp domain.Stamp) error {
	return r.SaveBatch(ctx, []domain.Stamp{stamp})
}

func (r *StampRepository) SaveBatch(ctx context.Context, stamps []domain.Stamp) error {
	if len(stamps) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).
		Create(&stamps).Error
	if err != nil {
		return &domain.DatabaseError{Op: "save_stamp_batch", Err: err}
	}
	return nil
}

// FindFrequentlyStampedChannelsBy ranks channels by how often userID
// reacted to a message in that channel.
func (r *StampRepository) FindFrequentlyStampedChannelsBy(ctx context.Context, userID domain.ID, limit int) ([]domain.ID, error) {
	const query = `
		SELECT m.channel_id
		FROM reactions r
		JOIN messages m ON m.id = r.message_id
		WHERE r.user_id = ?
		GROUP BY m.channel_id
		ORDER BY COUNT(*) DESC
		LIMIT ?
	`

	var channelIDs []domain.ID
	err := r.db.WithContext(ctx).Raw(query, userID, limit).Scan(&channelIDs).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_frequently_stamped_channels_by", Err: err}
	}
	return channelIDs, nil
}
