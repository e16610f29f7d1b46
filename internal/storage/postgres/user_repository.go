package postgres

import (
	"context"
	"math/rand"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akimon658/twittra/internal/domain"
)

// UserRepository is the GORM-backed port.UserRepository.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, &domain.DatabaseError{Op: "find_user_by_id", Err: err}
	}
	return user, true, nil
}

func (r *UserRepository) Save(ctx context.Context, user domain.User) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"handle", "display_name"}),
		}).
		Create(&user).Error
	if err != nil {
		return &domain.DatabaseError{Op: "save_user", Err: err}
	}
	return nil
}

func (r *UserRepository) SaveToken(ctx context.Context, userID domain.ID, accessToken string) error {
	record := domain.TokenRecord{UserID: userID, AccessToken: accessToken}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"access_token"}),
		}).
		Create(&record).Error
	if err != nil {
		return &domain.DatabaseError{Op: "save_token", Err: err}
	}
	return nil
}

func (r *UserRepository) FindTokenByUserID(ctx context.Context, userID domain.ID) (domain.Token, bool, error) {
	var record domain.TokenRecord
	err := r.db.WithContext(ctx).First(&record, "user_id = ?", userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Token{}, false, nil
		}
		return domain.Token{}, false, &domain.DatabaseError{Op: "find_token_by_user_id", Err: err}
	}
	return domain.Token{UserID: record.UserID, AccessToken: record.AccessToken}, true, nil
}

// FindRandomValidToken picks uniformly at random among stored tokens. The
// candidate set is small enough (one per connected account) to fetch in
// full and sample client-side rather than push the randomness into SQL.
func (r *UserRepository) FindRandomValidToken(ctx context.Context) (domain.Token, bool, error) {
	var records []domain.TokenRecord
	err := r.db.WithContext(ctx).Find(&records).Error
	if err != nil {
		return domain.Token{}, false, &domain.DatabaseError{Op: "find_random_valid_token", Err: err}
	}
	if len(records) == 0 {
		return domain.Token{}, false, nil
	}

	chosen := records[rand.Intn(len(records))]
	return domain.Token{UserID: chosen.UserID, AccessToken: chosen.AccessToken}, true, nil
}

// FindFrequentlyStampedUsersBy ranks authors by how often viewer has
// reacted to their messages.
func (r *UserRepository) FindFrequentlyStampedUsersBy(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error) {
	const query = `
		SELECT m.user_id
		FROM reactions r
		JOIN messages m ON m.id = r.message_id
		WHERE r.user_id = ?
		GROUP BY m.user_id
		ORDER BY COUNT(*) DESC
		LIMIT ?
	`

	var authorIDs []domain.ID
	err := r.db.WithContext(ctx).Raw(query, viewer, limit).Scan(&authorIDs).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_frequently_stamped_users_by", Err: err}
	}
	return authorIDs, nil
}

// FindSimilarUsers ranks users whose reactions co-occur on messages viewer
// has also reacted to, most often first.
func (r *UserRepository) FindSimilarUsers(ctx context.Context, viewer domain.ID, limit int) ([]domain.ID, error) {
	const query = `
		SELECT other.user_id
		FROM reactions mine
		JOIN reactions other ON other.message_id = mine.message_id AND other.user_id <> mine.user_id
		WHERE mine.user_id = ?
		GROUP BY other.user_id
		ORDER BY COUNT(*) DESC
		LIMIT ?
	`

	var userIDs []domain.ID
	err := r.db.WithContext(ctx).Raw(query, viewer, limit).Scan(&userIDs).Error
	if err != nil {
		return nil, &domain.DatabaseError{Op: "find_similar_users", Err: err}
	}
	return userIDs, nil
}
