package postgres

import (
	"gorm.io/gorm"

	"github.com/akimon658/twittra/internal/port"
)

// NewRepository assembles a port.Repository from the three GORM-backed
// entity stores sharing db.
func NewRepository(db *gorm.DB) port.Repository {
	return port.Repository{
		Message: NewMessageRepository(db),
		Stamp:   NewStampRepository(db),
		User:    NewUserRepository(db),
	}
}
