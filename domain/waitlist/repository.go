package waitlist

import (
	"context"

	"github.com/akeren/go-waitlist/internal/models"
	apperrors "github.com/akeren/go-waitlist/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// EnsureSchema creates the waitlist table and its unique email index if missing.
	EnsureSchema(ctx context.Context) error
	// InsertIfAbsent stores entry unless a row with the same email exists.
	// A conflict is not an error: it returns (false, nil) and leaves the row untouched.
	InsertIfAbsent(ctx context.Context, entry *models.WaitlistEntry) (bool, error)
}

type waitlistRepository struct {
	db *gorm.DB
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db}
}

func (wr *waitlistRepository) EnsureSchema(ctx context.Context) error {
	if err := wr.db.WithContext(ctx).AutoMigrate(models.ModelRegistry...); err != nil {
		return apperrors.NewDatabaseError("unable to ensure waitlist schema", err)
	}
	return nil
}

func (wr *waitlistRepository) InsertIfAbsent(ctx context.Context, entry *models.WaitlistEntry) (bool, error) {
	if entry == nil {
		return false, apperrors.NewInvalidRequestError("waitlist entry cannot be nil", nil)
	}

	// One statement: concurrent inserts for the same email resolve inside the
	// database, the loser sees zero affected rows.
	result := wr.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(entry)

	if result.Error != nil {
		return false, apperrors.NewDatabaseError("unable to save waitlist entry", result.Error)
	}

	return result.RowsAffected > 0, nil
}
