package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository_test.go -package=waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/waitlist-api/internal/models"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/akeren/waitlist-api/pkg/id"
	"gorm.io/gorm"
)

const (
	msgCreateFailed = "Failed to create waitlist entry"
	msgListFailed   = "Failed to fetch waitlist entries"
	msgFetchFailed  = "Failed to fetch waitlist entry"
	msgDeleteFailed = "Failed to delete waitlist entry"
	msgNotFound     = "Waitlist entry not found"
)

// WaitlistRepository is the only component that mutates waitlist entries.
type WaitlistRepository interface {
	// CreateEntry assigns ID and CreatedAt, then persists the entry. Caller-supplied values for
	// either are overwritten.
	CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error)
	// FindEntryByID returns a NOT_FOUND AppError when no entry has the id.
	FindEntryByID(ctx context.Context, id string) (*models.WaitlistEntry, error)
	// GetAllEntries returns every entry, newest first. Never nil on success.
	GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error)
	// DeleteEntry returns a NOT_FOUND AppError when no entry has the id.
	DeleteEntry(ctx context.Context, id string) error
}

type waitlistRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewWaitlistRepository(db *gorm.DB) WaitlistRepository {
	return &waitlistRepository{db: db, now: time.Now}
}

func (wr *waitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if entry == nil {
		return nil, apperrors.NewInvalidRequestError("waitlist entry cannot be nil", nil)
	}

	createdAt := wr.now().UTC()
	entry.ID = id.NewAt(createdAt)
	entry.CreatedAt = createdAt
	if entry.Preferences == nil {
		entry.Preferences = []string{}
	}

	if err := wr.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, apperrors.NewDatabaseError(msgCreateFailed, err)
	}

	return entry, nil
}

func (wr *waitlistRepository) FindEntryByID(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry

	if err := wr.db.WithContext(ctx).Where("id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(msgNotFound, err)
		}
		return nil, apperrors.NewDatabaseError(msgFetchFailed, err)
	}

	return &entry, nil
}

func (wr *waitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	entries := make([]*models.WaitlistEntry, 0)

	if err := wr.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, apperrors.NewDatabaseError(msgListFailed, err)
	}

	return entries, nil
}

func (wr *waitlistRepository) DeleteEntry(ctx context.Context, entryID string) error {
	result := wr.db.WithContext(ctx).Where("id = ?", entryID).Delete(&models.WaitlistEntry{})

	if result.Error != nil {
		return apperrors.NewDatabaseError(msgDeleteFailed, result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(msgNotFound, nil)
	}

	return nil
}
