package waitlist

import (
	"context"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/internal/models"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.ModelRegistry...))
	return db
}

// steppingClock returns start, start+step, start+2*step, ...
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(step)
		return now
	}
}

func newTestRepository(t *testing.T, now func() time.Time) (*waitlistRepository, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	repo := NewWaitlistRepository(db).(*waitlistRepository)
	if now != nil {
		repo.now = now
	}
	return repo, db
}

func TestWaitlistRepository_CreateEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns id and createdAt, ignoring caller values", func(t *testing.T) {
		start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		repo, _ := newTestRepository(t, steppingClock(start, time.Millisecond))

		entry, err := repo.CreateEntry(ctx, &models.WaitlistEntry{
			ID:        "caller-chosen",
			Email:     "ada@example.com",
			CreatedAt: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.NotEqual(t, "caller-chosen", entry.ID)
		assert.True(t, entry.CreatedAt.Equal(start))
		assert.NotNil(t, entry.Preferences)
	})

	t.Run("ids are unique and createdAt never decreases", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		seen := make(map[string]bool)
		var previous time.Time
		for i := 0; i < 50; i++ {
			entry, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "dup@example.com"})
			require.NoError(t, err)

			assert.False(t, seen[entry.ID], "duplicate id %s", entry.ID)
			seen[entry.ID] = true

			assert.False(t, entry.CreatedAt.Before(previous))
			previous = entry.CreatedAt
		}
	})

	t.Run("duplicate emails are separate entries", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		first, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "same@example.com"})
		require.NoError(t, err)
		second, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "same@example.com"})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)

		entries, err := repo.GetAllEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("preferences and code round-trip", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		created, err := repo.CreateEntry(ctx, &models.WaitlistEntry{
			Email:        "ada@example.com",
			WaitListCode: "vip",
			Preferences:  []string{"email", "sms"},
		})
		require.NoError(t, err)

		found, err := repo.FindEntryByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "vip", found.WaitListCode)
		assert.Equal(t, []string{"email", "sms"}, found.Preferences)
		assert.True(t, found.CreatedAt.Equal(created.CreatedAt))
	})

	t.Run("storage failure is a database error", func(t *testing.T) {
		repo, db := newTestRepository(t, nil)
		require.NoError(t, db.Migrator().DropTable(&models.WaitlistEntry{}))

		entry, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "ada@example.com"})

		assert.Nil(t, entry)
		assert.Equal(t, apperrors.ErrorTypeDatabaseError, apperrors.GetErrorType(err))
		assert.Equal(t, "Failed to create waitlist entry", apperrors.GetHumanReadableMessage(err))
	})
}

func TestWaitlistRepository_GetAllEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		entries, err := repo.GetAllEntries(ctx)

		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("newest first", func(t *testing.T) {
		start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		repo, _ := newTestRepository(t, steppingClock(start, time.Second))

		var ids []string
		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			entry, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: email})
			require.NoError(t, err)
			ids = append(ids, entry.ID)
		}

		entries, err := repo.GetAllEntries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, ids[2], entries[0].ID)
		assert.Equal(t, ids[1], entries[1].ID)
		assert.Equal(t, ids[0], entries[2].ID)
		for i := 1; i < len(entries); i++ {
			assert.False(t, entries[i].CreatedAt.After(entries[i-1].CreatedAt))
		}
	})

	t.Run("same timestamp falls back to id order", func(t *testing.T) {
		fixed := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		repo, _ := newTestRepository(t, func() time.Time { return fixed })

		first, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "a@example.com"})
		require.NoError(t, err)
		second, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "b@example.com"})
		require.NoError(t, err)

		entries, err := repo.GetAllEntries(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, second.ID, entries[0].ID)
		assert.Equal(t, first.ID, entries[1].ID)
	})
}

func TestWaitlistRepository_FindEntryByID(t *testing.T) {
	repo, _ := newTestRepository(t, nil)

	_, err := repo.FindEntryByID(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")

	assert.True(t, apperrors.IsNotFound(err))
}

func TestWaitlistRepository_DeleteEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("delete then get reports not found", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		entry, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "ada@example.com"})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteEntry(ctx, entry.ID))

		_, err = repo.FindEntryByID(ctx, entry.ID)
		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("missing id reports not found", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		err := repo.DeleteEntry(ctx, "missing")

		assert.True(t, apperrors.IsNotFound(err))
	})

	t.Run("second delete reports not found", func(t *testing.T) {
		repo, _ := newTestRepository(t, nil)

		entry, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "ada@example.com"})
		require.NoError(t, err)

		require.NoError(t, repo.DeleteEntry(ctx, entry.ID))
		assert.True(t, apperrors.IsNotFound(repo.DeleteEntry(ctx, entry.ID)))
	})
}
