package waitlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type memoryCache struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return "", c.failGet
	}
	return c.values[key], nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet != nil {
		return c.failSet
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}

func (c *memoryCache) SetNX(_ context.Context, key string, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet != nil {
		return false, c.failSet
	}
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return true, nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}

func TestNewCachedWaitlistRepository_NilCacheReturnsNext(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockWaitlistRepository(ctrl)

	repo := NewCachedWaitlistRepository(next, nil, time.Minute, log.NewLoggerWithJSONOutput())

	assert.Same(t, next, repo)
}

func TestCachedWaitlistRepository_FindEntryByID(t *testing.T) {
	ctx := context.Background()
	entry := &models.WaitlistEntry{
		ID:          "id-1",
		Email:       "ada@example.com",
		Preferences: []string{"beta"},
		CreatedAt:   time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC),
	}

	t.Run("reads through once then serves from cache", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := NewMockWaitlistRepository(ctrl)
		cache := newMemoryCache()
		repo := NewCachedWaitlistRepository(next, cache, 2*time.Minute, log.NewLoggerWithJSONOutput())

		next.EXPECT().FindEntryByID(gomock.Any(), "id-1").Return(entry, nil).Times(1)

		first, err := repo.FindEntryByID(ctx, "id-1")
		require.NoError(t, err)
		second, err := repo.FindEntryByID(ctx, "id-1")
		require.NoError(t, err)

		assert.Equal(t, entry.Email, first.Email)
		assert.Equal(t, entry.Email, second.Email)
		assert.Equal(t, entry.Preferences, second.Preferences)
		assert.True(t, second.CreatedAt.Equal(entry.CreatedAt))
		assert.Equal(t, 2*time.Minute, cache.ttls["waitlist:entry:id-1"])
	})

	t.Run("not found is not cached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := NewMockWaitlistRepository(ctrl)
		cache := newMemoryCache()
		repo := NewCachedWaitlistRepository(next, cache, time.Minute, log.NewLoggerWithJSONOutput())

		next.EXPECT().
			FindEntryByID(gomock.Any(), "missing").
			Return(nil, apperrors.NewNotFoundError("Waitlist entry not found", nil)).
			Times(2)

		_, err := repo.FindEntryByID(ctx, "missing")
		assert.True(t, apperrors.IsNotFound(err))
		_, err = repo.FindEntryByID(ctx, "missing")
		assert.True(t, apperrors.IsNotFound(err))
		assert.False(t, cache.has("waitlist:entry:missing"))
	})

	t.Run("cache failures fall through to the store", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := NewMockWaitlistRepository(ctrl)
		cache := newMemoryCache()
		cache.failGet = errors.New("connection refused")
		cache.failSet = errors.New("connection refused")
		repo := NewCachedWaitlistRepository(next, cache, time.Minute, log.NewLoggerWithJSONOutput())

		next.EXPECT().FindEntryByID(gomock.Any(), "id-1").Return(entry, nil)

		found, err := repo.FindEntryByID(ctx, "id-1")

		require.NoError(t, err)
		assert.Equal(t, "id-1", found.ID)
	})

	t.Run("undecodable value is ignored", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		next := NewMockWaitlistRepository(ctrl)
		cache := newMemoryCache()
		cache.values["waitlist:entry:id-1"] = "{not json"
		repo := NewCachedWaitlistRepository(next, cache, time.Minute, log.NewLoggerWithJSONOutput())

		next.EXPECT().FindEntryByID(gomock.Any(), "id-1").Return(entry, nil)

		found, err := repo.FindEntryByID(ctx, "id-1")

		require.NoError(t, err)
		assert.Equal(t, "id-1", found.ID)
	})
}

func TestCachedWaitlistRepository_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	next := NewMockWaitlistRepository(ctrl)
	cache := newMemoryCache()
	repo := NewCachedWaitlistRepository(next, cache, 0, log.NewLoggerWithJSONOutput())

	created := &models.WaitlistEntry{ID: "id-9", Email: "ada@example.com", Preferences: []string{}}
	next.EXPECT().CreateEntry(gomock.Any(), gomock.Any()).Return(created, nil)

	_, err := repo.CreateEntry(ctx, &models.WaitlistEntry{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.True(t, cache.has("waitlist:entry:id-9"))
	assert.Equal(t, DefaultEntryCacheTTL, cache.ttls["waitlist:entry:id-9"])

	next.EXPECT().DeleteEntry(gomock.Any(), "id-9").Return(nil)
	require.NoError(t, repo.DeleteEntry(ctx, "id-9"))
	assert.Equal(t, deletedMarker, cache.values["waitlist:entry:id-9"])

	_, err = repo.FindEntryByID(ctx, "id-9")
	assert.True(t, apperrors.IsNotFound(err), "deleted entry is not served from cache")

	next.EXPECT().DeleteEntry(gomock.Any(), "id-9").Return(apperrors.NewNotFoundError("Waitlist entry not found", nil))
	assert.True(t, apperrors.IsNotFound(repo.DeleteEntry(ctx, "id-9")))

	next.EXPECT().GetAllEntries(gomock.Any()).Return([]*models.WaitlistEntry{created}, nil)
	entries, err := repo.GetAllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCachedWaitlistRepository_LookupRacingDeleteDoesNotResurrect(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	next := NewMockWaitlistRepository(ctrl)
	cache := newMemoryCache()
	repo := NewCachedWaitlistRepository(next, cache, time.Minute, log.NewLoggerWithJSONOutput())

	entry := &models.WaitlistEntry{ID: "id-7", Email: "ada@example.com", Preferences: []string{}}
	readDone := make(chan struct{})
	release := make(chan struct{})

	// The store read completes, then the lookup stalls before caching the row.
	next.EXPECT().FindEntryByID(gomock.Any(), "id-7").DoAndReturn(
		func(context.Context, string) (*models.WaitlistEntry, error) {
			close(readDone)
			<-release
			return entry, nil
		}).Times(1)
	next.EXPECT().DeleteEntry(gomock.Any(), "id-7").Return(nil)

	lookupDone := make(chan error, 1)
	go func() {
		_, err := repo.FindEntryByID(ctx, "id-7")
		lookupDone <- err
	}()

	<-readDone
	require.NoError(t, repo.DeleteEntry(ctx, "id-7"))
	close(release)
	require.NoError(t, <-lookupDone)

	found, err := repo.FindEntryByID(ctx, "id-7")
	assert.Nil(t, found)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCachedWaitlistRepository_DeleteFallsBackToKeyRemoval(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	next := NewMockWaitlistRepository(ctrl)
	cache := newMemoryCache()
	repo := NewCachedWaitlistRepository(next, cache, time.Minute, log.NewLoggerWithJSONOutput())

	cache.values["waitlist:entry:id-3"] = `{"ID":"id-3"}`
	cache.failSet = errors.New("OOM command not allowed")

	next.EXPECT().DeleteEntry(gomock.Any(), "id-3").Return(nil)
	require.NoError(t, repo.DeleteEntry(ctx, "id-3"))
	assert.False(t, cache.has("waitlist:entry:id-3"))
}
