package waitlist

import (
	"context"
	"encoding/json"
	"time"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/models"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
)

const (
	entryCacheKeyPrefix = "waitlist:entry:"

	// deletedMarker replaces a deleted entry's cached value for one TTL, so a lookup that read
	// the row before the delete cannot put it back.
	deletedMarker = "deleted"

	DefaultEntryCacheTTL = 5 * time.Minute
)

// EntryCache is the subset of config.Cache the cached repository needs.
type EntryCache interface {
	// Get returns ("", nil) when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// cachedWaitlistRepository read-through caches single-entry lookups. Entries are immutable
// once created, so only deletion invalidates. Lookups populate with SetNX, and deletion leaves
// a marker, so a lookup racing a delete never resurrects the entry. Cache failures never fail
// a call.
type cachedWaitlistRepository struct {
	next   WaitlistRepository
	cache  EntryCache
	ttl    time.Duration
	logger *log.Logger
}

// NewCachedWaitlistRepository returns next unchanged when cache is nil.
func NewCachedWaitlistRepository(next WaitlistRepository, cache EntryCache, ttl time.Duration, logger *log.Logger) WaitlistRepository {
	if cache == nil {
		return next
	}
	if ttl <= 0 {
		ttl = DefaultEntryCacheTTL
	}

	return &cachedWaitlistRepository{next: next, cache: cache, ttl: ttl, logger: logger}
}

func entryCacheKey(entryID string) string {
	return entryCacheKeyPrefix + entryID
}

func (r *cachedWaitlistRepository) CreateEntry(ctx context.Context, entry *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	created, err := r.next.CreateEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	r.store(ctx, created)
	return created, nil
}

func (r *cachedWaitlistRepository) FindEntryByID(ctx context.Context, entryID string) (*models.WaitlistEntry, error) {
	logger := log.FromContext(ctx, r.logger)
	key := entryCacheKey(entryID)

	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Waitlist cache read failed; falling back to database", "key", key, "error", err)
	} else if raw == deletedMarker {
		return nil, apperrors.NewNotFoundError(msgNotFound, nil)
	} else if raw != "" {
		var cached models.WaitlistEntry
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		logger.Warn("Discarding undecodable waitlist cache value", "key", key)
	}

	entry, err := r.next.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	r.populate(ctx, entry)
	return entry, nil
}

func (r *cachedWaitlistRepository) GetAllEntries(ctx context.Context) ([]*models.WaitlistEntry, error) {
	return r.next.GetAllEntries(ctx)
}

func (r *cachedWaitlistRepository) DeleteEntry(ctx context.Context, entryID string) error {
	if err := r.next.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	key := entryCacheKey(entryID)
	if err := r.cache.Set(ctx, key, deletedMarker, r.ttl); err != nil {
		logger := log.FromContext(ctx, r.logger)
		logger.Warn("Waitlist cache invalidation failed; deleting key", "key", key, "error", err)
		if err := r.cache.Delete(ctx, key); err != nil {
			logger.Warn("Waitlist cache delete failed", "key", key, "error", err)
		}
	}
	return nil
}

// populate caches a looked-up entry unless the key already holds a value or a deletion marker.
func (r *cachedWaitlistRepository) populate(ctx context.Context, entry *models.WaitlistEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}

	key := entryCacheKey(entry.ID)
	if _, err := r.cache.SetNX(ctx, key, string(payload), r.ttl); err != nil {
		log.FromContext(ctx, r.logger).Warn("Waitlist cache write failed", "key", key, "error", err)
	}
}

func (r *cachedWaitlistRepository) store(ctx context.Context, entry *models.WaitlistEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}

	key := entryCacheKey(entry.ID)
	if err := r.cache.Set(ctx, key, string(payload), r.ttl); err != nil {
		log.FromContext(ctx, r.logger).Warn("Waitlist cache write failed", "key", key, "error", err)
	}
}
