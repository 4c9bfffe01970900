package waitlist

import (
	"time"

	"github.com/akeren/waitlist-api/config/router"
	"github.com/akeren/waitlist-api/internal/log"
	"github.com/akeren/waitlist-api/internal/notify"
	"gorm.io/gorm"
)

// Module assembles the waitlist repository stack, service and controller.
type Module struct {
	db       *gorm.DB
	logger   *log.Logger
	cache    EntryCache
	cacheTTL time.Duration
	notifier notify.Notifier
}

// NewModule accepts a nil cache, in which case lookups go straight to the database, and a nil
// notifier, in which case signups are stored without notifications.
func NewModule(db *gorm.DB, logger *log.Logger, cache EntryCache, cacheTTL time.Duration, notifier notify.Notifier) *Module {
	return &Module{db: db, logger: logger, cache: cache, cacheTTL: cacheTTL, notifier: notifier}
}

func (m *Module) Repository() WaitlistRepository {
	repository := NewWaitlistRepository(m.db)
	if m.cache == nil {
		return repository
	}
	return NewCachedWaitlistRepository(repository, m.cache, m.cacheTTL, m.logger)
}

func (m *Module) Service() WaitlistService {
	return NewWaitlistService(m.logger, m.Repository(), m.notifier)
}

func (m *Module) Controller() *router.RESTController {
	return NewWaitlistController(m.Service())
}
