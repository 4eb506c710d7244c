package survey

import (
	"context"
	"strings"
	"sync"
	"time"

	"surveyline/internal/domain"
	"surveyline/internal/logger"
)

// DefaultAutosaveInterval is how often a dirty document is saved in the background.
const DefaultAutosaveInterval = 30 * time.Second

// Store is the part of the persistence interface the coordinator needs.
type Store interface {
	SaveSurvey(ctx context.Context, s domain.Survey) (domain.Survey, error)
}

// Coordinator tracks dirty/saved state and writes snapshots to a Store.
// Each mutation bumps a version; a save only clears the dirty flag when no
// mutation happened after its snapshot was taken. Store writes are made one
// at a time, and an autosave never writes a snapshot older than or equal to
// one already saved.
type Coordinator struct {
	Store    Store
	Log      *logger.Logger
	Interval time.Duration
	Now      func() time.Time

	saveMu sync.Mutex // held around Store.SaveSurvey

	mu           sync.Mutex
	dirty        bool
	version      uint64
	saved        bool
	savedVersion uint64
	lastSavedAt  time.Time
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// MarkDirty records a mutation.
func (c *Coordinator) MarkDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
	c.version++
}

func (c *Coordinator) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Version identifies the document state a snapshot was taken from.
func (c *Coordinator) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// LastSavedAt reports the time of the last successful save.
func (c *Coordinator) LastSavedAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSavedAt, !c.lastSavedAt.IsZero()
}

// SaveNow writes snapshot, taken at version. On failure the state is left
// as it was and a PersistenceError is returned.
func (c *Coordinator) SaveNow(ctx context.Context, snapshot domain.Survey, version uint64) (domain.Survey, error) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	return c.write(ctx, snapshot, version)
}

func (c *Coordinator) write(ctx context.Context, snapshot domain.Survey, version uint64) (domain.Survey, error) {
	saved, err := c.Store.SaveSurvey(ctx, snapshot)
	if err != nil {
		return domain.Survey{}, domain.PersistenceError{Op: "save survey", Err: err}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSavedAt = c.now()
	if !c.saved || version > c.savedVersion {
		c.savedVersion = version
	}
	c.saved = true
	if c.version == version {
		c.dirty = false
	}
	return saved, nil
}

// stale reports whether a snapshot taken at version is already covered by
// a completed save.
func (c *Coordinator) stale(version uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved && version <= c.savedVersion
}

// AutosaveOnce saves snapshot if there is unsaved work. Failures are logged
// and never returned.
func (c *Coordinator) AutosaveOnce(ctx context.Context, snapshot domain.Survey, version uint64) (domain.Survey, bool) {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if !c.Dirty() || !worthSaving(snapshot) || c.stale(version) {
		return domain.Survey{}, false
	}
	saved, err := c.write(ctx, snapshot, version)
	if err != nil {
		logger.OrNop(c.Log).Warn("autosave failed", "survey_id", snapshot.ID, "error", err)
		return domain.Survey{}, false
	}
	logger.OrNop(c.Log).Debug("autosaved", "survey_id", saved.ID, "questions", len(saved.Questions))
	return saved, true
}

// Run calls tick every Interval until ctx is done.
func (c *Coordinator) Run(ctx context.Context, tick func(context.Context)) {
	interval := c.Interval
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

// worthSaving skips a blank survey with no questions.
func worthSaving(s domain.Survey) bool {
	return strings.TrimSpace(s.Title) != "" || len(s.Questions) > 0
}
