package dataset

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"flowdash/internal/jira"
	"flowdash/internal/stages"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrNoSource is returned when the cache has nothing to load from.
var ErrNoSource = errors.New("dataset has no source")

// Source is where ticket exports come from.
type Source interface {
	ModTime() (time.Time, error)
	Load(ctx context.Context) (*jira.Export, error)
}

// Snapshot is one immutable load of the dataset. A refresh replaces the
// whole snapshot; readers holding an older one are unaffected.
type Snapshot struct {
	Tickets  []jira.Ticket
	Stages   []stages.Stage
	ModTime  time.Time
	LoadedAt time.Time
}

// Projects returns the sorted distinct projects, narrowed to allow when it
// is non-empty.
func (s *Snapshot) Projects(allow []string) []string {
	seen := make(map[string]struct{})
	for _, t := range s.Tickets {
		if t.Project == "" {
			continue
		}
		if len(allow) > 0 && !slices.Contains(allow, t.Project) {
			continue
		}
		seen[t.Project] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Cache holds the current snapshot and reloads it when the source changes.
type Cache struct {
	source  Source
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	now     func() time.Time
}

// NewCache creates an empty cache over source.
func NewCache(source Source) *Cache {
	return &Cache{source: source, now: time.Now}
}

// Current returns the last loaded snapshot, or nil before the first load.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

// RefreshIfStale reloads the dataset when the source's modification time is
// newer than the cached one, and returns the snapshot to use. If the source
// cannot be checked or loaded but a snapshot exists, the old one is kept.
func (c *Cache) RefreshIfStale(ctx context.Context) (*Snapshot, error) {
	if c.source == nil {
		return nil, ErrNoSource
	}

	cur := c.current.Load()
	mtime, err := c.source.ModTime()
	if err != nil {
		if cur != nil {
			log.Warn().Err(err).Msg("Could not check dataset freshness, serving cached snapshot")
			return cur, nil
		}
		return nil, err
	}
	if cur != nil && !mtime.After(cur.ModTime) {
		return cur, nil
	}

	v, err, _ := c.group.Do("refresh", func() (any, error) {
		// Another caller may have finished the reload while we waited.
		if latest := c.current.Load(); latest != nil && !mtime.After(latest.ModTime) {
			return latest, nil
		}
		return c.load(ctx, mtime)
	})
	if err != nil {
		if cur != nil {
			log.Warn().Err(err).Msg("Dataset reload failed, serving cached snapshot")
			return cur, nil
		}
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (c *Cache) load(ctx context.Context, mtime time.Time) (*Snapshot, error) {
	start := c.now()
	export, err := c.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	snap := &Snapshot{
		Tickets:  export.Tickets,
		Stages:   export.Stages,
		ModTime:  mtime,
		LoadedAt: c.now(),
	}
	c.current.Store(snap)

	log.Info().
		Int("tickets", len(snap.Tickets)).
		Int("stages", len(snap.Stages)).
		Time("mtime", mtime).
		Dur("took", snap.LoadedAt.Sub(start)).
		Msg("Dataset loaded")
	return snap, nil
}
