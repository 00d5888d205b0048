package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/varoOP/shinkrolist/internal/domain"
)

// Collection is a catalog list that keeps growing in the background after
// its first page arrives. It is safe for concurrent use.
type Collection struct {
	mu     sync.RWMutex
	items  []domain.Anime
	source domain.Source
	pages  int
	err    error
	done   chan struct{}
	target int
}

func newCollection(target int) *Collection {
	return &Collection{
		items:  []domain.Anime{},
		done:   make(chan struct{}),
		target: target,
	}
}

// Snapshot copies the records collected so far, in fetch order
func (c *Collection) Snapshot() []domain.Anime {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Anime, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection) Source() domain.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Pages is the number of page requests that contributed records
func (c *Collection) Pages() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pages
}

// Err tells why assembly stopped short. It is informational: a partial
// collection is still a final one.
func (c *Collection) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Done is closed once no further pages will be added
func (c *Collection) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until assembly finishes or ctx ends
func (c *Collection) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// add appends a page and reports whether the target is reached
func (c *Collection) add(items []domain.Anime) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pages++
	if c.target > 0 {
		if room := c.target - len(c.items); len(items) > room {
			items = items[:room]
		}
	}
	c.items = append(c.items, items...)
	return c.target > 0 && len(c.items) >= c.target
}

func (c *Collection) finish(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	close(c.done)
}

// Assemble fetches the first page before returning and keeps fetching the
// rest one page at a time in the background. Later pages stay on the source
// that answered the first one. Records are neither deduplicated nor
// re-sorted.
func (s *service) Assemble(ctx context.Context, q domain.ListQuery, target int) *Collection {
	c := newCollection(target)

	first, src, err := s.arbitrate(ctx, q, 0)
	if err != nil {
		c.source = domain.SourceSeed
		c.add(s.fromSeed(q, target))
		c.finish(err)
		return c
	}

	c.source = src.Name()
	if c.add(first.Items) || !first.HasNextPage {
		c.finish(nil)
		return c
	}

	go s.fill(ctx, c, src, q, 2)
	return c
}

func (s *service) fill(ctx context.Context, c *Collection, src domain.RecordSource, q domain.ListQuery, page int) {
	delay := s.delay(src.Name())
	log := s.log.With().Str("kind", string(q.Kind)).Str("source", string(src.Name())).Logger()

	for {
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			c.finish(ctx.Err())
			return
		case <-t.C:
		}

		p, err := s.fetchPage(ctx, src, q, page, 0)
		if err != nil {
			log.Debug().Err(err).Int("page", page).Msg("assembly stopped")
			c.finish(err)
			return
		}

		if c.add(p.Items) || !p.HasNextPage {
			log.Debug().Int("records", c.Len()).Int("pages", c.Pages()).Msg("assembly complete")
			c.finish(nil)
			return
		}
		page++
	}
}
