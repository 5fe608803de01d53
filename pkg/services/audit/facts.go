package audit

import (
	"context"
	"sync"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// Provider retrieves named facts from the audited target. It is the only
// component that performs I/O; implementations must be safe for concurrent
// use when the executor runs rules in parallel.
type Provider interface {
	// Ping reports whether the target is reachable at all.
	Ping(ctx context.Context) error
	// Query returns the rows of the named fact.
	Query(ctx context.Context, factID string) ([]domain.Row, error)
}

type factEntry struct {
	once sync.Once
	rows []domain.Row
	err  error
}

// Facts memoizes provider results for one run: each distinct fact is fetched
// at most once regardless of how many rules request it, and a provider
// failure is cached and re-surfaced identically to every requester. One Facts
// instance belongs to exactly one run and is discarded with it.
type Facts struct {
	ctx      context.Context
	provider Provider

	mu    sync.Mutex
	cache map[string]*factEntry
}

func NewFacts(ctx context.Context, provider Provider) *Facts {
	return &Facts{
		ctx:      ctx,
		provider: provider,
		cache:    make(map[string]*factEntry),
	}
}

// Get returns the rows of the named fact, fetching through the provider on
// first demand. No retries happen here; a cached failure stays a failure for
// the rest of the run.
func (f *Facts) Get(factID string) ([]domain.Row, error) {
	f.mu.Lock()
	entry, ok := f.cache[factID]
	if !ok {
		entry = &factEntry{}
		f.cache[factID] = entry
	}
	f.mu.Unlock()

	entry.once.Do(func() {
		entry.rows, entry.err = f.provider.Query(f.ctx, factID)
	})
	return entry.rows, entry.err
}
