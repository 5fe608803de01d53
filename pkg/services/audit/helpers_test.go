package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

var errFactUnavailable = errors.New("fact unavailable")

// stubProvider serves canned fact rows; facts absent from the map fail with
// errFactUnavailable. Query counts are tracked for cache assertions.
type stubProvider struct {
	facts map[string][]domain.Row

	mu      sync.Mutex
	queries map[string]int
	pingErr error
}

func newStubProvider(facts map[string][]domain.Row) *stubProvider {
	return &stubProvider{
		facts:   facts,
		queries: make(map[string]int),
	}
}

func (p *stubProvider) Ping(_ context.Context) error {
	return p.pingErr
}

func (p *stubProvider) Query(_ context.Context, factID string) ([]domain.Row, error) {
	p.mu.Lock()
	p.queries[factID]++
	p.mu.Unlock()

	rows, ok := p.facts[factID]
	if !ok {
		return nil, errFactUnavailable
	}
	return rows, nil
}

func (p *stubProvider) queryCount(factID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queries[factID]
}

func testRunContext() domain.RunContext {
	return domain.RunContext{
		InactivityThresholdDays: 90,
		CollectedAt:             time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func newTestFacts(facts map[string][]domain.Row) *Facts {
	return NewFacts(context.Background(), newStubProvider(facts))
}

func row(pairs map[string]domain.Value) domain.Row {
	r := make(domain.Row, len(pairs))
	for k, v := range pairs {
		r[k] = v
	}
	return r
}

func str(v string) domain.Value      { return domain.StringValue(v) }
func num(v int64) domain.Value       { return domain.IntValue(v) }
func ts(v time.Time) domain.Value    { return domain.TimeValue(v) }
func null() domain.Value             { return domain.NullValue() }
