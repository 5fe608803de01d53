package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func TestFacts_Get_FetchesOncePerFact(t *testing.T) {
	provider := newStubProvider(map[string][]domain.Row{
		domain.FactLogins: {row(map[string]domain.Value{"login_name": str("app_svc")})},
	})
	facts := NewFacts(context.Background(), provider)

	for i := 0; i < 5; i++ {
		rows, err := facts.Get(domain.FactLogins)
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
	}

	assert.Equal(t, 1, provider.queryCount(domain.FactLogins))
}

func TestFacts_Get_CachesFailures(t *testing.T) {
	provider := newStubProvider(map[string][]domain.Row{})
	facts := NewFacts(context.Background(), provider)

	for i := 0; i < 3; i++ {
		_, err := facts.Get(domain.FactEndpoints)
		assert.ErrorIs(t, err, errFactUnavailable)
	}

	// the failure is cached; the provider is never retried within a run
	assert.Equal(t, 1, provider.queryCount(domain.FactEndpoints))
}

func TestFacts_Get_SeparateInstancesDoNotShareCache(t *testing.T) {
	provider := newStubProvider(map[string][]domain.Row{
		domain.FactDatabases: {},
	})

	first := NewFacts(context.Background(), provider)
	second := NewFacts(context.Background(), provider)

	_, _ = first.Get(domain.FactDatabases)
	_, _ = second.Get(domain.FactDatabases)

	assert.Equal(t, 2, provider.queryCount(domain.FactDatabases))
}
