package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func issueRule(id string, severity domain.Severity, title string) Rule {
	return Rule{
		ID:       id,
		Category: "Test",
		Evaluate: func(_ *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			return []domain.Issue{{Title: title, Severity: severity, Category: "Test"}}, nil
		},
	}
}

func failingRule(id string) Rule {
	return Rule{
		ID:       id,
		Category: "Test",
		Evaluate: func(_ *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			return nil, errors.New("boom")
		},
	}
}

func panickingRule(id string) Rule {
	return Rule{
		ID:       id,
		Category: "Test",
		Evaluate: func(_ *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			panic("unexpected")
		},
	}
}

func TestExecutor_SingleFailureDoesNotAbortRun(t *testing.T) {
	rules := []Rule{
		issueRule("r1", domain.SeverityLow, "first"),
		failingRule("r2"),
		issueRule("r3", domain.SeverityHigh, "third"),
	}
	exec := NewExecutor(rules, 1)

	result := exec.run(context.Background(), newTestFacts(nil), testRunContext())

	assert.True(t, result.complete)
	require.Len(t, result.failures, 1)
	assert.Equal(t, "r2", result.failures[0].RuleID)

	issues := result.flatten()
	require.Len(t, issues, 2)
	assert.Equal(t, "first", issues[0].Title)
	assert.Equal(t, "third", issues[1].Title)
}

func TestExecutor_PanicIsContained(t *testing.T) {
	rules := []Rule{
		panickingRule("r1"),
		issueRule("r2", domain.SeverityMedium, "survivor"),
	}
	exec := NewExecutor(rules, 1)

	result := exec.run(context.Background(), newTestFacts(nil), testRunContext())

	require.Len(t, result.failures, 1)
	assert.Equal(t, "r1", result.failures[0].RuleID)
	assert.Contains(t, result.failures[0].Message(), "panicked")
	assert.Len(t, result.flatten(), 1)
}

func TestExecutor_CancellationYieldsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	rules := []Rule{
		issueRule("r1", domain.SeverityLow, "first"),
		{
			ID:       "r2",
			Category: "Test",
			Evaluate: func(_ *Facts, _ domain.RunContext) ([]domain.Issue, error) {
				cancel()
				return []domain.Issue{{Title: "second", Severity: domain.SeverityLow, Category: "Test"}}, nil
			},
		},
		issueRule("r3", domain.SeverityLow, "never evaluated"),
	}
	exec := NewExecutor(rules, 1)

	result := exec.run(ctx, newTestFacts(nil), testRunContext())

	assert.False(t, result.complete)
	issues := result.flatten()
	require.Len(t, issues, 2)
	assert.Equal(t, "second", issues[1].Title)
}

func TestExecutor_ParallelMatchesSequentialOutput(t *testing.T) {
	rules := []Rule{
		issueRule("r1", domain.SeverityLow, "low finding"),
		issueRule("r2", domain.SeverityCritical, "critical finding"),
		failingRule("r3"),
		issueRule("r4", domain.SeverityCritical, "second critical"),
	}

	sequential := NewExecutor(rules, 1).run(context.Background(), newTestFacts(nil), testRunContext())
	parallel := NewExecutor(rules, 4).run(context.Background(), newTestFacts(nil), testRunContext())

	assert.Equal(t, sequential.flatten(), parallel.flatten())
	assert.Len(t, parallel.failures, 1)
	assert.True(t, parallel.complete)
}
