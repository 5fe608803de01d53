package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/sql-sentry/pkg/metrics"
	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// RunResult is the complete outcome of one audit run. Failures are a
// diagnostic channel: they never surface inside the Summary.
type RunResult struct {
	Summary  domain.Summary
	Server   domain.ServerInfo
	Failures []domain.RuleFailure
}

type Options struct {
	// Parallelism bounds concurrent rule evaluation; <= 1 means sequential.
	Parallelism int
	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics
	// now is overridable for tests.
	now func() time.Time
}

// Service runs the fixed rule catalog against a fact provider. It is
// stateless across runs: every run gets its own fact cache.
type Service struct {
	executor *Executor
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(opts Options) *Service {
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return &Service{
		executor: NewExecutor(Catalog(), opts.Parallelism),
		metrics:  opts.Metrics,
		now:      now,
	}
}

// Run executes one audit against the provider. The only error it returns is
// the run-level abort: the provider being unreachable before any rule ran.
// Rule-level and fact-level problems are absorbed into RunResult.Failures.
func (s *Service) Run(ctx context.Context, provider Provider, runCtx domain.RunContext) (*RunResult, error) {
	logger := zerolog.Ctx(ctx)
	started := s.now()

	if err := provider.Ping(ctx); err != nil {
		if s.metrics != nil {
			s.metrics.IncRunsFailed()
		}
		return nil, fmt.Errorf("audit aborted: %w", err)
	}

	if runCtx.CollectedAt.IsZero() {
		runCtx.CollectedAt = started.UTC()
	}
	runCtx = runCtx.Normalize()

	if s.metrics != nil {
		s.metrics.IncRunsStarted()
	}

	facts := NewFacts(ctx, provider)
	result := s.executor.run(ctx, facts, runCtx)

	summary := aggregate(
		result.flatten(),
		loginRoster(facts),
		sysadminRoster(facts),
		runCtx.CollectedAt,
		result.complete,
	)

	logger.Info().
		Int("issues", len(summary.Issues)).
		Int("failures", len(result.failures)).
		Bool("complete", summary.Complete).
		Dur("elapsed", s.now().Sub(started)).
		Msg("audit run finished")

	if s.metrics != nil {
		s.metrics.ObserveRun(s.now().Sub(started), summary)
	}

	return &RunResult{
		Summary:  summary,
		Server:   serverSnapshot(facts),
		Failures: result.failures,
	}, nil
}
