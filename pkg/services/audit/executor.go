package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// executionResult carries everything a run produced before aggregation.
type executionResult struct {
	// issues holds one slot per catalog rule, in catalog order, so output
	// ordering is independent of evaluation order.
	issues   [][]domain.Issue
	failures []domain.RuleFailure
	complete bool
}

func (r *executionResult) flatten() []domain.Issue {
	var flat []domain.Issue
	for _, ruleIssues := range r.issues {
		flat = append(flat, ruleIssues...)
	}
	return flat
}

// Executor runs the catalog against one bound fact accessor. A single rule
// failing never aborts the run: the failure is recorded and the remaining
// rules still contribute their issues.
type Executor struct {
	rules       []Rule
	parallelism int
}

func NewExecutor(rules []Rule, parallelism int) *Executor {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Executor{rules: rules, parallelism: parallelism}
}

func (e *Executor) run(ctx context.Context, facts *Facts, runCtx domain.RunContext) *executionResult {
	if e.parallelism > 1 {
		return e.runParallel(ctx, facts, runCtx)
	}
	return e.runSequential(ctx, facts, runCtx)
}

func (e *Executor) runSequential(ctx context.Context, facts *Facts, runCtx domain.RunContext) *executionResult {
	logger := zerolog.Ctx(ctx)
	result := &executionResult{
		issues:   make([][]domain.Issue, len(e.rules)),
		complete: true,
	}

	for i, rule := range e.rules {
		if ctx.Err() != nil {
			logger.Warn().Str("rule", rule.ID).Msg("run cancelled, stopping before rule")
			result.complete = false
			break
		}
		result.issues[i], result.failures = evaluateRule(logger, rule, facts, runCtx, result.failures)
	}
	return result
}

func (e *Executor) runParallel(ctx context.Context, facts *Facts, runCtx domain.RunContext) *executionResult {
	logger := zerolog.Ctx(ctx)
	result := &executionResult{
		issues:   make([][]domain.Issue, len(e.rules)),
		complete: true,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	for i, rule := range e.rules {
		i, rule := i, rule
		if gctx.Err() != nil {
			result.complete = false
			break
		}
		g.Go(func() error {
			issues, failures := evaluateRule(logger, rule, facts, runCtx, nil)
			mu.Lock()
			result.issues[i] = issues
			result.failures = append(result.failures, failures...)
			mu.Unlock()
			// rule failures are diagnostics, never group errors
			return nil
		})
	}

	_ = g.Wait()
	if ctx.Err() != nil {
		result.complete = false
	}
	return result
}

func evaluateRule(
	logger *zerolog.Logger,
	rule Rule,
	facts *Facts,
	runCtx domain.RunContext,
	failures []domain.RuleFailure,
) ([]domain.Issue, []domain.RuleFailure) {
	issues, err := safeEvaluate(rule, facts, runCtx)
	if err != nil {
		logger.Warn().Err(err).Str("rule", rule.ID).Msg("rule could not complete")
		return nil, append(failures, domain.RuleFailure{RuleID: rule.ID, Err: err})
	}
	return issues, failures
}

// safeEvaluate contains a panicking rule the same way an erroring one is
// contained: recorded and skipped.
func safeEvaluate(rule Rule, facts *Facts, runCtx domain.RunContext) (issues []domain.Issue, err error) {
	defer func() {
		if r := recover(); r != nil {
			issues = nil
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Evaluate(facts, runCtx)
}
