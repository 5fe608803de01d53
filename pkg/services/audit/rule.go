package audit

import (
	"fmt"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// Rule is one independent unit of audit logic. Evaluate is pure: it only
// asks the accessor for named facts and combines them with the run context.
// Rules hold no state and one instance may be reused across runs. Finding
// nothing is a valid outcome: a false condition emits zero issues, never an
// "OK" issue.
type Rule struct {
	ID       string
	Category string
	Evaluate func(facts *Facts, ctx domain.RunContext) ([]domain.Issue, error)
}

// maxSampleDetails caps evidence lists on threshold-style rules; the full
// data is still available through the facts themselves.
const maxSampleDetails = 10

func sample(items []string, max int) []string {
	if len(items) <= max {
		return items
	}
	capped := append([]string{}, items[:max]...)
	return append(capped, fmt.Sprintf("+%d more", len(items)-max))
}

// configFlag describes one sp_configure surface-area option that should be
// off on a hardened server.
type configFlag struct {
	id             string
	option         string
	severity       domain.Severity
	title          string
	description    string
	recommendation string
}

// newConfigFlagRule builds the shared rule shape for sp_configure checks:
// emit one issue when the option's running value is non-zero.
func newConfigFlagRule(f configFlag) Rule {
	return Rule{
		ID:       f.id,
		Category: "Surface Area",
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerConfig)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				name, err := row.String("name")
				if err != nil {
					return nil, err
				}
				if name != f.option {
					continue
				}
				if row.IntOr("value_in_use", 0) == 0 {
					return nil, nil
				}
				return []domain.Issue{{
					Title:          f.title,
					Description:    f.description,
					Severity:       f.severity,
					Category:       "Surface Area",
					Details:        []string{fmt.Sprintf("%s = 1", f.option)},
					Recommendation: f.recommendation,
				}}, nil
			}
			// option absent on this edition: nothing to report
			return nil, nil
		},
	}
}
