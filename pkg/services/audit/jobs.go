package audit

import (
	"fmt"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

const categoryAgent = "SQL Agent"

// osCommandSubsystems are job step types that break out of T-SQL into the
// operating system.
var osCommandSubsystems = map[string]bool{
	"CmdExec":    true,
	"PowerShell": true,
}

func osCommandJobStepsRule() Rule {
	return Rule{
		ID:       "job/os-command-steps",
		Category: categoryAgent,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactAgentJobs)
			if err != nil {
				return nil, err
			}
			var steps []string
			for _, row := range rows {
				subsystem := row.StringOr("subsystem", "")
				if !osCommandSubsystems[subsystem] {
					continue
				}
				if row.IntOr("enabled", 0) != 1 {
					continue
				}
				steps = append(steps, fmt.Sprintf("%s / %s (%s)",
					row.StringOr("job_name", "?"), row.StringOr("step_name", "?"), subsystem))
			}
			if len(steps) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Agent jobs with operating-system command steps",
				Description:    fmt.Sprintf("%d enabled job step(s) execute CmdExec or PowerShell, running OS commands on a schedule under an Agent identity.", len(steps)),
				Severity:       domain.SeverityHigh,
				Category:       categoryAgent,
				Details:        steps,
				Recommendation: "Run OS-level steps through least-privileged Agent proxy accounts and review each command for necessity.",
			}}, nil
		},
	}
}

func personalJobOwnersRule() Rule {
	return Rule{
		ID:       "job/personal-owners",
		Category: categoryAgent,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactAgentJobs)
			if err != nil {
				return nil, err
			}
			seen := map[string]bool{}
			var jobs []string
			for _, row := range rows {
				job := row.StringOr("job_name", "")
				if job == "" || seen[job] {
					continue
				}
				seen[job] = true
				if row.IntOr("enabled", 0) != 1 {
					continue
				}
				owner := row.StringOr("owner_name", "")
				if owner == "" || owner == "sa" {
					continue
				}
				jobs = append(jobs, fmt.Sprintf("%s (owner %s)", job, owner))
			}
			if len(jobs) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Agent jobs owned by personal logins",
				Description:    fmt.Sprintf("%d enabled job(s) are owned by individual logins. The jobs break when the owner leaves, and non-sysadmin owners run steps under their own identity.", len(jobs)),
				Severity:       domain.SeverityLow,
				Category:       categoryAgent,
				Details:        sample(jobs, maxSampleDetails),
				Recommendation: "Transfer job ownership to sa or a dedicated service login.",
			}}, nil
		},
	}
}
