package audit

import (
	"fmt"
	"time"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

const categoryAuthentication = "Authentication"

func saAccountEnabledRule() Rule {
	return Rule{
		ID:       "auth/sa-enabled",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactLogins)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.IntOr("is_sa_account", 0) != 1 {
					continue
				}
				disabled, err := row.Bool("is_disabled")
				if err != nil {
					return nil, err
				}
				if disabled {
					return nil, nil
				}
				name := row.StringOr("login_name", "sa")
				return []domain.Issue{{
					Title:          "Built-in sa account is enabled",
					Description:    "The built-in administrator account is enabled and can be used to log in. It is the most common target of brute-force attacks against SQL Server.",
					Severity:       domain.SeverityHigh,
					Category:       categoryAuthentication,
					Details:        []string{name},
					Recommendation: "Disable the sa account (ALTER LOGIN [sa] DISABLE) and use named administrative logins instead.",
				}}, nil
			}
			return nil, nil
		},
	}
}

func saAccountNotRenamedRule() Rule {
	return Rule{
		ID:       "auth/sa-not-renamed",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactLogins)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.IntOr("is_sa_account", 0) != 1 {
					continue
				}
				name, err := row.String("login_name")
				if err != nil {
					return nil, err
				}
				if name != "sa" {
					return nil, nil
				}
				return []domain.Issue{{
					Title:          "Built-in administrator account still named sa",
					Description:    "The built-in administrator account keeps its well-known default name, which lets attackers skip user-name guessing entirely.",
					Severity:       domain.SeverityMedium,
					Category:       categoryAuthentication,
					Details:        []string{name},
					Recommendation: "Rename the account to a non-obvious name (ALTER LOGIN [sa] WITH NAME = [...]).",
				}}, nil
			}
			return nil, nil
		},
	}
}

func mixedModeAuthenticationRule() Rule {
	return Rule{
		ID:       "auth/mixed-mode",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerInfo)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			windowsOnly, err := rows[0].Int("windows_auth_only")
			if err != nil {
				return nil, err
			}
			if windowsOnly == 1 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Mixed mode authentication is enabled",
				Description:    "The server accepts SQL Server authentication in addition to Windows authentication, exposing password-based logins that bypass domain policy.",
				Severity:       domain.SeverityMedium,
				Category:       categoryAuthentication,
				Recommendation: "Switch to Windows-only authentication unless SQL logins are strictly required; if they are, enforce password policy on every SQL login.",
			}}, nil
		},
	}
}

func weakPasswordsRule() Rule {
	return Rule{
		ID:       "auth/weak-passwords",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactWeakPasswords)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			details := make([]string, 0, len(rows))
			for _, row := range rows {
				login, err := row.String("login_name")
				if err != nil {
					return nil, err
				}
				probe := row.StringOr("matched_probe", "")
				if probe == "" {
					probe = "<blank>"
				}
				details = append(details, fmt.Sprintf("%s (matches %q)", login, probe))
			}
			return []domain.Issue{{
				Title:          "Logins with blank or trivially guessable passwords",
				Description:    fmt.Sprintf("%d SQL login(s) use a blank password, a common dictionary value, or their own name as password.", len(rows)),
				Severity:       domain.SeverityCritical,
				Category:       categoryAuthentication,
				Details:        details,
				Recommendation: "Reset the affected passwords immediately and enable password policy checking for all SQL logins.",
			}}, nil
		},
	}
}

func passwordPolicyDisabledRule() Rule {
	return Rule{
		ID:       "auth/password-policy-off",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			names, err := sqlLoginsWithoutFlag(facts, "is_policy_checked")
			if err != nil {
				return nil, err
			}
			if len(names) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "SQL logins without password policy enforcement",
				Description:    fmt.Sprintf("%d SQL login(s) are exempt from the Windows password policy, so complexity and lockout rules do not apply to them.", len(names)),
				Severity:       domain.SeverityMedium,
				Category:       categoryAuthentication,
				Details:        sample(names, maxSampleDetails),
				Recommendation: "Enable CHECK_POLICY on every SQL login (ALTER LOGIN ... WITH CHECK_POLICY = ON).",
			}}, nil
		},
	}
}

func passwordExpirationDisabledRule() Rule {
	return Rule{
		ID:       "auth/password-expiration-off",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			names, err := sqlLoginsWithoutFlag(facts, "is_expiration_checked")
			if err != nil {
				return nil, err
			}
			if len(names) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "SQL logins without password expiration",
				Description:    fmt.Sprintf("%d SQL login(s) have non-expiring passwords.", len(names)),
				Severity:       domain.SeverityLow,
				Category:       categoryAuthentication,
				Details:        sample(names, maxSampleDetails),
				Recommendation: "Enable CHECK_EXPIRATION for SQL logins used by people; service logins should rotate credentials through a managed process instead.",
			}}, nil
		},
	}
}

func sqlLoginsWithoutFlag(facts *Facts, flag string) ([]string, error) {
	rows, err := facts.Get(domain.FactLogins)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, row := range rows {
		typ := row.StringOr("login_type", "")
		if typ != "SQL_LOGIN" {
			continue
		}
		if row.BoolOr("is_disabled", false) {
			continue
		}
		set, err := row.Bool(flag)
		if err != nil {
			return nil, err
		}
		if !set {
			names = append(names, row.StringOr("login_name", "?"))
		}
	}
	return names, nil
}

// lockedAccountsRule is severity-conditional: a lockout within the last 24
// hours of the collection snapshot suggests an active guessing attempt and
// is reported as Medium; older lockouts are informational.
func lockedAccountsRule() Rule {
	return Rule{
		ID:       "auth/locked-accounts",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, ctx domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactLockedLogins)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			severity := domain.SeverityInfo
			details := make([]string, 0, len(rows))
			for _, row := range rows {
				login, err := row.String("login_name")
				if err != nil {
					return nil, err
				}
				lockedAt := row.TimeOr("lockout_time", time.Time{})
				if !lockedAt.IsZero() && ctx.CollectedAt.Sub(lockedAt) <= 24*time.Hour {
					severity = domain.SeverityMedium
					details = append(details, fmt.Sprintf("%s (locked %s)", login, lockedAt.Format("2006-01-02 15:04")))
				} else {
					details = append(details, login)
				}
			}
			description := fmt.Sprintf("%d SQL login(s) are currently locked out.", len(rows))
			if severity == domain.SeverityMedium {
				description += " At least one lockout happened within the last 24 hours, which can indicate an ongoing password-guessing attempt."
			}
			return []domain.Issue{{
				Title:          "Locked-out SQL logins",
				Description:    description,
				Severity:       severity,
				Category:       categoryAuthentication,
				Details:        details,
				Recommendation: "Review failed-login activity for the affected accounts before unlocking them.",
			}}, nil
		},
	}
}

// inactiveLoginsRule buckets stale logins by combining the activity fact with
// the login-to-database-user mapping: logins with no mapped users are safe to
// drop, mapped ones need manual review, and never-used-but-mapped logins get
// their own bucket.
func inactiveLoginsRule() Rule {
	return Rule{
		ID:       "auth/inactive-logins",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, ctx domain.RunContext) ([]domain.Issue, error) {
			activity, err := facts.Get(domain.FactLoginActivity)
			if err != nil {
				return nil, err
			}
			mapping, err := facts.Get(domain.FactLoginDBUsers)
			if err != nil {
				return nil, err
			}

			mapped := make(map[string]int)
			for _, row := range mapping {
				login, err := row.String("login_name")
				if err != nil {
					return nil, err
				}
				mapped[login]++
			}

			cutoff := ctx.CollectedAt.AddDate(0, 0, -ctx.InactivityThresholdDays)

			var safeToRemove, needsReview, neverUsedMapped []string
			for _, row := range activity {
				login, err := row.String("login_name")
				if err != nil {
					return nil, err
				}
				lastLogin, hasLast := row.Value("last_login")
				created := row.TimeOr("create_date", ctx.CollectedAt)

				neverLoggedIn := !hasLast || lastLogin.IsNull()
				var inactive bool
				if neverLoggedIn {
					// a freshly created login has not had time to be used
					inactive = created.Before(cutoff)
				} else {
					last, err := lastLogin.AsTime()
					if err != nil {
						return nil, err
					}
					inactive = last.Before(cutoff)
				}
				if !inactive {
					continue
				}

				switch {
				case neverLoggedIn && mapped[login] > 0:
					neverUsedMapped = append(neverUsedMapped, fmt.Sprintf("%s (%d mapped users)", login, mapped[login]))
				case mapped[login] > 0:
					needsReview = append(needsReview, fmt.Sprintf("%s (%d mapped users)", login, mapped[login]))
				default:
					safeToRemove = append(safeToRemove, login)
				}
			}

			var issues []domain.Issue
			if len(safeToRemove) > 0 {
				issues = append(issues, domain.Issue{
					Title:          "Inactive logins with no database users",
					Description:    fmt.Sprintf("%d login(s) have not authenticated in %d days and own no database users. They are safe to remove.", len(safeToRemove), ctx.InactivityThresholdDays),
					Severity:       domain.SeverityMedium,
					Category:       categoryAuthentication,
					Details:        safeToRemove,
					Recommendation: "Drop the listed logins after confirming with their owners.",
				})
			}
			if len(needsReview) > 0 {
				issues = append(issues, domain.Issue{
					Title:          "Inactive logins still mapped to database users",
					Description:    fmt.Sprintf("%d login(s) have not authenticated in %d days but are still mapped into databases. Removing them may break scheduled or seasonal workloads.", len(needsReview), ctx.InactivityThresholdDays),
					Severity:       domain.SeverityLow,
					Category:       categoryAuthentication,
					Details:        needsReview,
					Recommendation: "Review each mapping manually before disabling or dropping the login.",
				})
			}
			if len(neverUsedMapped) > 0 {
				issues = append(issues, domain.Issue{
					Title:          "Never-used logins with database access",
					Description:    fmt.Sprintf("%d login(s) were provisioned with database users but have never authenticated.", len(neverUsedMapped)),
					Severity:       domain.SeverityMedium,
					Category:       categoryAuthentication,
					Details:        neverUsedMapped,
					Recommendation: "Verify these accounts were provisioned intentionally; disable them until they are needed.",
				})
			}
			return issues, nil
		},
	}
}

func loginAuditingDisabledRule() Rule {
	return Rule{
		ID:       "auth/login-audit-off",
		Category: categoryAuthentication,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactLoginAuditLevel)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			level, err := rows[0].Int("audit_level")
			if err != nil {
				return nil, err
			}
			// 0 = none, 1 = successful only, 2 = failed only, 3 = both
			if level == 2 || level == 3 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Failed login auditing is disabled",
				Description:    "The server does not record failed login attempts, so password-guessing attacks leave no trace in the error log.",
				Severity:       domain.SeverityMedium,
				Category:       categoryAuthentication,
				Recommendation: "Set login auditing to at least 'Failed logins only' and restart the service.",
			}}, nil
		},
	}
}
