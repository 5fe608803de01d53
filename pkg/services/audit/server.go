package audit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

const categoryServer = "Server"

// minSupportedMajorVersion is SQL Server 2016; older releases receive no
// security updates.
const minSupportedMajorVersion = 13

func unsupportedVersionRule() Rule {
	return Rule{
		ID:       "srv/unsupported-version",
		Category: categoryServer,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerInfo)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			version := rows[0].StringOr("product_version", "")
			level := rows[0].StringOr("product_level", "")
			major := majorVersion(version)
			if major == 0 {
				return nil, nil
			}
			if major < minSupportedMajorVersion {
				return []domain.Issue{{
					Title:          "SQL Server version is out of support",
					Description:    fmt.Sprintf("The instance runs product version %s, which no longer receives security updates.", version),
					Severity:       domain.SeverityHigh,
					Category:       categoryServer,
					Details:        []string{fmt.Sprintf("version %s (%s)", version, level)},
					Recommendation: "Plan an upgrade to a supported SQL Server release.",
				}}, nil
			}
			if strings.EqualFold(level, "RTM") {
				return []domain.Issue{{
					Title:          "No cumulative updates applied",
					Description:    fmt.Sprintf("The instance runs the RTM build of version %s without any cumulative updates, missing every post-release security fix.", version),
					Severity:       domain.SeverityMedium,
					Category:       categoryServer,
					Details:        []string{fmt.Sprintf("version %s (%s)", version, level)},
					Recommendation: "Apply the latest cumulative update for this release.",
				}}, nil
			}
			return nil, nil
		},
	}
}

func majorVersion(productVersion string) int {
	parts := strings.SplitN(productVersion, ".", 2)
	if len(parts) == 0 {
		return 0
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return major
}

func defaultPortRule() Rule {
	return Rule{
		ID:       "srv/default-port",
		Category: categoryServer,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactEndpoints)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if !strings.EqualFold(row.StringOr("protocol", ""), "TCP") {
					continue
				}
				if row.IntOr("port", 0) == 1433 {
					return []domain.Issue{{
						Title:          "Instance listens on the default TCP port",
						Description:    "The TDS listener uses port 1433, the first port every SQL Server scanner probes.",
						Severity:       domain.SeverityLow,
						Category:       categoryServer,
						Recommendation: "Move the listener to a non-default port and restrict reachability with firewall rules; treat this as defense in depth, not a control.",
					}}, nil
				}
			}
			return nil, nil
		},
	}
}
