package audit

import (
	"sort"
	"time"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

// aggregate produces the final Summary: issues sorted by descending severity
// with catalog order as the tie-break (stable sort over catalog-ordered
// input), and the supplementary display lists threaded through untouched.
func aggregate(
	issues []domain.Issue,
	logins []domain.LoginInfo,
	sysadmins []string,
	collectedAt time.Time,
	complete bool,
) domain.Summary {
	sorted := append([]domain.Issue{}, issues...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})

	return domain.Summary{
		CollectedAt: collectedAt,
		Complete:    complete,
		Issues:      sorted,
		Logins:      append([]domain.LoginInfo{}, logins...),
		Sysadmins:   append([]string{}, sysadmins...),
	}
}

// loginRoster maps the raw logins fact into display entries. It is
// descriptive, not evaluative: no rule logic, best effort on a missing or
// partial fact.
func loginRoster(facts *Facts) []domain.LoginInfo {
	rows, err := facts.Get(domain.FactLogins)
	if err != nil {
		return nil
	}
	roster := make([]domain.LoginInfo, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, domain.LoginInfo{
			Name:            row.StringOr("login_name", "?"),
			Type:            row.StringOr("login_type", ""),
			Disabled:        row.BoolOr("is_disabled", false),
			DefaultDatabase: row.StringOr("default_database", ""),
			CreateDate:      row.TimeOr("create_date", time.Time{}),
		})
	}
	return roster
}

func sysadminRoster(facts *Facts) []string {
	rows, err := facts.Get(domain.FactSysadminMembers)
	if err != nil {
		return nil
	}
	members := make([]string, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.StringOr("member_name", "?"))
	}
	return members
}

// serverSnapshot extracts the best-effort server identity from the
// server_info fact; every field may be blank.
func serverSnapshot(facts *Facts) domain.ServerInfo {
	rows, err := facts.Get(domain.FactServerInfo)
	if err != nil || len(rows) == 0 {
		return domain.ServerInfo{}
	}
	row := rows[0]
	mode := "Mixed"
	if row.IntOr("windows_auth_only", 0) == 1 {
		mode = "Windows"
	}
	return domain.ServerInfo{
		ServerName:         row.StringOr("server_name", ""),
		MachineName:        row.StringOr("machine_name", ""),
		InstanceName:       row.StringOr("instance_name", ""),
		ProductVersion:     row.StringOr("product_version", ""),
		ProductLevel:       row.StringOr("product_level", ""),
		Edition:            row.StringOr("edition", ""),
		AuthenticationMode: mode,
		IsClustered:        row.IntOr("is_clustered", 0) == 1,
	}
}
