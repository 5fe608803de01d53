package adapters

import (
	"github.com/de-tools/sql-sentry/pkg/models/api"
	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func MapSeverityDomainToApi(s domain.Severity) api.Severity {
	switch s {
	case domain.SeverityCritical:
		return api.SeverityCritical
	case domain.SeverityHigh:
		return api.SeverityHigh
	case domain.SeverityMedium:
		return api.SeverityMedium
	case domain.SeverityLow:
		return api.SeverityLow
	default:
		return api.SeverityInfo
	}
}

func MapIssueDomainToApi(i domain.Issue) api.Issue {
	return api.Issue{
		Title:          i.Title,
		Description:    i.Description,
		Severity:       MapSeverityDomainToApi(i.Severity),
		Category:       i.Category,
		Details:        append([]string{}, i.Details...),
		Recommendation: i.Recommendation,
	}
}

func MapLoginDomainToApi(l domain.LoginInfo) api.Login {
	return api.Login{
		Name:            l.Name,
		Type:            l.Type,
		Disabled:        l.Disabled,
		DefaultDatabase: l.DefaultDatabase,
		CreateDate:      l.CreateDate,
	}
}

func MapServerInfoDomainToApi(s domain.ServerInfo) api.ServerInfo {
	return api.ServerInfo{
		ServerName:         s.ServerName,
		MachineName:        s.MachineName,
		InstanceName:       s.InstanceName,
		ProductVersion:     s.ProductVersion,
		ProductLevel:       s.ProductLevel,
		Edition:            s.Edition,
		AuthenticationMode: s.AuthenticationMode,
		IsClustered:        s.IsClustered,
	}
}

func MapSummaryDomainToApi(s domain.Summary) api.Summary {
	res := api.Summary{
		CollectedAt: s.CollectedAt,
		Complete:    s.Complete,
		Counts:      map[string]int{},
		Issues:      make([]api.Issue, 0, len(s.Issues)),
		Logins:      make([]api.Login, 0, len(s.Logins)),
		Sysadmins:   append([]string{}, s.Sysadmins...),
	}
	for sev, n := range s.Counts() {
		res.Counts[sev.String()] = n
	}
	for _, i := range s.Issues {
		res.Issues = append(res.Issues, MapIssueDomainToApi(i))
	}
	for _, l := range s.Logins {
		res.Logins = append(res.Logins, MapLoginDomainToApi(l))
	}
	return res
}

func MapRuleFailuresDomainToApi(failures []domain.RuleFailure) []api.RuleFailure {
	res := make([]api.RuleFailure, 0, len(failures))
	for _, f := range failures {
		res = append(res, api.RuleFailure{RuleID: f.RuleID, Error: f.Message()})
	}
	return res
}
