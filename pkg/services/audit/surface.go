package audit

import (
	"fmt"
	"strings"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

const categorySurface = "Surface Area"

func xpCmdshellRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/xp-cmdshell",
		option:         "xp_cmdshell",
		severity:       domain.SeverityCritical,
		title:          "xp_cmdshell is enabled",
		description:    "The xp_cmdshell extended procedure is enabled, allowing anyone who can call it to run operating-system commands under the service account.",
		recommendation: "Disable xp_cmdshell via sp_configure unless an audited process depends on it; prefer SQL Agent proxies for OS-level work.",
	})
}

func oleAutomationRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/ole-automation",
		option:         "Ole Automation Procedures",
		severity:       domain.SeverityHigh,
		title:          "OLE Automation procedures are enabled",
		description:    "OLE Automation procedures let T-SQL instantiate COM objects, which can reach the file system and network with the service account's rights.",
		recommendation: "Disable 'Ole Automation Procedures' via sp_configure.",
	})
}

func adHocQueriesRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/ad-hoc-queries",
		option:         "Ad Hoc Distributed Queries",
		severity:       domain.SeverityMedium,
		title:          "Ad hoc distributed queries are enabled",
		description:    "OPENROWSET and OPENDATASOURCE accept ad hoc connection strings, allowing data movement to arbitrary remote servers.",
		recommendation: "Disable 'Ad Hoc Distributed Queries' and use vetted linked servers where remote access is needed.",
	})
}

func crossDBChainingRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/cross-db-chaining",
		option:         "cross db ownership chaining",
		severity:       domain.SeverityHigh,
		title:          "Server-wide cross-database ownership chaining is enabled",
		description:    "Ownership chains span every database on the instance, so a permission granted in one database can expose objects in another.",
		recommendation: "Disable 'cross db ownership chaining' server-wide and enable DB_CHAINING per database only where required.",
	})
}

func remoteAccessRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/remote-access",
		option:         "remote access",
		severity:       domain.SeverityMedium,
		title:          "Remote access for remote servers is enabled",
		description:    "The deprecated remote-server mechanism allows stored procedure execution from remote instances.",
		recommendation: "Disable 'remote access'; use linked servers with explicit security mappings instead.",
	})
}

func databaseMailRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/database-mail",
		option:         "Database Mail XPs",
		severity:       domain.SeverityLow,
		title:          "Database Mail is enabled",
		description:    "Database Mail extended procedures are active, giving the instance an outbound mail channel usable for data exfiltration.",
		recommendation: "Disable 'Database Mail XPs' if the instance does not send operational mail.",
	})
}

func remoteAdminConnectionsRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/remote-admin-connections",
		option:         "remote admin connections",
		severity:       domain.SeverityLow,
		title:          "Remote dedicated admin connections are enabled",
		description:    "The dedicated admin connection accepts network clients, exposing an always-available administrative endpoint beyond the local machine.",
		recommendation: "Disable 'remote admin connections' unless remote DAC access is an operational requirement.",
	})
}

func scanForStartupProcsRule() Rule {
	return newConfigFlagRule(configFlag{
		id:             "surf/scan-startup-procs",
		option:         "scan for startup procs",
		severity:       domain.SeverityMedium,
		title:          "Startup procedure scanning is enabled",
		description:    "The instance executes procedures marked for automatic start, a common persistence mechanism after a compromise.",
		recommendation: "Disable 'scan for startup procs' and review any procedures currently flagged for startup execution.",
	})
}

func defaultTraceDisabledRule() Rule {
	return Rule{
		ID:       "surf/default-trace-off",
		Category: categorySurface,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerConfig)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.StringOr("name", "") != "default trace enabled" {
					continue
				}
				if row.IntOr("value_in_use", 1) == 1 {
					return nil, nil
				}
				return []domain.Issue{{
					Title:          "Default trace is disabled",
					Description:    "The default trace that records configuration and security-relevant changes is switched off, reducing forensic visibility.",
					Severity:       domain.SeverityMedium,
					Category:       categorySurface,
					Recommendation: "Re-enable 'default trace enabled' or replace it with an Extended Events session covering the same events.",
				}}, nil
			}
			return nil, nil
		},
	}
}

// clrEnabledRule reports CLR exposure with a severity that depends on
// whether 'clr strict security' compensates for it.
func clrEnabledRule() Rule {
	return Rule{
		ID:       "surf/clr-enabled",
		Category: categorySurface,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerConfig)
			if err != nil {
				return nil, err
			}
			clr, strict := false, true
			for _, row := range rows {
				switch row.StringOr("name", "") {
				case "clr enabled":
					clr = row.IntOr("value_in_use", 0) == 1
				case "clr strict security":
					strict = row.IntOr("value_in_use", 1) == 1
				}
			}
			if !clr {
				return nil, nil
			}
			severity := domain.SeverityMedium
			description := "CLR integration is enabled, allowing .NET assemblies to execute inside the server process."
			if !strict {
				severity = domain.SeverityHigh
				description += " CLR strict security is also disabled, so UNSAFE assemblies can load without signing."
			}
			return []domain.Issue{{
				Title:          "CLR integration is enabled",
				Description:    description,
				Severity:       severity,
				Category:       categorySurface,
				Recommendation: "Disable 'clr enabled' if no assemblies are in use; otherwise keep 'clr strict security' on and sign every assembly.",
			}}, nil
		},
	}
}

func startupProceduresRule() Rule {
	return Rule{
		ID:       "surf/startup-procedures",
		Category: categorySurface,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactStartupProcs)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			procs := make([]string, 0, len(rows))
			for _, row := range rows {
				name, err := row.String("procedure_name")
				if err != nil {
					return nil, err
				}
				procs = append(procs, name)
			}
			return []domain.Issue{{
				Title:          "Procedures configured for automatic startup",
				Description:    fmt.Sprintf("%d procedure(s) in master run automatically when the service starts, executing as sysadmin before anyone logs in.", len(procs)),
				Severity:       domain.SeverityHigh,
				Category:       categorySurface,
				Details:        procs,
				Recommendation: "Review each startup procedure and remove the startup flag (sp_procoption) from any that are not explicitly sanctioned.",
			}}, nil
		},
	}
}

func nonDefaultEndpointsRule() Rule {
	return Rule{
		ID:       "surf/nondefault-endpoints",
		Category: categorySurface,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactEndpoints)
			if err != nil {
				return nil, err
			}
			var endpoints []string
			for _, row := range rows {
				if row.IntOr("is_system", 1) == 1 {
					continue
				}
				if !strings.EqualFold(row.StringOr("state", ""), "STARTED") {
					continue
				}
				endpoints = append(endpoints, fmt.Sprintf("%s (%s)",
					row.StringOr("endpoint_name", "?"), row.StringOr("protocol", "?")))
			}
			if len(endpoints) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "User-created endpoints are running",
				Description:    fmt.Sprintf("%d non-default endpoint(s) are started, widening the network surface beyond the standard TDS listener.", len(endpoints)),
				Severity:       domain.SeverityMedium,
				Category:       categorySurface,
				Details:        endpoints,
				Recommendation: "Drop or stop endpoints that are not actively required, and restrict CONNECT permission on those that remain.",
			}}, nil
		},
	}
}

// linkedServersRule is severity-conditional: open security mappings get High,
// plain linked servers are only noted.
func linkedServersRule() Rule {
	return Rule{
		ID:       "surf/linked-servers",
		Category: categorySurface,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactLinkedServers)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			var open, all []string
			seen := map[string]bool{}
			for _, row := range rows {
				name, err := row.String("server_name")
				if err != nil {
					return nil, err
				}
				if !seen[name] {
					seen[name] = true
					all = append(all, name)
				}
				remote := row.StringOr("remote_login", "")
				if row.IntOr("uses_self_mapping", 0) == 1 || remote != "" {
					label := name
					if remote != "" {
						label = fmt.Sprintf("%s (remote login %s)", name, remote)
					}
					open = append(open, label)
				}
			}
			if len(open) > 0 {
				return []domain.Issue{{
					Title:          "Linked servers with stored credential mappings",
					Description:    fmt.Sprintf("%d linked server login mapping(s) carry stored or pass-through credentials, letting local principals reach remote servers with fixed identities.", len(open)),
					Severity:       domain.SeverityHigh,
					Category:       categorySurface,
					Details:        open,
					Recommendation: "Replace stored credential mappings with current-context security and drop linked servers that are no longer used.",
				}}, nil
			}
			return []domain.Issue{{
				Title:          "Linked servers are configured",
				Description:    fmt.Sprintf("%d linked server(s) are defined. Each one extends this server's trust boundary to a remote system.", len(all)),
				Severity:       domain.SeverityLow,
				Category:       categorySurface,
				Details:        all,
				Recommendation: "Periodically review linked server definitions and remove unused ones.",
			}}, nil
		},
	}
}

var sampleDatabaseNames = []string{"Northwind", "pubs", "AdventureWorks"}

func sampleDatabasesRule() Rule {
	return Rule{
		ID:       "surf/sample-databases",
		Category: categorySurface,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactDatabases)
			if err != nil {
				return nil, err
			}
			var found []string
			for _, row := range rows {
				name := row.StringOr("database_name", "")
				for _, sampleName := range sampleDatabaseNames {
					if strings.HasPrefix(strings.ToLower(name), strings.ToLower(sampleName)) {
						found = append(found, name)
						break
					}
				}
			}
			if len(found) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Sample databases are installed",
				Description:    fmt.Sprintf("%d well-known sample database(s) are present. Sample content has documented schemas and default users that aid attackers.", len(found)),
				Severity:       domain.SeverityLow,
				Category:       categorySurface,
				Details:        found,
				Recommendation: "Drop sample databases from production servers.",
			}}, nil
		},
	}
}
