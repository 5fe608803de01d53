package audit

import (
	"fmt"
	"strings"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

const categoryPrivileges = "Privileges"

// maxSysadmins is the number of sysadmin members considered reasonable for
// a production server.
const maxSysadmins = 3

func tooManySysadminsRule() Rule {
	return Rule{
		ID:       "priv/too-many-sysadmins",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactSysadminMembers)
			if err != nil {
				return nil, err
			}
			if len(rows) <= maxSysadmins {
				return nil, nil
			}
			names := make([]string, 0, len(rows))
			for _, row := range rows {
				name, err := row.String("member_name")
				if err != nil {
					return nil, err
				}
				names = append(names, name)
			}
			return []domain.Issue{{
				Title:          "Excessive sysadmin membership",
				Description:    fmt.Sprintf("%d principals hold the sysadmin role; every one of them has unrestricted control over the server and all its data.", len(rows)),
				Severity:       domain.SeverityHigh,
				Category:       categoryPrivileges,
				Details:        sample(names, maxSampleDetails),
				Recommendation: "Reduce sysadmin membership to the minimum set of administrators and grant narrower server roles for routine tasks.",
			}}, nil
		},
	}
}

// controlServerGrantsRule flags CONTROL SERVER granted outside sysadmin.
// When the sysadmin membership fact is unavailable the rule skips its own
// emission rather than guessing.
func controlServerGrantsRule() Rule {
	return Rule{
		ID:       "priv/control-server-grants",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			perms, err := facts.Get(domain.FactServerPermissions)
			if err != nil {
				return nil, err
			}
			admins, err := sysadminSet(facts)
			if err != nil {
				return nil, nil
			}
			var grantees []string
			for _, row := range perms {
				perm := row.StringOr("permission", "")
				if perm != "CONTROL SERVER" {
					continue
				}
				grantee, err := row.String("grantee")
				if err != nil {
					return nil, err
				}
				if admins[grantee] {
					continue
				}
				grantees = append(grantees, grantee)
			}
			if len(grantees) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "CONTROL SERVER granted outside sysadmin",
				Description:    fmt.Sprintf("%d principal(s) hold CONTROL SERVER without being sysadmin members. The permission is equivalent to sysadmin but invisible in role membership reviews.", len(grantees)),
				Severity:       domain.SeverityCritical,
				Category:       categoryPrivileges,
				Details:        grantees,
				Recommendation: "Revoke CONTROL SERVER from the listed principals; use explicit role membership where full control is genuinely required.",
			}}, nil
		},
	}
}

func privilegedRoleMembersRule(ruleID string, roles []string, severity domain.Severity, title, description, recommendation string) Rule {
	return Rule{
		ID:       ruleID,
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerRoleMembers)
			if err != nil {
				return nil, err
			}
			wanted := make(map[string]bool, len(roles))
			for _, r := range roles {
				wanted[r] = true
			}
			var members []string
			for _, row := range rows {
				role, err := row.String("role_name")
				if err != nil {
					return nil, err
				}
				if !wanted[role] {
					continue
				}
				member := row.StringOr("member_name", "?")
				members = append(members, fmt.Sprintf("%s (%s)", member, role))
			}
			if len(members) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          title,
				Description:    fmt.Sprintf(description, len(members)),
				Severity:       severity,
				Category:       categoryPrivileges,
				Details:        sample(members, maxSampleDetails),
				Recommendation: recommendation,
			}}, nil
		},
	}
}

func securityadminMembersRule() Rule {
	return privilegedRoleMembersRule(
		"priv/securityadmin-members",
		[]string{"securityadmin"},
		domain.SeverityHigh,
		"Members in the securityadmin role",
		"%d principal(s) hold securityadmin, which can grant server-level permissions and is practically equivalent to sysadmin.",
		"Treat securityadmin like sysadmin: remove members that do not strictly manage security.",
	)
}

func operationalRoleMembersRule() Rule {
	return privilegedRoleMembersRule(
		"priv/operational-role-members",
		[]string{"serveradmin", "setupadmin"},
		domain.SeverityMedium,
		"Members in server configuration roles",
		"%d principal(s) hold serveradmin or setupadmin, allowing configuration changes that can weaken the server's posture.",
		"Review membership of serveradmin and setupadmin; configuration changes should go through controlled change management.",
	)
}

// publicServerPermissionDefaults are granted to public out of the box and
// carry no risk on their own.
var publicServerPermissionDefaults = map[string]bool{
	"CONNECT SQL":       true,
	"VIEW ANY DATABASE": true,
	"CONNECT":           true,
}

func publicServerPermissionsRule() Rule {
	return Rule{
		ID:       "priv/public-server-permissions",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerPermissions)
			if err != nil {
				return nil, err
			}
			var grants []string
			for _, row := range rows {
				grantee := row.StringOr("grantee", "")
				if grantee != "public" {
					continue
				}
				perm, err := row.String("permission")
				if err != nil {
					return nil, err
				}
				if publicServerPermissionDefaults[perm] {
					continue
				}
				grants = append(grants, perm)
			}
			if len(grants) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Non-default permissions granted to public",
				Description:    fmt.Sprintf("The public server role holds %d permission(s) beyond the defaults. Every login, present and future, inherits them.", len(grants)),
				Severity:       domain.SeverityHigh,
				Category:       categoryPrivileges,
				Details:        grants,
				Recommendation: "Revoke the listed permissions from public and grant them to specific logins or roles instead.",
			}}, nil
		},
	}
}

func guestConnectRule() Rule {
	return Rule{
		ID:       "priv/guest-connect",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactGuestConnect)
			if err != nil {
				return nil, err
			}
			var dbs []string
			for _, row := range rows {
				name, err := row.String("database_name")
				if err != nil {
					return nil, err
				}
				dbs = append(dbs, name)
			}
			if len(dbs) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Guest user can connect to user databases",
				Description:    fmt.Sprintf("The guest user holds CONNECT in %d user database(s), so any login can enter them without an explicit user mapping.", len(dbs)),
				Severity:       domain.SeverityMedium,
				Category:       categoryPrivileges,
				Details:        dbs,
				Recommendation: "Revoke CONNECT from guest in the listed databases (REVOKE CONNECT FROM GUEST).",
			}}, nil
		},
	}
}

func nonStandardDatabaseOwnerRule() Rule {
	return Rule{
		ID:       "priv/nonstandard-db-owner",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactDatabases)
			if err != nil {
				return nil, err
			}
			var dbs []string
			for _, row := range rows {
				if row.IntOr("is_system", 0) == 1 {
					continue
				}
				owner := row.StringOr("owner_name", "")
				if owner == "sa" || owner == "" {
					continue
				}
				dbs = append(dbs, fmt.Sprintf("%s (owner %s)", row.StringOr("database_name", "?"), owner))
			}
			if len(dbs) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Databases owned by personal logins",
				Description:    fmt.Sprintf("%d database(s) are owned by a login other than sa. The owning login maps to dbo and its removal orphans the database.", len(dbs)),
				Severity:       domain.SeverityLow,
				Category:       categoryPrivileges,
				Details:        sample(dbs, maxSampleDetails),
				Recommendation: "Transfer ownership to sa or a dedicated non-interactive login (ALTER AUTHORIZATION ON DATABASE).",
			}}, nil
		},
	}
}

func orphanedUsersRule() Rule {
	return Rule{
		ID:       "priv/orphaned-users",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactOrphanedUsers)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			details := make([]string, 0, len(rows))
			for _, row := range rows {
				details = append(details, fmt.Sprintf("%s.%s",
					row.StringOr("database_name", "?"), row.StringOr("user_name", "?")))
			}
			return []domain.Issue{{
				Title:          "Orphaned database users",
				Description:    fmt.Sprintf("%d database user(s) have no matching server login. Their permissions linger and can be silently re-acquired by recreating a login with the same SID.", len(rows)),
				Severity:       domain.SeverityMedium,
				Category:       categoryPrivileges,
				Details:        sample(details, maxSampleDetails),
				Recommendation: "Drop orphaned users or remap them to valid logins (ALTER USER ... WITH LOGIN).",
			}}, nil
		},
	}
}

// trustworthyEscalationRule is a co-occurrence check: TRUSTWORTHY alone is
// suspicious, but TRUSTWORTHY plus CLR plus a database owner other than sa
// is a ready-made privilege escalation path and is reported as critical.
// Any required fact being unavailable silently skips the emission.
func trustworthyEscalationRule() Rule {
	return Rule{
		ID:       "priv/trustworthy-clr-owner",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			dbs, err := facts.Get(domain.FactDatabases)
			if err != nil {
				return nil, nil
			}
			cfg, err := facts.Get(domain.FactServerConfig)
			if err != nil {
				return nil, nil
			}
			clrEnabled := false
			for _, row := range cfg {
				if row.StringOr("name", "") == "clr enabled" && row.IntOr("value_in_use", 0) == 1 {
					clrEnabled = true
					break
				}
			}
			if !clrEnabled {
				return nil, nil
			}
			var affected []string
			for _, row := range dbs {
				if row.IntOr("is_trustworthy", 0) != 1 {
					continue
				}
				name := row.StringOr("database_name", "?")
				if strings.EqualFold(name, "msdb") {
					continue
				}
				owner := row.StringOr("owner_name", "")
				if owner == "sa" {
					continue
				}
				affected = append(affected, fmt.Sprintf("%s (owner %s)", name, owner))
			}
			if len(affected) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "TRUSTWORTHY database with CLR and non-sa owner",
				Description:    fmt.Sprintf("%d database(s) combine TRUSTWORTHY with CLR enabled and an owner that is not sa. Code inside these databases can escalate to the owner's server-level privileges.", len(affected)),
				Severity:       domain.SeverityCritical,
				Category:       categoryPrivileges,
				Details:        affected,
				Recommendation: "Turn TRUSTWORTHY off (ALTER DATABASE ... SET TRUSTWORTHY OFF) and sign assemblies instead of relying on the trust flag.",
			}}, nil
		},
	}
}

func trustworthyDatabasesRule() Rule {
	return Rule{
		ID:       "priv/trustworthy-databases",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactDatabases)
			if err != nil {
				return nil, err
			}
			var dbs []string
			for _, row := range rows {
				if row.IntOr("is_trustworthy", 0) != 1 {
					continue
				}
				name := row.StringOr("database_name", "?")
				// msdb ships trustworthy by design
				if strings.EqualFold(name, "msdb") {
					continue
				}
				dbs = append(dbs, name)
			}
			if len(dbs) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Databases with TRUSTWORTHY enabled",
				Description:    fmt.Sprintf("%d database(s) have the TRUSTWORTHY property on, letting impersonation contexts inside them reach server-level resources.", len(dbs)),
				Severity:       domain.SeverityHigh,
				Category:       categoryPrivileges,
				Details:        dbs,
				Recommendation: "Disable TRUSTWORTHY unless the database genuinely requires cross-database impersonation; prefer module signing.",
			}}, nil
		},
	}
}

func impersonationGrantsRule() Rule {
	return Rule{
		ID:       "priv/impersonate-grants",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactServerPermissions)
			if err != nil {
				return nil, err
			}
			var grants []string
			for _, row := range rows {
				if row.StringOr("permission", "") != "IMPERSONATE" {
					continue
				}
				grantee, err := row.String("grantee")
				if err != nil {
					return nil, err
				}
				target := row.StringOr("target_login", "")
				if target == "" {
					grants = append(grants, grantee)
				} else {
					grants = append(grants, fmt.Sprintf("%s -> %s", grantee, target))
				}
			}
			if len(grants) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "IMPERSONATE granted at server level",
				Description:    fmt.Sprintf("%d impersonation grant(s) let principals execute as other logins, inheriting their full permissions.", len(grants)),
				Severity:       domain.SeverityHigh,
				Category:       categoryPrivileges,
				Details:        grants,
				Recommendation: "Revoke IMPERSONATE grants that target privileged logins; audit any that remain.",
			}}, nil
		},
	}
}

func databaseChainingRule() Rule {
	return Rule{
		ID:       "priv/db-chaining-databases",
		Category: categoryPrivileges,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactDatabases)
			if err != nil {
				return nil, err
			}
			var dbs []string
			for _, row := range rows {
				if row.IntOr("is_system", 0) == 1 {
					continue
				}
				if row.IntOr("is_db_chaining", 0) == 1 {
					dbs = append(dbs, row.StringOr("database_name", "?"))
				}
			}
			if len(dbs) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "User databases with ownership chaining enabled",
				Description:    fmt.Sprintf("%d user database(s) allow cross-database ownership chaining, letting object permissions leak across database boundaries.", len(dbs)),
				Severity:       domain.SeverityMedium,
				Category:       categoryPrivileges,
				Details:        dbs,
				Recommendation: "Disable DB_CHAINING on the listed databases and grant cross-database access explicitly.",
			}}, nil
		},
	}
}

func sysadminSet(facts *Facts) (map[string]bool, error) {
	rows, err := facts.Get(domain.FactSysadminMembers)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(rows))
	for _, row := range rows {
		name, err := row.String("member_name")
		if err != nil {
			return nil, err
		}
		set[name] = true
	}
	return set, nil
}
