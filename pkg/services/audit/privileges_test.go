package audit

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func memberRows(names ...string) []domain.Row {
	rows := make([]domain.Row, 0, len(names))
	for _, n := range names {
		rows = append(rows, row(map[string]domain.Value{"member_name": str(n)}))
	}
	return rows
}

func TestTooManySysadminsRule(t *testing.T) {
	t.Run("at threshold is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactSysadminMembers: memberRows("a", "b", "c"),
		})
		issues, err := tooManySysadminsRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("over threshold is flagged", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactSysadminMembers: memberRows("a", "b", "c", "d"),
		})
		issues, err := tooManySysadminsRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityHigh, issues[0].Severity)
		assert.Len(t, issues[0].Details, 4)
	})
}

func TestControlServerGrantsRule(t *testing.T) {
	perms := []domain.Row{
		row(map[string]domain.Value{"permission": str("CONTROL SERVER"), "grantee": str("app_admin")}),
		row(map[string]domain.Value{"permission": str("CONTROL SERVER"), "grantee": str("real_dba")}),
		row(map[string]domain.Value{"permission": str("VIEW SERVER STATE"), "grantee": str("monitor")}),
	}

	t.Run("grantees outside sysadmin are flagged", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerPermissions: perms,
			domain.FactSysadminMembers:   memberRows("real_dba"),
		})
		issues, err := controlServerGrantsRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityCritical, issues[0].Severity)
		assert.Equal(t, []string{"app_admin"}, issues[0].Details)
	})

	t.Run("unavailable sysadmin fact skips the rule", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerPermissions: perms,
		})
		issues, err := controlServerGrantsRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}

func TestPublicServerPermissionsRule_IgnoresDefaults(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactServerPermissions: {
			row(map[string]domain.Value{"grantee": str("public"), "permission": str("CONNECT SQL")}),
			row(map[string]domain.Value{"grantee": str("public"), "permission": str("VIEW ANY DATABASE")}),
			row(map[string]domain.Value{"grantee": str("public"), "permission": str("ALTER ANY LOGIN")}),
			row(map[string]domain.Value{"grantee": str("app"), "permission": str("ALTER ANY LOGIN")}),
		},
	})

	issues, err := publicServerPermissionsRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"ALTER ANY LOGIN"}, issues[0].Details)
}

func TestTrustworthyEscalationRule(t *testing.T) {
	trustworthyDB := row(map[string]domain.Value{
		"database_name":  str("appdb"),
		"is_trustworthy": num(1),
		"owner_name":     str("app_owner"),
	})
	clrOn := []domain.Row{row(map[string]domain.Value{"name": str("clr enabled"), "value_in_use": num(1)})}
	clrOff := []domain.Row{row(map[string]domain.Value{"name": str("clr enabled"), "value_in_use": num(0)})}

	t.Run("all three conditions yield critical", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactDatabases:    {trustworthyDB},
			domain.FactServerConfig: clrOn,
		})
		issues, err := trustworthyEscalationRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityCritical, issues[0].Severity)
	})

	t.Run("clr disabled is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactDatabases:    {trustworthyDB},
			domain.FactServerConfig: clrOff,
		})
		issues, err := trustworthyEscalationRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("sa-owned trustworthy database is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactDatabases: {row(map[string]domain.Value{
				"database_name":  str("appdb"),
				"is_trustworthy": num(1),
				"owner_name":     str("sa"),
			})},
			domain.FactServerConfig: clrOn,
		})
		issues, err := trustworthyEscalationRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("missing config fact skips without error", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactDatabases: {trustworthyDB},
		})
		issues, err := trustworthyEscalationRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}

func TestTrustworthyDatabasesRule_SkipsMsdb(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactDatabases: {
			row(map[string]domain.Value{"database_name": str("msdb"), "is_trustworthy": num(1)}),
			row(map[string]domain.Value{"database_name": str("appdb"), "is_trustworthy": num(1)}),
			row(map[string]domain.Value{"database_name": str("sales"), "is_trustworthy": num(0)}),
		},
	})

	issues, err := trustworthyDatabasesRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"appdb"}, issues[0].Details)
}

func TestImpersonationGrantsRule_FormatsTarget(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactServerPermissions: {
			row(map[string]domain.Value{"permission": str("IMPERSONATE"), "grantee": str("app"), "target_login": str("sa")}),
			row(map[string]domain.Value{"permission": str("IMPERSONATE"), "grantee": str("svc"), "target_login": str("")}),
		},
	})

	issues, err := impersonationGrantsRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"app -> sa", "svc"}, issues[0].Details)
}

func TestOrphanedUsersRule_SamplesDetails(t *testing.T) {
	rows := make([]domain.Row, 0, maxSampleDetails+5)
	for i := 0; i < maxSampleDetails+5; i++ {
		rows = append(rows, row(map[string]domain.Value{
			"database_name": str("appdb"),
			"user_name":     str(fmt.Sprintf("user%02d", i)),
		}))
	}
	facts := newTestFacts(map[string][]domain.Row{domain.FactOrphanedUsers: rows})

	issues, err := orphanedUsersRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Len(t, issues[0].Details, maxSampleDetails+1)
	assert.Contains(t, issues[0].Details[maxSampleDetails], "more")
}

func TestDatabaseChainingRule_SkipsSystemDatabases(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactDatabases: {
			row(map[string]domain.Value{"database_name": str("master"), "is_system": num(1), "is_db_chaining": num(1)}),
			row(map[string]domain.Value{"database_name": str("appdb"), "is_system": num(0), "is_db_chaining": num(1)}),
		},
	})

	issues, err := databaseChainingRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"appdb"}, issues[0].Details)
}
