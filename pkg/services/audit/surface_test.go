package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func configRows(options map[string]int64) []domain.Row {
	rows := make([]domain.Row, 0, len(options))
	for name, value := range options {
		rows = append(rows, row(map[string]domain.Value{
			"name":         str(name),
			"value_in_use": num(value),
		}))
	}
	return rows
}

func TestConfigFlagRule(t *testing.T) {
	rule := xpCmdshellRule()

	t.Run("enabled option is flagged", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerConfig: configRows(map[string]int64{"xp_cmdshell": 1}),
		})
		issues, err := rule.Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityCritical, issues[0].Severity)
		assert.Equal(t, []string{"xp_cmdshell = 1"}, issues[0].Details)
	})

	t.Run("disabled option is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerConfig: configRows(map[string]int64{"xp_cmdshell": 0}),
		})
		issues, err := rule.Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("absent option is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerConfig: configRows(map[string]int64{"remote access": 0}),
		})
		issues, err := rule.Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}

func TestDefaultTraceDisabledRule_FlagsZeroValue(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactServerConfig: configRows(map[string]int64{"default trace enabled": 0}),
	})
	issues, err := defaultTraceDisabledRule().Evaluate(facts, testRunContext())
	require.NoError(t, err)
	require.Len(t, issues, 1)

	facts = newTestFacts(map[string][]domain.Row{
		domain.FactServerConfig: configRows(map[string]int64{"default trace enabled": 1}),
	})
	issues, err = defaultTraceDisabledRule().Evaluate(facts, testRunContext())
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestClrEnabledRule_SeverityDependsOnStrictSecurity(t *testing.T) {
	t.Run("strict security on keeps it medium", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerConfig: configRows(map[string]int64{
				"clr enabled":         1,
				"clr strict security": 1,
			}),
		})
		issues, err := clrEnabledRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityMedium, issues[0].Severity)
	})

	t.Run("strict security off raises to high", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerConfig: configRows(map[string]int64{
				"clr enabled":         1,
				"clr strict security": 0,
			}),
		})
		issues, err := clrEnabledRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityHigh, issues[0].Severity)
	})

	t.Run("clr disabled is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactServerConfig: configRows(map[string]int64{"clr enabled": 0}),
		})
		issues, err := clrEnabledRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}

func TestNonDefaultEndpointsRule(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactEndpoints: {
			row(map[string]domain.Value{"endpoint_name": str("TSQL Default TCP"), "is_system": num(1), "state": str("STARTED"), "protocol": str("TCP")}),
			row(map[string]domain.Value{"endpoint_name": str("mirroring_ep"), "is_system": num(0), "state": str("STARTED"), "protocol": str("TCP")}),
			row(map[string]domain.Value{"endpoint_name": str("old_broker"), "is_system": num(0), "state": str("STOPPED"), "protocol": str("TCP")}),
		},
	})

	issues, err := nonDefaultEndpointsRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"mirroring_ep (TCP)"}, issues[0].Details)
}

func TestLinkedServersRule(t *testing.T) {
	t.Run("stored credentials raise high", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactLinkedServers: {
				row(map[string]domain.Value{"server_name": str("REPORTS"), "remote_login": str("link_user"), "uses_self_mapping": num(0)}),
			},
		})
		issues, err := linkedServersRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityHigh, issues[0].Severity)
		assert.Equal(t, []string{"REPORTS (remote login link_user)"}, issues[0].Details)
	})

	t.Run("plain roster is low", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactLinkedServers: {
				row(map[string]domain.Value{"server_name": str("REPORTS"), "remote_login": str(""), "uses_self_mapping": num(0)}),
				row(map[string]domain.Value{"server_name": str("ARCHIVE"), "remote_login": str(""), "uses_self_mapping": num(0)}),
			},
		})
		issues, err := linkedServersRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityLow, issues[0].Severity)
		assert.Equal(t, []string{"REPORTS", "ARCHIVE"}, issues[0].Details)
	})
}

func TestSampleDatabasesRule_MatchesByPrefix(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactDatabases: {
			row(map[string]domain.Value{"database_name": str("AdventureWorks2019")}),
			row(map[string]domain.Value{"database_name": str("northwind")}),
			row(map[string]domain.Value{"database_name": str("sales")}),
		},
	})

	issues, err := sampleDatabasesRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.ElementsMatch(t, []string{"AdventureWorks2019", "northwind"}, issues[0].Details)
}
