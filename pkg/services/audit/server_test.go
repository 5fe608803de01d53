package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func serverInfoRow(version, level string) []domain.Row {
	return []domain.Row{row(map[string]domain.Value{
		"product_version": str(version),
		"product_level":   str(level),
	})}
}

func TestUnsupportedVersionRule(t *testing.T) {
	tests := []struct {
		name         string
		version      string
		level        string
		wantSeverity domain.Severity
		wantIssue    bool
	}{
		{name: "2008 is out of support", version: "10.50.4000.0", level: "SP2", wantSeverity: domain.SeverityHigh, wantIssue: true},
		{name: "2012 is out of support", version: "11.0.7001.0", level: "SP4", wantSeverity: domain.SeverityHigh, wantIssue: true},
		{name: "supported RTM build lacks updates", version: "15.0.2000.5", level: "RTM", wantSeverity: domain.SeverityMedium, wantIssue: true},
		{name: "patched supported build is silent", version: "15.0.4123.1", level: "CU12", wantIssue: false},
		{name: "unparseable version is silent", version: "unknown", level: "RTM", wantIssue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := newTestFacts(map[string][]domain.Row{
				domain.FactServerInfo: serverInfoRow(tt.version, tt.level),
			})
			issues, err := unsupportedVersionRule().Evaluate(facts, testRunContext())
			require.NoError(t, err)
			if !tt.wantIssue {
				assert.Empty(t, issues)
				return
			}
			require.Len(t, issues, 1)
			assert.Equal(t, tt.wantSeverity, issues[0].Severity)
		})
	}
}

func TestDefaultPortRule(t *testing.T) {
	t.Run("port 1433 is flagged", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactEndpoints: {
				row(map[string]domain.Value{"protocol": str("TCP"), "port": num(1433)}),
			},
		})
		issues, err := defaultPortRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Equal(t, domain.SeverityLow, issues[0].Severity)
	})

	t.Run("non-default port is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactEndpoints: {
				row(map[string]domain.Value{"protocol": str("TCP"), "port": num(14330)}),
			},
		})
		issues, err := defaultPortRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}
