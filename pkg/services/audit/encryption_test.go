package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

func TestUnencryptedDatabasesRule_SkipsSystemAndEncrypted(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactDatabases: {
			row(map[string]domain.Value{"database_name": str("master"), "is_system": num(1), "is_encrypted": num(0)}),
			row(map[string]domain.Value{"database_name": str("vault"), "is_system": num(0), "is_encrypted": num(1)}),
			row(map[string]domain.Value{"database_name": str("appdb"), "is_system": num(0), "is_encrypted": num(0)}),
		},
	})

	issues, err := unencryptedDatabasesRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"appdb"}, issues[0].Details)
}

func TestForceEncryptionDisabledRule(t *testing.T) {
	t.Run("disabled flag is flagged", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactForceEncryption: {row(map[string]domain.Value{"force_encryption": num(0)})},
		})
		issues, err := forceEncryptionDisabledRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Len(t, issues, 1)
	})

	t.Run("forced encryption is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactForceEncryption: {row(map[string]domain.Value{"force_encryption": num(1)})},
		})
		issues, err := forceEncryptionDisabledRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})

	t.Run("registry fact empty on this platform is silent", func(t *testing.T) {
		facts := newTestFacts(map[string][]domain.Row{
			domain.FactForceEncryption: {},
		})
		issues, err := forceEncryptionDisabledRule().Evaluate(facts, testRunContext())
		require.NoError(t, err)
		assert.Empty(t, issues)
	})
}

func TestExpiredCertificatesRule_ComparesAgainstCollectionTime(t *testing.T) {
	ctx := testRunContext()
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactCertificates: {
			row(map[string]domain.Value{
				"certificate_name": str("tde_cert"),
				"expiry_date":      ts(ctx.CollectedAt.AddDate(0, -1, 0)),
			}),
			row(map[string]domain.Value{
				"certificate_name": str("fresh_cert"),
				"expiry_date":      ts(ctx.CollectedAt.AddDate(1, 0, 0)),
			}),
		},
	})

	issues, err := expiredCertificatesRule().Evaluate(facts, ctx)

	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Len(t, issues[0].Details, 1)
	assert.Contains(t, issues[0].Details[0], "tde_cert")
}

func TestWeakCertificateKeysRule(t *testing.T) {
	facts := newTestFacts(map[string][]domain.Row{
		domain.FactCertificates: {
			row(map[string]domain.Value{"certificate_name": str("legacy"), "key_length": num(1024)}),
			row(map[string]domain.Value{"certificate_name": str("modern"), "key_length": num(2048)}),
			row(map[string]domain.Value{"certificate_name": str("unknown"), "key_length": num(0)}),
		},
	})

	issues, err := weakCertificateKeysRule().Evaluate(facts, testRunContext())

	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"legacy (1024 bits)"}, issues[0].Details)
}
