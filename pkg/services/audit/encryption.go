package audit

import (
	"fmt"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
)

const categoryEncryption = "Encryption"

func unencryptedDatabasesRule() Rule {
	return Rule{
		ID:       "enc/no-tde",
		Category: categoryEncryption,
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
				if row.IntOr("is_encrypted", 0) == 1 {
					continue
				}
				dbs = append(dbs, row.StringOr("database_name", "?"))
			}
			if len(dbs) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "User databases without transparent data encryption",
				Description:    fmt.Sprintf("%d user database(s) store data and log files unencrypted; stolen media or backups expose their full content.", len(dbs)),
				Severity:       domain.SeverityMedium,
				Category:       categoryEncryption,
				Details:        sample(dbs, maxSampleDetails),
				Recommendation: "Enable TDE on databases that hold sensitive data, and protect the certificate and its backups separately.",
			}}, nil
		},
	}
}

func forceEncryptionDisabledRule() Rule {
	return Rule{
		ID:       "enc/force-encryption-off",
		Category: categoryEncryption,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactForceEncryption)
			if err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, nil
			}
			forced, err := rows[0].Int("force_encryption")
			if err != nil {
				return nil, err
			}
			if forced == 1 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Connection encryption is not forced",
				Description:    "The instance accepts unencrypted client connections, so credentials and data can cross the network in clear text when clients do not request encryption.",
				Severity:       domain.SeverityMedium,
				Category:       categoryEncryption,
				Recommendation: "Set Force Encryption in the network configuration and install a certificate trusted by clients.",
			}}, nil
		},
	}
}

func expiredCertificatesRule() Rule {
	return Rule{
		ID:       "enc/expired-certificates",
		Category: categoryEncryption,
		Evaluate: func(facts *Facts, ctx domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactCertificates)
			if err != nil {
				return nil, err
			}
			var expired []string
			for _, row := range rows {
				expiry, err := row.Time("expiry_date")
				if err != nil {
					continue
				}
				if expiry.Before(ctx.CollectedAt) {
					expired = append(expired, fmt.Sprintf("%s (expired %s)",
						row.StringOr("certificate_name", "?"), expiry.Format("2006-01-02")))
				}
			}
			if len(expired) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Expired certificates in master",
				Description:    fmt.Sprintf("%d certificate(s) in the master database are past their expiry date. Anything still encrypted or signed with them is operating on stale key material.", len(expired)),
				Severity:       domain.SeverityMedium,
				Category:       categoryEncryption,
				Details:        expired,
				Recommendation: "Rotate the expired certificates and re-encrypt or re-sign their dependents.",
			}}, nil
		},
	}
}

const minCertificateKeyBits = 2048

func weakCertificateKeysRule() Rule {
	return Rule{
		ID:       "enc/weak-certificate-keys",
		Category: categoryEncryption,
		Evaluate: func(facts *Facts, _ domain.RunContext) ([]domain.Issue, error) {
			rows, err := facts.Get(domain.FactCertificates)
			if err != nil {
				return nil, err
			}
			var weak []string
			for _, row := range rows {
				bits := row.IntOr("key_length", 0)
				if bits == 0 || bits >= minCertificateKeyBits {
					continue
				}
				weak = append(weak, fmt.Sprintf("%s (%d bits)", row.StringOr("certificate_name", "?"), bits))
			}
			if len(weak) == 0 {
				return nil, nil
			}
			return []domain.Issue{{
				Title:          "Certificates with short RSA keys",
				Description:    fmt.Sprintf("%d certificate(s) use RSA keys shorter than %d bits, below current cryptographic baselines.", len(weak), minCertificateKeyBits),
				Severity:       domain.SeverityMedium,
				Category:       categoryEncryption,
				Details:        weak,
				Recommendation: "Reissue the listed certificates with at least 2048-bit keys.",
			}}, nil
		},
	}
}
