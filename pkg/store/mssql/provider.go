package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/rs/zerolog"

	"github.com/de-tools/sql-sentry/pkg/models/domain"
	"github.com/de-tools/sql-sentry/pkg/services/config"
)

// Store answers fact queries against one SQL Server target. One Store is
// bound to one target for the lifetime of an audit run.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the target described by the profile.
func Open(profile config.Profile) (*Store, error) {
	dsn := DSN(profile)
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection to %q: %w", profile.Name, err)
	}
	return New(db), nil
}

// DSN builds a sqlserver:// connection URL from a profile.
func DSN(profile config.Profile) string {
	q := url.Values{}
	if profile.Database != "" {
		q.Set("database", profile.Database)
	}
	if profile.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	host := profile.Host
	if profile.Port != 0 {
		host = net.JoinHostPort(profile.Host, strconv.Itoa(profile.Port))
	}
	u := url.URL{
		Scheme:   "sqlserver",
		Host:     host,
		RawQuery: q.Encode(),
	}
	if profile.Instance != "" {
		u.Path = profile.Instance
	}
	if profile.User != "" {
		u.User = url.UserPassword(profile.User, profile.Password)
	}
	return u.String()
}

// Ping verifies the target is reachable at all. A failure here aborts the
// run; it is the one condition that prevents any summary from being produced.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("target unreachable: %w", err)
	}
	return nil
}

// Query executes the named fact query and returns its rows with
// driver-normalized scalar values.
func (s *Store) Query(ctx context.Context, factID string) ([]domain.Row, error) {
	logger := zerolog.Ctx(ctx)

	q, ok := queries[factID]
	if !ok {
		return nil, &UnavailableError{FactID: factID, Reason: "unknown fact id"}
	}

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, classifyQueryError(factID, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Str("fact", factID).Msg("failed to close fact query rows")
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, classifyQueryError(factID, err)
	}

	var result []domain.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, classifyQueryError(factID, err)
		}

		row := make(domain.Row, len(cols))
		for i, col := range cols {
			v, err := domain.ValueFromAny(vals[i])
			if err != nil {
				return nil, fmt.Errorf("fact %q column %q: %w", factID, col, err)
			}
			row[col] = v
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyQueryError(factID, err)
	}

	return result, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
