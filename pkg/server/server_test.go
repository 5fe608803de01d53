package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/sql-sentry/pkg/models/api"
	"github.com/de-tools/sql-sentry/pkg/models/domain"
	"github.com/de-tools/sql-sentry/pkg/runtime/export"
	auditsvc "github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
)

type mockRegistry struct {
	mock.Mock
}

func (m *mockRegistry) GetProfiles(ctx context.Context) ([]config.Profile, error) {
	args := m.Called(ctx)
	return args.Get(0).([]config.Profile), args.Error(1)
}

func (m *mockRegistry) GetProfile(ctx context.Context, name string) (config.Profile, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(config.Profile), args.Error(1)
}

type emptyFactProvider struct{}

func (emptyFactProvider) Ping(_ context.Context) error { return nil }

func (emptyFactProvider) Query(_ context.Context, _ string) ([]domain.Row, error) {
	return nil, nil
}

func TestWebAPI_Endpoints(t *testing.T) {
	// runs log from goroutines that may outlive a subtest, so keep the
	// logger off the testing.T plumbing
	logger := zerolog.New(io.Discard)

	registry := new(mockRegistry)
	registry.On("GetProfiles", mock.Anything).
		Return([]config.Profile{{Name: "production", Host: "db.example.com"}}, nil)
	registry.On("GetProfile", mock.Anything, "production").
		Return(config.Profile{Name: "production", Host: "db.example.com"}, nil)

	reporter, err := export.NewReporter()
	require.NoError(t, err)

	webAPI := NewWebAPI(logger, Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Registry: registry,
			Auditor:  auditsvc.NewService(auditsvc.Options{}),
			Providers: func(config.Profile) (auditsvc.Provider, error) {
				return emptyFactProvider{}, nil
			},
			Reporter: reporter,
		},
	})
	testServer := httptest.NewServer(webAPI.Router())
	defer testServer.Close()

	t.Run("ListProfiles", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/profiles")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		var profiles []api.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&profiles))
		assert.Equal(t, []api.Profile{{Name: "production", Host: "db.example.com"}}, profiles)
	})

	t.Run("AuditRoundTrip", func(t *testing.T) {
		resp, err := http.Post(
			testServer.URL+"/api/v1/audits",
			"application/json",
			strings.NewReader(`{"profile":"production"}`),
		)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)

		var started api.StartRunResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
		require.NotEmpty(t, started.ID)

		require.Eventually(t, func() bool {
			statusResp, err := http.Get(testServer.URL + "/api/v1/audits/" + started.ID)
			if err != nil {
				return false
			}
			defer statusResp.Body.Close()
			var status api.RunStatus
			if err := json.NewDecoder(statusResp.Body).Decode(&status); err != nil {
				return false
			}
			return status.State == "completed"
		}, 5*time.Second, 10*time.Millisecond)

		reportResp, err := http.Get(testServer.URL + "/api/v1/audits/" + started.ID + "/report")
		require.NoError(t, err)
		defer reportResp.Body.Close()
		require.Equal(t, http.StatusOK, reportResp.StatusCode)
		body, err := io.ReadAll(reportResp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "No issues found.")
	})

	t.Run("UnknownRun", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/audits/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Metrics", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	registry.AssertExpectations(t)
}
