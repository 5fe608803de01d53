package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/de-tools/sql-sentry/pkg/adapters"
	"github.com/de-tools/sql-sentry/pkg/models/api"
	"github.com/de-tools/sql-sentry/pkg/models/domain"
	"github.com/de-tools/sql-sentry/pkg/runtime/export"
	auditsvc "github.com/de-tools/sql-sentry/pkg/services/audit"
	"github.com/de-tools/sql-sentry/pkg/services/config"
)

// ProviderFactory opens a fact provider for a configured profile. Injected
// so tests can substitute stub providers for real connections.
type ProviderFactory func(profile config.Profile) (auditsvc.Provider, error)

type Handler struct {
	registry  config.Registry
	auditor   *auditsvc.Service
	providers ProviderFactory
	runs      *RunRegistry
	reporter  *export.Reporter
	baseCtx   context.Context
}

func NewHandler(
	registry config.Registry,
	auditor *auditsvc.Service,
	providers ProviderFactory,
	reporter *export.Reporter,
	baseCtx context.Context,
) *Handler {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Handler{
		registry:  registry,
		auditor:   auditor,
		providers: providers,
		runs:      NewRunRegistry(),
		reporter:  reporter,
		baseCtx:   baseCtx,
	}
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	profiles, err := h.registry.GetProfiles(ctx)
	if err != nil {
		http.Error(w, "failed to load profiles", http.StatusInternalServerError)
		return
	}

	response := make([]api.Profile, 0, len(profiles))
	for _, p := range profiles {
		response = append(response, api.Profile{Name: p.Name, Host: p.Host})
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode profiles")
	}
}

func (h *Handler) StartRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.registry.GetProfile(ctx, req.Profile)
	if err != nil {
		http.Error(w, "unknown profile", http.StatusNotFound)
		return
	}

	// the run outlives this request; it gets its own cancellable context
	runCtx, cancel := context.WithCancel(h.baseCtx)
	run := h.runs.Create(profile.Name, cancel)

	go h.executeRun(logger.WithContext(runCtx), run.ID, profile, req.InactivityThresholdDays)

	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(api.StartRunResponse{ID: run.ID}); err != nil {
		logger.Error().Err(err).Msg("failed to encode run response")
	}
}

func (h *Handler) executeRun(ctx context.Context, runID string, profile config.Profile, thresholdDays int) {
	logger := zerolog.Ctx(ctx)

	provider, err := h.providers(profile)
	if err != nil {
		logger.Error().Err(err).Str("profile", profile.Name).Msg("failed to open provider")
		h.runs.SetFailed(runID, err)
		return
	}
	if closer, ok := provider.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	h.runs.SetRunning(runID)

	// an unset threshold falls back to the default inside the run
	result, err := h.auditor.Run(ctx, provider, domain.RunContext{InactivityThresholdDays: thresholdDays})
	if err != nil {
		logger.Error().Err(err).Str("profile", profile.Name).Msg("audit run aborted")
		h.runs.SetFailed(runID, err)
		return
	}
	h.runs.SetCompleted(runID, result)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	run, ok := h.runs.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	status := api.RunStatus{
		ID:        run.ID,
		Profile:   run.Profile,
		State:     run.State.String(),
		StartedAt: run.StartedAt,
	}
	if !run.CompletedAt.IsZero() {
		status.CompletedAt = &run.CompletedAt
	}
	if run.Err != nil {
		status.Error = run.Err.Error()
	}

	if err := json.NewEncoder(w).Encode(status); err != nil {
		logger.Error().Err(err).Msg("failed to encode run status")
	}
}

func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	if !h.runs.Cancel(chi.URLParam(r, "id")) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	result, ok := h.completedResult(w, r)
	if !ok {
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapSummaryDomainToApi(result.Summary)); err != nil {
		logger.Error().Err(err).Msg("failed to encode summary")
	}
}

func (h *Handler) GetDiagnostics(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	result, ok := h.completedResult(w, r)
	if !ok {
		return
	}

	if err := json.NewEncoder(w).Encode(adapters.MapRuleFailuresDomainToApi(result.Failures)); err != nil {
		logger.Error().Err(err).Msg("failed to encode diagnostics")
	}
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	result, ok := h.completedResult(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.reporter.Handle(w, result.Summary, result.Server); err != nil {
		logger.Error().Err(err).Msg("failed to render report")
	}
}

var errRunNotReady = errors.New("run has not completed")

func (h *Handler) completedResult(w http.ResponseWriter, r *http.Request) (*auditsvc.RunResult, bool) {
	run, ok := h.runs.Snapshot(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return nil, false
	}
	if run.State != domain.RunCompleted || run.Result == nil {
		http.Error(w, errRunNotReady.Error(), http.StatusConflict)
		return nil, false
	}
	return run.Result, true
}
