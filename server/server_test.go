package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexdef/lexdef/definition"
	"github.com/lexdef/lexdef/duplicate"
	"github.com/lexdef/lexdef/generate"
	"github.com/lexdef/lexdef/validation"
)

type stubRunner struct {
	outcome *generate.Outcome
	err     error
	calls   int
}

func (s *stubRunner) Run(_ context.Context, req *definition.GenerationRequest) (*generate.Outcome, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := *s.outcome
	out.RequestID = req.ID
	out.Term = req.Term
	return &out, nil
}

type stubChecker struct {
	result *duplicate.CheckResult
	err    error
}

func (s *stubChecker) Check(context.Context, *definition.GenerationRequest) (*duplicate.CheckResult, error) {
	return s.result, s.err
}

func succeededOutcome() *generate.Outcome {
	result := &validation.Result{OverallScore: 0.9, IsAcceptable: true}
	validation.EnsureSchemaCompliance(result)
	return &generate.Outcome{
		State:  generate.StateSucceeded,
		Text:   "Een document waarmee een persoon kan aantonen wie hij is.",
		Result: result,
	}
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGenerateSuccess(t *testing.T) {
	runner := &stubRunner{outcome: succeededOutcome()}
	checker := &stubChecker{result: &duplicate.CheckResult{Action: duplicate.ActionProceed}}
	srv := New(runner, checker, WithGatherer(prometheus.NewRegistry()))

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"term":          "ID-kaart",
		"org_context":   []string{"OM"},
		"legal_context": []string{"Strafrecht"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Outcome)
	assert.Equal(t, generate.StateSucceeded, resp.Outcome.State)
	assert.Equal(t, "1.0", resp.Outcome.Result.SchemaVersion)
	assert.Equal(t, 1, runner.calls)
}

func TestGenerateDuplicateShortCircuits(t *testing.T) {
	existing := definition.New("Identiteitsmiddel", "Een document waarmee een persoon zich identificeert.")
	runner := &stubRunner{outcome: succeededOutcome()}
	checker := &stubChecker{result: &duplicate.CheckResult{
		Action:   duplicate.ActionUseExisting,
		Existing: existing,
	}}
	srv := New(runner, checker, WithGatherer(prometheus.NewRegistry()))

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{"term": "ID-kaart"})
	require.Equal(t, http.StatusConflict, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, duplicate.ActionUseExisting, resp.Duplicate.Action)
	assert.Equal(t, "Identiteitsmiddel", resp.Duplicate.Existing.Term)
	assert.Zero(t, runner.calls, "generation never runs on a duplicate hit")
}

func TestGenerateSkipDuplicateCheck(t *testing.T) {
	runner := &stubRunner{outcome: succeededOutcome()}
	checker := &stubChecker{err: errors.New("must not be called")}
	srv := New(runner, checker, WithGatherer(prometheus.NewRegistry()))

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{
		"term":                 "ID-kaart",
		"skip_duplicate_check": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
}

func TestGenerateFailedOutcomeIs422(t *testing.T) {
	degraded := validation.NewDegradedResult("corr", "rule set unavailable")
	runner := &stubRunner{outcome: &generate.Outcome{State: generate.StateFailed, Result: degraded}}
	checker := &stubChecker{result: &duplicate.CheckResult{Action: duplicate.ActionProceed}}
	srv := New(runner, checker, WithGatherer(prometheus.NewRegistry()))

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{"term": "ID-kaart"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Degraded results stay parseable on the wire.
	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Outcome.Result.Degraded)
	assert.Equal(t, "1.0", resp.Outcome.Result.SchemaVersion)
	assert.NotEmpty(t, resp.Outcome.Result.System.CorrelationID)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	srv := New(&stubRunner{outcome: succeededOutcome()},
		&stubChecker{result: &duplicate.CheckResult{Action: duplicate.ActionProceed}},
		WithGatherer(prometheus.NewRegistry()))

	rec := postJSON(t, srv.Handler(), "/api/generate", map[string]any{"term": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewReader([]byte("{niet json")))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCheckDuplicateEndpoint(t *testing.T) {
	checker := &stubChecker{result: &duplicate.CheckResult{Action: duplicate.ActionProceed}}
	srv := New(&stubRunner{outcome: succeededOutcome()}, checker,
		WithGatherer(prometheus.NewRegistry()))

	rec := postJSON(t, srv.Handler(), "/api/check-duplicate", map[string]any{"term": "Nieuw begrip"})
	require.Equal(t, http.StatusOK, rec.Code)

	var result duplicate.CheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, duplicate.ActionProceed, result.Action)
}

func TestHealthz(t *testing.T) {
	srv := New(&stubRunner{outcome: succeededOutcome()}, &stubChecker{},
		WithGatherer(prometheus.NewRegistry()))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := generate.NewPrometheusSink(reg)
	require.NoError(t, sink.Completion(context.Background(), generate.CompletionEvent{Success: true}))

	srv := New(&stubRunner{outcome: succeededOutcome()}, &stubChecker{}, WithGatherer(reg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "lexdef_generations_total")
}
