package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/cmdguard/internal/insight"
	"github.com/xxxsen/cmdguard/internal/model"
	"github.com/xxxsen/cmdguard/internal/pkg/errcode"
	appErr "github.com/xxxsen/cmdguard/internal/pkg/errors"
	"github.com/xxxsen/cmdguard/internal/service"
)

type stubPredictor struct {
	res   *model.PredictionResult
	err   error
	texts []string
}

func (s *stubPredictor) Classify(ctx context.Context, text string) (*model.PredictionResult, error) {
	s.texts = append(s.texts, text)
	return s.res, s.err
}

func (s *stubPredictor) State() string { return service.StateReady }

type stubInsights struct {
	report *insight.Report
	err    error
	lastN  int
}

func (s *stubInsights) Insights(ctx context.Context, n int) (*insight.Report, error) {
	s.lastN = n
	return s.report, s.err
}

func (s *stubInsights) State() string { return service.StatePending }

func newTestEngine(p Predictor, i InsightProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), RouterDeps{
		Predict:  NewPredictHandler(p),
		Insights: NewInsightHandler(i),
		Pages:    NewPageHandler(p, i),
	})
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func codeOf(code int) string {
	return strconv.Itoa(code)
}

func TestPredict(t *testing.T) {
	p := &stubPredictor{res: &model.PredictionResult{IsMalicious: true, Probability: 0.912345678, Threshold: 0.5}}
	r := newTestEngine(p, &stubInsights{})

	w := do(r, "POST", "/api/v1/predict", `{"text":"del /f /q C:\\Windows\\System32"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"is_malicious":true`)
	require.Contains(t, w.Body.String(), `"probability_percent":"91.2346"`)
	require.Equal(t, []string{`del /f /q C:\Windows\System32`}, p.texts)
}

func TestPredict_EmptyTextIsValid(t *testing.T) {
	p := &stubPredictor{res: &model.PredictionResult{Probability: 0.1, Threshold: 0.5}}
	r := newTestEngine(p, &stubInsights{})

	w := do(r, "POST", "/api/v1/predict", `{"text":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"is_malicious":false`)
	require.Equal(t, []string{""}, p.texts)
}

func TestPredict_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{name: "missing text", body: `{}`, code: errcode.ErrInvalid},
		{name: "bad json", body: `{`, code: errcode.ErrInvalid},
		{name: "model not loaded", body: `{"text":"dir"}`, err: appErr.Initialization("classifier", appErr.ErrNotFound), code: errcode.ErrModelUnavailable},
		{name: "width mismatch", body: `{"text":"dir"}`, err: appErr.Validation("got 3 want 300"), code: errcode.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPredictor{err: tt.err}
			r := newTestEngine(p, &stubInsights{})
			w := do(r, "POST", "/api/v1/predict", tt.body)
			require.Equal(t, http.StatusOK, w.Code)
			require.Contains(t, w.Body.String(), codeOf(tt.code))
			require.Contains(t, w.Body.String(), `"reason":"`+errcode.Name(tt.code)+`"`)
		})
	}
}

func TestInsights(t *testing.T) {
	ins := &stubInsights{report: &insight.Report{
		Malicious: []model.TokenCount{{Token: "del", Count: 2}},
		Benign:    []model.TokenCount{},
	}}
	r := newTestEngine(&stubPredictor{}, ins)

	w := do(r, "GET", "/api/v1/insights?top_n=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"token":"del"`)
	require.Contains(t, w.Body.String(), `"benign":[]`)
	require.Equal(t, 5, ins.lastN)

	w = do(r, "GET", "/api/v1/insights", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, ins.lastN)
}

func TestInsights_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		err   error
		code  int
	}{
		{name: "bad top_n", query: "?top_n=abc", code: errcode.ErrInvalid},
		{name: "top_n too large", query: "?top_n=1000", code: errcode.ErrInvalid},
		{name: "missing column", err: appErr.DataFormat("column %q not found", "prompt"), code: errcode.ErrDataFormat},
		{name: "dataset missing", err: appErr.Initialization("dataset", appErr.ErrNotFound), code: errcode.ErrDatasetUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestEngine(&stubPredictor{}, &stubInsights{err: tt.err})
			w := do(r, "GET", "/api/v1/insights"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			require.Contains(t, w.Body.String(), codeOf(tt.code))
			require.Contains(t, w.Body.String(), `"reason":"`+errcode.Name(tt.code)+`"`)
		})
	}
}

func TestPagesAndHealth(t *testing.T) {
	r := newTestEngine(&stubPredictor{}, &stubInsights{})

	w := do(r, "GET", "/api/v1/pages", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"Prediction"`)
	require.Contains(t, w.Body.String(), `"Insights"`)

	w = do(r, "GET", "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"prediction":"ready"`)
	require.Contains(t, w.Body.String(), `"insights":"pending"`)
}
