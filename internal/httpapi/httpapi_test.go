package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/recall/internal/engine"
	"github.com/abhisek/recall/internal/logging"
	"github.com/abhisek/recall/internal/spacedrep"
	"github.com/abhisek/recall/internal/store"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := store.Open(context.Background(), store.Config{
		Driver: store.DriverSQLite,
		DSN:    "file:http_" + name + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	eng := engine.New(engine.ReposFrom(s), engine.Options{Clock: func() time.Time { return t0 }})
	return NewRouter(RouterConfig{
		Engine:      eng,
		Store:       s,
		Logger:      logging.Discard(),
		CORSOrigins: []string{"http://localhost:3000"},
	})
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestIngestAndMastery(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/v1/attempts",
		`{"learner_id":"L1","item_id":"q1","topic":"algebra","is_correct":true,"time_taken_seconds":12}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/mastery/algebra", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.Equal(t, "algebra", got["topic"])
	assert.InDelta(t, 1.0, got["mastery"], 1e-9)
	assert.Equal(t, "strong", got["level"])
}

func TestIngest_AllRejected(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/v1/attempts", `{"learner_id":"L1","item_id":"q1","topic":"algebra"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Contains(t, body, "error")
	assert.Contains(t, body, "rejected")
}

func TestIngest_PartialBatch(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/v1/attempts", `[
		{"learner_id":"L1","item_id":"q1","topic":"algebra","is_correct":false,"time_taken_seconds":5},
		{"learner_id":"L1","item_id":"q2","topic":"algebra","time_taken_seconds":-3,"is_correct":true}
	]`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Recorded, 1)
	require.Len(t, body.Rejected, 1)
	assert.Equal(t, 1, body.Rejected[0].Index)
}

func TestBodyTooLarge(t *testing.T) {
	r := newTestRouter(t)
	huge := "[" + strings.Repeat(" ", maxBodyBytes) + "]"

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/attempts"},
		{http.MethodPut, "/v1/catalog/items"},
	} {
		rec := do(t, r, tc.method, tc.path, huge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, tc.path)
		env := decode[ErrorEnvelope](t, rec)
		assert.Equal(t, CodeTooLarge, env.Error.Code, tc.path)
	}
}

func TestMastery_InsufficientData(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/v1/learners/L1/mastery/algebra", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, CodeInsufficientData, env.Error.Code)
}

func TestReviewsFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/v1/attempts",
		`{"learner_id":"L1","item_id":"q1","topic":"algebra","is_correct":false,"time_taken_seconds":40}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/reviews/due", "")
	require.Equal(t, http.StatusOK, rec.Code)
	due := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, due["count"])

	rec = do(t, r, http.MethodPost, "/v1/learners/L1/reviews", `{"item_id":"q1","quality":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, r, http.MethodPost, "/v1/learners/L1/reviews", `{"item_id":"q1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodPost, "/v1/learners/L1/reviews", `{"item_id":"q1","quality":4,"time_taken_seconds":9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	card := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, card["interval_days"])
	assert.Equal(t, "review", card["state"])

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/reviews/due?now="+t0.Format(time.RFC3339), "")
	require.Equal(t, http.StatusOK, rec.Code)
	due = decode[map[string]any](t, rec)
	assert.EqualValues(t, 0, due["count"])

	rec = do(t, r, http.MethodPost, "/v1/learners/L1/reviews/q1/reschedule",
		`{"due_at":"`+t0.Add(-time.Hour).Format(time.RFC3339)+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/reviews/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sched := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, sched["due_today"])
	assert.EqualValues(t, 0, sched["next_in_days"])

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/reviews/due?now="+t0.Format(time.RFC3339), "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[struct {
		Due []spacedrep.DueCard `json:"due"`
	}](t, rec)
	require.Len(t, listed.Due, 1)
	assert.Equal(t, "q1", listed.Due[0].ItemID)
	assert.Equal(t, spacedrep.ReviewDue, listed.Due[0].Status)
	assert.InDelta(t, 1.0/24, listed.Due[0].OverdueDays, 1e-9)

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/reviews/due?now="+t0.Add(24*time.Hour).Format(time.RFC3339), "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed.Due = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Due, 1)
	assert.Equal(t, spacedrep.ReviewOverdue, listed.Due[0].Status)

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/reviews/due?now=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReview_UnknownItem(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodPost, "/v1/learners/L1/reviews", `{"item_id":"nope","quality":3}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, CodeNotFound, env.Error.Code)
}

func TestCatalogAndReadiness(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodPut, "/v1/catalog/items", `{"items":[
		{"item_id":"q1","topic":"algebra","document_id":"doc1","seed_difficulty":0.5},
		{"item_id":"q2","topic":"geometry","document_id":"doc1","seed_difficulty":0.5}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/readiness?document=doc1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[map[string]any](t, rec)
	assert.Equal(t, "Not Started", rep["readiness_level"])

	rec = do(t, r, http.MethodPost, "/v1/attempts",
		`{"learner_id":"L1","item_id":"q1","topic":"algebra","document_id":"doc1","is_correct":true,"time_taken_seconds":30}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/readiness?document=doc1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rep = decode[map[string]any](t, rec)
	assert.InDelta(t, 0.5, rep["coverage_score"], 1e-9)
	assert.Contains(t, rep["unpracticed_topics"], "geometry")

	rec = do(t, r, http.MethodPut, "/v1/catalog/items", `{"items":[{"item_id":"q3"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBehaviorAndContext(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/v1/learners/L1/behavior", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/v1/attempts",
		`{"learner_id":"L1","item_id":"q1","topic":"algebra","is_correct":false,"time_taken_seconds":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body ingestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Recorded, 1)
	id := body.Recorded[0].ID

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/behavior", "")
	require.Equal(t, http.StatusOK, rec.Code)
	prof := decode[map[string]any](t, rec)
	assert.Equal(t, "Risk-taker", prof["primary_trait"])
	assert.InDelta(t, 1.0, prof["risk_taking"], 1e-9)

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/attempts/"+id+"/context", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ctxBody := decode[map[string]any](t, rec)
	assert.Contains(t, ctxBody["behavioral_insight"], "quickly")
}

func TestForgettingAndVelocity_Insufficient(t *testing.T) {
	r := newTestRouter(t)

	rec := do(t, r, http.MethodGet, "/v1/learners/L1/forgetting/algebra", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/velocity", "")
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode[map[string]any](t, rec)
	assert.Empty(t, v["topics"])

	rec = do(t, r, http.MethodGet, "/v1/learners/L1/forgetting", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/attempts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
