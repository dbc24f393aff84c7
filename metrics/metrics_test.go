package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounts(t *testing.T) {
	r := NewRegistry()
	r.ObservePrediction(OutcomeSuccess, time.Millisecond)
	r.ObservePrediction(OutcomeSuccess, time.Millisecond)
	r.ObservePrediction(OutcomeError, time.Millisecond)
	r.UnseenCategory("Gender")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues(OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.unseen.WithLabelValues("Gender")))
}

func TestRegistryHandler(t *testing.T) {
	r := NewRegistry()
	r.SetArtifact("mindsurvey/logreg-v1", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	r.ObservePrediction(OutcomeSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `mindsurvey_predictions_total{outcome="success"} 1`)
	assert.Contains(t, body, `mindsurvey_artifact_info{format="mindsurvey/logreg-v1",trained_at="2026-10-01T00:00:00Z"} 1`)
	assert.Contains(t, body, "mindsurvey_prediction_duration_seconds_bucket")
}
