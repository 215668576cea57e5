package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("/classify", "POST", 400, 10*time.Millisecond)
	m.ObserveRequest("/classify", "POST", 400, 20*time.Millisecond)
	m.ObserveRequest("/health", "GET", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/classify", "POST", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("/health", "GET", "200")))
}

func TestObserveClassificationAndModelGauge(t *testing.T) {
	m := New()

	m.ObserveClassification("glass", 30*time.Millisecond)
	m.SetModelLoaded(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("glass")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelLoaded))

	m.SetModelLoaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.modelLoaded))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.SetModelLoaded(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "model_loaded 1")
}
