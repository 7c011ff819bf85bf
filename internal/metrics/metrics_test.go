package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ValidationFailed("user", []string{"email", "mobile"})
	m.ValidationFailed("user", []string{"email"})
	m.ClaimAction("create")
	m.StorageFailed("claim.create")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("user", "email")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationFailures.WithLabelValues("user", "mobile")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ClaimsTotal.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageErrors.WithLabelValues("claim.create")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ValidationFailed("claim", []string{"policy_no"})
		m.ClaimAction("lock")
		m.UserAction("create")
		m.StorageFailed("x")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ClaimAction("lock")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dms_claims_total{action="lock"} 1`)
}
