package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.SweepPromoted.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(a.SweepPromoted))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.SweepPromoted))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.AuthzDecisions.WithLabelValues("orders", "update", "deny", "forbidden_by_exclusivity").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "restaurant_authz_decisions_total")
	assert.Contains(t, rec.Body.String(), `reason="forbidden_by_exclusivity"`)
}
