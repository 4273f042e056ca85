package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/things/{id}", "GET", "418"))

	for _, id := range []string{"1", "2", "3"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/things/"+id, nil))
		require.Equal(t, http.StatusTeapot, rr.Code)
	}

	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/things/{id}", "GET", "418"))
	assert.Equal(t, 3.0, after-before)
}

func TestMiddlewareDefaultsStatusToOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/silent", func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("/silent", "GET", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/silent", nil))
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("/silent", "GET", "200"))

	assert.Equal(t, 1.0, after-before)
}

func TestHandlerExposesCollectors(t *testing.T) {
	Procedures.WithLabelValues("posts.list", "OK").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "inkwell_api_procedure_calls_total"))
}
