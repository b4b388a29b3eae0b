package telemetry

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestDisabled_IsNoop(t *testing.T) {
	tr, err := Setup(Options{Enabled: false})
	require.NoError(t, err)

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})
	wrapped := tr.Wrap(h, "faceless")

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, tr.Shutdown(context.Background()))
}

func TestEnabled_ExportsServerSpans(t *testing.T) {
	var buf bytes.Buffer
	tr, err := Setup(Options{Enabled: true, ServiceName: "faceless-test", Environment: "test", Writer: &buf})
	require.NoError(t, err)

	var sawSpan bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawSpan = trace.SpanContextFromContext(r.Context()).IsValid()
	})

	rec := httptest.NewRecorder()
	tr.Wrap(h, "faceless-http").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	require.NoError(t, tr.Shutdown(context.Background()))
	assert.True(t, sawSpan, "handler should run inside a span")
	assert.Contains(t, buf.String(), "faceless-http")
	assert.Contains(t, buf.String(), "faceless-test")
}
