package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "max-age=5")
	w.WriteHeader(http.StatusTeapot)
})

func TestSecurityKeepsHandlerValues(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "max-age=5", rec.Header().Get("Cache-Control"))
}

func TestBearerToken(t *testing.T) {
	h := BearerToken("s3cret")(ok)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	BearerToken("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRequestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := httptest.NewRecorder()
	RequestLog(zap.New(core).Sugar())(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bundles", nil))

	entries := logs.FilterMessage("webhook request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/bundles", fields["path"])
		assert.EqualValues(t, http.StatusTeapot, fields["status"])
	}
}
