package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/loreforge-api/internal/api/shared"
)

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	var capturedTraceID string
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedTraceID = shared.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/jobs", nil)
	recorder := httptest.NewRecorder()

	TraceMiddleware(nextHandler).ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Len(t, capturedTraceID, shared.TraceIDLength*2)
}

func TestTraceMiddleware_UniquePerRequest(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[shared.GetTraceID(r.Context())] = true
	})

	handler := TraceMiddleware(nextHandler)
	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	}

	assert.Len(t, seen, 5)
}
