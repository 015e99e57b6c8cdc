package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Strob0t/OnboardForge/internal/logger"
)

func serveRequestID(t *testing.T, header string) (ctxID, respID string) {
	t.Helper()
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ctxID = logger.RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if header != "" {
		req.Header.Set(HeaderRequestID, header)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return ctxID, rec.Header().Get(HeaderRequestID)
}

func TestRequestIDGenerated(t *testing.T) {
	ctxID, respID := serveRequestID(t, "")
	if respID == "" {
		t.Fatal("expected X-Request-ID in response header")
	}
	if _, err := uuid.Parse(respID); err != nil {
		t.Errorf("expected a UUID, got %q: %v", respID, err)
	}
	if ctxID != respID {
		t.Errorf("context id %q differs from header %q", ctxID, respID)
	}
}

func TestRequestIDPropagated(t *testing.T) {
	const existingID = "my-custom-id-123"

	ctxID, respID := serveRequestID(t, existingID)
	if ctxID != existingID {
		t.Errorf("expected %q in context, got %q", existingID, ctxID)
	}
	if respID != existingID {
		t.Errorf("expected %q in response header, got %q", existingID, respID)
	}
}

func TestRequestIDReplacesInvalid(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("x", maxRequestIDLen+1)} {
		_, respID := serveRequestID(t, bad)
		if respID == bad {
			t.Errorf("expected %q to be replaced", bad)
		}
		if _, err := uuid.Parse(respID); err != nil {
			t.Errorf("expected a UUID replacement, got %q", respID)
		}
	}
}
