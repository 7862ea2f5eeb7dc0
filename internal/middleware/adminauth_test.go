package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"arpg-auction-gateway/internal/middleware"

	"github.com/stretchr/testify/assert"
)

func adminRequest(t *testing.T, loginKey, header string) *httptest.ResponseRecorder {
	t.Helper()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guard := middleware.NewAdminAuth(loginKey)(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	if header != "" {
		req.Header.Set("X-Login-Key", header)
	}
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	tests := []struct {
		name       string
		loginKey   string
		header     string
		wantStatus int
	}{
		{"valid key", "secret", "secret", http.StatusOK},
		{"wrong key", "secret", "nope", http.StatusUnauthorized},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"disabled when unconfigured", "", "anything", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := adminRequest(t, tt.loginKey, tt.header)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}
