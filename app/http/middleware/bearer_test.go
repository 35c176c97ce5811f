package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/km-arc/go-uploads/app/http/middleware"
	gohttp "github.com/km-arc/go-uploads/framework/http"
)

func recordAuth(authorized *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*authorized = gohttp.NewRequest(r).Authorized()
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestBearer(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		header     string
		status     int
		authorized bool
	}{
		{"disabled", "", "", http.StatusNoContent, false},
		{"missing header", "s3cret", "", http.StatusUnauthorized, false},
		{"wrong token", "s3cret", "Bearer nope", http.StatusUnauthorized, false},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized, false},
		{"valid", "s3cret", "Bearer s3cret", http.StatusNoContent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var authorized bool
			h := middleware.Bearer(tt.token)(recordAuth(&authorized))

			req := httptest.NewRequest(http.MethodPost, "/api/files", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.authorized, authorized)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"Unauthenticated."}`, rr.Body.String())
			}
		})
	}
}
