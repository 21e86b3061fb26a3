package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var secret = []byte("test-secret")

func protected(t *testing.T) http.Handler {
	t.Helper()
	return Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := FromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		}
		w.Write([]byte(c.UserID))
	}))
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := SignToken(secret, Claims{UserID: "user-1", Email: "u@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("SignToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("body: got %q, want user-1", rec.Body.String())
	}
}

func TestMiddlewareRejects(t *testing.T) {
	expired, err := SignToken(secret, Claims{UserID: "user-1"}, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongKey, err := SignToken([]byte("other-secret"), Claims{UserID: "user-1"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"garbage token", "Bearer not.a.token"},
		{"expired token", "Bearer " + expired},
		{"wrong key", "Bearer " + wrongKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(t).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rec.Code)
			}
		})
	}
}
