package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Rovitz/spotify2tidal/internal/shared"
)

func TestOAuthHandler(t *testing.T) {
	t.Run("Delivers The Authorization Code", func(t *testing.T) {
		handler := NewOAuthHandler("state-1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=auth-code-42", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Authorization Successful") {
			t.Error("expected success page in response body")
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Code != "auth-code-42" {
			t.Errorf("expected code auth-code-42, got %s", result.Code)
		}
	})

	t.Run("Rejects A State Mismatch", func(t *testing.T) {
		handler := NewOAuthHandler("expected-state")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "invalid state") {
			t.Errorf("expected state error, got %v", result.Error())
		}
	})

	t.Run("Surfaces Provider Errors", func(t *testing.T) {
		handler := NewOAuthHandler("state-1")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state-1&error=access_denied&error_description=User+denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected provider error, got %v", result.Error())
		}
	})

	t.Run("Ignores A Second Callback", func(t *testing.T) {
		handler := NewOAuthHandler("state-1")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=real", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=state-1&code=replayed", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected status 400 on replay, got %d", second.Code)
		}

		result := <-handler.Result()
		if result.Code != "real" {
			t.Errorf("expected first code kept, got %s", result.Code)
		}
	})
}

type pingHandler struct{}

func (pingHandler) Routes() []string { return []string{"/ping", "/pong"} }

func (pingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestBasicRouter(t *testing.T) {
	t.Run("Registers All Handler Routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(pingHandler{})

		for _, path := range []string{"/ping", "/pong"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusNoContent {
				t.Errorf("%s: expected status 204, got %d", path, rec.Code)
			}
		}

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("Filters Methods", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/only", pingHandler{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/only", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status 405, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/only", nil))
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
	})

	t.Run("Runs Middleware In Registration Order", func(t *testing.T) {
		var order []string
		label := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(label("first"), label("second"))
		router.Handle(http.MethodGet, "/traced", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/traced", nil))

		want := "first second handler"
		if got := strings.Join(order, " "); got != want {
			t.Errorf("expected order %q, got %q", want, got)
		}
	})
}

func TestRequestLogger(t *testing.T) {
	t.Run("Logs And Redacts The Query", func(t *testing.T) {
		var buf bytes.Buffer
		mw := RequestLogger(shared.NewLogger(&buf))

		wrapped := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/callback?code=super-secret&state=tok&foo=bar", nil)
		wrapped.ServeHTTP(httptest.NewRecorder(), req)

		logged := buf.String()
		if strings.Contains(logged, "super-secret") {
			t.Error("expected authorization code to be redacted")
		}
		if !strings.Contains(logged, "code=REDACTED") || !strings.Contains(logged, "state=REDACTED") {
			t.Errorf("expected redacted parameters, got %q", logged)
		}
		if !strings.Contains(logged, "foo=bar") {
			t.Errorf("expected benign parameters kept, got %q", logged)
		}
		if !strings.Contains(logged, "204") {
			t.Errorf("expected response status in log, got %q", logged)
		}
	})
}

func TestScrubQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"Empty", "", ""},
		{"Single Sensitive", "code=abc", "code=REDACTED"},
		{"Mixed", "foo=bar&state=x", "foo=bar&state=REDACTED"},
		{"No Value", "flag", "flag"},
		{"Case Insensitive", "TOKEN=x", "TOKEN=REDACTED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scrubQuery(tt.raw); got != tt.want {
				t.Errorf("scrubQuery(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
