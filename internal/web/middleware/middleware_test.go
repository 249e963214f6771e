package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/doorsync/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.RemoteAddr))
	})
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := &config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"key-a", "key-b"}}
	h := APIKeyAuth(cfg)(okHandler())

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"no key", "", "", http.StatusUnauthorized},
		{"wrong key", "X-API-Key", "nope", http.StatusForbidden},
		{"header key", "X-API-Key", "key-b", http.StatusOK},
		{"bearer key", "Authorization", "Bearer key-a", http.StatusOK},
		{"bearer wrong key", "Authorization", "bearer key-c", http.StatusForbidden},
		{"basic auth ignored", "Authorization", "Basic a2V5LWE=", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/headers", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want != http.StatusOK && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	h := APIKeyAuth(&config.SecurityConfig{})(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAPIKeyAuth_NoKeysConfigured(t *testing.T) {
	h := APIKeyAuth(&config.SecurityConfig{RequireAPIKey: true})(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-API-Key", "")
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestTrustedRealIP(t *testing.T) {
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-an-ip"})(okHandler())

	tests := []struct {
		name   string
		remote string
		real   string
		xff    string
		want   string
	}{
		{"trusted proxy with X-Real-IP", "10.1.2.3:5000", "203.0.113.7", "", "203.0.113.7"},
		{"trusted single IP with XFF", "192.168.1.5:5000", "", "198.51.100.1, 10.1.2.3", "198.51.100.1"},
		{"untrusted client spoofing", "203.0.113.9:5000", "1.2.3.4", "", "203.0.113.9:5000"},
		{"trusted proxy with garbage header", "10.1.2.3:5000", "garbage", "", "10.1.2.3:5000"},
		{"trusted proxy without headers", "10.1.2.3:5000", "", "", "10.1.2.3:5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.real != "" {
				req.Header.Set("X-Real-IP", tt.real)
			}
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("hello"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/preview", nil))

	out := buf.String()
	for _, want := range []string{`"status":418`, `"bytes":5`, `"path":"/api/preview"`, `"method":"POST"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}
