package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tabmark/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, r *http.Request) int {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec.Code
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"tabmark.local", "*.example.com"}, logger.Nop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"tabmark.local", http.StatusOK},
		{"tabmark.local:8080", http.StatusOK},
		{"TabMark.Local", http.StatusOK},
		{"app.example.com", http.StatusOK},
		{"example.com", http.StatusForbidden},
		{"evil.com", http.StatusForbidden},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = tt.host
		if got := serve(h, r); got != tt.want {
			t.Errorf("host %q: status %d, want %d", tt.host, got, tt.want)
		}
	}
}

func TestEnforceHostPassthrough(t *testing.T) {
	h := EnforceHost(nil, logger.Nop())(okHandler)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "anything"
	if got := serve(h, r); got != http.StatusOK {
		t.Errorf("status %d, want 200", got)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5555", http.StatusOK},
		{"192.0.2.1:5555", http.StatusForbidden},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remote
		if got := serve(h, r); got != tt.want {
			t.Errorf("remote %q: status %d, want %d", tt.remote, got, tt.want)
		}
	}
}

func TestRateLimitRefills(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	})(okHandler)

	req := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	if c := req("192.0.2.1:1").Code; c != http.StatusOK {
		t.Fatalf("first request: %d", c)
	}
	if c := req("192.0.2.1:1").Code; c != http.StatusOK {
		t.Fatalf("second request: %d", c)
	}

	rec := req("192.0.2.1:1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}

	if c := req("192.0.2.2:1").Code; c != http.StatusOK {
		t.Errorf("other client should have its own bucket, got %d", c)
	}

	now = now.Add(time.Second)
	if c := req("192.0.2.1:1").Code; c != http.StatusOK {
		t.Errorf("request after refill: %d", c)
	}
}

func TestLogRecordsStatus(t *testing.T) {
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	if got := serve(h, httptest.NewRequest(http.MethodGet, "/", nil)); got != http.StatusTeapot {
		t.Errorf("status %d, want 418", got)
	}
}

func TestStatusWriterHijackUnsupported(t *testing.T) {
	sw := &statusWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := sw.Hijack(); err == nil {
		t.Error("Hijack on a recorder should fail")
	}
}
