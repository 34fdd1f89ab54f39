package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/utils"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Session.RequestTimeout = 5 * time.Second
	cfg.Session.MaxRetries = 3
	return cfg
}

func testLogger() logging.Logger {
	logger := logging.NewMultiLogger()
	logger.SetLevel(logging.ErrorLevel)
	return logger
}

func newOpenSession(t *testing.T, handler http.Handler) (*Session, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess, err := New(server.URL, ModeFast, testConfig(), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if err := sess.Open(context.Background()); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	t.Cleanup(sess.Close)
	return sess, server
}

func handshakeHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "tok-123", Path: "/"})
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func TestOpenCapturesCSRFToken(t *testing.T) {
	sess, _ := newOpenSession(t, handshakeHandler(http.NotFoundHandler()))

	if sess.csrfToken != "tok-123" {
		t.Errorf("csrf token = %q, want tok-123", sess.csrfToken)
	}
}

func TestOpenFailsWithoutCSRFCookie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sess, err := New(server.URL, ModeFast, testConfig(), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	err = sess.Open(context.Background())
	var hs *utils.HandshakeError
	if !errors.As(err, &hs) {
		t.Fatalf("expected HandshakeError, got %v", err)
	}
}

func TestExecuteSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	sess, _ := newOpenSession(t, handshakeHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{"ok":true}`))
	})))

	body, err := sess.Execute(context.Background(), http.MethodPost, "/api/search", []byte(`{}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}

	checks := map[string]string{
		"X-Xsrf-Token":     "tok-123",
		"Sec-Fetch-Mode":   "cors",
		"Sec-Fetch-Site":   "same-origin",
		"Sec-Fetch-Dest":   "empty",
		"Sec-Ch-Ua-Mobile": "?0",
		"Content-Type":     "application/json",
	}
	for header, want := range checks {
		if got.Get(header) != want {
			t.Errorf("header %s = %q, want %q", header, got.Get(header), want)
		}
	}
	if got.Get("User-Agent") == "" {
		t.Error("User-Agent header missing")
	}
	if got.Get("Cookie") == "" {
		t.Error("session cookie not sent on API request")
	}
}

func TestExecuteRateLimited(t *testing.T) {
	var hits atomic.Int32
	sess, _ := newOpenSession(t, handshakeHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})))

	_, err := sess.Execute(context.Background(), http.MethodPost, "/api/search", nil)
	var rl *utils.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %s, want 7s", rl.RetryAfter)
	}
	if hits.Load() != 1 {
		t.Errorf("429 was retried: %d requests", hits.Load())
	}
}

func TestExecuteRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	sess, _ := newOpenSession(t, handshakeHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"recovered":true}`))
	})))

	body, err := sess.Execute(context.Background(), http.MethodPost, "/api/search", nil)
	if err != nil {
		t.Fatalf("Execute failed after retries: %v", err)
	}
	if string(body) != `{"recovered":true}` {
		t.Errorf("body = %s", body)
	}
	if hits.Load() != 3 {
		t.Errorf("requests = %d, want 3", hits.Load())
	}
}

func TestExecuteDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	sess, _ := newOpenSession(t, handshakeHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})))

	_, err := sess.Execute(context.Background(), http.MethodGet, "/api/jobs/nope", nil)
	var rf *utils.RequestFailedError
	if !errors.As(err, &rf) {
		t.Fatalf("expected RequestFailedError, got %v", err)
	}
	if rf.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rf.Status)
	}
	if hits.Load() != 1 {
		t.Errorf("4xx was retried: %d requests", hits.Load())
	}
}

func TestSharedProxyPoolAcrossSessions(t *testing.T) {
	pool, err := NewProxyPool([]string{"http://proxy.test:3128"}, 1)
	if err != nil {
		t.Fatalf("failed to build pool: %v", err)
	}

	// Stealth pins a proxy at creation time; with the endpoint cap at
	// one, a second session sharing the pool must go direct.
	first, err := New("http://127.0.0.1:1", ModeStealth, testConfig(), pool, testLogger())
	if err != nil {
		t.Fatalf("failed to create first session: %v", err)
	}
	if first.pinned == nil {
		t.Fatal("first session did not pin the proxy")
	}

	second, err := New("http://127.0.0.1:1", ModeStealth, testConfig(), pool, testLogger())
	if err != nil {
		t.Fatalf("failed to create second session: %v", err)
	}
	if second.pinned != nil {
		t.Error("second session pinned a proxy past the endpoint cap")
	}

	first.Close()
	if first.pinned != nil {
		t.Error("Close did not release the pinned proxy")
	}

	third, err := New("http://127.0.0.1:1", ModeStealth, testConfig(), pool, testLogger())
	if err != nil {
		t.Fatalf("failed to create third session: %v", err)
	}
	if third.pinned == nil {
		t.Error("released proxy was not handed out again")
	}
	third.Close()
	second.Close()
}

func TestExecuteBeforeOpen(t *testing.T) {
	sess, err := New("http://127.0.0.1:1", ModeFast, testConfig(), nil, testLogger())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	_, err = sess.Execute(context.Background(), http.MethodGet, "/api/jobs", nil)
	var hs *utils.HandshakeError
	if !errors.As(err, &hs) {
		t.Fatalf("expected HandshakeError before Open, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"fast", ModeFast, false},
		{"stealth", ModeStealth, false},
		{"aggressive", ModeAggressive, false},
		{"", ModeStealth, false},
		{"turbo", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("30"); d != 30*time.Second {
		t.Errorf("seconds form = %s, want 30s", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("empty = %s, want 0", d)
	}
	if d := parseRetryAfter("garbage"); d != 0 {
		t.Errorf("garbage = %s, want 0", d)
	}
	future := time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d < 80*time.Second || d > 90*time.Second {
		t.Errorf("http-date form = %s, want about 90s", d)
	}
}
