package session

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/utils"
)

const (
	csrfCookieName = "XSRF-TOKEN"
	csrfHeaderName = "X-XSRF-TOKEN"

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 5 * time.Second
)

// Session is a browser-shaped HTTP client bound to one portal origin.
// Open performs the CSRF handshake; Execute issues paced, retried
// exchanges carrying the session cookie jar and anti-CSRF header.
type Session struct {
	baseURL    string
	mode       Mode
	policy     Policy
	profile    FingerprintProfile
	client     *http.Client
	transport  *http.Transport
	limiter    *rate.Limiter
	pool       *ProxyPool
	maxRetries int
	logger     logging.Logger

	csrfToken string
	pinned    *url.URL
	opened    bool
}

// New builds a Session for baseURL from the session configuration.
// pool is shared across sessions so the per-endpoint parallelism cap
// holds when searches run concurrently; nil means no proxies. The
// session is inert until Open succeeds.
func New(baseURL string, mode Mode, cfg *config.Config, pool *ProxyPool, logger logging.Logger) (*Session, error) {
	policy := PolicyFor(mode)
	switch mode {
	case ModeStealth:
		if cfg.Session.StealthInterval > 0 {
			policy.Interval = cfg.Session.StealthInterval
		}
	case ModeAggressive:
		if cfg.Session.AggroInterval > 0 {
			policy.Interval = cfg.Session.AggroInterval
		}
	}

	if pool == nil {
		pool = &ProxyPool{parallel: 1}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if policy.UseHTTP2 {
		// The portal's bot heuristics treat HTTP/1.1 API traffic as
		// suspect; negotiate h2 like a real Chrome would.
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("failed to enable HTTP/2: %w", err)
		}
	} else {
		transport.ForceAttemptHTTP2 = false
		transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
	}

	var pinned *url.URL
	if !policy.RotateProxy {
		if pinned = pool.Checkout(); pinned != nil {
			transport.Proxy = http.ProxyURL(pinned)
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if policy.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(policy.Interval), 1)
	}

	return &Session{
		baseURL:   baseURL,
		mode:      mode,
		policy:    policy,
		profile:   pickProfile(policy),
		transport: transport,
		client: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Session.RequestTimeout,
			Transport: transport,
		},
		limiter:    limiter,
		pool:       pool,
		pinned:     pinned,
		maxRetries: cfg.Session.MaxRetries,
		logger:     logger,
	}, nil
}

// Mode returns the session's acquisition mode.
func (s *Session) Mode() Mode {
	return s.mode
}

// Open bootstraps the session: it loads the portal entry page so the
// server plants its cookies, then captures the anti-CSRF token. A
// missing token is fatal; the session must not be used.
func (s *Session) Open(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return &utils.HandshakeError{Cause: err}
	}
	s.applyNavigationHeaders(req)

	resp, err := s.do(req)
	if err != nil {
		return &utils.HandshakeError{Cause: err}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &utils.HandshakeError{Cause: fmt.Errorf("entry page returned status %d", resp.StatusCode)}
	}

	token := s.findCSRFCookie()
	if token == "" {
		return &utils.HandshakeError{Cause: fmt.Errorf("portal did not set %s cookie", csrfCookieName)}
	}

	s.csrfToken = token
	s.opened = true
	s.logger.Info("Session opened", map[string]interface{}{
		"mode":     string(s.mode),
		"base_url": s.baseURL,
	})
	return nil
}

// Execute sends one API exchange against the portal, honoring pacing,
// retries and CSRF. It returns the response body on any 2xx status. A
// 429 short-circuits to RateLimitedError without retrying; other
// failures are retried with exponential backoff before surfacing as
// RequestFailedError.
func (s *Session) Execute(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if !s.opened {
		return nil, &utils.HandshakeError{Cause: fmt.Errorf("session not opened")}
	}

	var lastErr error
	attempts := s.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, retryable, err := s.executeOnce(ctx, method, path, body)
		if err == nil {
			return data, nil
		}
		if !retryable || attempt == attempts {
			return nil, err
		}
		lastErr = err

		delay := backoffDelay(attempt)
		s.logger.Debug("Retrying portal request", map[string]interface{}{
			"path":    path,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

// executeOnce runs a single exchange. The second return value reports
// whether the failure is worth retrying.
func (s *Session) executeOnce(ctx context.Context, method, path string, body []byte) ([]byte, bool, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, false, &utils.RequestFailedError{Cause: err}
	}
	s.applyAPIHeaders(req, body != nil)

	resp, err := s.do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, &utils.RequestFailedError{Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, false, &utils.RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, &utils.RequestFailedError{Status: resp.StatusCode}
	case resp.StatusCode >= 400:
		io.Copy(io.Discard, resp.Body)
		return nil, false, &utils.RequestFailedError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, &utils.RequestFailedError{Cause: err}
	}
	return data, false, nil
}

// do routes the request through the shared transport, or through a
// freshly checked-out proxy when the mode rotates per request.
func (s *Session) do(req *http.Request) (*http.Response, error) {
	if !s.policy.RotateProxy || s.pool.Size() == 0 {
		return s.client.Do(req)
	}

	proxy := s.pool.Checkout()
	if proxy == nil {
		return s.client.Do(req)
	}

	rotated := s.transport.Clone()
	rotated.Proxy = http.ProxyURL(proxy)
	if s.policy.UseHTTP2 {
		// Clone drops the negotiated h2 config.
		http2.ConfigureTransport(rotated)
	}
	viaProxy := &http.Client{
		Jar:       s.client.Jar,
		Timeout:   s.client.Timeout,
		Transport: rotated,
	}
	resp, err := viaProxy.Do(req)
	s.pool.Return(proxy, err != nil)
	return resp, err
}

// Close drops the session state, releases the pinned proxy back to the
// shared pool and closes idle connections.
func (s *Session) Close() {
	s.opened = false
	s.csrfToken = ""
	if s.pinned != nil {
		s.pool.Return(s.pinned, false)
		s.pinned = nil
	}
	s.transport.CloseIdleConnections()
}

// applyNavigationHeaders shapes the handshake request like a browser
// address-bar navigation.
func (s *Session) applyNavigationHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.profile.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", s.profile.AcceptLanguage)
	req.Header.Set("Sec-Ch-Ua", s.profile.SecChUA)
	req.Header.Set("Sec-Ch-Ua-Mobile", s.profile.SecChUAMobile)
	req.Header.Set("Sec-Ch-Ua-Platform", s.profile.SecChUAPlatform)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// applyAPIHeaders shapes an API request like the portal's own
// single-page app issuing a same-origin XHR.
func (s *Session) applyAPIHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("User-Agent", s.profile.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", s.profile.AcceptLanguage)
	req.Header.Set("Sec-Ch-Ua", s.profile.SecChUA)
	req.Header.Set("Sec-Ch-Ua-Mobile", s.profile.SecChUAMobile)
	req.Header.Set("Sec-Ch-Ua-Platform", s.profile.SecChUAPlatform)
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Referer", s.baseURL+"/")
	req.Header.Set("Origin", s.baseURL)
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.csrfToken != "" {
		req.Header.Set(csrfHeaderName, s.csrfToken)
	}
}

// findCSRFCookie pulls the anti-CSRF token out of the cookie jar.
func (s *Session) findCSRFCookie() string {
	base, err := url.Parse(s.baseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range s.client.Jar.Cookies(base) {
		if cookie.Name == csrfCookieName {
			return cookie.Value
		}
	}
	return ""
}

// backoffDelay doubles from the base per attempt, capped, with jitter
// so paced retries from parallel searches don't align.
func backoffDelay(attempt int) time.Duration {
	delay := retryBaseDelay << (attempt - 1)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(delay) / 2))
	return delay/2 + jitter
}

// parseRetryAfter reads the Retry-After header in either seconds or
// HTTP-date form. Unparseable values yield zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
