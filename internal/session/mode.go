// Package session provides a browser-shaped HTTP session for talking
// to job portals without tripping bot heuristics. It bundles Chrome
// header emulation, a CSRF cookie handshake, paced retries and
// optional proxy rotation behind a single Execute call.
package session

import (
	"fmt"
	"math/rand"
	"time"
)

// Mode selects the acquisition posture of a session.
type Mode string

const (
	// ModeFast trades stealth for speed: no pacing, HTTP/1.1, direct
	// connection.
	ModeFast Mode = "fast"
	// ModeStealth paces requests and keeps the full browser
	// fingerprint including HTTP/2.
	ModeStealth Mode = "stealth"
	// ModeAggressive keeps the browser fingerprint but shortens the
	// pacing interval and rotates proxies per request.
	ModeAggressive Mode = "aggressive"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFast, ModeStealth, ModeAggressive:
		return Mode(s), nil
	case "":
		return ModeStealth, nil
	default:
		return "", fmt.Errorf("unknown session mode %q", s)
	}
}

// Policy describes the per-mode knobs of a session.
type Policy struct {
	Interval     time.Duration // minimum spacing between requests, 0 = unpaced
	UseHTTP2     bool
	RotateProxy  bool // checkout a fresh proxy per request
	HeaderJitter bool // vary the Chrome profile per session
}

// PolicyFor returns the built-in policy of a mode. Intervals may be
// overridden from configuration.
func PolicyFor(mode Mode) Policy {
	switch mode {
	case ModeFast:
		return Policy{Interval: 0, UseHTTP2: false}
	case ModeAggressive:
		return Policy{Interval: 800 * time.Millisecond, UseHTTP2: true, RotateProxy: true, HeaderJitter: true}
	default:
		return Policy{Interval: 1500 * time.Millisecond, UseHTTP2: true, HeaderJitter: true}
	}
}

// FingerprintProfile is one consistent set of Chrome identity headers.
// All fields must agree on the advertised browser version; mixing
// versions across headers is a classic bot tell.
type FingerprintProfile struct {
	UserAgent       string
	SecChUA         string
	SecChUAMobile   string
	SecChUAPlatform string
	AcceptLanguage  string
}

var chromeProfiles = []FingerprintProfile{
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		SecChUA:         `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"Windows"`,
		AcceptLanguage:  "en-US,en;q=0.9,de;q=0.8",
	},
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		SecChUA:         `"Google Chrome";v="123", "Not:A-Brand";v="8", "Chromium";v="123"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"Windows"`,
		AcceptLanguage:  "de-CH,de;q=0.9,en;q=0.8",
	},
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		SecChUA:         `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`,
		SecChUAMobile:   "?0",
		SecChUAPlatform: `"macOS"`,
		AcceptLanguage:  "en-US,en;q=0.9,fr;q=0.8",
	},
}

// pickProfile selects the session's fingerprint. Fast mode always uses
// the primary profile so results stay reproducible.
func pickProfile(policy Policy) FingerprintProfile {
	if !policy.HeaderJitter {
		return chromeProfiles[0]
	}
	return chromeProfiles[rand.Intn(len(chromeProfiles))]
}
