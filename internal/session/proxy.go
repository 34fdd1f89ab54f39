package session

import (
	"fmt"
	"net/url"
	"sync"
	"time"
)

// proxyCooldown is how long a proxy sits out after being flagged bad.
const proxyCooldown = 10 * time.Minute

// ProxyPool hands out proxies round-robin with a per-proxy concurrency
// cap and a cooldown for endpoints that recently failed.
type ProxyPool struct {
	mu       sync.Mutex
	proxies  []*proxyEntry
	next     int
	parallel int
}

type proxyEntry struct {
	url      *url.URL
	inFlight int
	badUntil time.Time
}

// NewProxyPool parses the proxy URLs and builds a pool. maxParallel
// caps concurrent checkouts per endpoint; zero means 1.
func NewProxyPool(proxyURLs []string, maxParallel int) (*ProxyPool, error) {
	if maxParallel <= 0 {
		maxParallel = 1
	}
	pool := &ProxyPool{parallel: maxParallel}
	for _, raw := range proxyURLs {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", raw, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q: missing scheme or host", raw)
		}
		pool.proxies = append(pool.proxies, &proxyEntry{url: u})
	}
	return pool, nil
}

// Size returns the number of configured proxies.
func (p *ProxyPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Checkout returns the next available proxy, skipping endpoints that
// are cooling down or at their concurrency cap. It returns nil when
// the pool is empty or everything is busy; callers then go direct.
func (p *ProxyPool) Checkout() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return nil
	}

	now := time.Now()
	for i := 0; i < len(p.proxies); i++ {
		entry := p.proxies[(p.next+i)%len(p.proxies)]
		if now.Before(entry.badUntil) || entry.inFlight >= p.parallel {
			continue
		}
		entry.inFlight++
		p.next = (p.next + i + 1) % len(p.proxies)
		return entry.url
	}
	return nil
}

// Return releases a checked-out proxy. failed flags the endpoint for
// cooldown so subsequent checkouts skip it.
func (p *ProxyPool) Return(proxy *url.URL, failed bool) {
	if proxy == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, entry := range p.proxies {
		if entry.url == proxy {
			if entry.inFlight > 0 {
				entry.inFlight--
			}
			if failed {
				entry.badUntil = time.Now().Add(proxyCooldown)
			}
			return
		}
	}
}
