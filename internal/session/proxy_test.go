package session

import (
	"testing"
	"time"
)

func TestProxyPoolRoundRobin(t *testing.T) {
	pool, err := NewProxyPool([]string{
		"http://proxy-a:8080",
		"http://proxy-b:8080",
	}, 1)
	if err != nil {
		t.Fatalf("NewProxyPool failed: %v", err)
	}

	first := pool.Checkout()
	second := pool.Checkout()
	if first == nil || second == nil {
		t.Fatal("expected two checkouts from a two-proxy pool")
	}
	if first.Host == second.Host {
		t.Errorf("round robin returned the same proxy twice: %s", first.Host)
	}

	// Both at their cap, third checkout must fail.
	if third := pool.Checkout(); third != nil {
		t.Errorf("expected nil when all proxies are at capacity, got %s", third.Host)
	}

	pool.Return(first, false)
	if again := pool.Checkout(); again == nil {
		t.Error("expected a checkout after returning a proxy")
	}
}

func TestProxyPoolCooldown(t *testing.T) {
	pool, err := NewProxyPool([]string{"http://proxy-a:8080"}, 2)
	if err != nil {
		t.Fatalf("NewProxyPool failed: %v", err)
	}

	proxy := pool.Checkout()
	if proxy == nil {
		t.Fatal("expected a proxy")
	}
	pool.Return(proxy, true)

	if p := pool.Checkout(); p != nil {
		t.Errorf("failed proxy should be cooling down, got %s", p.Host)
	}

	// Expire the cooldown manually.
	pool.mu.Lock()
	pool.proxies[0].badUntil = time.Now().Add(-time.Second)
	pool.mu.Unlock()

	if p := pool.Checkout(); p == nil {
		t.Error("expected proxy back after cooldown expired")
	}
}

func TestProxyPoolEmpty(t *testing.T) {
	pool, err := NewProxyPool(nil, 2)
	if err != nil {
		t.Fatalf("NewProxyPool failed: %v", err)
	}
	if pool.Size() != 0 {
		t.Errorf("size = %d, want 0", pool.Size())
	}
	if p := pool.Checkout(); p != nil {
		t.Errorf("empty pool returned %s", p.Host)
	}
	pool.Return(nil, false)
}

func TestProxyPoolInvalidURL(t *testing.T) {
	if _, err := NewProxyPool([]string{"not a url"}, 1); err == nil {
		t.Error("expected error for invalid proxy URL")
	}
	if _, err := NewProxyPool([]string{"://missing-scheme"}, 1); err == nil {
		t.Error("expected error for proxy URL without scheme")
	}
}
