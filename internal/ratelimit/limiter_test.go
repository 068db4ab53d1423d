package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllowReserve_UserLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxPerUser: 3,
		MaxPerIP:   100,
		Window:     time.Minute,
		Clock:      clock,
	})
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if result := limiter.AllowReserve(1, "192.168.1.1"); !result.Allowed {
			t.Fatalf("attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
	}

	clock.Advance(20 * time.Second)
	result := limiter.AllowReserve(1, "192.168.1.1")
	if result.Allowed {
		t.Fatal("fourth attempt within the window should be blocked")
	}
	if result.Reason != "user_limit" {
		t.Errorf("Expected reason 'user_limit', got '%s'", result.Reason)
	}
	if result.RetryAfter != 40*time.Second {
		t.Errorf("Expected retry after 40s, got %s", result.RetryAfter)
	}

	// Other users are unaffected.
	if result := limiter.AllowReserve(2, "192.168.1.1"); !result.Allowed {
		t.Errorf("a different user should be allowed, got %s", result.Reason)
	}

	clock.Advance(41 * time.Second)
	if result := limiter.AllowReserve(1, "192.168.1.1"); !result.Allowed {
		t.Errorf("a new window should allow the user again, got %s", result.Reason)
	}
}

func TestAllowReserve_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxPerUser: 100,
		MaxPerIP:   2,
		Window:     time.Minute,
		Clock:      clock,
	})
	defer limiter.Close()

	limiter.AllowReserve(1, "203.0.113.50")
	limiter.AllowReserve(2, "203.0.113.50")

	result := limiter.AllowReserve(3, "203.0.113.50")
	if result.Allowed {
		t.Fatal("third attempt from the same IP should be blocked")
	}
	if result.Reason != "ip_limit" {
		t.Errorf("Expected reason 'ip_limit', got '%s'", result.Reason)
	}
}

func TestAllowReserve_RejectedAttemptsAreNotCounted(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxPerUser: 1,
		MaxPerIP:   2,
		Window:     time.Minute,
		Clock:      clock,
	})
	defer limiter.Close()

	limiter.AllowReserve(1, "192.168.1.1")
	for i := 0; i < 5; i++ {
		if result := limiter.AllowReserve(1, "192.168.1.1"); result.Allowed {
			t.Fatalf("attempt %d should be blocked", i+2)
		}
	}
	// The IP has only one recorded attempt, so another user still fits.
	if result := limiter.AllowReserve(2, "192.168.1.1"); !result.Allowed {
		t.Errorf("expected second user to be allowed, got %s", result.Reason)
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50", // Rightmost non-private
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1", // Last one when all private
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100", // Uses RemoteAddr, ignores spoofed XFF
		},
		{
			name:       "TrustProxy=false, ignores X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetClientIP_SpoofingPrevention(t *testing.T) {
	// Attacker sends fake X-Forwarded-For header
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4") // Attacker-supplied
	r.RemoteAddr = "192.168.1.100:54321"       // Real connection

	// With TrustProxy=false, the fake header is ignored
	got := GetClientIP(r, false)
	if got != "192.168.1.100" {
		t.Errorf("Should ignore X-Forwarded-For when TrustProxy=false, got %q", got)
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter == nil {
		t.Fatal("New(nil) should return a valid limiter")
	}
	if limiter.config.MaxPerUser != 10 || limiter.config.Window != time.Minute {
		t.Error("New(nil) should use default config")
	}
}

func TestNew_DerivesIPLimit(t *testing.T) {
	limiter := New(&Config{MaxPerUser: 4})
	defer limiter.Close()

	if limiter.config.MaxPerIP != 12 {
		t.Errorf("Expected MaxPerIP 12, got %d", limiter.config.MaxPerIP)
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)

	// Trigger cleanup goroutine
	limiter.AllowReserve(1, "1.2.3.4")

	// Close should not hang
	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
		// Success
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{
		MaxPerUser: 50,
		MaxPerIP:   1000,
		Window:     time.Minute,
		Clock:      clock,
	})
	defer limiter.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if limiter.AllowReserve(7, "192.168.1.1").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("Expected exactly 50 allowed attempts, got %d", allowed)
	}
}

func TestCleanupDropsIdleEntries(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{MaxPerUser: 1, Window: time.Minute, Clock: clock})
	defer limiter.Close()

	limiter.AllowReserve(1, "192.168.1.1")
	clock.Advance(2 * time.Minute)
	limiter.cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.byUser) != 0 || len(limiter.byIP) != 0 {
		t.Errorf("expected idle entries to be removed")
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"192.168.255.255", true},
		{"127.0.0.1", true},
		// IPv6 private/reserved
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true}, // Link-local
		// IPv4-mapped IPv6 addresses (must match their IPv4 equivalents)
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:172.16.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:8.8.8.8", false},   // Public IP in IPv4-mapped format
		{"::ffff:1.1.1.1", false},   // Public IP in IPv4-mapped format
		// Public IPs
		{"203.0.113.50", false},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2001:4860:4860::8888", false}, // Google DNS IPv6
		// Invalid
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			got := isPrivateIP(tt.ip)
			if got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}
