package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/missionhub/internal/app/system/ratelimit"
)

func TestLimiterAllowAndReset(t *testing.T) {
	l := ratelimit.New(2, time.Minute)

	if !l.Allow("k") || !l.Allow("k") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("k") {
		t.Error("third request in the window should be blocked")
	}
	if !l.Allow("other") {
		t.Error("keys must not share windows")
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("reset should open a fresh window")
	}
}

func TestLoginLimiterKeysEmailCaseInsensitively(t *testing.T) {
	ll := ratelimit.NewLoginLimiter()

	for i := 0; i < 5; i++ {
		r := httptest.NewRequest("POST", "/login", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		if allowed, _ := ll.Check(r, "Pat@Test.com"); !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	r := httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	if allowed, reason := ll.Check(r, "  pat@test.com "); allowed {
		t.Error("sixth attempt for the same account should be blocked")
	} else if reason == "" {
		t.Error("blocked attempts should carry a reason")
	}

	ll.ResetEmail("pat@test.com")
	r = httptest.NewRequest("POST", "/login", nil)
	r.RemoteAddr = "10.0.0.3:1234"
	if allowed, _ := ll.Check(r, "pat@test.com"); !allowed {
		t.Error("reset should allow the account again")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	tests := []struct {
		name string
		xff  string
		xri  string
		addr string
		want string
	}{
		{"forwarded chain", "203.0.113.9, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.9"},
		{"real ip", "", "203.0.113.7", "10.0.0.2:80", "203.0.113.7"},
		{"remote addr", "", "", "10.0.0.2:80", "10.0.0.2"},
		{"remote addr without port", "", "", "10.0.0.2", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.addr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ratelimit.ClientIP(r); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
