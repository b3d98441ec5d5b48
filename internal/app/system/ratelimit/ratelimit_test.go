package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter_WindowResets(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLimiter(2, time.Minute, clk.now)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Error("third request within the window should be refused")
	}
	if got := l.Remaining("a"); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !l.Allow("b") {
		t.Error("keys are independent")
	}

	clk.advance(time.Minute + time.Second)
	if !l.Allow("a") {
		t.Error("request after the window should pass")
	}
	if got := l.Remaining("a"); got != 1 {
		t.Errorf("Remaining = %d, want 1", got)
	}
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := newLimiter(1, time.Minute, clk.now)

	l.Allow("a")
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset should clear the window")
	}

	clk.advance(2 * time.Minute)
	l.sweep()
	if n := len(l.windows); n != 0 {
		t.Errorf("sweep left %d windows", n)
	}
}

func TestLimiter_CloseStopsSweep(t *testing.T) {
	defer goleak.VerifyNone(t)
	l := New(1, time.Millisecond)
	l.Close()
	l.Close()
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ClientIP(r); got != "10.0.0.9" {
		t.Errorf("RemoteAddr: got %q", got)
	}
	r.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ClientIP(r); got != "10.0.0.2" {
		t.Errorf("X-Real-IP: got %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestSignInLimiter(t *testing.T) {
	sl := NewSignInLimiterWithConfig(100, time.Minute, 2, time.Minute)
	defer sl.Close()
	r := httptest.NewRequest("POST", "/signin", nil)

	for i := 0; i < 2; i++ {
		if ok, _ := sl.Check(r, "Ada@Example.com"); !ok {
			t.Fatalf("attempt %d refused", i+1)
		}
	}
	ok, reason := sl.Check(r, " ada@example.com")
	if ok || reason == "" {
		t.Fatal("third attempt for the same email should be refused")
	}

	sl.ResetEmail("ADA@example.com")
	if ok, _ := sl.Check(r, "ada@example.com"); !ok {
		t.Error("ResetEmail should clear the email window")
	}
}
