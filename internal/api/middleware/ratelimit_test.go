package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedRequest(handler http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		if w := limitedRequest(handler, "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, w.Code)
		}
	}

	if w := limitedRequest(handler, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Errorf("over-limit status = %d, want 429", w.Code)
	}

	// A different IP has its own bucket.
	if w := limitedRequest(handler, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Errorf("other IP status = %d, want 200", w.Code)
	}

	// Clear resets all buckets.
	rl.Clear()
	if w := limitedRequest(handler, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Errorf("after Clear status = %d, want 200", w.Code)
	}
}

func TestRateLimiterStatus(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	limitedRequest(handler, "10.0.0.1:1234")
	limitedRequest(handler, "10.0.0.1:1234")

	status := rl.Status()
	if status.Limit != 5 {
		t.Errorf("Limit = %d, want 5", status.Limit)
	}
	if len(status.Entries) != 1 {
		t.Fatalf("len(Entries) = %d, want 1", len(status.Entries))
	}
	if status.Entries[0].Count != 2 {
		t.Errorf("Count = %d, want 2", status.Entries[0].Count)
	}
}
