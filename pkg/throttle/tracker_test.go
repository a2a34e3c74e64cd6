package throttle

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "delta seconds", value: "30", want: 30 * time.Second},
		{name: "zero", value: "0", want: 0},
		{name: "negative", value: "-5", want: 0},
		{name: "http date unsupported", value: "Wed, 21 Oct 2026 07:28:00 GMT", want: 0},
		{name: "absent", value: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			if got := ParseRetryAfter(h); got != tt.want {
				t.Errorf("ParseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestTracker_NoCooldownAllowsRequests(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())

	allowed, remaining, err := tracker.ShouldAllowRequest(context.Background(), "api.example.com")
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("ShouldAllowRequest() = false, want true with no cooldown")
	}
	if remaining != 0 {
		t.Errorf("remaining = %v, want 0", remaining)
	}
}

func TestTracker_RecordAndBlock(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())
	ctx := context.Background()

	h := http.Header{}
	h.Set("Retry-After", "30")
	if err := tracker.UpdateFromResponse(ctx, "api.example.com", http.StatusTooManyRequests, h); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	allowed, remaining, err := tracker.ShouldAllowRequest(ctx, "api.example.com")
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("ShouldAllowRequest() = true, want false during cooldown")
	}
	if remaining <= 0 || remaining > 30*time.Second {
		t.Errorf("remaining = %v, want in (0, 30s]", remaining)
	}

	// Other hosts are unaffected.
	allowed, _, err = tracker.ShouldAllowRequest(ctx, "other.example.com")
	if err != nil {
		t.Fatalf("ShouldAllowRequest(other) error = %v", err)
	}
	if !allowed {
		t.Error("cooldown leaked across hosts")
	}
}

func TestTracker_NonThrottlingStatusIgnored(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())
	ctx := context.Background()

	if err := tracker.UpdateFromResponse(ctx, "api.example.com", http.StatusInternalServerError, http.Header{}); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	allowed, _, err := tracker.ShouldAllowRequest(ctx, "api.example.com")
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("500 response recorded a cooldown, want ignored")
	}
}

func TestTracker_DefaultCooldownWithoutRetryAfter(t *testing.T) {
	tracker := NewTracker(setupTestRedis(t), zerolog.Nop())
	ctx := context.Background()

	if err := tracker.UpdateFromResponse(ctx, "api.example.com", http.StatusServiceUnavailable, http.Header{}); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	allowed, remaining, err := tracker.ShouldAllowRequest(ctx, "api.example.com")
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Error("ShouldAllowRequest() = true, want false after 503")
	}
	if remaining > DefaultCooldown {
		t.Errorf("remaining = %v, want <= %v", remaining, DefaultCooldown)
	}
}
