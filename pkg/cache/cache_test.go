package cache

import (
	"net/http"
	"testing"
	"time"
)

func TestEntryExpiry(t *testing.T) {
	fresh := &Entry{Expires: time.Now().Add(60 * time.Second)}
	if fresh.IsExpired() {
		t.Error("fresh entry reported expired")
	}
	if fresh.TTL() <= 0 {
		t.Errorf("fresh entry TTL = %v, want > 0", fresh.TTL())
	}

	stale := &Entry{Expires: time.Now().Add(-time.Second)}
	if !stale.IsExpired() {
		t.Error("stale entry reported fresh")
	}
	if stale.TTL() != 0 {
		t.Errorf("stale entry TTL = %v, want 0", stale.TTL())
	}
}

func TestFreshnessTTL(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		wantMin time.Duration
		wantMax time.Duration
	}{
		{
			name:    "max-age",
			headers: map[string]string{"Cache-Control": "public, max-age=120"},
			wantMin: 120 * time.Second,
			wantMax: 120 * time.Second,
		},
		{
			name:    "no-store",
			headers: map[string]string{"Cache-Control": "no-store"},
		},
		{
			name:    "no-cache",
			headers: map[string]string{"Cache-Control": "no-cache, max-age=120"},
		},
		{
			name:    "expires in the future",
			headers: map[string]string{"Expires": time.Now().Add(90 * time.Second).UTC().Format(http.TimeFormat)},
			wantMin: 80 * time.Second,
			wantMax: 90 * time.Second,
		},
		{
			name:    "expires in the past",
			headers: map[string]string{"Expires": time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)},
		},
		{
			name:    "malformed expires",
			headers: map[string]string{"Expires": "not-a-date"},
		},
		{
			name: "no headers",
		},
		{
			name:    "max-age zero",
			headers: map[string]string{"Cache-Control": "max-age=0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got := FreshnessTTL(h)
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("FreshnessTTL() = %v, want in [%v, %v]", got, tt.wantMin, tt.wantMax)
			}
		})
	}
}
