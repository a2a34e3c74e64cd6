package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opcall-go/opcall/pkg/descriptor"
)

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff != 1*time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", config.InitialBackoff)
	}
	if config.MaxBackoff != 30*time.Second {
		t.Errorf("MaxBackoff = %v, want 30s", config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfigForErrorClass(t *testing.T) {
	tests := []struct {
		name             string
		errorClass       ErrorClass
		expectedInitial  time.Duration
		expectedMax      time.Duration
		expectedAttempts int
	}{
		{
			name:             "server error config",
			errorClass:       ErrorClassServer,
			expectedInitial:  1 * time.Second,
			expectedMax:      10 * time.Second,
			expectedAttempts: 3,
		},
		{
			name:             "rate limit config",
			errorClass:       ErrorClassRateLimit,
			expectedInitial:  5 * time.Second,
			expectedMax:      60 * time.Second,
			expectedAttempts: 3,
		},
		{
			name:             "network error config",
			errorClass:       ErrorClassNetwork,
			expectedInitial:  2 * time.Second,
			expectedMax:      30 * time.Second,
			expectedAttempts: 3,
		},
		{
			name:             "unknown error class uses default",
			errorClass:       "",
			expectedInitial:  1 * time.Second,
			expectedMax:      30 * time.Second,
			expectedAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := RetryConfigForErrorClass(tt.errorClass)

			if config.InitialBackoff != tt.expectedInitial {
				t.Errorf("InitialBackoff = %v, want %v", config.InitialBackoff, tt.expectedInitial)
			}
			if config.MaxBackoff != tt.expectedMax {
				t.Errorf("MaxBackoff = %v, want %v", config.MaxBackoff, tt.expectedMax)
			}
			if config.MaxAttempts != tt.expectedAttempts {
				t.Errorf("MaxAttempts = %d, want %d", config.MaxAttempts, tt.expectedAttempts)
			}
		})
	}
}

func testRequest() *Request {
	return &Request{Verb: descriptor.VerbGet, URL: "https://api.example.com/widgets"}
}

func TestRetryTransport_SuccessNoRetry(t *testing.T) {
	callCount := 0
	inner := Func(func(ctx context.Context, req *Request) (*Response, error) {
		callCount++
		return &Response{StatusCode: 200}, nil
	})

	tr := NewRetryTransport(inner)
	resp, err := tr.Do(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if callCount != 1 {
		t.Errorf("calls = %d, want 1", callCount)
	}
}

func TestRetryTransport_ClientErrorNotRetried(t *testing.T) {
	callCount := 0
	inner := Func(func(ctx context.Context, req *Request) (*Response, error) {
		callCount++
		return &Response{StatusCode: 404},
			&Error{StatusCode: 404, Class: ErrorClassClient, Message: "404 Not Found"}
	})

	tr := NewRetryTransport(inner)
	_, err := tr.Do(context.Background(), testRequest())
	if err == nil {
		t.Fatal("Do() error = nil, want client error")
	}
	if callCount != 1 {
		t.Errorf("calls = %d, want 1 (no retries for 4xx)", callCount)
	}
	if errors.Is(err, ErrRetryExhausted) {
		t.Error("client error reported as retry exhaustion")
	}
}

func TestRetryTransport_SuccessAfterRetry(t *testing.T) {
	callCount := 0
	inner := Func(func(ctx context.Context, req *Request) (*Response, error) {
		callCount++
		if callCount < 2 {
			return nil, &Error{StatusCode: 500, Class: ErrorClassServer, Message: "500"}
		}
		return &Response{StatusCode: 200}, nil
	})

	tr := NewRetryTransport(inner)
	start := time.Now()
	resp, err := tr.Do(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if callCount != 2 {
		t.Errorf("calls = %d, want 2", callCount)
	}

	// One server-class backoff of ~1s with ±20% jitter must have elapsed.
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("elapsed = %v, want a real backoff wait", elapsed)
	}
}

func TestRetryTransport_Exhaustion(t *testing.T) {
	callCount := 0
	inner := Func(func(ctx context.Context, req *Request) (*Response, error) {
		callCount++
		return nil, &Error{StatusCode: 500, Class: ErrorClassServer, Message: "500"}
	})

	tr := NewRetryTransport(inner)
	_, err := tr.Do(context.Background(), testRequest())
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Do() error = %v, want ErrRetryExhausted", err)
	}
	if callCount != 3 {
		t.Errorf("calls = %d, want 3 (MaxAttempts)", callCount)
	}
}

func TestRetryTransport_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	inner := Func(func(c context.Context, req *Request) (*Response, error) {
		callCount++
		cancel() // cancel as soon as the first attempt fails
		return nil, &Error{StatusCode: 500, Class: ErrorClassServer, Message: "500"}
	})

	tr := NewRetryTransport(inner)
	_, err := tr.Do(ctx, testRequest())
	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("Do() error = %v, want ErrContextCancelled", err)
	}
	if callCount != 1 {
		t.Errorf("calls = %d, want 1 (no call after cancellation)", callCount)
	}
}
