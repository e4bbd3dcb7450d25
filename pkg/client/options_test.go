package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/turtacn/ipdash/internal/infrastructure/cache"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
)

func TestWithHTTPClient(t *testing.T) {
	customClient := &http.Client{Timeout: 60 * time.Second}
	c := &Client{}

	WithHTTPClient(customClient)(c)
	if c.httpClient != customClient {
		t.Error("WithHTTPClient did not set custom HTTP client")
	}

	WithHTTPClient(nil)(c)
	if c.httpClient != customClient {
		t.Error("WithHTTPClient(nil) replaced the HTTP client")
	}
}

func TestWithLogger(t *testing.T) {
	c := &Client{logger: logging.NewNopLogger()}

	WithLogger(nil)(c)
	if c.logger == nil {
		t.Error("WithLogger(nil) cleared the logger")
	}

	WithLogger(logging.NewDevelopmentLogger())(c)
	if c.logger == nil {
		t.Error("WithLogger did not set logger")
	}
}

func TestWithRetryMax(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive value", 5, 5},
		{"zero value", 0, 0},
		{"negative value", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryMax: 3}
			WithRetryMax(tt.input)(c)
			if c.retryMax != tt.expected {
				t.Errorf("WithRetryMax(%d): got %d, want %d", tt.input, c.retryMax, tt.expected)
			}
		})
	}
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name      string
		min       time.Duration
		max       time.Duration
		expectMin time.Duration
		expectMax time.Duration
	}{
		{"valid range", 1 * time.Second, 5 * time.Second, 1 * time.Second, 5 * time.Second},
		{"equal values", 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		{"zero min", 0, 5 * time.Second, 0, 0},
		{"max less than min", 5 * time.Second, 2 * time.Second, 5 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{}
			WithRetryWait(tt.min, tt.max)(c)
			if c.retryWaitMin != tt.expectMin {
				t.Errorf("retryWaitMin: got %v, want %v", c.retryWaitMin, tt.expectMin)
			}
			if c.retryWaitMax != tt.expectMax {
				t.Errorf("retryWaitMax: got %v, want %v", c.retryWaitMax, tt.expectMax)
			}
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldSet bool
	}{
		{"non-empty string", "custom-agent/1.0", true},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{userAgent: "default"}
			WithUserAgent(tt.input)(c)

			want := "default"
			if tt.shouldSet {
				want = tt.input
			}
			if c.userAgent != want {
				t.Errorf("WithUserAgent(%q): got %q, want %q", tt.input, c.userAgent, want)
			}
		})
	}
}

func TestWithTimeout(t *testing.T) {
	c := &Client{}
	WithTimeout(-time.Second)(c)
	if c.timeout != 0 {
		t.Errorf("negative timeout applied: %v", c.timeout)
	}
	WithTimeout(3 * time.Second)(c)
	if c.timeout != 3*time.Second {
		t.Errorf("timeout: got %v, want 3s", c.timeout)
	}
}

func TestWithCache(t *testing.T) {
	store := cache.NewNoopCache()

	c := &Client{}
	WithCache(store, 0)(c)
	if c.cache == nil || c.cacheTTL != DefaultCacheTTL {
		t.Errorf("WithCache(store, 0): cache=%v ttl=%v", c.cache, c.cacheTTL)
	}

	WithCache(store, time.Minute)(c)
	if c.cacheTTL != time.Minute {
		t.Errorf("ttl: got %v, want 1m", c.cacheTTL)
	}
}
