package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	c := New()

	if c == nil {
		t.Fatal("Expected client to be created")
	}
	if c.HTTPClient == nil {
		t.Fatal("Expected HTTPClient to be initialized")
	}
	if c.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("Expected timeout %v, got %v", defaultTimeout, c.HTTPClient.Timeout)
	}
	if c.Retries != defaultRetries {
		t.Errorf("Expected retries %d, got %d", defaultRetries, c.Retries)
	}
}

func TestNewWith(t *testing.T) {
	tests := []struct {
		name            string
		cfg             Config
		expectedTimeout time.Duration
		expectedRetries int
		expectedUA      string
	}{
		{
			name: "Custom values",
			cfg: Config{
				Timeout:   10 * time.Second,
				Retries:   5,
				UserAgent: "Custom Agent",
			},
			expectedTimeout: 10 * time.Second,
			expectedRetries: 5,
			expectedUA:      "Custom Agent",
		},
		{
			name:            "Zero values use defaults",
			cfg:             Config{},
			expectedTimeout: defaultTimeout,
			expectedRetries: defaultRetries,
			expectedUA:      userAgentValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewWith(tt.cfg)
			if c.HTTPClient.Timeout != tt.expectedTimeout {
				t.Errorf("Expected timeout %v, got %v", tt.expectedTimeout, c.HTTPClient.Timeout)
			}
			if c.Retries != tt.expectedRetries {
				t.Errorf("Expected retries %d, got %d", tt.expectedRetries, c.Retries)
			}
			if c.UserAgent != tt.expectedUA {
				t.Errorf("Expected user agent '%s', got '%s'", tt.expectedUA, c.UserAgent)
			}
		})
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New()
	c.Retries = 3

	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 after retries, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("Expected 3 attempts, got %d", got)
	}
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New()
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 passthrough, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected a single attempt for 4xx, got %d", got)
	}
}

func TestGetSetsUserAgent(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New()
	c.UserAgent = "fillscan-test"
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	_ = resp.Body.Close()

	if seen != "fillscan-test" {
		t.Errorf("Expected custom user agent, got '%s'", seen)
	}
}
