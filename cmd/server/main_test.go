package main

import (
	"io"
	"testing"

	"github.com/fluentpal/fluentpal/internal/logging"
)

func testLookupEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestResolveSendRequestRateLimit_Default(t *testing.T) {
	logger := logging.New().SetOutput(io.Discard)

	got := resolveSendRequestRateLimit(logger, testLookupEnv(nil))
	if got != defaultSendRequestRateLimit {
		t.Fatalf("expected default %d, got %d", defaultSendRequestRateLimit, got)
	}
}

func TestResolveSendRequestRateLimit_FromEnv(t *testing.T) {
	logger := logging.New().SetOutput(io.Discard)

	got := resolveSendRequestRateLimit(logger, testLookupEnv(map[string]string{
		"SEND_REQUEST_RATE_LIMIT": "100",
	}))
	if got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestResolveSendRequestRateLimit_InvalidValues(t *testing.T) {
	logger := logging.New().SetOutput(io.Discard)

	for _, raw := range []string{"abc", "-5", "0", ""} {
		got := resolveSendRequestRateLimit(logger, testLookupEnv(map[string]string{
			"SEND_REQUEST_RATE_LIMIT": raw,
		}))
		if got != defaultSendRequestRateLimit {
			t.Fatalf("value %q: expected default %d, got %d", raw, defaultSendRequestRateLimit, got)
		}
	}
}
