package utils

import (
	"context"
	"testing"
)

func TestActiveCallsChannel(t *testing.T) {
	if got := ActiveCallsChannel("t1"); got != "active_calls:t1" {
		t.Fatalf("unexpected channel name: %q", got)
	}
}

func TestNotifyChannelValidation(t *testing.T) {
	if err := NotifyChannel(context.Background(), nil, "c", "m"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
