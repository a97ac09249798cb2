package cart

import "testing"

func TestTotals(t *testing.T) {
	crt := Cart{
		Items: []Item{
			{Quantity: 1, Price: 520, Sessions: 8},
			{Quantity: 2, Price: 280, Sessions: 4},
		},
	}

	if got := crt.Total(); got != 1080 {
		t.Fatalf("expected total 1080, got %d", got)
	}
	if got := crt.TotalSessions(); got != 16 {
		t.Fatalf("expected 16 sessions, got %d", got)
	}
}

func TestTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusActive, false},
		{StatusPendingPayment, false},
		{StatusCompleted, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Fatalf("status %s: expected terminal=%v, got %v", tt.status, tt.terminal, got)
		}
	}
}
