package storefront

import "testing"

func intp(v int) *int { return &v }

func TestCheckSessions(t *testing.T) {
	tests := []struct {
		name    string
		item    ItemNew
		wantErr bool
	}{
		{"fixed with sessions", ItemNew{Kind: KindFixed, Sessions: intp(8)}, false},
		{"fixed without sessions", ItemNew{Kind: KindFixed}, true},
		{"fixed with both", ItemNew{Kind: KindFixed, Sessions: intp(8), TotalSessions: intp(8)}, true},
		{"monthly with total", ItemNew{Kind: KindMonthly, TotalSessions: intp(12)}, false},
		{"monthly without total", ItemNew{Kind: KindMonthly}, true},
		{"monthly with both", ItemNew{Kind: KindMonthly, Sessions: intp(4), TotalSessions: intp(12)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.CheckSessions()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckSessionsOnUpdate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{"fixed intact", Item{Kind: KindFixed, Sessions: intp(8)}, false},
		{"fixed gained total", Item{Kind: KindFixed, Sessions: intp(8), TotalSessions: intp(4)}, true},
		{"fixed lost sessions", Item{Kind: KindFixed}, true},
		{"monthly intact", Item{Kind: KindMonthly, TotalSessions: intp(12)}, false},
		{"monthly gained sessions", Item{Kind: KindMonthly, Sessions: intp(4), TotalSessions: intp(12)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.CheckSessions()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSessionCount(t *testing.T) {
	fixed := Item{Kind: KindFixed, Sessions: intp(8)}
	if got := fixed.SessionCount(); got != 8 {
		t.Fatalf("fixed item: expected 8 sessions, got %d", got)
	}

	monthly := Item{Kind: KindMonthly, TotalSessions: intp(12)}
	if got := monthly.SessionCount(); got != 12 {
		t.Fatalf("monthly item: expected 12 sessions, got %d", got)
	}

	broken := Item{Kind: KindFixed}
	if got := broken.SessionCount(); got != 0 {
		t.Fatalf("item without counts: expected 0 sessions, got %d", got)
	}
}
