package report

import "testing"

func TestDecide(t *testing.T) {
	open := &TrackedRecord{ExternalID: "CARD-1", LaneOrStatus: "FAIL", Backend: BackendKanban}

	tests := []struct {
		name     string
		passed   bool
		existing *TrackedRecord
		want     Action
	}{
		{"fail without record creates", false, nil, ActionCreate},
		{"fail with open record reopens", false, open, ActionReopen},
		{"pass with open record closes", true, open, ActionClose},
		{"pass without record is a no-op", true, nil, ActionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.passed, tt.existing); got != tt.want {
				t.Errorf("Decide(%v, %v) = %v, want %v", tt.passed, tt.existing, got, tt.want)
			}
		})
	}
}

func TestActionString(t *testing.T) {
	tests := []struct {
		action Action
		want   string
	}{
		{ActionCreate, "create"},
		{ActionReopen, "reopen"},
		{ActionClose, "close"},
		{ActionNone, "none"},
	}
	for _, tt := range tests {
		if got := tt.action.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.action, got, tt.want)
		}
	}
}
