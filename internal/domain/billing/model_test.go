package billing

import "testing"

func TestSettled(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusPending, false},
		{StatusPartiallyPaid, false},
		{StatusEmergencyPending, false},
		{StatusPendingInsurance, false},
		{StatusPaid, true},
		{StatusInsuranceClaimed, true},
	}
	for _, tc := range cases {
		b := &Billing{Status: tc.status}
		if got := b.Settled(); got != tc.want {
			t.Errorf("Settled() for %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestDeferred(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusPending, false},
		{StatusPaid, false},
		{StatusPendingInsurance, true},
		{StatusEmergencyPending, true},
	}
	for _, tc := range cases {
		b := &Billing{Status: tc.status}
		if got := b.Deferred(); got != tc.want {
			t.Errorf("Deferred() for %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}
