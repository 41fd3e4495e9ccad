package domain

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{Pending, Filled, true},
		{Pending, Partial, true},
		{Pending, Cancelled, true},
		{Pending, Rejected, true},
		{Pending, Expired, true},
		{Partial, Filled, true},
		{Partial, Partial, true},
		{Partial, Cancelled, true},
		{Partial, Expired, true},
		{Partial, Rejected, false},
		{Partial, Pending, false},
		{Filled, Cancelled, false},
		{Cancelled, Pending, false},
		{Expired, Filled, false},
		{Rejected, Partial, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []OrderStatus{Filled, Cancelled, Rejected, Expired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []OrderStatus{Pending, Partial} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		validity Validity
		expires  time.Time
		want     bool
	}{
		{"day past", Day, now.Add(-time.Minute), true},
		{"day future", Day, now.Add(time.Hour), false},
		{"gtd past", GTD, now.Add(-time.Hour), true},
		{"gtc ignores expiry", GTC, now.Add(-time.Hour), false},
		{"ioc ignores expiry", IOC, now.Add(-time.Hour), false},
		{"day without instant", Day, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Validity: tt.validity, ExpiresAt: tt.expires}
			if got := o.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	o := &Order{Quantity: 10, FilledQuantity: 4}
	if got := o.Remaining(); got != 6 {
		t.Errorf("Remaining() = %d, want 6", got)
	}
}
