package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"direct", New(KindInsufficientFunds, "not enough"), KindInsufficientFunds},
		{"wrapped", fmt.Errorf("placing order: %w", New(KindMarketClosed, "NSE closed")), KindMarketClosed},
		{"with cause", Wrap(KindQuoteUnavailable, "oracle", errors.New("timeout")), KindQuoteUnavailable},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindQuoteUnavailable, "fetch quote", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find cause through %v", err)
	}
	if !IsKind(err, KindQuoteUnavailable) {
		t.Fatalf("expected quote_unavailable kind, got %q", KindOf(err))
	}
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(KindInvalidState, "cancel order", errors.New("already FILLED"))
	want := "cancel order: already FILLED"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if got := New(KindNotFound, "").Error(); got != "not_found" {
		t.Errorf("empty message Error() = %q, want kind fallback", got)
	}
}
