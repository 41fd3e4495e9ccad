package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBlockReleaseConservesTotal(t *testing.T) {
	a := NewAccount("u1")
	a.Credit(dec("1000"))
	total := a.Total()

	if err := a.Block(dec("300")); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if !a.Total().Equal(total) {
		t.Errorf("total changed after block: %s != %s", a.Total(), total)
	}
	if !a.Available.Equal(dec("700")) || !a.Blocked.Equal(dec("300")) {
		t.Errorf("after block: available=%s blocked=%s", a.Available, a.Blocked)
	}

	if err := a.Release(dec("300")); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if !a.Available.Equal(dec("1000")) || !a.Blocked.IsZero() {
		t.Errorf("after release: available=%s blocked=%s", a.Available, a.Blocked)
	}
}

func TestBlockInsufficient(t *testing.T) {
	a := NewAccount("u1")
	a.Credit(dec("100"))
	if err := a.Block(dec("100.01")); err == nil {
		t.Fatal("expected error blocking more than available")
	}
	if !a.Available.Equal(dec("100")) || !a.Blocked.IsZero() {
		t.Errorf("failed block must not mutate: available=%s blocked=%s", a.Available, a.Blocked)
	}
}

func TestReleaseMoreThanBlocked(t *testing.T) {
	a := NewAccount("u1")
	a.Credit(dec("100"))
	_ = a.Block(dec("50"))
	if err := a.Release(dec("60")); err == nil {
		t.Fatal("expected error releasing more than blocked")
	}
}

func TestApplyBuyWeightedAverageCost(t *testing.T) {
	a := NewAccount("u1")
	a.ApplyBuy("AAPL", 10, dec("100"))
	a.ApplyBuy("AAPL", 10, dec("200"))

	h, ok := a.Holding("AAPL")
	if !ok {
		t.Fatal("holding missing")
	}
	if h.Quantity != 20 {
		t.Errorf("quantity = %d, want 20", h.Quantity)
	}
	if !h.AvgCost.Equal(dec("150")) {
		t.Errorf("avg cost = %s, want 150", h.AvgCost)
	}
}

func TestApplySellRemovesEmptyHolding(t *testing.T) {
	a := NewAccount("u1")
	a.ApplyBuy("TCS", 5, dec("3500"))

	if err := a.ApplySell("TCS", 3); err != nil {
		t.Fatalf("ApplySell: %v", err)
	}
	if h, _ := a.Holding("TCS"); h.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", h.Quantity)
	}

	if err := a.ApplySell("TCS", 2); err != nil {
		t.Fatalf("ApplySell: %v", err)
	}
	if _, ok := a.Holding("TCS"); ok {
		t.Error("holding should be removed at zero quantity")
	}

	if err := a.ApplySell("TCS", 1); err == nil {
		t.Error("expected error selling from empty holding")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := NewAccount("u1")
	a.Credit(dec("500"))
	a.ApplyBuy("INFY", 2, dec("1450"))

	cp := a.Clone()
	cp.Credit(dec("100"))
	cp.ApplyBuy("INFY", 1, dec("1500"))

	if !a.Available.Equal(dec("500")) {
		t.Errorf("clone mutation leaked into available: %s", a.Available)
	}
	if h, _ := a.Holding("INFY"); h.Quantity != 2 {
		t.Errorf("clone mutation leaked into holdings: %d", h.Quantity)
	}
}
