package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
)

func newOrder(id, user string, status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:       id,
		UserID:   user,
		Symbol:   "AAPL",
		Market:   "NASDAQ",
		Side:     domain.Buy,
		Type:     domain.Limit,
		Quantity: 10,
		Status:   status,
		Version:  1,
	}
}

func TestFindOrderReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	if err := repo.SaveOrder(ctx, newOrder("o1", "u1", domain.Pending)); err != nil {
		t.Fatal(err)
	}

	got, err := repo.FindOrder(ctx, "o1")
	if err != nil {
		t.Fatal(err)
	}
	got.Status = domain.Filled

	again, _ := repo.FindOrder(ctx, "o1")
	if again.Status != domain.Pending {
		t.Error("mutation of returned order leaked into store")
	}
}

func TestFindOrderNotFound(t *testing.T) {
	repo := NewRepo()
	_, err := repo.FindOrder(context.Background(), "missing")
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Errorf("want not_found, got %v", err)
	}
}

func TestUpdateOrderCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	_ = repo.SaveOrder(ctx, newOrder("o1", "u1", domain.Pending))

	tx, _ := repo.BeginTx(ctx)
	o, _ := repo.FindOrder(ctx, "o1")
	o.Status = domain.Filled
	if err := tx.UpdateOrder(ctx, o, o.Version); err != nil {
		t.Fatalf("UpdateOrder: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	stored, _ := repo.FindOrder(ctx, "o1")
	if stored.Status != domain.Filled {
		t.Errorf("status = %s", stored.Status)
	}
	if stored.Version != 2 {
		t.Errorf("version = %d, want 2", stored.Version)
	}
}

func TestUpdateOrderCASConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	_ = repo.SaveOrder(ctx, newOrder("o1", "u1", domain.Pending))

	// Both writers read version 1.
	first, _ := repo.FindOrder(ctx, "o1")
	second, _ := repo.FindOrder(ctx, "o1")

	tx1, _ := repo.BeginTx(ctx)
	first.Status = domain.Filled
	if err := tx1.UpdateOrder(ctx, first, first.Version); err != nil {
		t.Fatal(err)
	}
	if err := tx1.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	tx2, _ := repo.BeginTx(ctx)
	second.Status = domain.Cancelled
	err := tx2.UpdateOrder(ctx, second, second.Version)
	if err == nil {
		err = tx2.Commit(ctx)
	}
	if !errs.IsKind(err, errs.KindConflict) {
		t.Errorf("want conflict, got %v", err)
	}

	stored, _ := repo.FindOrder(ctx, "o1")
	if stored.Status != domain.Filled {
		t.Errorf("loser applied side effects: %s", stored.Status)
	}
}

func TestCommitConflictDiscardsWholeTx(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	_ = repo.SaveOrder(ctx, newOrder("o1", "u1", domain.Pending))

	o, _ := repo.FindOrder(ctx, "o1")
	tx, _ := repo.BeginTx(ctx)
	o.Status = domain.Filled
	if err := tx.UpdateOrder(ctx, o, o.Version); err != nil {
		t.Fatal(err)
	}
	acct := domain.NewAccount("u1")
	acct.Credit(decimal.NewFromInt(99))
	_ = tx.SaveAccount(ctx, acct)

	// A concurrent writer bumps the version before commit.
	other, _ := repo.FindOrder(ctx, "o1")
	tx2, _ := repo.BeginTx(ctx)
	other.Status = domain.Cancelled
	_ = tx2.UpdateOrder(ctx, other, other.Version)
	if err := tx2.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	if err := tx.Commit(ctx); !errs.IsKind(err, errs.KindConflict) {
		t.Fatalf("want conflict at commit, got %v", err)
	}
	if _, err := repo.FindAccount(ctx, "u1"); !errs.IsKind(err, errs.KindNotFound) {
		t.Error("account write from conflicted tx must not apply")
	}
}

func TestOpenSellQuantity(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()

	sell := newOrder("s1", "u1", domain.Pending)
	sell.Side = domain.Sell
	sell.Quantity = 5
	_ = repo.SaveOrder(ctx, sell)

	partial := newOrder("s2", "u1", domain.Partial)
	partial.Side = domain.Sell
	partial.Quantity = 10
	partial.FilledQuantity = 4
	_ = repo.SaveOrder(ctx, partial)

	closed := newOrder("s3", "u1", domain.Filled)
	closed.Side = domain.Sell
	closed.Quantity = 100
	_ = repo.SaveOrder(ctx, closed)

	otherUser := newOrder("s4", "u2", domain.Pending)
	otherUser.Side = domain.Sell
	otherUser.Quantity = 7
	_ = repo.SaveOrder(ctx, otherUser)

	qty, err := repo.OpenSellQuantity(ctx, "u1", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if qty != 11 {
		t.Errorf("open sell quantity = %d, want 11", qty)
	}
}

func TestListOrdersByUserFiltersStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo()
	_ = repo.SaveOrder(ctx, newOrder("o1", "u1", domain.Pending))
	_ = repo.SaveOrder(ctx, newOrder("o2", "u1", domain.Filled))
	_ = repo.SaveOrder(ctx, newOrder("o3", "u2", domain.Pending))

	got, err := repo.ListOrdersByUser(ctx, "u1", domain.Pending)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "o1" {
		t.Errorf("got %d orders", len(got))
	}

	all, _ := repo.ListOrdersByUser(ctx, "u1")
	if len(all) != 2 {
		t.Errorf("unfiltered got %d orders, want 2", len(all))
	}
}

func TestQuoteCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewQuoteCache(time.Second)
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	q := &domain.Quote{Symbol: "AAPL", Market: "NASDAQ", Price: decimal.NewFromInt(155), Timestamp: now}
	if err := cache.SetQuote(ctx, q); err != nil {
		t.Fatal(err)
	}

	hit, err := cache.GetQuote(ctx, "AAPL", "NASDAQ")
	if err != nil || hit == nil {
		t.Fatalf("expected hit, got %v %v", hit, err)
	}
	if !hit.Price.Equal(q.Price) {
		t.Errorf("price = %s", hit.Price)
	}

	now = now.Add(2 * time.Second)
	miss, err := cache.GetQuote(ctx, "AAPL", "NASDAQ")
	if err != nil || miss != nil {
		t.Errorf("expected expired miss, got %v %v", miss, err)
	}
}
