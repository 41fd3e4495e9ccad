package port

import (
	"context"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
)

// Repository is the durable store for orders, accounts and transactions.
// Implementations must return independent copies so callers can mutate
// results without leaking state back into the store.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	FindOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, statuses ...domain.OrderStatus) ([]*domain.Order, error)
	// FindOpenOrders returns every PENDING or PARTIAL order across all users.
	FindOpenOrders(ctx context.Context) ([]*domain.Order, error)
	// OpenSellQuantity returns the total unfilled quantity of the user's open
	// SELL orders for a symbol.
	OpenSellQuantity(ctx context.Context, userID, symbol string) (int64, error)

	FindAccount(ctx context.Context, userID string) (*domain.Account, error)
	SaveAccount(ctx context.Context, a *domain.Account) error

	SaveTransaction(ctx context.Context, t *domain.Transaction) error
	ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)

	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is one atomic unit over the repository. UpdateOrder is a compare-and-set
// on the order's version token: if the stored version differs from
// expectedVersion the transaction fails with errs.KindConflict and nothing is
// applied.
type Tx interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	UpdateOrder(ctx context.Context, o *domain.Order, expectedVersion int64) error
	SaveAccount(ctx context.Context, a *domain.Account) error
	SaveTransaction(ctx context.Context, t *domain.Transaction) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
