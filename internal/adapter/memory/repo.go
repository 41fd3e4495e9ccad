// Package memory provides in-process adapters: the default repository and
// quote cache used in tests and single-node deployments.
package memory

import (
	"context"
	"sync"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.Repository = (*Repo)(nil)

type Repo struct {
	mu           sync.Mutex
	orders       map[string]*domain.Order
	accounts     map[string]*domain.Account
	transactions map[string][]*domain.Transaction // keyed by user
}

func NewRepo() *Repo {
	return &Repo{
		orders:       make(map[string]*domain.Order),
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string][]*domain.Transaction),
	}
}

func (r *Repo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *Repo) FindOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "order %s not found", orderID)
	}
	return o.Clone(), nil
}

func (r *Repo) ListOrdersByUser(ctx context.Context, userID string, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Order
	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		if len(statuses) > 0 && !containsStatus(statuses, o.Status) {
			continue
		}
		res = append(res, o.Clone())
	}
	return res, nil
}

func (r *Repo) FindOpenOrders(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.Order
	for _, o := range r.orders {
		if o.IsOpen() {
			res = append(res, o.Clone())
		}
	}
	return res, nil
}

func (r *Repo) OpenSellQuantity(ctx context.Context, userID, symbol string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, o := range r.orders {
		if o.UserID == userID && o.Symbol == symbol && o.Side == domain.Sell && o.IsOpen() {
			total += o.Remaining()
		}
	}
	return total, nil
}

func (r *Repo) FindAccount(ctx context.Context, userID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[userID]
	if !ok {
		return nil, errs.Newf(errs.KindNotFound, "account %s not found", userID)
	}
	return a.Clone(), nil
}

func (r *Repo) SaveAccount(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.UserID] = a.Clone()
	return nil
}

func (r *Repo) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.UserID] = append(r.transactions[t.UserID], &cp)
	return nil
}

func (r *Repo) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txs := r.transactions[userID]
	res := make([]*domain.Transaction, len(txs))
	for i, t := range txs {
		cp := *t
		res[i] = &cp
	}
	return res, nil
}

func (r *Repo) BeginTx(ctx context.Context) (port.Tx, error) {
	return &memTx{repo: r}, nil
}

func containsStatus(statuses []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

// memTx buffers mutations and applies them atomically on Commit under the
// repository lock. The version check of UpdateOrder runs both eagerly and
// again at commit time, so a transaction racing another writer fails as a
// whole with errs.KindConflict.
type memTx struct {
	repo *Repo
	done bool

	orderSaves   []*domain.Order
	orderUpdates []orderUpdate
	accounts     []*domain.Account
	transactions []*domain.Transaction
}

type orderUpdate struct {
	order           *domain.Order
	expectedVersion int64
}

var _ port.Tx = (*memTx)(nil)

func (t *memTx) SaveOrder(ctx context.Context, o *domain.Order) error {
	t.orderSaves = append(t.orderSaves, o.Clone())
	return nil
}

func (t *memTx) UpdateOrder(ctx context.Context, o *domain.Order, expectedVersion int64) error {
	t.repo.mu.Lock()
	cur, ok := t.repo.orders[o.ID]
	t.repo.mu.Unlock()
	if !ok {
		return errs.Newf(errs.KindNotFound, "order %s not found", o.ID)
	}
	if cur.Version != expectedVersion {
		return errs.Newf(errs.KindConflict, "order %s version %d, expected %d", o.ID, cur.Version, expectedVersion)
	}
	t.orderUpdates = append(t.orderUpdates, orderUpdate{order: o.Clone(), expectedVersion: expectedVersion})
	return nil
}

func (t *memTx) SaveAccount(ctx context.Context, a *domain.Account) error {
	t.accounts = append(t.accounts, a.Clone())
	return nil
}

func (t *memTx) SaveTransaction(ctx context.Context, tr *domain.Transaction) error {
	cp := *tr
	t.transactions = append(t.transactions, &cp)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errs.New(errs.KindInternal, "transaction already finished")
	}
	t.done = true

	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()

	// Re-validate every CAS before applying anything.
	for _, u := range t.orderUpdates {
		cur, ok := t.repo.orders[u.order.ID]
		if !ok {
			return errs.Newf(errs.KindNotFound, "order %s not found", u.order.ID)
		}
		if cur.Version != u.expectedVersion {
			return errs.Newf(errs.KindConflict, "order %s version %d, expected %d", u.order.ID, cur.Version, u.expectedVersion)
		}
	}

	for _, o := range t.orderSaves {
		t.repo.orders[o.ID] = o
	}
	for _, u := range t.orderUpdates {
		o := u.order
		o.Version = u.expectedVersion + 1
		t.repo.orders[o.ID] = o
	}
	for _, a := range t.accounts {
		t.repo.accounts[a.UserID] = a
	}
	for _, tr := range t.transactions {
		t.repo.transactions[tr.UserID] = append(t.repo.transactions[tr.UserID], tr)
	}
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}
