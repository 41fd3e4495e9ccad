// Package pg implements the repository over PostgreSQL with pgx.
// Order mutations use an optimistic version column; the execution triad
// (order, account, transaction) commits inside one database transaction.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
	"github.com/Rajeevkavala/Trading-Backend/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

type PgRepo struct {
	pool *pgxpool.Pool
}

// NewPgRepo connects a pool; call Close when finished with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

const orderColumns = `id, user_id, symbol, market, side, type, quantity, filled_quantity,
limit_price, stop_price, validity, expires_at, status, reserved_rate,
executed_price, total_value, executed_at, created_at, updated_at, version`

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := p.pool.Exec(ctx, insertOrderSQL, orderArgs(o)...)
	return err
}

const insertOrderSQL = `
INSERT INTO orders(` + orderColumns + `)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
ON CONFLICT (id) DO NOTHING
`

func orderArgs(o *domain.Order) []any {
	return []any{
		o.ID, o.UserID, o.Symbol, o.Market, string(o.Side), string(o.Type),
		o.Quantity, o.FilledQuantity, o.LimitPrice, o.StopPrice,
		string(o.Validity), nullTime(o.ExpiresAt), string(o.Status), o.ReservedRate,
		o.ExecutedPrice, o.TotalValue, nullTime(o.ExecutedAt), o.CreatedAt, o.UpdatedAt, o.Version,
	}
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var side, typ, validity, status string
	var expires, executed *time.Time
	err := row.Scan(&o.ID, &o.UserID, &o.Symbol, &o.Market, &side, &typ,
		&o.Quantity, &o.FilledQuantity, &o.LimitPrice, &o.StopPrice,
		&validity, &expires, &status, &o.ReservedRate,
		&o.ExecutedPrice, &o.TotalValue, &executed, &o.CreatedAt, &o.UpdatedAt, &o.Version)
	if err != nil {
		return nil, err
	}
	o.Side = domain.Side(side)
	o.Type = domain.OrderType(typ)
	o.Validity = domain.Validity(validity)
	o.Status = domain.OrderStatus(status)
	if expires != nil {
		o.ExpiresAt = *expires
	}
	if executed != nil {
		o.ExecutedAt = *executed
	}
	return &o, nil
}

func (p *PgRepo) FindOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.Newf(errs.KindNotFound, "order %s not found", orderID)
	}
	return o, err
}

func (p *PgRepo) ListOrdersByUser(ctx context.Context, userID string, statuses ...domain.OrderStatus) ([]*domain.Order, error) {
	sql := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1`
	args := []any{userID}
	if len(statuses) > 0 {
		ss := make([]string, len(statuses))
		for i, s := range statuses {
			ss[i] = string(s)
		}
		sql += ` AND status = ANY($2)`
		args = append(args, ss)
	}
	sql += ` ORDER BY created_at DESC`

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (p *PgRepo) FindOpenOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
SELECT `+orderColumns+` FROM orders
WHERE status IN ('PENDING', 'PARTIAL')
ORDER BY created_at ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]*domain.Order, error) {
	var res []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (p *PgRepo) OpenSellQuantity(ctx context.Context, userID, symbol string) (int64, error) {
	var total int64
	err := p.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(quantity - filled_quantity), 0)
FROM orders
WHERE user_id = $1 AND symbol = $2 AND side = 'SELL' AND status IN ('PENDING', 'PARTIAL')
`, userID, symbol).Scan(&total)
	return total, err
}

func (p *PgRepo) FindAccount(ctx context.Context, userID string) (*domain.Account, error) {
	var a domain.Account
	var holdings []byte
	err := p.pool.QueryRow(ctx, `
SELECT user_id, available, blocked, holdings, updated_at FROM accounts WHERE user_id = $1
`, userID).Scan(&a.UserID, &a.Available, &a.Blocked, &holdings, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.Newf(errs.KindNotFound, "account %s not found", userID)
	}
	if err != nil {
		return nil, err
	}
	a.Holdings = make(map[string]domain.Holding)
	if len(holdings) > 0 {
		if err := json.Unmarshal(holdings, &a.Holdings); err != nil {
			return nil, fmt.Errorf("pg: decode holdings: %w", err)
		}
	}
	return &a, nil
}

const upsertAccountSQL = `
INSERT INTO accounts(user_id, available, blocked, holdings, updated_at)
VALUES($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE SET
  available = EXCLUDED.available,
  blocked = EXCLUDED.blocked,
  holdings = EXCLUDED.holdings,
  updated_at = EXCLUDED.updated_at
`

func accountArgs(a *domain.Account) ([]any, error) {
	holdings, err := json.Marshal(a.Holdings)
	if err != nil {
		return nil, fmt.Errorf("pg: encode holdings: %w", err)
	}
	return []any{a.UserID, a.Available, a.Blocked, holdings, a.UpdatedAt}, nil
}

func (p *PgRepo) SaveAccount(ctx context.Context, a *domain.Account) error {
	args, err := accountArgs(a)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, upsertAccountSQL, args...)
	return err
}

const insertTransactionSQL = `
INSERT INTO transactions(id, user_id, order_id, symbol, market, side, quantity, price, total, executed_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`

func (p *PgRepo) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := p.pool.Exec(ctx, insertTransactionSQL,
		t.ID, t.UserID, t.OrderID, t.Symbol, t.Market, string(t.Side), t.Quantity, t.Price, t.Total, t.ExecutedAt)
	return err
}

func (p *PgRepo) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, user_id, order_id, symbol, market, side, quantity, price, total, executed_at
FROM transactions WHERE user_id = $1 ORDER BY executed_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		var side string
		if err := rows.Scan(&t.ID, &t.UserID, &t.OrderID, &t.Symbol, &t.Market, &side,
			&t.Quantity, &t.Price, &t.Total, &t.ExecutedAt); err != nil {
			return nil, err
		}
		t.Side = domain.Side(side)
		res = append(res, &t)
	}
	return res, rows.Err()
}

func (p *PgRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

var _ port.Tx = (*pgTx)(nil)

func (t *pgTx) SaveOrder(ctx context.Context, o *domain.Order) error {
	_, err := t.tx.Exec(ctx, insertOrderSQL, orderArgs(o)...)
	return err
}

const updateOrderSQL = `
UPDATE orders SET
  filled_quantity = $2,
  status = $3,
  reserved_rate = $4,
  executed_price = $5,
  total_value = $6,
  executed_at = $7,
  updated_at = $8,
  version = version + 1
WHERE id = $1 AND version = $9
`

// UpdateOrder is the compare-and-set transition: zero rows affected means a
// concurrent writer advanced the version first.
func (t *pgTx) UpdateOrder(ctx context.Context, o *domain.Order, expectedVersion int64) error {
	tag, err := t.tx.Exec(ctx, updateOrderSQL,
		o.ID, o.FilledQuantity, string(o.Status), o.ReservedRate,
		o.ExecutedPrice, o.TotalValue, nullTime(o.ExecutedAt), o.UpdatedAt, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.Newf(errs.KindConflict, "order %s version changed", o.ID)
	}
	return nil
}

func (t *pgTx) SaveAccount(ctx context.Context, a *domain.Account) error {
	args, err := accountArgs(a)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, upsertAccountSQL, args...)
	return err
}

func (t *pgTx) SaveTransaction(ctx context.Context, tr *domain.Transaction) error {
	_, err := t.tx.Exec(ctx, insertTransactionSQL,
		tr.ID, tr.UserID, tr.OrderID, tr.Symbol, tr.Market, string(tr.Side),
		tr.Quantity, tr.Price, tr.Total, tr.ExecutedAt)
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
