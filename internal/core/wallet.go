package core

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Rajeevkavala/Trading-Backend/internal/domain"
	"github.com/Rajeevkavala/Trading-Backend/internal/errs"
)

// OpenAccount creates the user's account if it does not exist yet.
func (e *Engine) OpenAccount(ctx context.Context, userID string) (*domain.Account, error) {
	if userID == "" {
		return nil, errs.New(errs.KindValidation, "user is required")
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	account, err := e.repo.FindAccount(ctx, userID)
	if err == nil {
		return account, nil
	}
	if !errs.IsKind(err, errs.KindNotFound) {
		return nil, err
	}

	account = domain.NewAccount(userID)
	account.UpdatedAt = e.now()
	if err := e.repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	e.log.Info("account opened", "user", userID)
	return account, nil
}

// Deposit credits the user's available balance.
func (e *Engine) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.Sign() <= 0 {
		return nil, errs.New(errs.KindValidation, "amount must be greater than 0")
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	account, err := e.repo.FindAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	account.Credit(amount)
	account.UpdatedAt = e.now()
	if err := e.repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	e.log.Info("funds deposited", "user", userID, "amount", amount.String())
	return account, nil
}

// Withdraw debits the user's available balance. Blocked funds cannot be
// withdrawn.
func (e *Engine) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.Sign() <= 0 {
		return nil, errs.New(errs.KindValidation, "amount must be greater than 0")
	}

	unlock := e.locks.lock(userID)
	defer unlock()

	account, err := e.repo.FindAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := account.Debit(amount); err != nil {
		return nil, errs.Newf(errs.KindInsufficientFunds, "available %s, requested %s", account.Available, amount)
	}
	account.UpdatedAt = e.now()
	if err := e.repo.SaveAccount(ctx, account); err != nil {
		return nil, err
	}
	e.log.Info("funds withdrawn", "user", userID, "amount", amount.String())
	return account, nil
}
