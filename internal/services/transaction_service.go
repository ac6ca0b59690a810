package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

const publishTimeout = 5 * time.Second

// TransactionService posts transactions and keeps account balances equal
// to the signed sum of what was posted against them.
type TransactionService struct {
	repo   Repository
	events EventPublisher
	now    func() time.Time
}

func NewTransactionService(repo Repository, events EventPublisher) *TransactionService {
	return &TransactionService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

// Create resolves the account and category under ownerID, then inserts the
// transaction and applies its signed amount to the account balance in one
// storage transaction.
func (s *TransactionService) Create(ctx context.Context, ownerID int64, n core.NewTransaction) (core.Transaction, error) {
	n.Description = strings.TrimSpace(n.Description)

	var created core.Transaction
	err := s.repo.InTx(ctx, func(tx Tx) error {
		account, err := tx.GetAccount(ctx, ownerID, n.AccountID)
		if err != nil {
			return err
		}
		if account.State.IsArchived() {
			return core.InvalidState("account archived")
		}
		if n.CategoryID != nil {
			category, err := tx.GetCategory(ctx, ownerID, *n.CategoryID)
			if err != nil {
				return err
			}
			if category.Type != n.Type {
				return core.InvalidState("category type mismatch")
			}
		}
		if err := n.Validate(); err != nil {
			return err
		}

		delta := n.Type.Signed(n.Amount)
		if _, err := account.Balance.AddChecked(delta); err != nil {
			return err
		}

		id, err := tx.InsertTransaction(ctx, ownerID, n)
		if err != nil {
			return err
		}
		if err := tx.ApplyBalanceDelta(ctx, account.ID, delta); err != nil {
			return err
		}
		created, err = tx.GetTransaction(ctx, ownerID, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, storageErr("create transaction", err)
	}

	s.publish(ctx, core.NewLedgerEvent(core.EventPosted, created, s.now()))
	return created, nil
}

// List returns the owner's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.repo.ListTransactions(ctx, ownerID, f)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return txs, nil
}

func (s *TransactionService) Get(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, storageErr("get transaction", err)
	}
	return tx, nil
}

// UpdateMetadata edits description and category. Amount, account, date and
// type are immutable, so the balance is untouched.
func (s *TransactionService) UpdateMetadata(ctx context.Context, ownerID, id int64, p core.TransactionPatch) (core.Transaction, error) {
	if err := p.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var updated core.Transaction
	err := s.repo.InTx(ctx, func(tx Tx) error {
		current, err := tx.GetTransaction(ctx, ownerID, id)
		if err != nil {
			return err
		}

		description := current.Description
		if p.Description != nil {
			description = strings.TrimSpace(*p.Description)
		}
		categoryID := current.CategoryID
		switch {
		case p.ClearCategory:
			categoryID = nil
		case p.CategoryID != nil:
			category, err := tx.GetCategory(ctx, ownerID, *p.CategoryID)
			if err != nil {
				return err
			}
			if category.Type != current.Type {
				return core.InvalidState("category type mismatch")
			}
			categoryID = &category.ID
		}

		if err := tx.UpdateTransactionMetadata(ctx, ownerID, id, description, categoryID); err != nil {
			return err
		}
		updated, err = tx.GetTransaction(ctx, ownerID, id)
		return err
	})
	if err != nil {
		return core.Transaction{}, storageErr("update transaction", err)
	}
	return updated, nil
}

// Delete removes a transaction and reverses its balance effect atomically.
func (s *TransactionService) Delete(ctx context.Context, ownerID, id int64) error {
	var deleted core.Transaction
	err := s.repo.InTx(ctx, func(tx Tx) error {
		current, err := tx.GetTransaction(ctx, ownerID, id)
		if err != nil {
			return err
		}
		account, err := tx.GetAccount(ctx, ownerID, current.AccountID)
		if err != nil {
			return err
		}
		reversal := current.SignedAmount().Neg()
		if _, err := account.Balance.AddChecked(reversal); err != nil {
			return err
		}
		if err := tx.DeleteTransaction(ctx, ownerID, id); err != nil {
			return err
		}
		if err := tx.ApplyBalanceDelta(ctx, current.AccountID, reversal); err != nil {
			return err
		}
		deleted = current
		return nil
	})
	if err != nil {
		return storageErr("delete transaction", err)
	}

	s.publish(ctx, core.NewLedgerEvent(core.EventDeleted, deleted, s.now()))
	return nil
}

// Summary reads accounts, categories and the current month's transactions
// concurrently.
func (s *TransactionService) Summary(ctx context.Context, ownerID int64) (core.Summary, error) {
	now := s.now()
	from, to := core.MonthRange(now)

	var (
		accounts   []core.Account
		categories []core.Category
		monthTxs   []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.repo.ListAccounts(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.repo.ListCategories(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		monthTxs, err = s.repo.ListTransactions(gctx, ownerID, core.TransactionFilter{From: &from, To: &to})
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Summary{}, storageErr("summary", err)
	}

	return core.Summary{
		Accounts:     accounts,
		TotalBalance: core.TotalBalance(accounts),
		Categories:   categories,
		Month:        core.Totals(from.Year(), int(from.Month()), monthTxs),
	}, nil
}

// publish logs and drops delivery failures; callers have already committed.
// Delivery outlives the request context but is bounded by publishTimeout.
func (s *TransactionService) publish(ctx context.Context, ev core.LedgerEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", ev.Kind,
			"transaction_id", ev.TransactionID,
			"error", err)
	}
}
