package services

import (
	"context"
	"strings"

	"fintrack/internal/core"
)

// AccountService manages the per-owner account ledger. Balances are never
// written here; they move only through TransactionService.
type AccountService struct {
	repo Repository
}

func NewAccountService(repo Repository) *AccountService {
	return &AccountService{repo: repo}
}

// List returns the owner's active accounts ordered by id.
func (s *AccountService) List(ctx context.Context, ownerID int64) ([]core.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, ownerID)
	if err != nil {
		return nil, storageErr("list accounts", err)
	}
	return accounts, nil
}

// Get returns one account, archived or not.
func (s *AccountService) Get(ctx context.Context, ownerID, id int64) (core.Account, error) {
	a, err := s.repo.GetAccount(ctx, ownerID, id)
	if err != nil {
		return core.Account{}, storageErr("get account", err)
	}
	return a, nil
}

func (s *AccountService) Create(ctx context.Context, ownerID int64, n core.NewAccount) (core.Account, error) {
	n.Name = strings.TrimSpace(n.Name)
	if err := n.Validate(); err != nil {
		return core.Account{}, err
	}

	var created core.Account
	err := s.repo.InTx(ctx, func(tx Tx) error {
		if _, exists, err := tx.FindActiveAccountByName(ctx, ownerID, n.Name); err != nil {
			return err
		} else if exists {
			return core.Conflict("account", "an account with this name already exists")
		}
		a, err := tx.InsertAccount(ctx, ownerID, n)
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return core.Account{}, storageErr("create account", err)
	}
	return created, nil
}

// Update renames or retypes an active account.
func (s *AccountService) Update(ctx context.Context, ownerID, id int64, p core.AccountPatch) (core.Account, error) {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		p.Name = &trimmed
	}
	if err := p.Validate(); err != nil {
		return core.Account{}, err
	}

	var updated core.Account
	err := s.repo.InTx(ctx, func(tx Tx) error {
		a, err := tx.GetAccount(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if a.State.IsArchived() {
			return core.NotFound("account")
		}
		if p.Name != nil {
			if other, exists, err := tx.FindActiveAccountByName(ctx, ownerID, *p.Name); err != nil {
				return err
			} else if exists && other.ID != a.ID {
				return core.Conflict("account", "an account with this name already exists")
			}
			a.Name = *p.Name
		}
		if p.Type != nil {
			a.Type = *p.Type
		}
		if err := tx.UpdateAccount(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return core.Account{}, storageErr("update account", err)
	}
	return updated, nil
}

// Archive soft-deletes an account. Archiving twice is not an error.
func (s *AccountService) Archive(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.ArchiveAccount(ctx, ownerID, id); err != nil {
		return storageErr("archive account", err)
	}
	return nil
}
