// Package seed creates the demo owner and starter data on an empty ledger.
// Every write goes through the services, so the demo balance is produced by
// an ordinary posting.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

const (
	DemoEmail    = "demo@finance.local"
	DemoPassword = "demo123"
	DemoName     = "Demo"

	demoAccount         = "Carteira"
	incomeCategory      = "Salário"
	expenseCategory     = "Alimentação"
	openingDescription  = "Exemplo de crédito"
	openingCreditAmount = 100000
)

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

type Services struct {
	Identity     *identity.Service
	Users        UserLookup
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
}

type Result struct {
	UserID         int64
	AccountID      int64
	AccountCreated bool
}

// Demo is idempotent. The sample credit is posted only when the demo account
// is created, so running it on every start never moves the balance twice.
func Demo(ctx context.Context, svc Services, logger *log.Logger, now time.Time) (Result, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSeed)

	userID, err := ensureUser(ctx, svc)
	if err != nil {
		return Result{}, err
	}

	income, err := ensureCategory(ctx, svc.Categories, userID, incomeCategory, core.Income)
	if err != nil {
		return Result{}, err
	}
	if _, err := ensureCategory(ctx, svc.Categories, userID, expenseCategory, core.Expense); err != nil {
		return Result{}, err
	}

	account, created, err := ensureAccount(ctx, svc.Accounts, userID)
	if err != nil {
		return Result{}, err
	}
	res := Result{UserID: userID, AccountID: account.ID, AccountCreated: created}
	if !created {
		logger.InfoContext(ctx, "Demo data already present", log.FieldOwnerID, userID)
		return res, nil
	}

	categoryID := income.ID
	tx, err := svc.Transactions.Create(ctx, userID, core.NewTransaction{
		AccountID:   account.ID,
		CategoryID:  &categoryID,
		Date:        now,
		Description: openingDescription,
		Amount:      core.Money{Cents: openingCreditAmount},
		Type:        core.Income,
	})
	if err != nil {
		return Result{}, fmt.Errorf("post demo credit: %w", err)
	}
	logger.InfoContext(ctx, "Demo data seeded",
		log.NewFields().WithOwner(userID).WithTransaction(tx).ToSlice()...)
	return res, nil
}

func ensureUser(ctx context.Context, svc Services) (int64, error) {
	_, u, err := svc.Identity.Register(ctx, DemoName, DemoEmail, DemoPassword)
	if err == nil {
		return u.ID, nil
	}
	if !errors.Is(err, core.ErrConflict) {
		return 0, fmt.Errorf("register demo user: %w", err)
	}
	u, err = svc.Users.GetUserByEmail(ctx, DemoEmail)
	if err != nil {
		return 0, fmt.Errorf("load demo user: %w", err)
	}
	return u.ID, nil
}

func ensureCategory(ctx context.Context, categories *services.CategoryService, ownerID int64, name string, typ core.TransactionType) (core.Category, error) {
	list, err := categories.List(ctx, ownerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	for _, c := range list {
		if c.Type == typ && core.NormalizeName(c.Name) == core.NormalizeName(name) {
			return c, nil
		}
	}
	c, err := categories.Create(ctx, ownerID, core.NewCategory{Name: name, Type: typ})
	if err != nil {
		return core.Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	return c, nil
}

func ensureAccount(ctx context.Context, accounts *services.AccountService, ownerID int64) (core.Account, bool, error) {
	list, err := accounts.List(ctx, ownerID)
	if err != nil {
		return core.Account{}, false, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range list {
		if !a.State.IsArchived() && core.NormalizeName(a.Name) == core.NormalizeName(demoAccount) {
			return a, false, nil
		}
	}
	a, err := accounts.Create(ctx, ownerID, core.NewAccount{Name: demoAccount, Type: core.Cash})
	if err != nil {
		return core.Account{}, false, fmt.Errorf("create demo account: %w", err)
	}
	return a, true, nil
}
