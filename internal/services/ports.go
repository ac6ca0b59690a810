package services

import (
	"context"

	"fintrack/internal/core"
)

// Storage implementations return core.NotFound for missing or foreign rows,
// core.Conflict for unique-key violations, and wrapped driver errors otherwise.
type (
	AccountStore interface {
		ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error)
		GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error)
		// FindActiveAccountByName matches on core.NormalizeName(name).
		FindActiveAccountByName(ctx context.Context, ownerID int64, name string) (core.Account, bool, error)
		InsertAccount(ctx context.Context, ownerID int64, a core.NewAccount) (core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		ArchiveAccount(ctx context.Context, ownerID, id int64) error
	}

	CategoryStore interface {
		ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error)
		GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error)
		FindCategoryByName(ctx context.Context, ownerID int64, name string, typ core.TransactionType) (core.Category, bool, error)
		InsertCategory(ctx context.Context, ownerID int64, c core.NewCategory) (core.Category, error)
	}

	TransactionReader interface {
		GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error)
		// ListTransactions orders by date desc, id desc and joins the
		// account and category projections.
		ListTransactions(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.Transaction, error)
		UpdateTransactionMetadata(ctx context.Context, ownerID, id int64, description string, categoryID *int64) error
	}

	UserStore interface {
		InsertUser(ctx context.Context, u core.User) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	// Querier is everything callable outside an atomic unit.
	Querier interface {
		AccountStore
		CategoryStore
		TransactionReader
		UserStore
	}

	// Tx is the querier handed to InTx callbacks. Writes that move money
	// exist only here.
	Tx interface {
		Querier
		InsertTransaction(ctx context.Context, ownerID int64, n core.NewTransaction) (int64, error)
		DeleteTransaction(ctx context.Context, ownerID, id int64) error
		ApplyBalanceDelta(ctx context.Context, accountID int64, delta core.Money) error
	}

	// Repository is the injected persistence boundary.
	Repository interface {
		Querier
		// InTx runs fn inside one storage transaction. It commits only when
		// fn returns nil; any error or panic rolls everything back.
		InTx(ctx context.Context, fn func(tx Tx) error) error
		Ping(ctx context.Context) error
		Close() error
	}

	// EventPublisher delivers ledger events after commit.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
	}
)
