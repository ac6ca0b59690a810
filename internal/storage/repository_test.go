package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	return newTestRepoAt(t, filepath.Join(t.TempDir(), "ledger.db"))
}

func newTestRepoAt(t *testing.T, path string) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newOwner(t *testing.T, repo *SQLiteRepository, email string) int64 {
	t.Helper()
	u, err := repo.InsertUser(context.Background(), core.User{Name: "Owner", Email: email, PasswordHash: "x"})
	require.NoError(t, err)
	return u.ID
}

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := RunMigrations(DSN(path))
	require.NoError(t, err)
	again, err := RunMigrations(DSN(path))
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
	assert.Equal(t, first, again)
}

func TestMigrationsRefuseDirtySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	_, err := RunMigrations(DSN(path))
	require.NoError(t, err)

	repo := newTestRepoAt(t, path)
	_, err = repo.DB().Exec(`UPDATE schema_migrations SET dirty = 1`)
	require.NoError(t, err)

	_, err = RunMigrations(DSN(path))
	assert.ErrorContains(t, err, "dirty")
}

func TestAccountNameUniqueAmongActive(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := newOwner(t, repo, "a@example.com")

	a, err := repo.InsertAccount(ctx, owner, core.NewAccount{Name: "Wallet", Type: core.Cash})
	require.NoError(t, err)

	_, err = repo.InsertAccount(ctx, owner, core.NewAccount{Name: "WALLET", Type: core.Checking})
	assert.ErrorIs(t, err, core.ErrConflict)

	require.NoError(t, repo.ArchiveAccount(ctx, owner, a.ID))
	_, err = repo.InsertAccount(ctx, owner, core.NewAccount{Name: "wallet", Type: core.Cash})
	assert.NoError(t, err, "archived accounts release their name")

	archived, err := repo.GetAccount(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Archived, archived.State)

	listed, err := repo.ListAccounts(ctx, owner)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotEqual(t, a.ID, listed[0].ID)
}

func TestGetAccountScopedToOwner(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	alice := newOwner(t, repo, "alice@example.com")
	bob := newOwner(t, repo, "bob@example.com")

	a, err := repo.InsertAccount(ctx, alice, core.NewAccount{Name: "Bank", Type: core.Checking})
	require.NoError(t, err)

	_, err = repo.GetAccount(ctx, bob, a.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, repo.ArchiveAccount(ctx, bob, a.ID), core.ErrNotFound)
}

func TestCategoryUniquePerNameAndType(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := newOwner(t, repo, "a@example.com")

	_, err := repo.InsertCategory(ctx, owner, core.NewCategory{Name: "Other", Type: core.Income})
	require.NoError(t, err)
	_, err = repo.InsertCategory(ctx, owner, core.NewCategory{Name: "other", Type: core.Income})
	assert.ErrorIs(t, err, core.ErrConflict)
	_, err = repo.InsertCategory(ctx, owner, core.NewCategory{Name: "Other", Type: core.Expense})
	assert.NoError(t, err)

	_, found, err := repo.FindCategoryByName(ctx, owner, " OTHER ", core.Expense)
	require.NoError(t, err)
	assert.True(t, found)

	cats, err := repo.ListCategories(ctx, owner)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, core.Expense, cats[0].Type)
	assert.Equal(t, core.Income, cats[1].Type)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := newOwner(t, repo, "a@example.com")
	a, err := repo.InsertAccount(ctx, owner, core.NewAccount{Name: "Wallet", Type: core.Cash})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = repo.InTx(ctx, func(tx services.Tx) error {
		_, err := tx.InsertTransaction(ctx, owner, core.NewTransaction{
			AccountID: a.ID, Date: day(1), Amount: core.NewMoney(5, 0), Type: core.Income,
		})
		require.NoError(t, err)
		require.NoError(t, tx.ApplyBalanceDelta(ctx, a.ID, core.NewMoney(5, 0)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	txs, err := repo.ListTransactions(ctx, owner, core.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
	got, err := repo.GetAccount(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Balance.Cents)
}

func TestBalanceOutsideInt64IsRejected(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := newOwner(t, repo, "a@example.com")
	top := core.Money{Cents: math.MaxInt64 - 99}
	a, err := repo.InsertAccount(ctx, owner, core.NewAccount{Name: "Vault", Type: core.Savings, OpeningBalance: top})
	require.NoError(t, err)

	err = repo.InTx(ctx, func(tx services.Tx) error {
		return tx.ApplyBalanceDelta(ctx, a.ID, core.NewMoney(1, 0))
	})
	require.Error(t, err)

	got, err := repo.GetAccount(ctx, owner, a.ID)
	require.NoError(t, err, "balance must stay readable")
	assert.Equal(t, top, got.Balance)
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := newOwner(t, repo, "a@example.com")
	a, err := repo.InsertAccount(ctx, owner, core.NewAccount{Name: "Wallet", Type: core.Cash})
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = repo.InTx(ctx, func(tx services.Tx) error {
			_ = tx.ApplyBalanceDelta(ctx, a.ID, core.NewMoney(1, 0))
			panic("mid-unit")
		})
	})

	got, err := repo.GetAccount(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Balance.Cents)
}

func TestListTransactionsOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	owner := newOwner(t, repo, "a@example.com")
	wallet, err := repo.InsertAccount(ctx, owner, core.NewAccount{Name: "Wallet", Type: core.Cash})
	require.NoError(t, err)
	bank, err := repo.InsertAccount(ctx, owner, core.NewAccount{Name: "Bank", Type: core.Checking})
	require.NoError(t, err)
	salary, err := repo.InsertCategory(ctx, owner, core.NewCategory{Name: "Salary", Type: core.Income})
	require.NoError(t, err)

	var ids []int64
	err = repo.InTx(ctx, func(tx services.Tx) error {
		for _, n := range []core.NewTransaction{
			{AccountID: wallet.ID, CategoryID: &salary.ID, Date: day(1), Amount: core.NewMoney(10, 0), Type: core.Income},
			{AccountID: wallet.ID, Date: day(3), Amount: core.NewMoney(2, 0), Type: core.Expense},
			{AccountID: bank.ID, Date: day(2), Amount: core.NewMoney(3, 0), Type: core.Expense, Description: "fee"},
		} {
			id, err := tx.InsertTransaction(ctx, owner, n)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)

	all, err := repo.ListTransactions(ctx, owner, core.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{ids[1], ids[2], ids[0]}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, core.AccountRef{ID: bank.ID, Name: "Bank", Type: core.Checking}, all[1].Account)
	require.NotNil(t, all[2].Category)
	assert.Equal(t, "Salary", all[2].Category.Name)
	assert.Nil(t, all[0].Category)

	from, to := day(2), day(3)
	ranged, err := repo.ListTransactions(ctx, owner, core.TransactionFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	walletOnly, err := repo.ListTransactions(ctx, owner, core.TransactionFilter{AccountID: &wallet.ID, Type: core.Expense})
	require.NoError(t, err)
	require.Len(t, walletOnly, 1)
	assert.Equal(t, ids[1], walletOnly[0].ID)
}

func TestUsersEmailUnique(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	newOwner(t, repo, "a@example.com")

	_, err := repo.InsertUser(ctx, core.User{Name: "Dup", Email: "A@Example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, core.ErrConflict)

	u, err := repo.GetUserByEmail(ctx, " a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Owner", u.Name)

	_, err = repo.GetUser(ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
