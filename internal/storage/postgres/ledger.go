package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"fintrack/internal/core"
)

const (
	accountColumns  = `id, owner_id, name, type, balance_cents, archived, created_at`
	categoryColumns = `id, owner_id, name, type, created_at`
	userColumns     = `id, name, email, password_hash, created_at`

	transactionSelect = `SELECT t.id, t.owner_id, t.account_id, t.category_id, t.date, t.description,
       t.amount_cents, t.type, t.created_at, a.name, a.type, c.name, c.type
FROM transactions t
JOIN accounts a ON a.id = t.account_id
LEFT JOIN categories c ON c.id = t.category_id`
)

func scanAccount(row pgx.Row) (core.Account, error) {
	var (
		a        core.Account
		typ      string
		archived bool
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &a.Balance.Cents, &archived, &a.CreatedAt); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.State = core.Active
	if archived {
		a.State = core.Archived
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

func scanCategory(row pgx.Row) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ, &c.CreatedAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx               core.Transaction
		categoryID       *int64
		typ, accType     string
		catName, catType *string
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &categoryID, &tx.Date, &tx.Description,
		&tx.Amount.Cents, &typ, &tx.CreatedAt, &tx.Account.Name, &accType, &catName, &catType)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Date = tx.Date.UTC()
	tx.CreatedAt = tx.CreatedAt.UTC()
	tx.Account.ID = tx.AccountID
	tx.Account.Type = core.AccountType(accType)
	if categoryID != nil && catName != nil && catType != nil {
		tx.CategoryID = categoryID
		tx.Category = &core.CategoryRef{ID: *categoryID, Name: *catName, Type: core.TransactionType(*catType)}
	}
	return tx, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *queries) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 AND NOT archived ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts, err := collect(rows, scanAccount)
	if err != nil {
		return nil, fmt.Errorf("scan accounts: %w", err)
	}
	return accounts, nil
}

func (q *queries) GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, core.NotFound("account")
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (q *queries) FindActiveAccountByName(ctx context.Context, ownerID int64, name string) (core.Account, bool, error) {
	a, err := scanAccount(q.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1 AND name_key = $2 AND NOT archived`,
		ownerID, core.NormalizeName(name)))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Account{}, false, nil
	}
	if err != nil {
		return core.Account{}, false, fmt.Errorf("find account by name: %w", err)
	}
	return a, true, nil
}

func (q *queries) InsertAccount(ctx context.Context, ownerID int64, n core.NewAccount) (core.Account, error) {
	a, err := scanAccount(q.db.QueryRow(ctx,
		`INSERT INTO accounts (owner_id, name, name_key, type, balance_cents)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+accountColumns,
		ownerID, n.Name, core.NormalizeName(n.Name), string(n.Type), n.OpeningBalance.Cents))
	if isUniqueViolation(err) {
		return core.Account{}, core.Conflict("account", "an account with this name already exists")
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (q *queries) UpdateAccount(ctx context.Context, a core.Account) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE accounts SET name = $1, name_key = $2, type = $3
		 WHERE id = $4 AND owner_id = $5 AND NOT archived`,
		a.Name, core.NormalizeName(a.Name), string(a.Type), a.ID, a.OwnerID)
	if isUniqueViolation(err) {
		return core.Conflict("account", "an account with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return expectOne(tag, "account")
}

func (q *queries) ArchiveAccount(ctx context.Context, ownerID, id int64) error {
	tag, err := q.db.Exec(ctx, `UPDATE accounts SET archived = TRUE WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("archive account %d: %w", id, err)
	}
	return expectOne(tag, "account")
}

func (q *queries) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = $1 ORDER BY type, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories, err := collect(rows, scanCategory)
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	return categories, nil
}

func (q *queries) GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, core.NotFound("category")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (q *queries) FindCategoryByName(ctx context.Context, ownerID int64, name string, typ core.TransactionType) (core.Category, bool, error) {
	c, err := scanCategory(q.db.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = $1 AND name_key = $2 AND type = $3`,
		ownerID, core.NormalizeName(name), string(typ)))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("find category by name: %w", err)
	}
	return c, true, nil
}

func (q *queries) InsertCategory(ctx context.Context, ownerID int64, n core.NewCategory) (core.Category, error) {
	c, err := scanCategory(q.db.QueryRow(ctx,
		`INSERT INTO categories (owner_id, name, name_key, type) VALUES ($1, $2, $3, $4)
		 RETURNING `+categoryColumns,
		ownerID, n.Name, core.NormalizeName(n.Name), string(n.Type)))
	if isUniqueViolation(err) {
		return core.Category{}, core.Conflict("category", "a category with this name and type already exists")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (q *queries) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	tx, err := scanTransaction(q.db.QueryRow(ctx, transactionSelect+` WHERE t.id = $1 AND t.owner_id = $2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (q *queries) ListTransactions(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	where := []string{"t.owner_id = $1"}
	args := []any{ownerID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, clause+" $"+strconv.Itoa(len(args)))
	}
	if f.From != nil {
		add("t.date >=", f.From.UTC())
	}
	if f.To != nil {
		add("t.date <=", f.To.UTC())
	}
	if f.AccountID != nil {
		add("t.account_id =", *f.AccountID)
	}
	if f.Type != "" {
		add("t.type =", string(f.Type))
	}

	rows, err := q.db.Query(ctx,
		transactionSelect+` WHERE `+strings.Join(where, " AND ")+` ORDER BY t.date DESC, t.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs, err := collect(rows, scanTransaction)
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return txs, nil
}

func (q *queries) UpdateTransactionMetadata(ctx context.Context, ownerID, id int64, description string, categoryID *int64) error {
	tag, err := q.db.Exec(ctx,
		`UPDATE transactions SET description = $1, category_id = $2 WHERE id = $3 AND owner_id = $4`,
		description, categoryID, id, ownerID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return expectOne(tag, "transaction")
}

func (q *queries) InsertUser(ctx context.Context, u core.User) (core.User, error) {
	var created time.Time
	err := q.db.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ($1, $2, $3) RETURNING id, created_at`,
		u.Name, core.NormalizeEmail(u.Email), u.PasswordHash).Scan(&u.ID, &created)
	if isUniqueViolation(err) {
		return core.User{}, core.Conflict("user", "email already registered")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.Email = core.NormalizeEmail(u.Email)
	u.CreatedAt = created.UTC()
	return u, nil
}

func (q *queries) getUser(ctx context.Context, where string, arg any) (core.User, error) {
	var u core.User
	err := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = $1`, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.User{}, core.NotFound("user")
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (q *queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	return q.getUser(ctx, "id", id)
}

func (q *queries) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	return q.getUser(ctx, "email", core.NormalizeEmail(email))
}

func (t ledgerTx) InsertTransaction(ctx context.Context, ownerID int64, n core.NewTransaction) (int64, error) {
	var id int64
	err := t.db.QueryRow(ctx,
		`INSERT INTO transactions (owner_id, account_id, category_id, date, description, amount_cents, type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		ownerID, n.AccountID, n.CategoryID, n.Date.UTC(), n.Description, n.Amount.Cents, string(n.Type)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return id, nil
}

func (t ledgerTx) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return expectOne(tag, "transaction")
}

func (t ledgerTx) ApplyBalanceDelta(ctx context.Context, accountID int64, delta core.Money) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + $1 WHERE id = $2`, delta.Cents, accountID)
	if err != nil {
		return fmt.Errorf("apply balance delta to account %d: %w", accountID, err)
	}
	return expectOne(tag, "account")
}
