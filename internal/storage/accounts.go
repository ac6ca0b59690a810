package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const accountColumns = `id, owner_id, name, type, balance_cents, archived, created_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a        core.Account
		typ      string
		archived int64
		created  int64
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &a.Balance.Cents, &archived, &created); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.State = core.Active
	if archived != 0 {
		a.State = core.Archived
	}
	a.CreatedAt = fromMillis(created)
	return a, nil
}

func (q *queries) ListAccounts(ctx context.Context, ownerID int64) ([]core.Account, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? AND archived = 0 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []core.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (q *queries) GetAccount(ctx context.Context, ownerID, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND owner_id = ?`, id, ownerID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.NotFound("account")
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (q *queries) FindActiveAccountByName(ctx context.Context, ownerID int64, name string) (core.Account, bool, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? AND name_key = ? AND archived = 0`,
		ownerID, core.NormalizeName(name))
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, false, nil
	}
	if err != nil {
		return core.Account{}, false, fmt.Errorf("find account by name: %w", err)
	}
	return a, true, nil
}

func (q *queries) InsertAccount(ctx context.Context, ownerID int64, n core.NewAccount) (core.Account, error) {
	a := core.Account{
		OwnerID:   ownerID,
		Name:      n.Name,
		Type:      n.Type,
		Balance:   n.OpeningBalance,
		State:     core.Active,
		CreatedAt: fromMillis(toMillis(q.now())),
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (owner_id, name, name_key, type, balance_cents, archived, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		ownerID, a.Name, core.NormalizeName(a.Name), string(a.Type), a.Balance.Cents, toMillis(a.CreatedAt))
	if isUniqueViolation(err) {
		return core.Account{}, core.Conflict("account", "an account with this name already exists")
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return a, nil
}

func (q *queries) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, name_key = ?, type = ?
		 WHERE id = ? AND owner_id = ? AND archived = 0`,
		a.Name, core.NormalizeName(a.Name), string(a.Type), a.ID, a.OwnerID)
	if isUniqueViolation(err) {
		return core.Conflict("account", "an account with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return expectOne(res, "account")
}

func (q *queries) ArchiveAccount(ctx context.Context, ownerID, id int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET archived = 1 WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("archive account %d: %w", id, err)
	}
	return expectOne(res, "account")
}

func (t ledgerTx) ApplyBalanceDelta(ctx context.Context, accountID int64, delta core.Money) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, delta.Cents, accountID)
	if err != nil {
		return fmt.Errorf("apply balance delta to account %d: %w", accountID, err)
	}
	return expectOne(res, "account")
}
