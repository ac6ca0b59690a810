package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/core"
)

const transactionSelect = `SELECT t.id, t.owner_id, t.account_id, t.category_id, t.date, t.description,
       t.amount_cents, t.type, t.created_at, a.name, a.type, c.name, c.type
FROM transactions t
JOIN accounts a ON a.id = t.account_id
LEFT JOIN categories c ON c.id = t.category_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx               core.Transaction
		categoryID       sql.NullInt64
		date, created    int64
		typ, accType     string
		catName, catType sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.OwnerID, &tx.AccountID, &categoryID, &date, &tx.Description,
		&tx.Amount.Cents, &typ, &created, &tx.Account.Name, &accType, &catName, &catType)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	tx.Date = fromMillis(date)
	tx.CreatedAt = fromMillis(created)
	tx.Account.ID = tx.AccountID
	tx.Account.Type = core.AccountType(accType)
	if categoryID.Valid {
		id := categoryID.Int64
		tx.CategoryID = &id
		tx.Category = &core.CategoryRef{ID: id, Name: catName.String, Type: core.TransactionType(catType.String)}
	}
	return tx, nil
}

func (q *queries) GetTransaction(ctx context.Context, ownerID, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ? AND t.owner_id = ?`, id, ownerID)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.NotFound("transaction")
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (q *queries) ListTransactions(ctx context.Context, ownerID int64, f core.TransactionFilter) ([]core.Transaction, error) {
	where := []string{"t.owner_id = ?"}
	args := []any{ownerID}
	if f.From != nil {
		where = append(where, "t.date >= ?")
		args = append(args, toMillis(*f.From))
	}
	if f.To != nil {
		where = append(where, "t.date <= ?")
		args = append(args, toMillis(*f.To))
	}
	if f.AccountID != nil {
		where = append(where, "t.account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.Type != "" {
		where = append(where, "t.type = ?")
		args = append(args, string(f.Type))
	}

	query := transactionSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY t.date DESC, t.id DESC`
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (q *queries) UpdateTransactionMetadata(ctx context.Context, ownerID, id int64, description string, categoryID *int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET description = ?, category_id = ? WHERE id = ? AND owner_id = ?`,
		description, nullableID(categoryID), id, ownerID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	return expectOne(res, "transaction")
}

func (t ledgerTx) InsertTransaction(ctx context.Context, ownerID int64, n core.NewTransaction) (int64, error) {
	res, err := t.db.ExecContext(ctx,
		`INSERT INTO transactions (owner_id, account_id, category_id, date, description, amount_cents, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, n.AccountID, nullableID(n.CategoryID), toMillis(n.Date), n.Description,
		n.Amount.Cents, string(n.Type), toMillis(t.now()))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

func (t ledgerTx) DeleteTransaction(ctx context.Context, ownerID, id int64) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return expectOne(res, "transaction")
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
