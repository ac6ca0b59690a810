package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

const categoryColumns = `id, owner_id, name, type, created_at`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c       core.Category
		typ     string
		created int64
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ, &created); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.CreatedAt = fromMillis(created)
	return c, nil
}

func (q *queries) ListCategories(ctx context.Context, ownerID int64) ([]core.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? ORDER BY type, name`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *queries) GetCategory(ctx context.Context, ownerID, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`, id, ownerID)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.NotFound("category")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	return c, nil
}

func (q *queries) FindCategoryByName(ctx context.Context, ownerID int64, name string, typ core.TransactionType) (core.Category, bool, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND name_key = ? AND type = ?`,
		ownerID, core.NormalizeName(name), string(typ))
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, false, nil
	}
	if err != nil {
		return core.Category{}, false, fmt.Errorf("find category by name: %w", err)
	}
	return c, true, nil
}

func (q *queries) InsertCategory(ctx context.Context, ownerID int64, n core.NewCategory) (core.Category, error) {
	c := core.Category{
		OwnerID:   ownerID,
		Name:      n.Name,
		Type:      n.Type,
		CreatedAt: fromMillis(toMillis(q.now())),
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (owner_id, name, name_key, type, created_at) VALUES (?, ?, ?, ?, ?)`,
		ownerID, c.Name, core.NormalizeName(c.Name), string(c.Type), toMillis(c.CreatedAt))
	if isUniqueViolation(err) {
		return core.Category{}, core.Conflict("category", "a category with this name and type already exists")
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}
