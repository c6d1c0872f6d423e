package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jcastrom/pospoint/internal/core/domain"
)

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price, stock FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ApplyMovement adjusts stock and records the movement in one
// transaction. The stock guard sits in the UPDATE itself, so two
// concurrent sales of the last units cannot both succeed.
func (m *MySQLAdapter) ApplyMovement(ctx context.Context, mv domain.InventoryMovement) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ? AND stock + ? >= 0`,
		mv.Delta, mv.ProductID, mv.Delta,
	)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM products WHERE id = ?`, mv.ProductID,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUnknownProduct
		}
		if err != nil {
			return fmt.Errorf("check product: %w", err)
		}
		return domain.ErrInsufficientStock
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (product_id, delta, reason, user_id, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		mv.ProductID, mv.Delta, mv.Reason, mv.UserID, mv.Key,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}

	return tx.Commit()
}

func (m *MySQLAdapter) RecordSale(ctx context.Context, req domain.SaleRequest) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, user_id, total, created_at)
		VALUES (?, ?, ?, ?)`,
		req.ID, req.UserID, req.Total, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, d := range req.Details {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_details (sale_id, product_id, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?)`,
			req.ID, d.ProductID, d.Quantity, d.UnitPrice, d.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert sale detail: %w", err)
		}
	}

	return tx.Commit()
}
