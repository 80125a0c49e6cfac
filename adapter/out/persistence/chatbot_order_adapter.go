// Package persistence implements SQL adapters for the application.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"chatbot_server/core/domain"
	"chatbot_server/core/port/out"
	"chatbot_server/pkg/apperr"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// OrderAdapter implements out.OrderRepository on a Postgres `orders` table.
type OrderAdapter struct {
	db *sqlx.DB
}

// NewOrderAdapter creates a new OrderAdapter
func NewOrderAdapter(db *sqlx.DB) *OrderAdapter {
	return &OrderAdapter{db: db}
}

// Ensure OrderAdapter implements OrderRepository
var _ out.OrderRepository = (*OrderAdapter)(nil)

// orderRow represents the database row
type orderRow struct {
	OrderNumber  int64          `db:"order_number"`
	Status       string         `db:"status"`
	Items        pq.StringArray `db:"items"`
	Total        float64        `db:"total"`
	CustomerName string         `db:"customer_name"`
	Address      string         `db:"address"`
	OrderDate    time.Time      `db:"order_date"`
}

const orderDateLayout = "2006-01-02"

// GetByNumber retrieves an order by its customer-facing number.
func (a *OrderAdapter) GetByNumber(ctx context.Context, orderNumber int64) (*domain.Order, error) {
	query := `
		SELECT order_number, status, items, total, customer_name, address, order_date
		FROM orders
		WHERE order_number = $1
	`

	var row orderRow
	err := a.db.QueryRowxContext(ctx, query, orderNumber).StructScan(&row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, out.ErrOrderNotFound
		}
		return nil, apperr.DatabaseError(fmt.Sprintf("query order %d", orderNumber), err)
	}

	return &domain.Order{
		OrderNumber:  row.OrderNumber,
		Status:       row.Status,
		Items:        []string(row.Items),
		Total:        row.Total,
		CustomerName: row.CustomerName,
		Address:      row.Address,
		OrderDate:    row.OrderDate.Format(orderDateLayout),
	}, nil
}

// Upsert creates or replaces an order.
func (a *OrderAdapter) Upsert(ctx context.Context, o *domain.Order) error {
	date, err := time.Parse(orderDateLayout, o.OrderDate)
	if err != nil {
		return fmt.Errorf("invalid order date %q: %w", o.OrderDate, err)
	}

	query := `
		INSERT INTO orders (order_number, status, items, total, customer_name, address, order_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_number) DO UPDATE SET
			status = EXCLUDED.status,
			items = EXCLUDED.items,
			total = EXCLUDED.total,
			customer_name = EXCLUDED.customer_name,
			address = EXCLUDED.address,
			order_date = EXCLUDED.order_date
	`

	_, err = a.db.ExecContext(ctx, query,
		o.OrderNumber,
		o.Status,
		pq.Array(o.Items),
		o.Total,
		o.CustomerName,
		o.Address,
		date,
	)
	if err != nil {
		return apperr.DatabaseError(fmt.Sprintf("upsert order %d", o.OrderNumber), err)
	}
	return nil
}

// Schema is the DDL for the orders table.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_number  BIGINT PRIMARY KEY,
	status        TEXT NOT NULL,
	items         TEXT[] NOT NULL DEFAULT '{}',
	total         NUMERIC(12, 2) NOT NULL,
	customer_name TEXT NOT NULL,
	address       TEXT NOT NULL,
	order_date    DATE NOT NULL
)`

// Migrate creates the orders table when missing.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return apperr.DatabaseError("migrate orders", err)
	}
	return nil
}
