package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository backed by Postgres.
func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

// FindAll returns every order oldest first with its items nested. Orders
// without items carry an empty slice.
func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_amount, shipping_address, payment_method, status, created_at
		 FROM orders ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	index := make(map[string]int)
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.ShippingAddress, &o.PaymentMethod, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Items = []entity.OrderItem{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}

	itemRows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, price_at_purchase, product_size, product_color
		 FROM order_items ORDER BY order_id, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item entity.OrderItem
		var productID sql.NullString
		if err := itemRows.Scan(&item.ID, &item.OrderID, &productID, &item.Quantity, &item.PriceAtPurchase, &item.ProductSize, &item.ProductColor); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.ProductID = productID.String
		// Items of orders inserted after the first query are skipped.
		if i, ok := index[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Insert(ctx context.Context, order entity.NewOrder) (*entity.Order, error) {
	o := entity.Order{
		ID:              uuid.NewString(),
		UserID:          order.UserID,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Items:           []entity.OrderItem{},
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO orders (id, user_id, total_amount, shipping_address, payment_method)
		 VALUES ($1, $2, $3, $4, $5) RETURNING status, created_at`,
		o.ID, o.UserID, o.TotalAmount, o.ShippingAddress, o.PaymentMethod,
	).Scan(&o.Status, &o.CreatedAt)
	if err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return nil, fmt.Errorf("failed to insert order: %w: %v", repository.ErrForeignKey, err)
		}
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, id string, f entity.OrderUpdate) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, total_amount = $2, shipping_address = $3, payment_method = $4
		 WHERE id = $5`,
		string(f.Status), f.TotalAmount, f.ShippingAddress, f.PaymentMethod, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return checkAffected(res, "order", id)
}

// Delete removes the order. Its items cascade through the foreign key.
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return checkAffected(res, "order", id)
}

type orderItemRepository struct {
	db *sql.DB
}

// NewOrderItemRepository creates a new OrderItemRepository backed by Postgres.
func NewOrderItemRepository(db *sql.DB) repository.OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) Insert(ctx context.Context, item entity.NewOrderItem) (*entity.OrderItem, error) {
	stored := entity.OrderItem{
		ID:              uuid.NewString(),
		OrderID:         item.OrderID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		PriceAtPurchase: item.PriceAtPurchase,
		ProductSize:     item.ProductSize,
		ProductColor:    item.ProductColor,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, product_size, product_color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stored.ID, stored.OrderID, stored.ProductID, stored.Quantity, stored.PriceAtPurchase, stored.ProductSize, stored.ProductColor,
	)
	if err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return nil, fmt.Errorf("failed to insert order item: %w: %v", repository.ErrForeignKey, err)
		}
		return nil, fmt.Errorf("failed to insert order item: %w", err)
	}
	return &stored, nil
}
