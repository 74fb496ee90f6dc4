package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

type profileRepository struct {
	db *DB
}

func (r *profileRepository) FindAll(ctx context.Context) ([]entity.Profile, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	profiles := make([]entity.Profile, len(r.db.profiles))
	copy(profiles, r.db.profiles)
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, id string, fields entity.ProfileUpdate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.profileIndex(id)
	if i < 0 {
		return notFound("profile", id)
	}
	p := &r.db.profiles[i]
	p.Username = fields.Username
	p.FullName = fields.FullName
	p.Age = fields.Age
	p.Phone = fields.Phone
	p.Address = fields.Address
	return nil
}

// Delete removes the profile and, like ON DELETE CASCADE, its orders.
func (r *profileRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.profileIndex(id)
	if i < 0 {
		return notFound("profile", id)
	}
	r.db.profiles = append(r.db.profiles[:i], r.db.profiles[i+1:]...)

	kept := r.db.orders[:0]
	for _, o := range r.db.orders {
		if o.UserID == id {
			r.db.deleteItemsOf(o.ID)
			continue
		}
		kept = append(kept, o)
	}
	r.db.orders = kept
	return nil
}

type productRepository struct {
	db *DB
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	products := make([]entity.Product, len(r.db.products))
	for i, p := range r.db.products {
		products[i] = p.Clone()
	}
	return products, nil
}

func (r *productRepository) Insert(ctx context.Context, fields entity.ProductFields) (*entity.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p := entity.Product{
		ID:            uuid.NewString(),
		Name:          fields.Name,
		Description:   fields.Description,
		Price:         fields.Price,
		StockQuantity: fields.StockQuantity,
		ImagePath:     fields.ImagePath,
		Color:         fields.Color,
		CreatedAt:     r.db.now(),
	}
	p = p.Clone()
	r.db.products = append(r.db.products, p)

	out := p.Clone()
	return &out, nil
}

func (r *productRepository) Update(ctx context.Context, id string, fields entity.ProductFields) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.productIndex(id)
	if i < 0 {
		return notFound("product", id)
	}
	p := &r.db.products[i]
	p.Name = fields.Name
	p.Description = fields.Description
	p.Price = fields.Price
	p.StockQuantity = fields.StockQuantity
	p.ImagePath = nil
	if fields.ImagePath != nil {
		path := *fields.ImagePath
		p.ImagePath = &path
	}
	p.Color = fields.Color
	return nil
}

// Delete removes the product; items that referenced it keep their row with
// an empty product_id, like ON DELETE SET NULL.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.productIndex(id)
	if i < 0 {
		return notFound("product", id)
	}
	r.db.products = append(r.db.products[:i], r.db.products[i+1:]...)
	for j := range r.db.items {
		if r.db.items[j].ProductID == id {
			r.db.items[j].ProductID = ""
		}
	}
	return nil
}

type orderRepository struct {
	db *DB
}

func (r *orderRepository) FindAll(ctx context.Context) ([]entity.Order, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	orders := make([]entity.Order, len(r.db.orders))
	for i, o := range r.db.orders {
		o.Items = []entity.OrderItem{}
		for _, item := range r.db.items {
			if item.OrderID == o.ID {
				o.Items = append(o.Items, item)
			}
		}
		orders[i] = o
	}
	return orders, nil
}

func (r *orderRepository) Insert(ctx context.Context, order entity.NewOrder) (*entity.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.profileIndex(order.UserID) < 0 {
		return nil, fmt.Errorf("insert on table \"orders\" %w \"orders_user_id_fkey\": user %s", repository.ErrForeignKey, order.UserID)
	}

	o := entity.Order{
		ID:              uuid.NewString(),
		UserID:          order.UserID,
		TotalAmount:     order.TotalAmount,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		Status:          entity.OrderStatusPending,
		CreatedAt:       r.db.now(),
	}
	r.db.orders = append(r.db.orders, o)

	o.Items = []entity.OrderItem{}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, id string, fields entity.OrderUpdate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.orderIndex(id)
	if i < 0 {
		return notFound("order", id)
	}
	o := &r.db.orders[i]
	o.Status = fields.Status
	o.TotalAmount = fields.TotalAmount
	o.ShippingAddress = fields.ShippingAddress
	o.PaymentMethod = fields.PaymentMethod
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.orderIndex(id)
	if i < 0 {
		return notFound("order", id)
	}
	r.db.orders = append(r.db.orders[:i], r.db.orders[i+1:]...)
	r.db.deleteItemsOf(id)
	return nil
}

type orderItemRepository struct {
	db *DB
}

func (r *orderItemRepository) Insert(ctx context.Context, item entity.NewOrderItem) (*entity.OrderItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.db.orderIndex(item.OrderID) < 0 {
		return nil, fmt.Errorf("insert on table \"order_items\" %w \"order_items_order_id_fkey\": order %s", repository.ErrForeignKey, item.OrderID)
	}
	if r.db.productIndex(item.ProductID) < 0 {
		return nil, fmt.Errorf("insert on table \"order_items\" %w \"order_items_product_id_fkey\": product %s", repository.ErrForeignKey, item.ProductID)
	}

	stored := entity.OrderItem{
		ID:              uuid.NewString(),
		OrderID:         item.OrderID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		PriceAtPurchase: item.PriceAtPurchase,
		ProductSize:     item.ProductSize,
		ProductColor:    item.ProductColor,
	}
	r.db.items = append(r.db.items, stored)
	return &stored, nil
}

// deleteItemsOf must be called with db.mu held.
func (db *DB) deleteItemsOf(orderID string) {
	kept := db.items[:0]
	for _, item := range db.items {
		if item.OrderID != orderID {
			kept = append(kept, item)
		}
	}
	db.items = kept
}
