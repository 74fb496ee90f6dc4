package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Profile is a user profile owned by the identity provider.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Product represents a product in the catalogue.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImagePath     *string         `json:"image_path"`
	Color         string          `json:"color"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderItem is a line item within an order. PriceAtPurchase is a copy taken
// when the order was composed and is never updated afterwards.
type OrderItem struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ProductSize     string          `json:"product_size"`
	ProductColor    string          `json:"product_color"`
}

// Order represents a customer order together with its items.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderItem     `json:"order_items"`
}

// Clone returns a copy of the order that does not share its item slice.
func (o Order) Clone() Order {
	if o.Items != nil {
		items := make([]OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	return o
}

// Clone returns a copy of the product that does not share its image path.
func (p Product) Clone() Product {
	if p.ImagePath != nil {
		path := *p.ImagePath
		p.ImagePath = &path
	}
	return p
}

// --- Writes ---

// NewOrder holds the parent order columns written in the first phase of a
// composition.
type NewOrder struct {
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
}

// NewOrderItem holds the item columns written in the second phase.
type NewOrderItem struct {
	OrderID         string          `json:"order_id"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ProductSize     string          `json:"product_size"`
	ProductColor    string          `json:"product_color"`
}

// OrderUpdate carries the editable order columns.
type OrderUpdate struct {
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
}

// ProductFields carries the columns written on product insert and update.
type ProductFields struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImagePath     *string         `json:"image_path"`
	Color         string          `json:"color"`
}

// ProfileUpdate carries the editable profile columns.
type ProfileUpdate struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Age      int    `json:"age"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Upload is a file chosen by the operator for a product image.
type Upload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}
