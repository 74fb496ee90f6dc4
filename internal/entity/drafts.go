package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidStatus   = errors.New("invalid order status")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidAmount   = errors.New("amount must not be negative")
	ErrMissingField    = errors.New("required field is missing")
)

// DefaultPaymentMethod is preselected on a fresh order form.
const DefaultPaymentMethod = "COD"

// OrderDraft is the order creation form: the parent order columns plus the
// single line item composed with it.
type OrderDraft struct {
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PaymentMethod   string          `json:"payment_method"`
	ProductID       string          `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	ProductSize     string          `json:"product_size"`
	ProductColor    string          `json:"product_color"`
}

// NewOrderDraft returns the order form in its default state.
func NewOrderDraft() OrderDraft {
	return OrderDraft{
		PaymentMethod: DefaultPaymentMethod,
		Quantity:      1,
	}
}

// Validate checks the draft before any write is attempted.
func (d OrderDraft) Validate() error {
	if strings.TrimSpace(d.UserID) == "" {
		return fmt.Errorf("%w: user_id", ErrMissingField)
	}
	if d.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total_amount", ErrInvalidAmount)
	}
	if d.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if d.PriceAtPurchase.IsNegative() {
		return fmt.Errorf("%w: price_at_purchase", ErrInvalidAmount)
	}
	return nil
}

// Order returns the parent order columns of the draft.
func (d OrderDraft) Order() NewOrder {
	return NewOrder{
		UserID:          d.UserID,
		TotalAmount:     d.TotalAmount,
		ShippingAddress: d.ShippingAddress,
		PaymentMethod:   d.PaymentMethod,
	}
}

// Item returns the line item columns bound to the given parent order.
func (d OrderDraft) Item(orderID string) NewOrderItem {
	return NewOrderItem{
		OrderID:         orderID,
		ProductID:       d.ProductID,
		Quantity:        d.Quantity,
		PriceAtPurchase: d.PriceAtPurchase,
		ProductSize:     d.ProductSize,
		ProductColor:    d.ProductColor,
	}
}

// OrderEdit is the open order edit form.
type OrderEdit struct {
	ID string `json:"id"`
	OrderUpdate
}

// EditOrder opens an edit form prefilled from o.
func EditOrder(o Order) OrderEdit {
	return OrderEdit{
		ID: o.ID,
		OrderUpdate: OrderUpdate{
			Status:          o.Status,
			TotalAmount:     o.TotalAmount,
			ShippingAddress: o.ShippingAddress,
			PaymentMethod:   o.PaymentMethod,
		},
	}
}

func (e OrderEdit) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, e.Status)
	}
	if e.TotalAmount.IsNegative() {
		return fmt.Errorf("%w: total_amount", ErrInvalidAmount)
	}
	return nil
}

// ProductDraft is the product creation form.
type ProductDraft struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	Color         string          `json:"color"`
	Image         *Upload         `json:"image,omitempty"`
}

// NewProductDraft returns the product form in its default state.
func NewProductDraft() ProductDraft {
	return ProductDraft{StockQuantity: 1}
}

func (d ProductDraft) Validate() error {
	return validateProduct(d.Price, d.StockQuantity)
}

// ProductEdit is the open product edit form. NewImage is set only when the
// operator chose a replacement file; otherwise ImagePath is kept.
type ProductEdit struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImagePath     *string         `json:"image_path"`
	Color         string          `json:"color"`
	NewImage      *Upload         `json:"new_image,omitempty"`
}

// EditProduct opens an edit form prefilled from p with no new file chosen.
func EditProduct(p Product) ProductEdit {
	p = p.Clone()
	return ProductEdit{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImagePath:     p.ImagePath,
		Color:         p.Color,
	}
}

func (e ProductEdit) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	return validateProduct(e.Price, e.StockQuantity)
}

func validateProduct(price decimal.Decimal, stock int) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price", ErrInvalidAmount)
	}
	if stock < 0 {
		return fmt.Errorf("%w: stock_quantity", ErrInvalidAmount)
	}
	return nil
}

// ProfileEdit is the open profile edit form.
type ProfileEdit struct {
	ID string `json:"id"`
	ProfileUpdate
}

// EditProfile opens an edit form prefilled from p.
func EditProfile(p Profile) ProfileEdit {
	return ProfileEdit{
		ID: p.ID,
		ProfileUpdate: ProfileUpdate{
			Username: p.Username,
			FullName: p.FullName,
			Age:      p.Age,
			Phone:    p.Phone,
			Address:  p.Address,
		},
	}
}

func (e ProfileEdit) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id", ErrMissingField)
	}
	return nil
}
