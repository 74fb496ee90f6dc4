package repository

import (
	"context"
	"errors"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrForeignKey is returned when a write references a missing parent row.
	ErrForeignKey = errors.New("violates foreign key constraint")
)

// ProfileRepository handles persistence for Profiles.
type ProfileRepository interface {
	FindAll(ctx context.Context) ([]entity.Profile, error)
	Update(ctx context.Context, id string, fields entity.ProfileUpdate) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository handles persistence for Products.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	Insert(ctx context.Context, fields entity.ProductFields) (*entity.Product, error)
	Update(ctx context.Context, id string, fields entity.ProductFields) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository handles persistence for Orders. FindAll returns every
// order with its items nested.
type OrderRepository interface {
	FindAll(ctx context.Context) ([]entity.Order, error)
	// Insert writes a parent order and returns the stored row, including the
	// id and created_at assigned by the store.
	Insert(ctx context.Context, order entity.NewOrder) (*entity.Order, error)
	Update(ctx context.Context, id string, fields entity.OrderUpdate) error
	Delete(ctx context.Context, id string) error
}

// OrderItemRepository handles persistence for order line items.
type OrderItemRepository interface {
	Insert(ctx context.Context, item entity.NewOrderItem) (*entity.OrderItem, error)
}

// Object is a stored blob.
type Object struct {
	Bucket      string
	Path        string
	ContentType string
	Data        []byte
}

// BlobStore stores uploaded files and resolves them to public URLs.
type BlobStore interface {
	Upload(ctx context.Context, bucket, name, contentType string, data []byte) (string, error)
	Download(ctx context.Context, bucket, path string) (*Object, error)
	PublicURL(bucket, path string) string
}
