package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, price, stock_quantity, image_path, color, created_at FROM products ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []entity.Product{}
	for rows.Next() {
		var p entity.Product
		var imagePath sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &imagePath, &p.Color, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.ImagePath = stringPtr(imagePath)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func (r *productRepository) Insert(ctx context.Context, f entity.ProductFields) (*entity.Product, error) {
	p := entity.Product{
		ID:            uuid.NewString(),
		Name:          f.Name,
		Description:   f.Description,
		Price:         f.Price,
		StockQuantity: f.StockQuantity,
		ImagePath:     f.ImagePath,
		Color:         f.Color,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (id, name, description, price, stock_quantity, image_path, color)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity, nullString(p.ImagePath), p.Color,
	).Scan(&p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}
	p = p.Clone()
	return &p, nil
}

func (r *productRepository) Update(ctx context.Context, id string, f entity.ProductFields) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $1, description = $2, price = $3, stock_quantity = $4, image_path = $5, color = $6
		 WHERE id = $7`,
		f.Name, f.Description, f.Price, f.StockQuantity, nullString(f.ImagePath), f.Color, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return checkAffected(res, "product", id)
}

// Delete removes the product. Items referencing it keep a NULL product_id.
func (r *productRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return checkAffected(res, "product", id)
}

// Seed inserts the given products when the catalogue is empty.
func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range products {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO products (id, name, description, price, stock_quantity, image_path, color) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			p.ID, p.Name, p.Description, p.Price, p.StockQuantity, nullString(p.ImagePath), p.Color,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

// SeedProducts fills an empty catalogue.
func SeedProducts(ctx context.Context, db *sql.DB, products []entity.Product) error {
	return (&productRepository{db: db}).Seed(ctx, products)
}
