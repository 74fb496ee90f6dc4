package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/state"
)

// DefaultImageBucket is the storage bucket holding product images.
const DefaultImageBucket = "product-images"

// ProductService creates, edits and deletes products, uploading their images
// to blob storage first.
type ProductService struct {
	productRepo repository.ProductRepository
	blobs       repository.BlobStore
	bucket      string
	refresher   state.Refresher
	newName     func() string
}

func NewProductService(
	productRepo repository.ProductRepository,
	blobs repository.BlobStore,
	bucket string,
	refresher state.Refresher,
) *ProductService {
	if bucket == "" {
		bucket = DefaultImageBucket
	}
	return &ProductService{
		productRepo: productRepo,
		blobs:       blobs,
		bucket:      bucket,
		refresher:   refresher,
		newName:     uuid.NewString,
	}
}

// Create uploads the draft's image, if any, then inserts the product with
// the stored path. A failed upload aborts the insert. Cancelling ctx does not
// abort a started create.
func (s *ProductService) Create(ctx context.Context, draft entity.ProductDraft) (*entity.Product, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	var imagePath *string
	if draft.Image != nil {
		path, err := s.upload(ctx, *draft.Image)
		if err != nil {
			return nil, err
		}
		imagePath = &path
	}

	slog.Info("Service: Creating product", "name", draft.Name, "has_image", imagePath != nil)
	product, err := s.productRepo.Insert(ctx, entity.ProductFields{
		Name:          draft.Name,
		Description:   draft.Description,
		Price:         draft.Price,
		StockQuantity: draft.StockQuantity,
		ImagePath:     imagePath,
		Color:         draft.Color,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Products)
	return product, nil
}

// Update writes the edit. The stored image path is kept unless a new file
// was chosen, in which case it is uploaded first and its path replaces the
// old one. Like Create, a started update is not cancelled with ctx.
func (s *ProductService) Update(ctx context.Context, edit entity.ProductEdit) error {
	if err := edit.Validate(); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)

	imagePath := edit.ImagePath
	if edit.NewImage != nil {
		path, err := s.upload(ctx, *edit.NewImage)
		if err != nil {
			return err
		}
		imagePath = &path
	}

	slog.Info("Service: Updating product", "product_id", edit.ID, "new_image", edit.NewImage != nil)
	err := s.productRepo.Update(ctx, edit.ID, entity.ProductFields{
		Name:          edit.Name,
		Description:   edit.Description,
		Price:         edit.Price,
		StockQuantity: edit.StockQuantity,
		ImagePath:     imagePath,
		Color:         edit.Color,
	})
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", edit.ID, err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Products)
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	slog.Info("Service: Deleting product", "product_id", id)
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	refreshAfterWrite(ctx, s.refresher, state.Products)
	return nil
}

// ImageURL resolves the public URL of the product's image, or "" when it has
// none.
func (s *ProductService) ImageURL(p entity.Product) string {
	if p.ImagePath == nil || *p.ImagePath == "" {
		return ""
	}
	return s.blobs.PublicURL(s.bucket, *p.ImagePath)
}

func (s *ProductService) upload(ctx context.Context, file entity.Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := s.newName() + ext

	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	path, err := s.blobs.Upload(ctx, s.bucket, name, contentType, file.Data)
	if err != nil {
		slog.Error("Service: Image upload failed", "bucket", s.bucket, "name", name, "err", err)
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	slog.Info("Service: Image uploaded", "bucket", s.bucket, "path", path, "size", len(file.Data))
	return path, nil
}
