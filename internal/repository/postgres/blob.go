package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

type blobStore struct {
	db      *sql.DB
	baseURL string
}

// NewBlobStore creates a BlobStore that keeps objects in the storage_objects
// table and serves them under baseURL.
func NewBlobStore(db *sql.DB, baseURL string) repository.BlobStore {
	return &blobStore{db: db, baseURL: baseURL}
}

// Upload stores data under bucket/name. Existing objects are never
// overwritten.
func (s *blobStore) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (string, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO storage_objects (bucket, path, content_type, data) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (bucket, path) DO NOTHING`,
		bucket, name, contentType, data,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return "", fmt.Errorf("object %s/%s already exists", bucket, name)
	}
	return name, nil
}

func (s *blobStore) Download(ctx context.Context, bucket, path string) (*repository.Object, error) {
	obj := repository.Object{Bucket: bucket, Path: path}
	err := s.db.QueryRowContext(ctx,
		"SELECT content_type, data FROM storage_objects WHERE bucket = $1 AND path = $2",
		bucket, path,
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("object", bucket+"/"+path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}
	return &obj, nil
}

func (s *blobStore) PublicURL(bucket, path string) string {
	return repository.PublicObjectURL(s.baseURL, bucket, path)
}
