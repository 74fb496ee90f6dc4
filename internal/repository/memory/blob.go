package memory

import (
	"context"
	"fmt"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

type blobStore struct {
	db      *DB
	baseURL string
}

func objectKey(bucket, path string) string {
	return bucket + "/" + path
}

// Upload stores data under bucket/name. Existing objects are never
// overwritten.
func (s *blobStore) Upload(ctx context.Context, bucket, name, contentType string, data []byte) (string, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	key := objectKey(bucket, name)
	if _, exists := s.db.objects[key]; exists {
		return "", fmt.Errorf("object %s already exists", key)
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.db.objects[key] = repository.Object{
		Bucket:      bucket,
		Path:        name,
		ContentType: contentType,
		Data:        stored,
	}
	return name, nil
}

func (s *blobStore) Download(ctx context.Context, bucket, path string) (*repository.Object, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	obj, ok := s.db.objects[objectKey(bucket, path)]
	if !ok {
		return nil, notFound("object", objectKey(bucket, path))
	}
	return &obj, nil
}

func (s *blobStore) PublicURL(bucket, path string) string {
	return repository.PublicObjectURL(s.baseURL, bucket, path)
}
