package storage

import (
	"context"
	"errors"
)

// ErrEmptyObject is returned when asked to store zero bytes.
var ErrEmptyObject = errors.New("object body is empty")

// FileStorage defines the interface for storing uploaded material files.
type FileStorage interface {
	// PutObject stores body under objectKey and returns an address the
	// browser can load the file from.
	PutObject(ctx context.Context, objectKey, contentType string, body []byte) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}
