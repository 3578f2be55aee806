// Package kv provides named slots that each hold one opaque blob, the
// server-side stand-in for browser local storage.
package kv

import "context"

// Store is a key-value slot store. A missing key is reported with found=false,
// never as an error.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
