// Package settings stores plain, unencrypted user preferences (theme,
// autosave, preview length, ...) keyed by name. Values are opaque JSON
// documents; encoding is up to the caller.
package settings

import "context"

type Repository interface {
	// Get returns the value stored under name, or (nil, nil) when absent.
	Get(ctx context.Context, name string) ([]byte, error)
	// Set stores value under name, overwriting any previous value.
	Set(ctx context.Context, name string, value []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) (map[string][]byte, error)
}
