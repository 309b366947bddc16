package entries

import (
	"context"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
)

// Repository describes storage operations on encrypted entry rows.
type Repository interface {
	// Put inserts the entry or replaces the row with the same Id.
	Put(ctx context.Context, entry *models.Entry) error

	// Update rewrites an existing row and reports whether it existed.
	// It never inserts.
	Update(ctx context.Context, entry *models.Entry) (bool, error)

	// Get returns the row with the given id, or (nil, nil) when absent.
	Get(ctx context.Context, id string) (*models.Entry, error)

	// Delete removes a row and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Clear removes every entry row. Keys and settings are untouched.
	Clear(ctx context.Context) error

	// ListByTimeDesc returns all rows, newest CreatedAt first.
	ListByTimeDesc(ctx context.Context) ([]*models.Entry, error)

	// ListByTimeAsc returns all rows, oldest CreatedAt first.
	ListByTimeAsc(ctx context.Context) ([]*models.Entry, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int, error)
}
