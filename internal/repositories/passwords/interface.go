package passwords

import (
	"context"

	"github.com/cryfox/vaultcore/internal/models"
)

// Repository describes CRUD operations on the passwords table.
type Repository interface {
	// Insert stores a new row and returns its assigned id.
	Insert(ctx context.Context, c *models.StoredCredential) (int64, error)

	// GetAll returns every row ordered by url.
	GetAll(ctx context.Context) ([]models.StoredCredential, error)

	// GetByID returns a single row or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.StoredCredential, error)

	// Update rewrites the row identified by c.ID. A missing row is
	// common.ErrNotFound.
	Update(ctx context.Context, c *models.StoredCredential) error

	// Delete removes a row. Deleting a missing id is not an error.
	Delete(ctx context.Context, id int64) error
}
