package authrecord

import (
	"context"

	"github.com/cryfox/vaultcore/internal/models"
)

// Repository loads and stores the AuthRecord.
type Repository interface {
	Load(ctx context.Context) (*models.AuthRecord, error)
	Save(ctx context.Context, rec *models.AuthRecord) error
}
