package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
	"github.com/mohammadpnp/csv-import/internal/infrastructure/db/models"
)

var _ domain.OrganizationDirectory = (*OrganizationRepository)(nil)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Slug(ctx context.Context, organizationID string) (string, error) {
	var row models.Organization

	err := r.db.WithContext(ctx).
		Select("id", "slug").
		Take(&row, "id = ?", organizationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrOrganizationNotFound
		}
		return "", fmt.Errorf("get organization slug: %w", err)
	}

	return row.Slug, nil
}
