package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// Service resolves catalog references for the issuance engine. It only
// reads; products and locations are managed elsewhere and stock is written
// exclusively by the stock ledger.
type Service interface {
	ActiveProducts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	Location(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Location, error)
	LocationByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Location, error)
}

type service struct{}

// NewService returns the catalog lookup service.
func NewService() Service {
	return service{}
}

// ActiveProducts loads the referenced products keyed by id. Missing ids and
// inactive products both fail the whole lookup.
func (service) ActiveProducts(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Product{}, nil
	}
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	var products []models.Product
	if err := tx.WithContext(ctx).Where("id IN ?", unique).Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query products")
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, product := range products {
		if !product.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "product %q is inactive", product.Title)
		}
		byID[product.ID] = product
	}
	for _, id := range unique {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", id)
		}
	}
	return byID, nil
}

func (service) Location(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := tx.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "location %s not found", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query location")
	}
	if !location.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "location %q is inactive", location.Code)
	}
	return &location, nil
}

// LocationByCode resolves the configured default shop location, among others.
func (service) LocationByCode(ctx context.Context, tx *gorm.DB, code string) (*models.Location, error) {
	var location models.Location
	err := tx.WithContext(ctx).Where("code = ?", code).First(&location).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "location %q not found", code)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query location by code")
	}
	if !location.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "location %q is inactive", code)
	}
	return &location, nil
}
