package parties

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// Service resolves supplier/customer references on documents.
type Service interface {
	Require(ctx context.Context, tx *gorm.DB, id uuid.UUID, partyType enums.PartyType) (*models.Party, error)
	RequireOptional(ctx context.Context, tx *gorm.DB, id *uuid.UUID, partyType enums.PartyType) (*models.Party, error)
}

type service struct{}

// NewService returns the party lookup service.
func NewService() Service {
	return service{}
}

// Require loads an active party of the given type or fails.
func (service) Require(ctx context.Context, tx *gorm.DB, id uuid.UUID, partyType enums.PartyType) (*models.Party, error) {
	var party models.Party
	err := tx.WithContext(ctx).Where("id = ?", id).First(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s %s not found", partyType, id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query party")
	}
	if party.Type != partyType {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "party %q is not a %s", party.Name, partyType)
	}
	if !party.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s %q is inactive", partyType, party.Name)
	}
	return &party, nil
}

// RequireOptional is Require for nullable references; a nil id resolves to
// a nil party without error.
func (s service) RequireOptional(ctx context.Context, tx *gorm.DB, id *uuid.UUID, partyType enums.PartyType) (*models.Party, error) {
	if id == nil {
		return nil, nil
	}
	return s.Require(ctx, tx, *id, partyType)
}
