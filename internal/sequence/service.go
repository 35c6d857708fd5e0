package sequence

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// Service issues monotonically increasing document numbers per family.
// Next must be called inside the transaction that persists the numbered
// document: the increment commits or rolls back with it, so two committed
// documents can never share a number.
type Service interface {
	Next(ctx context.Context, tx *gorm.DB, family enums.DocumentFamily) (int64, error)
}

type service struct{}

// NewService returns the counter service.
func NewService() Service {
	return service{}
}

func (service) Next(ctx context.Context, tx *gorm.DB, family enums.DocumentFamily) (int64, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "sequence requires a transaction")
	}
	if !family.IsValid() {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown document family %q", family)
	}

	var counter models.SequenceCounter
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("family = ?", family).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.SequenceCounter{Family: family, NextNo: 2}
		if err := tx.WithContext(ctx).Create(&counter).Error; err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sequence counter")
		}
		return 1, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock sequence counter")
	}

	issued := counter.NextNo
	if err := tx.WithContext(ctx).
		Model(&models.SequenceCounter{}).
		Where("family = ?", family).
		Update("next_no", issued+1).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance sequence counter")
	}
	return issued, nil
}
