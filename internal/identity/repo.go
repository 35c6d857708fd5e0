package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgdb "github.com/nandarlin/shopbooks-backend/pkg/db"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// Repo persists units and their identity revisions. All methods run on the
// caller's transaction.
type Repo interface {
	FindBySerialKeys(ctx context.Context, tx *gorm.DB, keys []string) ([]models.Unit, error)
	FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Unit, error)
	CreateBatch(ctx context.Context, tx *gorm.DB, units []*models.Unit) error
	Save(ctx context.Context, tx *gorm.DB, unit *models.Unit) error
	AddRevisions(ctx context.Context, tx *gorm.DB, revisions []models.UnitRevision) error
}

type repo struct{}

// NewRepo returns the gorm-backed unit repository.
func NewRepo() Repo {
	return repo{}
}

func (repo) FindBySerialKeys(ctx context.Context, tx *gorm.DB, keys []string) ([]models.Unit, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var units []models.Unit
	if err := tx.WithContext(ctx).Where("serial_key IN ?", keys).Find(&units).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query units by serial key")
	}
	return units, nil
}

func (repo) FindForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "unit %s not found", id)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock unit")
	}
	return &unit, nil
}

func (repo) CreateBatch(ctx context.Context, tx *gorm.DB, units []*models.Unit) error {
	if len(units) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(units).Error; err != nil {
		// Races past the preflight lookup still land on the serial_key
		// unique index.
		if pkgdb.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateIdentity, err, "unit identity already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create units")
	}
	return nil
}

func (repo) Save(ctx context.Context, tx *gorm.DB, unit *models.Unit) error {
	if err := tx.WithContext(ctx).Save(unit).Error; err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeDuplicateIdentity, err, "unit identity already registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save unit")
	}
	return nil
}

func (repo) AddRevisions(ctx context.Context, tx *gorm.DB, revisions []models.UnitRevision) error {
	if len(revisions) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).Create(&revisions).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unit revisions")
	}
	return nil
}
