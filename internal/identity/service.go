package identity

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/sequence"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

const keyFieldSeparator = "/"

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)

// TrackedLine is one asset-tracked line item of an incoming document. The
// product is preloaded by the caller so intake validation never re-reads it.
type TrackedLine struct {
	Product  models.Product
	Quantity int64
}

// IntakeRow describes one physical unit arriving on an incoming document.
type IntakeRow struct {
	ProductID          uuid.UUID
	Brand              string
	Model              string
	ManufacturerSerial *string
	TagCode            *string
}

// UpdateRequest mutates identity fields on a pre-terminal unit. Nil fields
// are left untouched. The reason is mandatory and copied onto every revision.
type UpdateRequest struct {
	Brand              *string
	Model              *string
	ManufacturerSerial *string
	TagCode            *string
	Reason             string
}

// Service is the unit identity registry: canonical serial keys, shop tag
// allocation, and batch intake validation. Every computed key is globally
// unique among persisted units.
type Service interface {
	ComputeKey(brand, model, serial string) (string, error)
	AllocateTag(ctx context.Context, tx *gorm.DB, ownership enums.UnitOwnership) (string, error)
	PrepareIntake(ctx context.Context, tx *gorm.DB, ownership enums.UnitOwnership, locationID uuid.UUID, lines []TrackedLine, rows []IntakeRow) ([]*models.Unit, error)
	UpdateIdentity(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, req UpdateRequest) (*models.Unit, error)
}

type service struct {
	repo      Repo
	sequences sequence.Service
	tagPrefix string
}

// NewService wires the identity registry.
func NewService(repo Repo, sequences sequence.Service, tagPrefix string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("identity service requires a repo")
	}
	if sequences == nil {
		return nil, fmt.Errorf("identity service requires a sequence service")
	}
	if tagPrefix == "" {
		return nil, fmt.Errorf("identity service requires a tag prefix")
	}
	return &service{repo: repo, sequences: sequences, tagPrefix: tagPrefix}, nil
}

// ComputeKey derives the canonical serial key from brand, model and
// manufacturer serial. Each field is uppercased, trimmed, and has runs of
// non-alphanumeric characters collapsed to a single dash.
func (s *service) ComputeKey(brand, model, serial string) (string, error) {
	parts := make([]string, 0, 3)
	for _, raw := range []string{brand, model, serial} {
		normalized := normalizeIdentityField(raw)
		if normalized == "" {
			return "", pkgerrors.Newf(pkgerrors.CodeInvalidIdentity, "identity field %q normalizes to empty", raw)
		}
		parts = append(parts, normalized)
	}
	return strings.Join(parts, keyFieldSeparator), nil
}

func normalizeIdentityField(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	collapsed := nonAlphanumeric.ReplaceAllString(upper, "-")
	return strings.Trim(collapsed, "-")
}

// AllocateTag issues a shop-generated tag for a unit without a manufacturer
// serial. Tags draw from their own counter family, so they are unique by
// construction.
func (s *service) AllocateTag(ctx context.Context, tx *gorm.DB, ownership enums.UnitOwnership) (string, error) {
	if !ownership.IsValid() {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unknown unit ownership %q", ownership)
	}
	no, err := s.sequences.Next(ctx, tx, enums.DocumentFamilyUnitTag)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%06d", s.tagPrefix, ownership.TagLetter(), no), nil
}

// PrepareIntake validates one identity row per arriving physical unit against
// the tracked lines of an incoming document and returns unit rows ready to
// persist. The whole batch is rejected on the first structural mismatch, any
// missing serial on a serial-required product, or any key collision, whether
// in-batch or against persisted units. Nothing is persisted here except tag
// counter advances, which roll back with the enclosing transaction.
func (s *service) PrepareIntake(ctx context.Context, tx *gorm.DB, ownership enums.UnitOwnership, locationID uuid.UUID, lines []TrackedLine, rows []IntakeRow) ([]*models.Unit, error) {
	expected := make(map[uuid.UUID]*TrackedLine, len(lines))
	for i := range lines {
		expected[lines[i].Product.ID] = &lines[i]
	}

	counts := make(map[uuid.UUID]int64, len(lines))
	for _, row := range rows {
		if _, ok := expected[row.ProductID]; !ok {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "intake row references product %s which has no tracked line", row.ProductID)
		}
		counts[row.ProductID]++
	}
	var countErr error
	for id, line := range expected {
		if counts[id] != line.Quantity {
			countErr = multierr.Append(countErr, pkgerrors.Newf(pkgerrors.CodeValidation,
				"product %q expects %d intake rows, got %d", line.Product.Title, line.Quantity, counts[id]))
		}
	}
	if countErr != nil {
		return nil, countErr
	}

	units := make([]*models.Unit, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		line := expected[row.ProductID]
		hasSerial := row.ManufacturerSerial != nil && strings.TrimSpace(*row.ManufacturerSerial) != ""
		if line.Product.SerialRequired && !hasSerial {
			return nil, pkgerrors.Newf(pkgerrors.CodeInvalidIdentity,
				"product %q requires a manufacturer serial on every intake row", line.Product.Title)
		}

		unit := models.Unit{
			Ownership: ownership,
			ProductID: ptr(row.ProductID),
			Brand:     row.Brand,
			Model:     row.Model,
			Status:    enums.UnitStatusAvailable,
		}
		if locationID != uuid.Nil {
			unit.LocationID = ptr(locationID)
		}
		if hasSerial {
			key, err := s.ComputeKey(row.Brand, row.Model, *row.ManufacturerSerial)
			if err != nil {
				return nil, err
			}
			unit.ManufacturerSerial = row.ManufacturerSerial
			unit.SerialKey = key
		} else {
			tag := ""
			if row.TagCode != nil && strings.TrimSpace(*row.TagCode) != "" {
				tag = normalizeIdentityField(*row.TagCode)
			} else {
				allocated, err := s.AllocateTag(ctx, tx, ownership)
				if err != nil {
					return nil, err
				}
				tag = allocated
			}
			if tag == "" {
				return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentity, "tag code normalizes to empty")
			}
			unit.TagCode = &tag
			unit.SerialKey = tag
		}

		if seen[unit.SerialKey] {
			return nil, pkgerrors.Newf(pkgerrors.CodeDuplicateIdentity, "serial key %q appears twice in intake batch", unit.SerialKey)
		}
		seen[unit.SerialKey] = true
		keys = append(keys, unit.SerialKey)
		units = append(units, &unit)
	}

	existing, err := s.repo.FindBySerialKeys(ctx, tx, keys)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeDuplicateIdentity,
			"serial key %q already registered", existing[0].SerialKey)
	}
	return units, nil
}

// UpdateIdentity rewrites identity fields on a unit and records one revision
// per changed field. Terminal units are immutable.
func (s *service) UpdateIdentity(ctx context.Context, tx *gorm.DB, unitID uuid.UUID, req UpdateRequest) (*models.Unit, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity changes require a reason")
	}

	unit, err := s.repo.FindForUpdate(ctx, tx, unitID)
	if err != nil {
		return nil, err
	}
	if unit.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict,
			"unit %s is %s and can no longer change identity", unit.ID, unit.Status)
	}

	var revisions []models.UnitRevision
	appendRevision := func(field, oldValue, newValue string) {
		revisions = append(revisions, models.UnitRevision{
			UnitID:   unit.ID,
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
			Reason:   req.Reason,
		})
	}

	if req.Brand != nil && *req.Brand != unit.Brand {
		appendRevision("brand", unit.Brand, *req.Brand)
		unit.Brand = *req.Brand
	}
	if req.Model != nil && *req.Model != unit.Model {
		appendRevision("model", unit.Model, *req.Model)
		unit.Model = *req.Model
	}
	if req.ManufacturerSerial != nil && !equalPtr(req.ManufacturerSerial, unit.ManufacturerSerial) {
		appendRevision("manufacturer_serial", derefOr(unit.ManufacturerSerial, ""), *req.ManufacturerSerial)
		unit.ManufacturerSerial = req.ManufacturerSerial
	}
	if req.TagCode != nil && !equalPtr(req.TagCode, unit.TagCode) {
		normalized := normalizeIdentityField(*req.TagCode)
		if normalized == "" {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidIdentity, "tag code normalizes to empty")
		}
		appendRevision("tag_code", derefOr(unit.TagCode, ""), normalized)
		unit.TagCode = &normalized
	}
	if len(revisions) == 0 {
		return unit, nil
	}

	oldKey := unit.SerialKey
	newKey := oldKey
	if unit.ManufacturerSerial != nil && strings.TrimSpace(*unit.ManufacturerSerial) != "" {
		newKey, err = s.ComputeKey(unit.Brand, unit.Model, *unit.ManufacturerSerial)
		if err != nil {
			return nil, err
		}
	} else if unit.TagCode != nil {
		newKey = *unit.TagCode
	}
	if newKey != oldKey {
		clashes, err := s.repo.FindBySerialKeys(ctx, tx, []string{newKey})
		if err != nil {
			return nil, err
		}
		for _, clash := range clashes {
			if clash.ID != unit.ID {
				return nil, pkgerrors.Newf(pkgerrors.CodeDuplicateIdentity, "serial key %q already registered", newKey)
			}
		}
		appendRevision("serial_key", oldKey, newKey)
		unit.SerialKey = newKey
	}

	if err := s.repo.Save(ctx, tx, unit); err != nil {
		return nil, err
	}
	if err := s.repo.AddRevisions(ctx, tx, revisions); err != nil {
		return nil, err
	}
	return unit, nil
}

func ptr[T any](v T) *T { return &v }

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
