package issuance

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// RentalLineInput bills one tracked unit for a number of days.
type RentalLineInput struct {
	UnitID         uuid.UUID
	Days           int64
	DailyRateCents int64
}

// IssueRentalBillRequest charges a customer for renting tracked units.
// Payment is optional; unpaid rentals are settled later.
type IssueRentalBillRequest struct {
	CustomerID uuid.UUID
	Lines      []RentalLineInput
	Payment    *PaymentInput
	Note       string
}

// IssueRentalBill issues a rental bill: every billed unit must be AVAILABLE
// and moves to RENTED_OUT; any payment posts money IN.
func (e *Engine) IssueRentalBill(ctx context.Context, req IssueRentalBillRequest) (*models.RentalBill, error) {
	if len(req.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental bill requires at least one unit")
	}
	var lineErr error
	seen := make(map[uuid.UUID]bool, len(req.Lines))
	for i, line := range req.Lines {
		if line.UnitID == uuid.Nil {
			lineErr = multierr.Append(lineErr, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d is missing a unit", i+1))
			continue
		}
		if seen[line.UnitID] {
			lineErr = multierr.Append(lineErr, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d repeats unit %s", i+1, line.UnitID))
		}
		seen[line.UnitID] = true
		if line.Days <= 0 {
			lineErr = multierr.Append(lineErr, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d days %d must be positive", i+1, line.Days))
		}
		if line.DailyRateCents <= 0 {
			lineErr = multierr.Append(lineErr, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d daily rate %d must be positive", i+1, line.DailyRateCents))
		}
	}
	if lineErr != nil {
		return nil, lineErr
	}

	var bill *models.RentalBill
	err := e.run(ctx, enums.DocumentFamilyRentalBill, func(tx *gorm.DB) error {
		if _, err := e.parties.Require(ctx, tx, req.CustomerID, enums.PartyTypeCustomer); err != nil {
			return err
		}

		units := make([]*models.Unit, 0, len(req.Lines))
		for _, line := range req.Lines {
			unit, err := e.units.FindForUpdate(ctx, tx, line.UnitID)
			if err != nil {
				return err
			}
			if unit.Status != enums.UnitStatusAvailable {
				return pkgerrors.Newf(pkgerrors.CodeStateConflict,
					"unit %s is %s and cannot be rented out", unit.SerialKey, unit.Status)
			}
			units = append(units, unit)
		}

		docNo, err := e.sequences.Next(ctx, tx, enums.DocumentFamilyRentalBill)
		if err != nil {
			return err
		}
		doc := models.RentalBill{
			DocNo:      docNo,
			Status:     enums.DocumentStatusIssued,
			CustomerID: req.CustomerID,
			Note:       notePtr(req.Note),
		}
		for i, line := range req.Lines {
			unit := units[i]
			lineTotal := line.Days * line.DailyRateCents
			doc.Items = append(doc.Items, models.RentalBillItem{
				UnitID:         unit.ID,
				ProductID:      unit.ProductID,
				Title:          unit.Brand + " " + unit.Model,
				Days:           line.Days,
				DailyRateCents: line.DailyRateCents,
				LineTotalCents: lineTotal,
			})
			doc.TotalCents += lineTotal
		}
		if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rental bill")
		}

		for _, unit := range units {
			unit.Status = enums.UnitStatusRentedOut
			if err := e.units.Save(ctx, tx, unit); err != nil {
				return err
			}
		}

		if req.Payment != nil {
			if req.Payment.AmountCents <= 0 {
				return pkgerrors.Newf(pkgerrors.CodeInvalidAmount,
					"payment amount %d must be positive", req.Payment.AmountCents)
			}
			if req.Payment.AmountCents > doc.TotalCents {
				return pkgerrors.Newf(pkgerrors.CodeInvalidAmount,
					"payment %d exceeds rental total %d", req.Payment.AmountCents, doc.TotalCents)
			}
			account, err := e.finance.ResolveAccount(ctx, tx, req.Payment.Method)
			if err != nil {
				return err
			}
			ref := &finance.Reference{Type: enums.ReferenceTypeRentalBill, ID: doc.ID}
			if _, err := e.finance.Post(ctx, tx, account.ID, enums.EntryDirectionIn, req.Payment.AmountCents, e.clock.Now(), ref, nil); err != nil {
				return err
			}
		}

		bill = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logIssued(ctx, enums.DocumentFamilyRentalBill, bill.DocNo)
	return bill, nil
}

// ReturnRentedUnit brings one rented unit back to the shop floor.
func (e *Engine) ReturnRentedUnit(ctx context.Context, unitID uuid.UUID) (*models.Unit, error) {
	var returned *models.Unit
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		unit, err := e.units.FindForUpdate(ctx, tx, unitID)
		if err != nil {
			return err
		}
		if unit.Status != enums.UnitStatusRentedOut {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict,
				"unit %s is %s, not rented out", unit.SerialKey, unit.Status)
		}
		unit.Status = enums.UnitStatusAvailable
		if err := e.units.Save(ctx, tx, unit); err != nil {
			return err
		}
		returned = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return returned, nil
}
