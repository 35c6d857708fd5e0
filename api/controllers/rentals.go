package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nandarlin/shopbooks-backend/api/responses"
	"github.com/nandarlin/shopbooks-backend/api/validators"
	"github.com/nandarlin/shopbooks-backend/internal/issuance"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
)

type rentalLineRequest struct {
	UnitID         string `json:"unit_id" validate:"required"`
	Days           int64  `json:"days" validate:"required,min=1"`
	DailyRateCents int64  `json:"daily_rate_cents" validate:"required,min=1"`
}

type rentalBillCreateRequest struct {
	CustomerID string              `json:"customer_id" validate:"required"`
	Lines      []rentalLineRequest `json:"lines" validate:"required,min=1,dive"`
	Payment    *paymentRequest     `json:"payment"`
	Note       string              `json:"note"`
}

// RentalBillCreate bills a customer for renting tracked units and marks
// each unit rented out.
func RentalBillCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload rentalBillCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := parseRequiredUUID(payload.CustomerID, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]issuance.RentalLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			unitID, err := parseRequiredUUID(line.UnitID, "unit_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			lines = append(lines, issuance.RentalLineInput{
				UnitID:         unitID,
				Days:           line.Days,
				DailyRateCents: line.DailyRateCents,
			})
		}
		payment, err := toPaymentInput(payload.Payment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := engine.IssueRentalBill(r.Context(), issuance.IssueRentalBillRequest{
			CustomerID: customerID,
			Lines:      lines,
			Payment:    payment,
			Note:       validators.SanitizeString(payload.Note, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rentalBillResponseFromModel(bill))
	}
}

// RentalUnitReturn brings a rented unit back into the available pool.
func RentalUnitReturn(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := parsePathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := engine.ReturnRentedUnit(r.Context(), unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unitResponseFromModel(unit))
	}
}

type rentalItemResponse struct {
	UnitID         uuid.UUID  `json:"unit_id"`
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Title          string     `json:"title"`
	Days           int64      `json:"days"`
	DailyRateCents int64      `json:"daily_rate_cents"`
	LineTotalCents int64      `json:"line_total_cents"`
}

type rentalBillResponse struct {
	ID         uuid.UUID            `json:"id"`
	DocNo      int64                `json:"doc_no"`
	Status     enums.DocumentStatus `json:"status"`
	CustomerID uuid.UUID            `json:"customer_id"`
	TotalCents int64                `json:"total_cents"`
	Note       *string              `json:"note,omitempty"`
	Items      []rentalItemResponse `json:"items"`
	CreatedAt  time.Time            `json:"created_at"`
}

func rentalBillResponseFromModel(m *models.RentalBill) rentalBillResponse {
	items := make([]rentalItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, rentalItemResponse{
			UnitID:         item.UnitID,
			ProductID:      item.ProductID,
			Title:          item.Title,
			Days:           item.Days,
			DailyRateCents: item.DailyRateCents,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return rentalBillResponse{
		ID:         m.ID,
		DocNo:      m.DocNo,
		Status:     m.Status,
		CustomerID: m.CustomerID,
		TotalCents: m.TotalCents,
		Note:       m.Note,
		Items:      items,
		CreatedAt:  m.CreatedAt,
	}
}
