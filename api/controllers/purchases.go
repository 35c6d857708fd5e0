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

type purchaseLineRequest struct {
	ProductID     string `json:"product_id" validate:"required"`
	Qty           int64  `json:"qty" validate:"required,min=1"`
	UnitCostCents int64  `json:"unit_cost_cents" validate:"min=0"`
}

type unitIntakeRowRequest struct {
	ProductID          string  `json:"product_id" validate:"required"`
	Brand              string  `json:"brand" validate:"required"`
	Model              string  `json:"model" validate:"required"`
	ManufacturerSerial *string `json:"manufacturer_serial"`
	TagCode            *string `json:"tag_code"`
}

func toUnitIntakeRows(rows []unitIntakeRowRequest) ([]issuance.UnitIntakeRow, error) {
	out := make([]issuance.UnitIntakeRow, 0, len(rows))
	for _, row := range rows {
		productID, err := parseRequiredUUID(row.ProductID, "product_id")
		if err != nil {
			return nil, err
		}
		out = append(out, issuance.UnitIntakeRow{
			ProductID:          productID,
			Brand:              validators.SanitizeString(row.Brand, 120),
			Model:              validators.SanitizeString(row.Model, 120),
			ManufacturerSerial: row.ManufacturerSerial,
			TagCode:            row.TagCode,
		})
	}
	return out, nil
}

type purchaseBillCreateRequest struct {
	SupplierID *string                `json:"supplier_id"`
	LocationID string                 `json:"location_id" validate:"required"`
	Lines      []purchaseLineRequest  `json:"lines" validate:"required,min=1,dive"`
	UnitIntake []unitIntakeRowRequest `json:"unit_intake" validate:"dive"`
	Note       *string                `json:"note"`
}

// PurchaseBillCreate receives supplier stock into a location.
func PurchaseBillCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purchaseBillCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		supplierID, err := parseOptionalUUID(payload.SupplierID, "supplier_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseRequiredUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]issuance.PurchaseLineInput, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			productID, err := parseRequiredUUID(line.ProductID, "product_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			lines = append(lines, issuance.PurchaseLineInput{
				ProductID:     productID,
				Qty:           line.Qty,
				UnitCostCents: line.UnitCostCents,
			})
		}
		intake, err := toUnitIntakeRows(payload.UnitIntake)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bill, err := engine.IssuePurchaseBill(r.Context(), issuance.IssuePurchaseBillRequest{
			SupplierID: supplierID,
			LocationID: locationID,
			Lines:      lines,
			UnitIntake: intake,
			Note:       noteValue(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchaseBillResponseFromModel(bill))
	}
}

type purchaseReturnCreateRequest struct {
	SourceBillID string        `json:"source_bill_id" validate:"required"`
	Lines        []lineRequest `json:"lines" validate:"required,min=1,dive"`
	Note         *string       `json:"note"`
}

// PurchaseReturnCreate sends previously received stock back to the supplier.
func PurchaseReturnCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload purchaseReturnCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		billID, err := parseRequiredUUID(payload.SourceBillID, "source_bill_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLineInputs(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := engine.CreatePurchaseReturn(r.Context(), issuance.CreatePurchaseReturnRequest{
			SourceBillID: billID,
			Lines:        lines,
			Note:         noteValue(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, purchaseReturnResponseFromModel(ret))
	}
}

type purchaseBillItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Title          string    `json:"title"`
	UnitCostCents  int64     `json:"unit_cost_cents"`
	Qty            int64     `json:"qty"`
	LineTotalCents int64     `json:"line_total_cents"`
}

type purchaseBillResponse struct {
	ID            uuid.UUID                  `json:"id"`
	DocNo         int64                      `json:"doc_no"`
	Status        enums.DocumentStatus       `json:"status"`
	SupplierID    *uuid.UUID                 `json:"supplier_id,omitempty"`
	LocationID    uuid.UUID                  `json:"location_id"`
	SubtotalCents int64                      `json:"subtotal_cents"`
	TotalCents    int64                      `json:"total_cents"`
	Note          *string                    `json:"note,omitempty"`
	Items         []purchaseBillItemResponse `json:"items"`
	CreatedAt     time.Time                  `json:"created_at"`
}

func purchaseBillResponseFromModel(m *models.PurchaseBill) purchaseBillResponse {
	items := make([]purchaseBillItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, purchaseBillItemResponse{
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitCostCents:  item.UnitCostCents,
			Qty:            item.Qty,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return purchaseBillResponse{
		ID:            m.ID,
		DocNo:         m.DocNo,
		Status:        m.Status,
		SupplierID:    m.SupplierID,
		LocationID:    m.LocationID,
		SubtotalCents: m.SubtotalCents,
		TotalCents:    m.TotalCents,
		Note:          m.Note,
		Items:         items,
		CreatedAt:     m.CreatedAt,
	}
}

type purchaseReturnResponse struct {
	ID           uuid.UUID                  `json:"id"`
	DocNo        int64                      `json:"doc_no"`
	Status       enums.DocumentStatus       `json:"status"`
	SourceBillID uuid.UUID                  `json:"source_bill_id"`
	LocationID   uuid.UUID                  `json:"location_id"`
	TotalCents   int64                      `json:"total_cents"`
	Note         *string                    `json:"note,omitempty"`
	Items        []purchaseBillItemResponse `json:"items"`
	CreatedAt    time.Time                  `json:"created_at"`
}

func purchaseReturnResponseFromModel(m *models.PurchaseReturn) purchaseReturnResponse {
	items := make([]purchaseBillItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, purchaseBillItemResponse{
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitCostCents:  item.UnitCostCents,
			Qty:            item.Qty,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return purchaseReturnResponse{
		ID:           m.ID,
		DocNo:        m.DocNo,
		Status:       m.Status,
		SourceBillID: m.SourceBillID,
		LocationID:   m.LocationID,
		TotalCents:   m.TotalCents,
		Note:         m.Note,
		Items:        items,
		CreatedAt:    m.CreatedAt,
	}
}
