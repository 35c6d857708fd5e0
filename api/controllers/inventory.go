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
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
)

type transferCreateRequest struct {
	FromLocationID string        `json:"from_location_id" validate:"required"`
	ToLocationID   string        `json:"to_location_id" validate:"required"`
	Lines          []lineRequest `json:"lines" validate:"required,min=1,dive"`
	Note           *string       `json:"note"`
}

// TransferCreate moves stock between two locations.
func TransferCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload transferCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fromID, err := parseRequiredUUID(payload.FromLocationID, "from_location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		toID, err := parseRequiredUUID(payload.ToLocationID, "to_location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLineInputs(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transfer, err := engine.CreateStockTransfer(r.Context(), issuance.CreateStockTransferRequest{
			FromLocationID: fromID,
			ToLocationID:   toID,
			Lines:          lines,
			Note:           noteValue(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, transferResponseFromModel(transfer))
	}
}

type writeOffCreateRequest struct {
	LocationID string        `json:"location_id" validate:"required"`
	Reason     string        `json:"reason" validate:"required"`
	Lines      []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

// WriteOffCreate removes damaged or lost stock with a mandatory reason.
func WriteOffCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload writeOffCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locationID, err := parseRequiredUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLineInputs(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		writeOff, err := engine.CreateWriteOff(r.Context(), issuance.CreateWriteOffRequest{
			LocationID: locationID,
			Reason:     validators.SanitizeString(payload.Reason, 500),
			Lines:      lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, writeOffResponseFromModel(writeOff))
	}
}

type adjustmentCreateRequest struct {
	ProductID  string  `json:"product_id" validate:"required"`
	LocationID string  `json:"location_id" validate:"required"`
	Mode       string `json:"mode" validate:"required"`
	Value      int64  `json:"value"`
	Reason     string `json:"reason"`
}

// AdjustmentCreate corrects a location's quantity by delta or to an
// absolute target.
func AdjustmentCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload adjustmentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseRequiredUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseRequiredUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mode, err := enums.ParseAdjustMode(payload.Mode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment mode").
					WithDetails(map[string]any{"field": "mode"}))
			return
		}

		adjustment, err := engine.AdjustInventory(r.Context(), issuance.AdjustInventoryRequest{
			ProductID:  productID,
			LocationID: locationID,
			Mode:       mode,
			Value:      payload.Value,
			Reason:     validators.SanitizeString(payload.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adjustmentResponseFromModel(adjustment))
	}
}

type unitizationCreateRequest struct {
	ProductID  string                 `json:"product_id" validate:"required"`
	LocationID string                 `json:"location_id" validate:"required"`
	Ownership  string                 `json:"ownership" validate:"required"`
	Rows       []unitIntakeRowRequest `json:"rows" validate:"required,min=1,dive"`
}

// UnitizationCreate backfills identity rows for existing untracked stock.
func UnitizationCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload unitizationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := parseRequiredUUID(payload.ProductID, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseRequiredUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ownership, err := enums.ParseUnitOwnership(payload.Ownership)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid unit ownership").
					WithDetails(map[string]any{"field": "ownership"}))
			return
		}
		rows, err := toUnitIntakeRows(payload.Rows)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		units, err := engine.UnitizeStock(r.Context(), issuance.UnitizeStockRequest{
			ProductID:  productID,
			LocationID: locationID,
			Ownership:  ownership,
			Rows:       rows,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]unitResponse, 0, len(units))
		for _, unit := range units {
			out = append(out, unitResponseFromModel(unit))
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

type transferItemResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title"`
	Qty       int64     `json:"qty"`
}

type transferResponse struct {
	ID             uuid.UUID            `json:"id"`
	DocNo          int64                `json:"doc_no"`
	Status         enums.DocumentStatus `json:"status"`
	FromLocationID uuid.UUID            `json:"from_location_id"`
	ToLocationID   uuid.UUID            `json:"to_location_id"`
	Note           *string              `json:"note,omitempty"`
	Items          []transferItemResponse `json:"items"`
	CreatedAt      time.Time            `json:"created_at"`
}

func transferResponseFromModel(m *models.StockTransfer) transferResponse {
	items := make([]transferItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, transferItemResponse{ProductID: item.ProductID, Title: item.Title, Qty: item.Qty})
	}
	return transferResponse{
		ID:             m.ID,
		DocNo:          m.DocNo,
		Status:         m.Status,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		Note:           m.Note,
		Items:          items,
		CreatedAt:      m.CreatedAt,
	}
}

type writeOffResponse struct {
	ID         uuid.UUID              `json:"id"`
	DocNo      int64                  `json:"doc_no"`
	Status     enums.DocumentStatus   `json:"status"`
	LocationID uuid.UUID              `json:"location_id"`
	Reason     string                 `json:"reason"`
	Items      []transferItemResponse `json:"items"`
	CreatedAt  time.Time              `json:"created_at"`
}

func writeOffResponseFromModel(m *models.WriteOff) writeOffResponse {
	items := make([]transferItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, transferItemResponse{ProductID: item.ProductID, Title: item.Title, Qty: item.Qty})
	}
	return writeOffResponse{
		ID:         m.ID,
		DocNo:      m.DocNo,
		Status:     m.Status,
		LocationID: m.LocationID,
		Reason:     m.Reason,
		Items:      items,
		CreatedAt:  m.CreatedAt,
	}
}

type adjustmentResponse struct {
	ID           uuid.UUID        `json:"id"`
	ProductID    uuid.UUID        `json:"product_id"`
	LocationID   uuid.UUID        `json:"location_id"`
	Mode         enums.AdjustMode `json:"mode"`
	Value        int64            `json:"value"`
	AppliedDelta int64            `json:"applied_delta"`
	Reason       *string          `json:"reason,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func adjustmentResponseFromModel(m *models.InventoryAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:           m.ID,
		ProductID:    m.ProductID,
		LocationID:   m.LocationID,
		Mode:         m.Mode,
		Value:        m.Value,
		AppliedDelta: m.AppliedDelta,
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt,
	}
}
