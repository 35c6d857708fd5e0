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

type orderCreateRequest struct {
	CustomerID    *string       `json:"customer_id"`
	LocationID    *string       `json:"location_id"`
	Lines         []lineRequest `json:"lines" validate:"required,min=1,dive"`
	DiscountCents int64         `json:"discount_cents" validate:"min=0"`
	DeliveryCents int64         `json:"delivery_cents" validate:"min=0"`
	Note          *string       `json:"note"`
	IssueNow      bool          `json:"issue_now"`
}

// OrderCreate drafts a customer order; issue_now issues it in the same
// transaction.
func OrderCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload orderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := parseOptionalUUID(payload.CustomerID, "customer_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		locationID, err := parseOptionalUUID(payload.LocationID, "location_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLineInputs(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := engine.CreateOrder(r.Context(), issuance.CreateOrderRequest{
			CustomerID:    customerID,
			LocationID:    locationID,
			Lines:         lines,
			DiscountCents: payload.DiscountCents,
			DeliveryCents: payload.DeliveryCents,
			Note:          noteValue(payload.Note),
			IssueNow:      payload.IssueNow,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, orderResponseFromModel(order))
	}
}

type orderStatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderStatusUpdate moves an order along draft -> issued -> cancelled.
func OrderStatusUpdate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parsePathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseDocumentStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid document status").
					WithDetails(map[string]any{"field": "status"}))
			return
		}

		order, err := engine.UpdateOrderStatus(r.Context(), orderID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orderResponseFromModel(order))
	}
}

type orderResponse struct {
	ID            uuid.UUID            `json:"id"`
	DocNo         int64                `json:"doc_no"`
	Status        enums.DocumentStatus `json:"status"`
	CustomerID    *uuid.UUID           `json:"customer_id,omitempty"`
	LocationID    uuid.UUID            `json:"location_id"`
	SubtotalCents int64                `json:"subtotal_cents"`
	DiscountCents int64                `json:"discount_cents"`
	DeliveryCents int64                `json:"delivery_cents"`
	TotalCents    int64                `json:"total_cents"`
	Note          *string              `json:"note,omitempty"`
	Items         []saleItemResponse   `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
}

func orderResponseFromModel(m *models.Order) orderResponse {
	items := make([]saleItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, saleItemResponse{
			ProductID:      item.ProductID,
			Title:          item.Title,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			LineTotalCents: item.LineTotalCents,
		})
	}
	return orderResponse{
		ID:            m.ID,
		DocNo:         m.DocNo,
		Status:        m.Status,
		CustomerID:    m.CustomerID,
		LocationID:    m.LocationID,
		SubtotalCents: m.SubtotalCents,
		DiscountCents: m.DiscountCents,
		DeliveryCents: m.DeliveryCents,
		TotalCents:    m.TotalCents,
		Note:          m.Note,
		Items:         items,
		CreatedAt:     m.CreatedAt,
	}
}
