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

type posSaleCreateRequest struct {
	CustomerID    *string       `json:"customer_id"`
	LocationID    *string       `json:"location_id"`
	PaymentMethod string        `json:"payment_method" validate:"required"`
	DiscountCents int64         `json:"discount_cents" validate:"min=0"`
	Lines         []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PosSaleCreate issues a walk-in sale: stock out and payment in, one step.
func PosSaleCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload posSaleCreateRequest
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
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
					WithDetails(map[string]any{"field": "payment_method"}))
			return
		}
		lines, err := toLineInputs(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sale, err := engine.CreatePosSale(r.Context(), issuance.CreatePosSaleRequest{
			CustomerID:    customerID,
			LocationID:    locationID,
			PaymentMethod: method,
			DiscountCents: payload.DiscountCents,
			Lines:         lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, posSaleResponseFromModel(sale))
	}
}

type invoiceCreateRequest struct {
	OrderID       *string         `json:"order_id"`
	CustomerID    *string         `json:"customer_id"`
	LocationID    *string         `json:"location_id"`
	DiscountCents int64           `json:"discount_cents" validate:"min=0"`
	Lines         []lineRequest   `json:"lines" validate:"dive"`
	Payment       *paymentRequest `json:"payment"`
	Note          *string         `json:"note"`
}

// InvoiceCreate issues a sales invoice, either from an issued order or
// standalone from explicit lines.
func InvoiceCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOptionalUUID(payload.OrderID, "order_id")
		if err != nil {
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
		payment, err := toPaymentInput(payload.Payment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := engine.IssueSalesInvoice(r.Context(), issuance.IssueSalesInvoiceRequest{
			OrderID:       orderID,
			CustomerID:    customerID,
			LocationID:    locationID,
			DiscountCents: payload.DiscountCents,
			Lines:         lines,
			Payment:       payment,
			Note:          noteValue(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoiceResponseFromModel(invoice))
	}
}

// InvoicePaymentCreate records a partial or final payment on an issued
// invoice.
func InvoicePaymentCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invoiceID, err := parsePathUUID(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payment, err := toPaymentInput(&payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := engine.RecordInvoicePayment(r.Context(), invoiceID, *payment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoiceResponseFromModel(invoice))
	}
}

type salesReturnCreateRequest struct {
	SourceInvoiceID string          `json:"source_invoice_id" validate:"required"`
	Lines           []lineRequest   `json:"lines" validate:"required,min=1,dive"`
	Refund          *paymentRequest `json:"refund"`
	Note            *string         `json:"note"`
}

// SalesReturnCreate takes sold goods back against an issued invoice,
// optionally refunding money out of an account.
func SalesReturnCreate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload salesReturnCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoiceID, err := parseRequiredUUID(payload.SourceInvoiceID, "source_invoice_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := toLineInputs(payload.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refund, err := toPaymentInput(payload.Refund)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ret, err := engine.CreateSalesReturn(r.Context(), issuance.CreateSalesReturnRequest{
			SourceInvoiceID: invoiceID,
			Lines:           lines,
			Refund:          refund,
			Note:            noteValue(payload.Note),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, salesReturnResponseFromModel(ret))
	}
}

type saleItemResponse struct {
	ProductID      uuid.UUID `json:"product_id"`
	Title          string    `json:"title"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Qty            int64     `json:"qty"`
	LineTotalCents int64     `json:"line_total_cents"`
}

type posSaleResponse struct {
	ID            uuid.UUID            `json:"id"`
	DocNo         int64                `json:"doc_no"`
	Status        enums.DocumentStatus `json:"status"`
	CustomerID    *uuid.UUID           `json:"customer_id,omitempty"`
	LocationID    uuid.UUID            `json:"location_id"`
	PaymentMethod enums.PaymentMethod  `json:"payment_method"`
	SubtotalCents int64                `json:"subtotal_cents"`
	DiscountCents int64                `json:"discount_cents"`
	TotalCents    int64                `json:"total_cents"`
	Items         []saleItemResponse   `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
}

func posSaleResponseFromModel(m *models.PosSale) posSaleResponse {
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
	return posSaleResponse{
		ID:            m.ID,
		DocNo:         m.DocNo,
		Status:        m.Status,
		CustomerID:    m.CustomerID,
		LocationID:    m.LocationID,
		PaymentMethod: m.PaymentMethod,
		SubtotalCents: m.SubtotalCents,
		DiscountCents: m.DiscountCents,
		TotalCents:    m.TotalCents,
		Items:         items,
		CreatedAt:     m.CreatedAt,
	}
}

type invoiceResponse struct {
	ID            uuid.UUID            `json:"id"`
	DocNo         int64                `json:"doc_no"`
	Status        enums.DocumentStatus `json:"status"`
	OrderID       *uuid.UUID           `json:"order_id,omitempty"`
	CustomerID    *uuid.UUID           `json:"customer_id,omitempty"`
	LocationID    uuid.UUID            `json:"location_id"`
	SubtotalCents int64                `json:"subtotal_cents"`
	DiscountCents int64                `json:"discount_cents"`
	TotalCents    int64                `json:"total_cents"`
	PaidCents     int64                `json:"paid_cents"`
	Note          *string              `json:"note,omitempty"`
	Items         []saleItemResponse   `json:"items"`
	CreatedAt     time.Time            `json:"created_at"`
}

func invoiceResponseFromModel(m *models.SalesInvoice) invoiceResponse {
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
	return invoiceResponse{
		ID:            m.ID,
		DocNo:         m.DocNo,
		Status:        m.Status,
		OrderID:       m.OrderID,
		CustomerID:    m.CustomerID,
		LocationID:    m.LocationID,
		SubtotalCents: m.SubtotalCents,
		DiscountCents: m.DiscountCents,
		TotalCents:    m.TotalCents,
		PaidCents:     m.PaidCents,
		Note:          m.Note,
		Items:         items,
		CreatedAt:     m.CreatedAt,
	}
}

type salesReturnResponse struct {
	ID              uuid.UUID            `json:"id"`
	DocNo           int64                `json:"doc_no"`
	Status          enums.DocumentStatus `json:"status"`
	SourceInvoiceID uuid.UUID            `json:"source_invoice_id"`
	LocationID      uuid.UUID            `json:"location_id"`
	TotalCents      int64                `json:"total_cents"`
	RefundCents     int64                `json:"refund_cents"`
	Note            *string              `json:"note,omitempty"`
	Items           []saleItemResponse   `json:"items"`
	CreatedAt       time.Time            `json:"created_at"`
}

func salesReturnResponseFromModel(m *models.SalesReturn) salesReturnResponse {
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
	return salesReturnResponse{
		ID:              m.ID,
		DocNo:           m.DocNo,
		Status:          m.Status,
		SourceInvoiceID: m.SourceInvoiceID,
		LocationID:      m.LocationID,
		TotalCents:      m.TotalCents,
		RefundCents:     m.RefundCents,
		Note:            m.Note,
		Items:           items,
		CreatedAt:       m.CreatedAt,
	}
}
