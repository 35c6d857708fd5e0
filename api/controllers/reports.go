package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nandarlin/shopbooks-backend/api/responses"
	"github.com/nandarlin/shopbooks-backend/api/validators"
	"github.com/nandarlin/shopbooks-backend/internal/reports"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
	"github.com/nandarlin/shopbooks-backend/pkg/pagination"
)

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Offset: offset}, nil
}

// StockReport lists products with their totals and per-location breakdown.
func StockReport(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.StockReport(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ProductMovements lists one product's stock movements newest-first.
func ProductMovements(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parsePathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.MovementHistory(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]movementResponse, 0, len(page.Items))
		for _, move := range page.Items {
			items = append(items, movementResponseFromModel(move))
		}
		responses.WriteSuccess(w, pagination.Page[movementResponse]{
			Items:  items,
			Total:  page.Total,
			Limit:  page.Limit,
			Offset: page.Offset,
		})
	}
}

// AccountBalances derives every ledger account's balance.
func AccountBalances(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balances, err := svc.AccountBalances(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]accountBalanceResponse, 0, len(balances))
		for _, balance := range balances {
			out = append(out, accountBalanceResponse{
				AccountID:    balance.Account.ID,
				Name:         balance.Account.Name,
				Kind:         balance.Account.Kind,
				IsActive:     balance.Account.IsActive,
				BalanceCents: balance.BalanceCents,
			})
		}
		responses.WriteSuccess(w, out)
	}
}

type movementResponse struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      uuid.UUID           `json:"product_id"`
	Kind           enums.MovementKind  `json:"kind"`
	Qty            int64               `json:"qty"`
	StockBefore    int64               `json:"stock_before"`
	StockAfter     int64               `json:"stock_after"`
	FromLocationID *uuid.UUID          `json:"from_location_id,omitempty"`
	ToLocationID   *uuid.UUID          `json:"to_location_id,omitempty"`
	ReferenceType  enums.ReferenceType `json:"reference_type"`
	ReferenceID    uuid.UUID           `json:"reference_id"`
	Note           *string             `json:"note,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func movementResponseFromModel(m models.InventoryMovement) movementResponse {
	return movementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		Kind:           m.Kind,
		Qty:            m.Qty,
		StockBefore:    m.StockBefore,
		StockAfter:     m.StockAfter,
		FromLocationID: m.FromLocationID,
		ToLocationID:   m.ToLocationID,
		ReferenceType:  m.ReferenceType,
		ReferenceID:    m.ReferenceID,
		Note:           m.Note,
		CreatedAt:      m.CreatedAt,
	}
}

type accountBalanceResponse struct {
	AccountID    uuid.UUID         `json:"account_id"`
	Name         string            `json:"name"`
	Kind         enums.AccountKind `json:"kind"`
	IsActive     bool              `json:"is_active"`
	BalanceCents int64             `json:"balance_cents"`
}
