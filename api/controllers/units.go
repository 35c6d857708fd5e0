package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nandarlin/shopbooks-backend/api/responses"
	"github.com/nandarlin/shopbooks-backend/api/validators"
	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/internal/issuance"
	"github.com/nandarlin/shopbooks-backend/internal/reports"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
	"github.com/nandarlin/shopbooks-backend/pkg/pagination"
)

type unitIdentityUpdateRequest struct {
	Brand              *string `json:"brand"`
	Model              *string `json:"model"`
	ManufacturerSerial *string `json:"manufacturer_serial"`
	TagCode            *string `json:"tag_code"`
	Reason             string  `json:"reason" validate:"required"`
}

// UnitIdentityUpdate corrects identity fields on a tracked unit. The reason
// is mandatory and every change is kept in the revision trail.
func UnitIdentityUpdate(engine *issuance.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := parsePathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload unitIdentityUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := engine.UpdateUnitIdentity(r.Context(), unitID, identity.UpdateRequest{
			Brand:              payload.Brand,
			Model:              payload.Model,
			ManufacturerSerial: payload.ManufacturerSerial,
			TagCode:            payload.TagCode,
			Reason:             validators.SanitizeString(payload.Reason, 500),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, unitResponseFromModel(unit))
	}
}

// UnitList lists tracked units, optionally filtered by ?status=.
func UnitList(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.UnitStatus
		if raw := r.URL.Query().Get("status"); raw != "" {
			parsed, err := enums.ParseUnitStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
						WithDetails(map[string]any{"field": "status"}))
				return
			}
			status = &parsed
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListUnits(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := pagination.Page[unitResponse]{
			Total:  page.Total,
			Limit:  page.Limit,
			Offset: page.Offset,
		}
		for i := range page.Items {
			out.Items = append(out.Items, unitResponseFromModel(&page.Items[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// UnitHistory returns one unit with its full identity revision trail.
func UnitHistory(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID, err := parsePathUUID(r, "unitID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, revisions, err := svc.UnitHistory(r.Context(), unitID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		revs := make([]unitRevisionResponse, 0, len(revisions))
		for _, rev := range revisions {
			revs = append(revs, unitRevisionResponse{
				Field:     rev.Field,
				OldValue:  rev.OldValue,
				NewValue:  rev.NewValue,
				Reason:    rev.Reason,
				CreatedAt: rev.CreatedAt,
			})
		}
		responses.WriteSuccess(w, unitHistoryResponse{
			Unit:      unitResponseFromModel(unit),
			Revisions: revs,
		})
	}
}

type unitResponse struct {
	ID                 uuid.UUID           `json:"id"`
	Ownership          enums.UnitOwnership `json:"ownership"`
	ProductID          *uuid.UUID          `json:"product_id,omitempty"`
	Brand              string              `json:"brand"`
	Model              string              `json:"model"`
	ManufacturerSerial *string             `json:"manufacturer_serial,omitempty"`
	TagCode            *string             `json:"tag_code,omitempty"`
	SerialKey          string              `json:"serial_key"`
	Status             enums.UnitStatus    `json:"status"`
	LocationID         *uuid.UUID          `json:"location_id,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

func unitResponseFromModel(m *models.Unit) unitResponse {
	return unitResponse{
		ID:                 m.ID,
		Ownership:          m.Ownership,
		ProductID:          m.ProductID,
		Brand:              m.Brand,
		Model:              m.Model,
		ManufacturerSerial: m.ManufacturerSerial,
		TagCode:            m.TagCode,
		SerialKey:          m.SerialKey,
		Status:             m.Status,
		LocationID:         m.LocationID,
		CreatedAt:          m.CreatedAt,
	}
}

type unitRevisionResponse struct {
	Field     string    `json:"field"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type unitHistoryResponse struct {
	Unit      unitResponse           `json:"unit"`
	Revisions []unitRevisionResponse `json:"revisions"`
}
