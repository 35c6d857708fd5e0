package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nandarlin/shopbooks-backend/internal/issuance"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

func parsePathUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param).
			WithDetails(map[string]any{"field": param})
	}
	return id, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return &id, nil
}

func parseRequiredUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).
			WithDetails(map[string]any{"field": field})
	}
	return id, nil
}

func noteValue(raw *string) string {
	if raw == nil {
		return ""
	}
	return *raw
}

type lineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int64  `json:"qty" validate:"required,min=1"`
}

func toLineInputs(lines []lineRequest) ([]issuance.LineInput, error) {
	out := make([]issuance.LineInput, 0, len(lines))
	for _, line := range lines {
		productID, err := parseRequiredUUID(line.ProductID, "product_id")
		if err != nil {
			return nil, err
		}
		out = append(out, issuance.LineInput{ProductID: productID, Qty: line.Qty})
	}
	return out, nil
}

type paymentRequest struct {
	Method      string `json:"method" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required,min=1"`
}

func toPaymentInput(p *paymentRequest) (*issuance.PaymentInput, error) {
	if p == nil {
		return nil, nil
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(p.Method))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"field": "method"})
	}
	return &issuance.PaymentInput{Method: method, AmountCents: p.AmountCents}, nil
}
