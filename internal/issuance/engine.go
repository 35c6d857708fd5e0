package issuance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/catalog"
	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/internal/identity"
	"github.com/nandarlin/shopbooks-backend/internal/parties"
	"github.com/nandarlin/shopbooks-backend/internal/sequence"
	"github.com/nandarlin/shopbooks-backend/internal/stock"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/logger"
	"github.com/nandarlin/shopbooks-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Clock abstracts time so tests can pin it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Engine orchestrates document issuance. One method per document type; each
// runs inside a single transaction covering the sequence number, the
// document rows, every stock/unit side effect and any ledger posting.
type Engine struct {
	tx           txRunner
	sequences    sequence.Service
	identity     identity.Service
	units        identity.Repo
	ledger       stock.Ledger
	movements    stock.MovementLog
	finance      finance.Service
	catalog      catalog.Service
	parties      parties.Service
	logg         *logger.Logger
	clock        Clock
	shopLocation string
}

// NewEngine wires the issuance engine.
func NewEngine(
	tx txRunner,
	sequences sequence.Service,
	identitySvc identity.Service,
	units identity.Repo,
	ledger stock.Ledger,
	movements stock.MovementLog,
	financeSvc finance.Service,
	catalogSvc catalog.Service,
	partiesSvc parties.Service,
	logg *logger.Logger,
	clock Clock,
	shopLocationCode string,
) (*Engine, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if sequences == nil {
		return nil, fmt.Errorf("sequence service required")
	}
	if identitySvc == nil {
		return nil, fmt.Errorf("identity service required")
	}
	if units == nil {
		return nil, fmt.Errorf("unit repo required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if movements == nil {
		return nil, fmt.Errorf("movement log required")
	}
	if financeSvc == nil {
		return nil, fmt.Errorf("finance service required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if partiesSvc == nil {
		return nil, fmt.Errorf("parties service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if clock == nil {
		clock = systemClock{}
	}
	if shopLocationCode == "" {
		return nil, fmt.Errorf("shop location code required")
	}
	return &Engine{
		tx:           tx,
		sequences:    sequences,
		identity:     identitySvc,
		units:        units,
		ledger:       ledger,
		movements:    movements,
		finance:      financeSvc,
		catalog:      catalogSvc,
		parties:      partiesSvc,
		logg:         logg,
		clock:        clock,
		shopLocation: shopLocationCode,
	}, nil
}

// run wraps one issuance in a transaction and reports its outcome.
func (e *Engine) run(ctx context.Context, family enums.DocumentFamily, fn func(tx *gorm.DB) error) error {
	err := e.tx.WithTx(ctx, fn)
	if err != nil {
		code := pkgerrors.CodeInternal
		if typed := pkgerrors.As(err); typed != nil {
			code = typed.Code()
		}
		metrics.DocumentsFailed.WithLabelValues(family.String(), string(code)).Inc()
		e.logg.Warn(ctx, fmt.Sprintf("%s issuance rejected: %v", family, err))
		return err
	}
	metrics.DocumentsIssued.WithLabelValues(family.String()).Inc()
	return nil
}

func (e *Engine) logIssued(ctx context.Context, family enums.DocumentFamily, docNo int64) {
	ctx = e.logg.WithDocument(ctx, family.String(), docNo)
	e.logg.Info(ctx, "document issued")
}

// LineInput is one product/quantity row of an issuance request.
type LineInput struct {
	ProductID uuid.UUID
	Qty       int64
}

// validateLines rejects empty documents, non-positive quantities and
// duplicate product rows. All violations are reported together.
func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "document requires at least one line")
	}
	var err error
	seen := make(map[uuid.UUID]bool, len(lines))
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			err = multierr.Append(err, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d is missing a product", i+1))
			continue
		}
		if line.Qty <= 0 {
			err = multierr.Append(err, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d quantity %d must be positive", i+1, line.Qty))
		}
		if seen[line.ProductID] {
			err = multierr.Append(err, pkgerrors.Newf(pkgerrors.CodeValidation, "line %d repeats product %s", i+1, line.ProductID))
		}
		seen[line.ProductID] = true
	}
	return err
}

func productIDs(lines []LineInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// ensureSellable keeps rent-only catalog items off sales documents.
func ensureSellable(products map[uuid.UUID]models.Product, lines []LineInput) error {
	var err error
	for _, line := range lines {
		product := products[line.ProductID]
		if product.Type == enums.ProductTypeRent {
			err = multierr.Append(err, pkgerrors.Newf(pkgerrors.CodeValidation,
				"product %q is rental-only and cannot be sold", product.Title))
		}
	}
	return err
}

// preflightAvailability validates every line against current location stock
// before any decrement, so a shortfall on a later line never leaves earlier
// lines half-applied.
func (e *Engine) preflightAvailability(ctx context.Context, tx *gorm.DB, locationID uuid.UUID, lines []LineInput, products map[uuid.UUID]models.Product) error {
	for _, line := range lines {
		available, err := e.ledger.LocationQuantity(ctx, tx, line.ProductID, locationID)
		if err != nil {
			return err
		}
		if available < line.Qty {
			return pkgerrors.Newf(pkgerrors.CodeInsufficientStock,
				"product %q has %d at location, %d requested", products[line.ProductID].Title, available, line.Qty).
				WithDetails(stock.ShortfallDetails{
					ProductID:  line.ProductID,
					LocationID: locationID,
					Requested:  line.Qty,
					Available:  available,
					Scope:      "location",
				})
		}
	}
	return nil
}

func notePtr(note string) *string {
	if note == "" {
		return nil
	}
	return &note
}
