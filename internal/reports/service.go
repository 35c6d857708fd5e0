package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/internal/finance"
	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
	"github.com/nandarlin/shopbooks-backend/pkg/pagination"
)

// StockRow is one product's stock position across locations.
type StockRow struct {
	ProductID  uuid.UUID        `json:"product_id"`
	Title      string           `json:"title"`
	TotalQty   int64            `json:"total_qty"`
	ByLocation map[string]int64 `json:"by_location"`
}

// AccountBalance pairs an account with its derived balance.
type AccountBalance struct {
	Account      models.LedgerAccount `json:"account"`
	BalanceCents int64                `json:"balance_cents"`
}

// Service answers read-only projections. Reads bypass the issuance engine
// and query persisted state directly.
type Service interface {
	StockReport(ctx context.Context, params pagination.Params) (*pagination.Page[StockRow], error)
	MovementHistory(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[models.InventoryMovement], error)
	AccountBalances(ctx context.Context) ([]AccountBalance, error)
	ListUnits(ctx context.Context, status *enums.UnitStatus, params pagination.Params) (*pagination.Page[models.Unit], error)
	UnitHistory(ctx context.Context, unitID uuid.UUID) (*models.Unit, []models.UnitRevision, error)
}

type service struct {
	db      *gorm.DB
	finance finance.Service
}

// NewService wires the reports service on a read connection.
func NewService(db *gorm.DB, financeSvc finance.Service) (Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reports service requires a db")
	}
	if financeSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reports service requires the finance service")
	}
	return &service{db: db, finance: financeSvc}, nil
}

// StockReport lists active products with their totals and per-location
// breakdown, keyed by location code.
func (s *service) StockReport(ctx context.Context, params pagination.Params) (*pagination.Page[StockRow], error) {
	params = params.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count products")
	}

	var products []models.Product
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("title ASC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page := &pagination.Page[StockRow]{Total: total, Limit: params.Limit, Offset: params.Offset}
	if len(products) == 0 {
		return page, nil
	}

	ids := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	type locRow struct {
		ProductID uuid.UUID
		Code      string
		Qty       int64
	}
	var locRows []locRow
	if err := s.db.WithContext(ctx).
		Model(&models.LocationStock{}).
		Select("location_stocks.product_id AS product_id, locations.code AS code, location_stocks.qty AS qty").
		Joins("JOIN locations ON locations.id = location_stocks.location_id").
		Where("location_stocks.product_id IN ?", ids).
		Scan(&locRows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location stock")
	}
	byProduct := make(map[uuid.UUID]map[string]int64, len(products))
	for _, row := range locRows {
		if byProduct[row.ProductID] == nil {
			byProduct[row.ProductID] = make(map[string]int64)
		}
		byProduct[row.ProductID][row.Code] = row.Qty
	}

	for _, product := range products {
		locations := byProduct[product.ID]
		if locations == nil {
			locations = map[string]int64{}
		}
		page.Items = append(page.Items, StockRow{
			ProductID:  product.ID,
			Title:      product.Title,
			TotalQty:   product.StockQty,
			ByLocation: locations,
		})
	}
	return page, nil
}

// MovementHistory lists a product's movements newest-first.
func (s *service) MovementHistory(ctx context.Context, productID uuid.UUID, params pagination.Params) (*pagination.Page[models.InventoryMovement], error) {
	params = params.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.InventoryMovement{}).
		Where("product_id = ?", productID).
		Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count movements")
	}
	var rows []models.InventoryMovement
	if err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return &pagination.Page[models.InventoryMovement]{
		Items:  rows,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// AccountBalances derives every account's balance from its entries.
func (s *service) AccountBalances(ctx context.Context) ([]AccountBalance, error) {
	var accounts []models.LedgerAccount
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&accounts).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	balances := make([]AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		balance, err := s.finance.Balance(ctx, s.db, account.ID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, AccountBalance{Account: account, BalanceCents: balance})
	}
	return balances, nil
}

// ListUnits lists tracked units newest-first, optionally filtered by status.
func (s *service) ListUnits(ctx context.Context, status *enums.UnitStatus, params pagination.Params) (*pagination.Page[models.Unit], error) {
	params = params.Normalize()

	filter := func(tx *gorm.DB) *gorm.DB {
		if status != nil {
			return tx.Where("status = ?", *status)
		}
		return tx
	}

	var total int64
	if err := filter(s.db.WithContext(ctx).Model(&models.Unit{})).Count(&total).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count units")
	}
	var units []models.Unit
	if err := filter(s.db.WithContext(ctx)).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&units).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list units")
	}
	return &pagination.Page[models.Unit]{
		Items:  units,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}, nil
}

// UnitHistory returns a unit with its identity revisions, oldest first.
func (s *service) UnitHistory(ctx context.Context, unitID uuid.UUID) (*models.Unit, []models.UnitRevision, error) {
	var unit models.Unit
	err := s.db.WithContext(ctx).Where("id = ?", unitID).First(&unit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "unit %s not found", unitID)
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit")
	}
	var revisions []models.UnitRevision
	if err := s.db.WithContext(ctx).
		Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&revisions).Error; err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unit revisions")
	}
	return &unit, revisions, nil
}
