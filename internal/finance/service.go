package finance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

// Reference points a ledger entry at the document that caused it.
type Reference struct {
	Type enums.ReferenceType
	ID   uuid.UUID
}

// Service is the financial ledger: append-only directional entries against
// cash/bank/mobile-money accounts, with balances derived on demand.
type Service interface {
	Post(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, direction enums.EntryDirection, amountCents int64, occurredAt time.Time, ref *Reference, note *string) (*models.LedgerEntry, error)
	Balance(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int64, error)
	ResolveAccount(ctx context.Context, tx *gorm.DB, method enums.PaymentMethod) (*models.LedgerAccount, error)
}

type service struct{}

// NewService returns the financial ledger service.
func NewService() Service {
	return service{}
}

// Post appends one entry. The account row is locked for the transaction so
// concurrent balance-sensitive callers serialize on it.
func (service) Post(ctx context.Context, tx *gorm.DB, accountID uuid.UUID, direction enums.EntryDirection, amountCents int64, occurredAt time.Time, ref *Reference, note *string) (*models.LedgerEntry, error) {
	if amountCents <= 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidAmount, "ledger amount %d must be positive", amountCents)
	}
	if !direction.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown entry direction %q", direction)
	}

	var account models.LedgerAccount
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", accountID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidAccount, "ledger account %s not found", accountID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock ledger account")
	}
	if !account.IsActive {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidAccount, "ledger account %q is inactive", account.Name)
	}

	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	entry := models.LedgerEntry{
		AccountID:   account.ID,
		Direction:   direction,
		AmountCents: amountCents,
		OccurredAt:  occurredAt,
		Note:        note,
	}
	if ref != nil {
		refType := ref.Type
		refID := ref.ID
		entry.ReferenceType = &refType
		entry.ReferenceID = &refID
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ledger entry")
	}
	return &entry, nil
}

// Balance computes opening + Σ(in) − Σ(out) from the entry rows.
func (service) Balance(ctx context.Context, tx *gorm.DB, accountID uuid.UUID) (int64, error) {
	var account models.LedgerAccount
	err := tx.WithContext(ctx).Where("id = ?", accountID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.Newf(pkgerrors.CodeInvalidAccount, "ledger account %s not found", accountID)
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ledger account")
	}

	var sums struct {
		InTotal  int64
		OutTotal int64
	}
	if err := tx.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select(
			"COALESCE(SUM(CASE WHEN direction = ? THEN amount_cents ELSE 0 END), 0) AS in_total, "+
				"COALESCE(SUM(CASE WHEN direction = ? THEN amount_cents ELSE 0 END), 0) AS out_total",
			enums.EntryDirectionIn, enums.EntryDirectionOut,
		).
		Scan(&sums).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum ledger entries")
	}
	return account.OpeningCents + sums.InTotal - sums.OutTotal, nil
}

// ResolveAccount picks the active account backing a payment method. Exactly
// one active account per kind is expected; the oldest wins if several exist.
func (service) ResolveAccount(ctx context.Context, tx *gorm.DB, method enums.PaymentMethod) (*models.LedgerAccount, error) {
	if !method.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown payment method %q", method)
	}
	var account models.LedgerAccount
	err := tx.WithContext(ctx).
		Where("kind = ? AND is_active = ?", method.AccountKind(), true).
		Order("created_at ASC").
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Newf(pkgerrors.CodeInvalidAccount, "no active %s account", method.AccountKind())
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve ledger account")
	}
	return &account, nil
}
