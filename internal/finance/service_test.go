package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:finance_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.LedgerAccount{}, &models.LedgerEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, kind enums.AccountKind, opening int64, active bool) models.LedgerAccount {
	t.Helper()
	account := models.LedgerAccount{
		Name:         string(kind) + " drawer",
		Kind:         kind,
		OpeningCents: opening,
		IsActive:     active,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func TestPost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService()

	t.Run("appendsEntry", func(t *testing.T) {
		db := newTestDB(t)
		account := seedAccount(t, db, enums.AccountKindCash, 0, true)
		ref := &Reference{Type: enums.ReferenceTypePosSale, ID: uuid.New()}

		err := db.Transaction(func(tx *gorm.DB) error {
			entry, err := svc.Post(ctx, tx, account.ID, enums.EntryDirectionIn, 2500, time.Now(), ref, nil)
			if err != nil {
				return err
			}
			if entry.ReferenceType == nil || *entry.ReferenceType != enums.ReferenceTypePosSale {
				t.Fatalf("expected reference on entry, got %+v", entry)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
	})

	t.Run("zeroAmountRejected", func(t *testing.T) {
		db := newTestDB(t)
		account := seedAccount(t, db, enums.AccountKindCash, 0, true)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Post(ctx, tx, account.ID, enums.EntryDirectionIn, 0, time.Now(), nil, nil)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAmount) {
			t.Fatalf("expected invalid amount, got %v", err)
		}
	})

	t.Run("inactiveAccountRejected", func(t *testing.T) {
		db := newTestDB(t)
		account := seedAccount(t, db, enums.AccountKindBank, 0, false)

		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Post(ctx, tx, account.ID, enums.EntryDirectionIn, 100, time.Now(), nil, nil)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAccount) {
			t.Fatalf("expected invalid account, got %v", err)
		}
	})

	t.Run("missingAccountRejected", func(t *testing.T) {
		db := newTestDB(t)
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Post(ctx, tx, uuid.New(), enums.EntryDirectionIn, 100, time.Now(), nil, nil)
			return err
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAccount) {
			t.Fatalf("expected invalid account, got %v", err)
		}
	})
}

func TestBalance(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService()

	db := newTestDB(t)
	account := seedAccount(t, db, enums.AccountKindCash, 10_000, true)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Post(ctx, tx, account.ID, enums.EntryDirectionIn, 5_000, time.Now(), nil, nil); err != nil {
			return err
		}
		if _, err := svc.Post(ctx, tx, account.ID, enums.EntryDirectionIn, 2_500, time.Now(), nil, nil); err != nil {
			return err
		}
		_, err := svc.Post(ctx, tx, account.ID, enums.EntryDirectionOut, 1_200, time.Now(), nil, nil)
		return err
	})
	if err != nil {
		t.Fatalf("seed entries: %v", err)
	}

	balance, err := svc.Balance(ctx, db, account.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 16_300 {
		t.Fatalf("expected 16300, got %d", balance)
	}
}

func TestResolveAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService()

	t.Run("picksActiveByKind", func(t *testing.T) {
		db := newTestDB(t)
		seedAccount(t, db, enums.AccountKindBank, 0, true)
		cash := seedAccount(t, db, enums.AccountKindCash, 0, true)

		account, err := svc.ResolveAccount(ctx, db, enums.PaymentMethodCash)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if account.ID != cash.ID {
			t.Fatalf("expected cash account %s, got %s", cash.ID, account.ID)
		}
	})

	t.Run("skipsInactive", func(t *testing.T) {
		db := newTestDB(t)
		seedAccount(t, db, enums.AccountKindMobileMoney, 0, false)

		_, err := svc.ResolveAccount(ctx, db, enums.PaymentMethodMobileMoney)
		if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidAccount) {
			t.Fatalf("expected invalid account, got %v", err)
		}
	})
}
