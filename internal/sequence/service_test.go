package sequence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nandarlin/shopbooks-backend/pkg/db/models"
	"github.com/nandarlin/shopbooks-backend/pkg/enums"
	pkgerrors "github.com/nandarlin/shopbooks-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:sequence_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.SequenceCounter{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestNextIsMonotonic(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService()

	for want := int64(1); want <= 5; want++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			got, err := svc.Next(ctx, tx, enums.DocumentFamilyPosSale)
			if err != nil {
				return err
			}
			if got != want {
				t.Fatalf("expected %d, got %d", want, got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("next: %v", err)
		}
	}
}

func TestNextFamiliesAreIndependent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService()

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < 3; i++ {
			if _, err := svc.Next(ctx, tx, enums.DocumentFamilyPurchaseBill); err != nil {
				return err
			}
		}
		got, err := svc.Next(ctx, tx, enums.DocumentFamilySalesInvoice)
		if err != nil {
			return err
		}
		if got != 1 {
			t.Fatalf("expected fresh family to start at 1, got %d", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
}

func TestNextRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	svc := NewService()

	boom := pkgerrors.New(pkgerrors.CodeInternal, "forced rollback")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Next(ctx, tx, enums.DocumentFamilyOrder); err != nil {
			return err
		}
		return boom
	})
	if err == nil {
		t.Fatal("expected rollback error")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		got, err := svc.Next(ctx, tx, enums.DocumentFamilyOrder)
		if err != nil {
			return err
		}
		if got != 1 {
			t.Fatalf("expected rolled-back number to be reissued, got %d", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
}

func TestNextRejectsUnknownFamily(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Next(context.Background(), tx, enums.DocumentFamily("bogus"))
		return err
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
