package enums

import "fmt"

// ReferenceType identifies the document that caused a stock movement or
// ledger entry.
type ReferenceType string

const (
	ReferenceTypeOrder          ReferenceType = "order"
	ReferenceTypeSalesInvoice   ReferenceType = "sales_invoice"
	ReferenceTypePurchaseBill   ReferenceType = "purchase_bill"
	ReferenceTypeSalesReturn    ReferenceType = "sales_return"
	ReferenceTypePurchaseReturn ReferenceType = "purchase_return"
	ReferenceTypeWriteOff       ReferenceType = "write_off"
	ReferenceTypeStockTransfer  ReferenceType = "stock_transfer"
	ReferenceTypeRentalBill     ReferenceType = "rental_bill"
	ReferenceTypePosSale        ReferenceType = "pos_sale"
	ReferenceTypeAdjustment     ReferenceType = "adjustment"
	ReferenceTypeUnitization    ReferenceType = "unitization"
)

var validReferenceTypes = []ReferenceType{
	ReferenceTypeOrder,
	ReferenceTypeSalesInvoice,
	ReferenceTypePurchaseBill,
	ReferenceTypeSalesReturn,
	ReferenceTypePurchaseReturn,
	ReferenceTypeWriteOff,
	ReferenceTypeStockTransfer,
	ReferenceTypeRentalBill,
	ReferenceTypePosSale,
	ReferenceTypeAdjustment,
	ReferenceTypeUnitization,
}

// IsValid reports whether the value is a known ReferenceType.
func (t ReferenceType) IsValid() bool {
	for _, candidate := range validReferenceTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseReferenceType converts raw input into a ReferenceType.
func ParseReferenceType(value string) (ReferenceType, error) {
	for _, candidate := range validReferenceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reference type %q", value)
}
