package enums

import "fmt"

// DocumentFamily names one numbering stream in the sequence_counters table.
// Every issued document pulls its number from exactly one family.
type DocumentFamily string

const (
	DocumentFamilyOrder          DocumentFamily = "order"
	DocumentFamilySalesInvoice   DocumentFamily = "sales_invoice"
	DocumentFamilyPurchaseBill   DocumentFamily = "purchase_bill"
	DocumentFamilySalesReturn    DocumentFamily = "sales_return"
	DocumentFamilyPurchaseReturn DocumentFamily = "purchase_return"
	DocumentFamilyWriteOff       DocumentFamily = "write_off"
	DocumentFamilyStockTransfer  DocumentFamily = "stock_transfer"
	DocumentFamilyRentalBill     DocumentFamily = "rental_bill"
	DocumentFamilyPosSale        DocumentFamily = "pos_sale"
	DocumentFamilyUnitTag        DocumentFamily = "unit_tag"
)

var validDocumentFamilies = []DocumentFamily{
	DocumentFamilyOrder,
	DocumentFamilySalesInvoice,
	DocumentFamilyPurchaseBill,
	DocumentFamilySalesReturn,
	DocumentFamilyPurchaseReturn,
	DocumentFamilyWriteOff,
	DocumentFamilyStockTransfer,
	DocumentFamilyRentalBill,
	DocumentFamilyPosSale,
	DocumentFamilyUnitTag,
}

// String implements fmt.Stringer.
func (f DocumentFamily) String() string {
	return string(f)
}

// IsValid reports whether the value is a known DocumentFamily.
func (f DocumentFamily) IsValid() bool {
	for _, candidate := range validDocumentFamilies {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseDocumentFamily converts raw input into a DocumentFamily.
func ParseDocumentFamily(value string) (DocumentFamily, error) {
	for _, candidate := range validDocumentFamilies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document family %q", value)
}
