package domain

import "github.com/shopspring/decimal"

// CatalogItem is a priced service the office bills for (registration fee, complaint fee, ...).
type CatalogItem struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	TaxRate     decimal.Decimal `json:"taxRate"` // 0.18 for ITBIS
	Active      bool            `json:"active"`
}
