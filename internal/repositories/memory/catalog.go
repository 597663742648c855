package memory

import (
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DefaultCatalog mirrors the catalog rows seeded by the initial migration.
func DefaultCatalog() []domain.CatalogItem {
	itbis := decimal.RequireFromString("0.18")
	return []domain.CatalogItem{
		{ID: "6f1c2d1e-0000-4000-8000-000000000001", Code: "SOL-REG", Description: "Registro de obra", Price: decimal.RequireFromString("1000.00"), TaxRate: itbis, Active: true},
		{ID: "6f1c2d1e-0000-4000-8000-000000000002", Code: "IRC-NUEVO", Description: "Inscripción IRC", Price: decimal.RequireFromString("5000.00"), TaxRate: itbis, Active: true},
		{ID: "6f1c2d1e-0000-4000-8000-000000000003", Code: "IRC-RENOVACION", Description: "Renovación IRC", Price: decimal.RequireFromString("3500.00"), TaxRate: itbis, Active: true},
		{ID: "6f1c2d1e-0000-4000-8000-000000000004", Code: "DEN-TASA", Description: "Tasa de denuncia", Price: decimal.RequireFromString("500.00"), TaxRate: decimal.Zero, Active: true},
	}
}
