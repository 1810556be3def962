package entity

import "github.com/shopspring/decimal"

// LineItem línea de detalle de un documento. Pertenece a un único documento.
// TaxRate es obligatorio (nil = no informado); con tasa 0 se exige TaxExemptionCode.
type LineItem struct {
	ID                 string
	DocumentID         string
	Position           int
	Description        string
	ProductID          string
	Quantity           decimal.Decimal
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	TaxRate            *decimal.Decimal
	TaxExemptionCode   string

	// Calculados (ver agt.CalculateLine).
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Net      decimal.Decimal
	Tax      decimal.Decimal
}

// Rate devuelve la tasa de impuesto o cero si no está informada.
func (l *LineItem) Rate() decimal.Decimal {
	if l.TaxRate == nil {
		return decimal.Zero
	}
	return *l.TaxRate
}

// IsExempt indica si la línea tributa a tasa 0.
func (l *LineItem) IsExempt() bool {
	return l.TaxRate != nil && l.TaxRate.IsZero()
}
