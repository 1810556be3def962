package agt

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

// ValidationError error de validación de un campo concreto. Unwrap devuelve domain.ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidInput }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateLineItems valida las líneas de un documento antes de calcular totales.
// Devuelve el primer error encontrado.
func ValidateLineItems(items []*entity.LineItem) error {
	if len(items) == 0 {
		return invalid("items", "el documento debe tener al menos una línea")
	}
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item == nil {
			return invalid(field, "línea nula")
		}
		if item.Description == "" {
			return invalid(field+".description", "la descripción es obligatoria")
		}
		if item.Quantity.IsNegative() {
			return invalid(field+".quantity", "la cantidad no puede ser negativa")
		}
		if item.UnitPrice.IsNegative() {
			return invalid(field+".unitPrice", "el precio no puede ser negativo")
		}
		if item.DiscountPercentage.IsNegative() || item.DiscountPercentage.GreaterThan(hundred) {
			return invalid(field+".discountPercentage", "el descuento debe estar entre 0 y 100")
		}
		if item.TaxRate == nil {
			return invalid(field+".taxRate", "la tasa de impuesto es obligatoria")
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(hundred) {
			return invalid(field+".taxRate", "la tasa de impuesto debe estar entre 0 y 100")
		}
		if item.TaxRate.IsZero() {
			if item.TaxExemptionCode == "" {
				return invalid(field+".taxExemptionCode", "obligatorio cuando la tasa es 0")
			}
			if !pkgagt.IsValidExemptionCode(item.TaxExemptionCode) {
				return invalid(field+".taxExemptionCode", "código %q no admitido", item.TaxExemptionCode)
			}
		} else if item.TaxExemptionCode != "" {
			return invalid(field+".taxExemptionCode", "sólo se admite con tasa 0")
		}
	}
	return nil
}

// ValidatePositiveAmount exige un importe estrictamente positivo.
func ValidatePositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return invalid(field, "el importe debe ser mayor que 0")
	}
	return nil
}
