// Package agt contiene el cálculo de totales, numeración, encadenamiento de hash, QR y ciclo de
// vida de los documentos de facturación certificados ante la AGT (Angola).
// Todo el cálculo es decimal exacto; el redondeo a 2 decimales sólo ocurre al presentar o exportar.
package agt

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// LineTotals importes calculados de una línea.
type LineTotals struct {
	Subtotal decimal.Decimal // cantidad * precio
	Discount decimal.Decimal
	Net      decimal.Decimal // subtotal - descuento
	Tax      decimal.Decimal
}

// TaxBreakdown base y cuota agregadas por (tasa, código de exención).
type TaxBreakdown struct {
	Rate          decimal.Decimal
	ExemptionCode string
	Base          decimal.Decimal
	Tax           decimal.Decimal
}

// DocumentTotals totales de un documento.
type DocumentTotals struct {
	Subtotal  decimal.Decimal // Σ net
	TaxAmount decimal.Decimal // Σ tax
	Total     decimal.Decimal
	Breakdown []TaxBreakdown
}

// CalculateLine calcula los importes de una línea. Tasa no informada cuenta como 0;
// la obligatoriedad se comprueba en ValidateLineItems.
func CalculateLine(item *entity.LineItem) LineTotals {
	subtotal := item.Quantity.Mul(item.UnitPrice)
	discount := subtotal.Mul(item.DiscountPercentage).Div(hundred)
	net := subtotal.Sub(discount)
	tax := net.Mul(item.Rate()).Div(hundred)
	return LineTotals{Subtotal: subtotal, Discount: discount, Net: net, Tax: tax}
}

// CalculateTotals suma las líneas. Lista vacía devuelve ceros. No modifica las líneas.
func CalculateTotals(items []*entity.LineItem) DocumentTotals {
	totals := DocumentTotals{Subtotal: decimal.Zero, TaxAmount: decimal.Zero, Total: decimal.Zero}
	byKey := make(map[string]*TaxBreakdown)
	for _, item := range items {
		lt := CalculateLine(item)
		totals.Subtotal = totals.Subtotal.Add(lt.Net)
		totals.TaxAmount = totals.TaxAmount.Add(lt.Tax)

		rate := item.Rate()
		key := rate.String() + "|" + item.TaxExemptionCode
		b, ok := byKey[key]
		if !ok {
			b = &TaxBreakdown{Rate: rate, ExemptionCode: item.TaxExemptionCode, Base: decimal.Zero, Tax: decimal.Zero}
			byKey[key] = b
		}
		b.Base = b.Base.Add(lt.Net)
		b.Tax = b.Tax.Add(lt.Tax)
	}
	totals.Total = totals.Subtotal.Add(totals.TaxAmount)

	for _, b := range byKey {
		totals.Breakdown = append(totals.Breakdown, *b)
	}
	sort.Slice(totals.Breakdown, func(i, j int) bool {
		a, b := totals.Breakdown[i], totals.Breakdown[j]
		if !a.Rate.Equal(b.Rate) {
			return a.Rate.GreaterThan(b.Rate)
		}
		return a.ExemptionCode < b.ExemptionCode
	})
	return totals
}

// ApplyLineTotals rellena los campos calculados de cada línea.
func ApplyLineTotals(items []*entity.LineItem) {
	for _, item := range items {
		lt := CalculateLine(item)
		item.Subtotal = lt.Subtotal
		item.Discount = lt.Discount
		item.Net = lt.Net
		item.Tax = lt.Tax
	}
}

// FormatAmount importe con exactamente 2 decimales, punto decimal y sin separador de miles.
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
