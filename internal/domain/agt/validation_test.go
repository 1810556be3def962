package agt_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

func validItem() *entity.LineItem {
	return &entity.LineItem{
		Description:        "Servicio",
		Quantity:           d("1"),
		UnitPrice:          d("100"),
		DiscountPercentage: d("0"),
		TaxRate:            rate("14"),
	}
}

func TestValidateLineItems(t *testing.T) {
	tests := []struct {
		name  string
		item  func(*entity.LineItem)
		field string
	}{
		{"cantidad negativa", func(i *entity.LineItem) { i.Quantity = d("-1") }, "items[0].quantity"},
		{"precio negativo", func(i *entity.LineItem) { i.UnitPrice = d("-0.01") }, "items[0].unitPrice"},
		{"descuento mayor que 100", func(i *entity.LineItem) { i.DiscountPercentage = d("100.5") }, "items[0].discountPercentage"},
		{"descuento negativo", func(i *entity.LineItem) { i.DiscountPercentage = d("-1") }, "items[0].discountPercentage"},
		{"sin tasa", func(i *entity.LineItem) { i.TaxRate = nil }, "items[0].taxRate"},
		{"tasa cero sin exención", func(i *entity.LineItem) { i.TaxRate = rate("0") }, "items[0].taxExemptionCode"},
		{"exención desconocida", func(i *entity.LineItem) { i.TaxRate = rate("0"); i.TaxExemptionCode = "M99" }, "items[0].taxExemptionCode"},
		{"exención con tasa normal", func(i *entity.LineItem) { i.TaxExemptionCode = "M11" }, "items[0].taxExemptionCode"},
		{"sin descripción", func(i *entity.LineItem) { i.Description = "" }, "items[0].description"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			item := validItem()
			tc.item(item)

			err := agt.ValidateLineItems([]*entity.LineItem{item})

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			var vErr *agt.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestValidateLineItems_ListaVacia(t *testing.T) {
	err := agt.ValidateLineItems(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestValidateLineItems_Validas(t *testing.T) {
	exempt := validItem()
	exempt.TaxRate = rate("0")
	exempt.TaxExemptionCode = "M00"

	assert.NoError(t, agt.ValidateLineItems([]*entity.LineItem{validItem(), exempt}))
}
