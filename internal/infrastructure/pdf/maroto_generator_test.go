package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

func TestFormatKz(t *testing.T) {
	cases := map[string]string{
		"0":           "0,00",
		"999.5":       "999,50",
		"1000":        "1.000,00",
		"1234567.891": "1.234.567,89",
		"-2052":       "-2.052,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatKz(decimal.RequireFromString(in)), in)
	}
}

func TestPrintedHashExcerpt(t *testing.T) {
	sig := "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnop"
	assert.Equal(t, "AKUe", PrintedHashExcerpt(sig))
	assert.Equal(t, "A", PrintedHashExcerpt("ABC"))
	assert.Equal(t, "", PrintedHashExcerpt(""))
}

func TestTaxLabel(t *testing.T) {
	assert.Equal(t, "IVA 14%", taxLabel(agt.TaxBreakdown{Rate: decimal.NewFromInt(14)}))
	assert.Equal(t, "Isento M00 - Regime Transitório", taxLabel(agt.TaxBreakdown{Rate: decimal.Zero, ExemptionCode: "M00"}))
}

func TestGenerateDocumentPDF(t *testing.T) {
	rate := decimal.NewFromInt(14)
	due := time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC)
	doc := appbilling.PrintableDocument{
		Title: "Factura",
		Header: entity.DocumentHeader{
			DocumentNumber: "FT 2026/000001",
			IssueDate:      time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			Currency:       "AOA",
			Subtotal:       decimal.NewFromInt(1800),
			TaxAmount:      decimal.NewFromInt(252),
			TotalAmount:    decimal.NewFromInt(2052),
		},
		Certification: entity.Certification{
			ATCUD:             "AAJFJMVNTN-1",
			HashControl:       "ab",
			DigitalSignature:  "c2lnbmF0dXJlLWZvci10ZXN0LXB1cnBvc2VzLW9ubHk=",
			QRCodeData:        "https://portaldocontribuinte.minfin.gov.ao/consultar-fe?emissor=5417002311",
			CertificationDate: time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
			CertificateNumber: "31.1/AGT20",
		},
		Lines: []*entity.LineItem{{
			Description: "Consultoria", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(1000),
			DiscountPercentage: decimal.NewFromInt(10), TaxRate: &rate,
			Net: decimal.NewFromInt(1800), Tax: decimal.NewFromInt(252),
		}},
		Company:  &entity.CompanyConfig{Name: "Empresa Demo Lda", NIF: "5417002311", City: "Luanda"},
		Customer: &entity.Customer{Name: "Cliente Final"},
		DueDate:  &due,
	}

	out, err := NewMarotoPDFGenerator().GenerateDocumentPDF(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "debe ser un PDF")
}

func TestGenerateDocumentPDF_MissingParties(t *testing.T) {
	_, err := NewMarotoPDFGenerator().GenerateDocumentPDF(context.Background(), appbilling.PrintableDocument{})
	assert.Error(t, err)
}
