package agt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "FT 2026/000001", agt.FormatDocumentNumber(entity.DocumentTypeInvoice, "", 2026, 1))
	assert.Equal(t, "FT A2026/000001", agt.FormatDocumentNumber(entity.DocumentTypeInvoice, "A", 2026, 1))
	assert.Equal(t, "NC 2025/123456", agt.FormatDocumentNumber(entity.DocumentTypeCreditNote, "", 2025, 123456))
	assert.Equal(t, "RG 2026/1234567", agt.FormatDocumentNumber(entity.DocumentTypePaymentReceipt, "", 2026, 1234567))
}

func TestParseDocumentNumber_InversoDeFormat(t *testing.T) {
	number := agt.FormatDocumentNumber(entity.DocumentTypeProforma, "AB", 2026, 42)

	p, err := agt.ParseDocumentNumber(number)

	require.NoError(t, err)
	assert.Equal(t, entity.DocumentTypeProforma, p.DocumentType)
	assert.Equal(t, "AB", p.Series)
	assert.Equal(t, 2026, p.Year)
	assert.Equal(t, int64(42), p.Sequence)
}

func TestParseDocumentNumber_Invalido(t *testing.T) {
	for _, n := range []string{"", "FT2026/000001", "XX 2026/000001", "FT 26/000001", "FT 2026-000001"} {
		_, err := agt.ParseDocumentNumber(n)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, n)
	}
}

func TestValidateSeries(t *testing.T) {
	assert.NoError(t, agt.ValidateSeries(""))
	assert.NoError(t, agt.ValidateSeries("A"))
	assert.Error(t, agt.ValidateSeries("a"))
	assert.Error(t, agt.ValidateSeries("A1"))
}

func TestFormatATCUD(t *testing.T) {
	assert.Equal(t, "AAJFJMVNTN-15", agt.FormatATCUD("AAJFJMVNTN", 15))
	assert.Equal(t, "0-1", agt.FormatATCUD("", 1))
}
