package agt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
)

// Vectores calculados con sha256sum sobre la cadena canónica:
//
//	";FT 2026/000001;2026-03-15;2052.00;31.1/AGT20"
//	"<hash1>;FT 2026/000002;2026-03-16;1000.50;31.1/AGT20"
const (
	testCertificate = "31.1/AGT20"
	testHash1       = "cdb5c564cb18e6bd2fd03ba736f563b6598732a1a4a2ad6066239baf6c3f7351"
	testHash2       = "4c9df31f4504f575de60815b5b2fa86f46d74a8aec798a83114133d0543ca3d4"
)

func TestComputeHashControl_VectorExacto(t *testing.T) {
	first, err := agt.ComputeHashControl(agt.ChainInput{
		DocumentNumber:    "FT 2026/000001",
		IssueDate:         time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC),
		Total:             d("2052"),
		CertificateNumber: testCertificate,
	})
	require.NoError(t, err)
	assert.Equal(t, testHash1, first)

	second, err := agt.ComputeHashControl(agt.ChainInput{
		PreviousHash:      first,
		DocumentNumber:    "FT 2026/000002",
		IssueDate:         time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		Total:             d("1000.5"),
		CertificateNumber: testCertificate,
	})
	require.NoError(t, err)
	assert.Equal(t, testHash2, second)
}

func TestComputeHashControl_DependeDelHashAnterior(t *testing.T) {
	in := agt.ChainInput{
		DocumentNumber: "FT 2026/000002",
		IssueDate:      time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		Total:          d("10"),
	}
	a, err := agt.ComputeHashControl(in)
	require.NoError(t, err)
	in.PreviousHash = testHash1
	b, err := agt.ComputeHashControl(in)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, b, 64)
}

func TestCanonicalMessage_CamposObligatorios(t *testing.T) {
	_, err := agt.CanonicalMessage(agt.ChainInput{IssueDate: time.Now()})
	assert.Error(t, err)
	_, err = agt.CanonicalMessage(agt.ChainInput{DocumentNumber: "FT 2026/000001"})
	assert.Error(t, err)
}

func TestBuildQRData_Determinista(t *testing.T) {
	in := agt.QRInput{
		IssuerNIF:      "5417 002 311",
		CustomerNIF:    "",
		DocumentType:   "FT",
		DocumentNumber: "FT 2026/000001",
		IssueDate:      time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Total:          d("2052"),
		TaxAmount:      d("252"),
		ATCUD:          "AAJFJMVNTN-1",
		HashControl:    testHash1,
	}

	got := agt.BuildQRData(in)

	assert.Equal(t, "5417002311|999999999|FT|FT 2026/000001|2026-03-15|2052.00|252.00|AAJFJMVNTN-1|cdb5", got)
	assert.Equal(t, got, agt.BuildQRData(in))
}
