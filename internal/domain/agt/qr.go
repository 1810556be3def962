package agt

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

// QRInput datos del código QR impreso en el documento certificado.
type QRInput struct {
	IssuerNIF      string
	CustomerNIF    string
	DocumentType   string
	DocumentNumber string
	IssueDate      time.Time
	Total          decimal.Decimal
	TaxAmount      decimal.Decimal
	ATCUD          string
	HashControl    string
}

// BuildQRData payload determinista separado por "|":
// NIFEmisor|NIFCliente|Tipo|Número|Fecha|Total|Impuesto|ATCUD|Hash4
func BuildQRData(in QRInput) string {
	return strings.Join([]string{
		pkgagt.NormalizeNIF(in.IssuerNIF),
		pkgagt.CustomerTaxID(in.CustomerNIF),
		in.DocumentType,
		in.DocumentNumber,
		in.IssueDate.Format(time.DateOnly),
		FormatAmount(in.Total),
		FormatAmount(in.TaxAmount),
		in.ATCUD,
		ShortHash(in.HashControl),
	}, "|")
}
