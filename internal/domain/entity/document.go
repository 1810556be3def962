package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentType tipo de documento comercial/fiscal (código SAF-T AO).
type DocumentType string

const (
	DocumentTypeProforma       DocumentType = "PF"
	DocumentTypeInvoice        DocumentType = "FT"
	DocumentTypeCreditNote     DocumentType = "NC"
	DocumentTypePaymentReceipt DocumentType = "RG"
)

// IsFiscal indica si el tipo de documento debe certificarse ante la AGT.
func (t DocumentType) IsFiscal() bool {
	return t == DocumentTypeInvoice || t == DocumentTypeCreditNote || t == DocumentTypePaymentReceipt
}

// DocumentHeader campos comunes a todos los documentos de facturación.
// OwnerID es el tenant (usuario propietario); CustomerID es la empresa cliente en el CRM.
type DocumentHeader struct {
	ID             string
	OwnerID        string
	DocumentType   DocumentType
	Series         string
	Sequence       int64
	DocumentNumber string // "FT 2026/000001" o "FT A2026/000001"
	IssueDate      time.Time
	Currency       string
	CustomerID     string
	ContactID      string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	Notes          string
	CreatedAt      time.Time
	ModifiedAt     time.Time
}
