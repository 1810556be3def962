// Package agt contiene catálogos y validaciones alineados con el regime jurídico
// das facturas electrónicas da AGT (Angola) y el esquema SAF-T (AO) 1.01_01.
package agt

import "github.com/shopspring/decimal"

// =============================================================================
// Tipos de documento (SAF-T AO - InvoiceType / DocumentType)
// =============================================================================

const (
	DocTypeProforma       = "PF" // Factura proforma (no fiscal, no se certifica)
	DocTypeInvoice        = "FT" // Factura
	DocTypeCreditNote     = "NC" // Nota de crédito
	DocTypePaymentReceipt = "RG" // Recibo (pago de facturas)
)

// ValidDocumentTypes tipos de documento emitidos por el motor de facturación.
var ValidDocumentTypes = map[string]bool{
	DocTypeProforma:       true,
	DocTypeInvoice:        true,
	DocTypeCreditNote:     true,
	DocTypePaymentReceipt: true,
}

// =============================================================================
// Impuestos (SAF-T AO - TaxTable)
// =============================================================================

const (
	TaxTypeIVA       = "IVA" // Imposto sobre o Valor Acrescentado
	TaxCodeNormal    = "NOR" // Tasa normal
	TaxCodeExempt    = "ISE" // Exento
	TaxCountryRegion = "AO"
	CurrencyAOA      = "AOA"
)

// StandardVATRate tasa normal de IVA en Angola (14%).
var StandardVATRate = decimal.NewFromInt(14)

// =============================================================================
// Motivos de exención (TaxExemptionCode). Obligatorio cuando la tasa es 0.
// =============================================================================

const (
	ExemptionM00 = "M00" // Regime transitório
	ExemptionM02 = "M02" // Transmissão de bens e serviço não sujeita
	ExemptionM11 = "M11" // Isento Artigo 12.º b) do CIVA
	ExemptionM12 = "M12" // Isento Artigo 12.º c) do CIVA
)

// ExemptionReasons descripción legal (TaxExemptionReason) por código.
var ExemptionReasons = map[string]string{
	ExemptionM00: "Regime Transitório",
	ExemptionM02: "Transmissão de bens e serviço não sujeita",
	ExemptionM11: "Isento Artigo 12.º b) do CIVA",
	ExemptionM12: "Isento Artigo 12.º c) do CIVA",
}

// IsValidExemptionCode indica si el código pertenece al catálogo admitido.
func IsValidExemptionCode(code string) bool {
	_, ok := ExemptionReasons[code]
	return ok
}

// =============================================================================
// Mecanismos de pago (SAF-T AO - PaymentMechanism)
// =============================================================================

const (
	PaymentMechanismCash     = "NU" // Numerário
	PaymentMechanismTransfer = "TB" // Transferência bancária
	PaymentMechanismCard     = "CD" // Cartão de débito
	PaymentMechanismCredit   = "CC" // Cartão de crédito
	PaymentMechanismOther    = "OU" // Outros
)

// ValidPaymentMechanisms mecanismos de pago aceptados en recibos.
var ValidPaymentMechanisms = map[string]bool{
	PaymentMechanismCash:     true,
	PaymentMechanismTransfer: true,
	PaymentMechanismCard:     true,
	PaymentMechanismCredit:   true,
	PaymentMechanismOther:    true,
}

// =============================================================================
// Cabecera SAF-T AO
// =============================================================================

const (
	SAFTNamespace        = "urn:OECD:StandardAuditFile-Tax:AO_1.01_01"
	SAFTAuditFileVersion = "1.01_01"
	// TaxAccountingBasisBilling "F" = Facturação.
	TaxAccountingBasisBilling = "F"
	// ConsumerFinalNIF NIF genérico para consumidor final.
	ConsumerFinalNIF = "999999999"
	// SourceBilling indica documento producido por el programa de facturación.
	SourceBilling = "P"
)

// Estados SAF-T de documento (InvoiceStatus / PaymentStatus).
const (
	SAFTStatusNormal    = "N"
	SAFTStatusCancelled = "A"
)
