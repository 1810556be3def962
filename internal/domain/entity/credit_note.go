package entity

// CreditNote nota de crédito (NC) que referencia una factura existente.
type CreditNote struct {
	DocumentHeader
	Certification
	Lines                 []*LineItem
	OriginalInvoiceID     string
	OriginalInvoiceNumber string
	Reason                string
	Status                string
}

// CreditNoteStatusIssued único estado de una nota de crédito emitida.
const CreditNoteStatusIssued = "issued"
