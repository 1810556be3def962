package entity

import "time"

// Estados de la factura proforma.
type ProformaStatus string

const (
	ProformaStatusDraft     ProformaStatus = "draft"
	ProformaStatusSent      ProformaStatus = "sent"
	ProformaStatusAccepted  ProformaStatus = "accepted"
	ProformaStatusRejected  ProformaStatus = "rejected"
	ProformaStatusConverted ProformaStatus = "converted"
)

// Proforma cotización no fiscal. Nunca se certifica.
type Proforma struct {
	DocumentHeader
	Lines                []*LineItem
	Status               ProformaStatus
	ValidUntil           *time.Time
	TermsConditions      string
	ConvertedToInvoiceID string // informado sólo si Status == converted
}
