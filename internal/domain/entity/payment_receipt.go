package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentAllocation importe de un recibo aplicado a una factura.
type PaymentAllocation struct {
	InvoiceID     string
	InvoiceNumber string
	InvoiceDate   time.Time
	PaidAmount    decimal.Decimal
}

// PaymentReceipt recibo (RG). TotalAmount = Σ Allocations.PaidAmount.
type PaymentReceipt struct {
	DocumentHeader
	Certification
	PaymentMethod string
	Allocations   []PaymentAllocation
	Status        string
}

// PaymentReceiptStatusIssued único estado de un recibo emitido.
const PaymentReceiptStatusIssued = "issued"
