package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de la factura. "overdue" no se persiste: se deriva al leer.
type InvoiceStatus string

const (
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// PaymentStatus estado de cobro de la factura.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Invoice factura fiscal (FT). Invariante: 0 <= PaidAmount <= TotalAmount.
type Invoice struct {
	DocumentHeader
	Certification
	Lines           []*LineItem
	Status          InvoiceStatus
	PaymentStatus   PaymentStatus
	PaidAmount      decimal.Decimal
	DueDate         *time.Time
	ProformaID      string
	TermsConditions string
	CancelReason    string
	Version         int64 // control optimista en la aplicación de pagos
}

// Balance saldo pendiente de cobro.
func (i *Invoice) Balance() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}
