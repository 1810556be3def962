package agt

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// Acciones sobre una proforma.
type ProformaAction string

const (
	ProformaActionSend    ProformaAction = "send"
	ProformaActionAccept  ProformaAction = "accept"
	ProformaActionReject  ProformaAction = "reject"
	ProformaActionConvert ProformaAction = "convert"
)

// ProformaTransitions tabla de transiciones permitidas. converted y rejected son terminales.
var ProformaTransitions = map[entity.ProformaStatus]map[ProformaAction]entity.ProformaStatus{
	entity.ProformaStatusDraft: {
		ProformaActionSend:   entity.ProformaStatusSent,
		ProformaActionAccept: entity.ProformaStatusAccepted,
		ProformaActionReject: entity.ProformaStatusRejected,
	},
	entity.ProformaStatusSent: {
		ProformaActionAccept: entity.ProformaStatusAccepted,
		ProformaActionReject: entity.ProformaStatusRejected,
	},
	entity.ProformaStatusAccepted: {
		ProformaActionConvert: entity.ProformaStatusConverted,
	},
}

// NextProformaStatus devuelve el estado destino o ErrStateConflict.
func NextProformaStatus(current entity.ProformaStatus, action ProformaAction) (entity.ProformaStatus, error) {
	next, ok := ProformaTransitions[current][action]
	if !ok {
		return current, fmt.Errorf("%w: no se puede %s una proforma en estado %s", domain.ErrStateConflict, action, current)
	}
	return next, nil
}

// PaymentOutcome resultado de aplicar un pago a una factura.
type PaymentOutcome struct {
	PaidAmount    decimal.Decimal
	PaymentStatus entity.PaymentStatus
	Status        entity.InvoiceStatus
}

// ApplyPayment calcula el nuevo estado de cobro sin modificar la factura.
// Rechaza facturas anuladas o ya pagadas y pagos que superen el saldo.
func ApplyPayment(inv *entity.Invoice, amount decimal.Decimal) (PaymentOutcome, error) {
	if err := ValidatePositiveAmount("paidAmount", amount); err != nil {
		return PaymentOutcome{}, err
	}
	switch inv.Status {
	case entity.InvoiceStatusCancelled:
		return PaymentOutcome{}, fmt.Errorf("%w: la factura %s está anulada", domain.ErrStateConflict, inv.DocumentNumber)
	case entity.InvoiceStatusPaid:
		return PaymentOutcome{}, fmt.Errorf("%w: la factura %s ya está pagada", domain.ErrOverpayment, inv.DocumentNumber)
	}
	newPaid := inv.PaidAmount.Add(amount)
	if newPaid.GreaterThan(inv.TotalAmount) {
		return PaymentOutcome{}, fmt.Errorf("%w: factura %s, saldo %s, pago %s",
			domain.ErrOverpayment, inv.DocumentNumber, FormatAmount(inv.Balance()), FormatAmount(amount))
	}
	out := PaymentOutcome{PaidAmount: newPaid, PaymentStatus: entity.PaymentStatusPartial, Status: entity.InvoiceStatusIssued}
	if newPaid.Equal(inv.TotalAmount) {
		out.PaymentStatus = entity.PaymentStatusPaid
		out.Status = entity.InvoiceStatusPaid
	}
	return out, nil
}

// CanCancelInvoice una factura sólo se anula en estado emitido, sin cobros y con motivo.
func CanCancelInvoice(inv *entity.Invoice, reason string) error {
	if reason == "" {
		return &ValidationError{Field: "reason", Message: "el motivo de anulación es obligatorio"}
	}
	if inv.Status != entity.InvoiceStatusIssued {
		return fmt.Errorf("%w: la factura %s está en estado %s", domain.ErrStateConflict, inv.DocumentNumber, inv.Status)
	}
	if !inv.PaidAmount.IsZero() {
		return fmt.Errorf("%w: la factura %s tiene cobros registrados", domain.ErrStateConflict, inv.DocumentNumber)
	}
	return nil
}

// EffectiveInvoiceStatus deriva "overdue" al leer: emitida, no cobrada del todo y vencida antes de hoy.
func EffectiveInvoiceStatus(inv *entity.Invoice, now time.Time) entity.InvoiceStatus {
	if inv.Status != entity.InvoiceStatusIssued || inv.DueDate == nil {
		return inv.Status
	}
	if inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount) {
		return inv.Status
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	due := time.Date(inv.DueDate.Year(), inv.DueDate.Month(), inv.DueDate.Day(), 0, 0, 0, 0, now.Location())
	if due.Before(today) {
		return entity.InvoiceStatusOverdue
	}
	return inv.Status
}
