package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// Convención: GetByID devuelve (nil, nil) cuando el registro no existe; el caso de uso lo traduce a ErrNotFound.

// ProformaRepository puerto de persistencia de proformas y sus líneas.
type ProformaRepository interface {
	Create(ctx context.Context, p *entity.Proforma) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.Proforma, error)
	// GetByIDForUpdate bloquea la fila (SELECT ... FOR UPDATE) dentro de la transacción.
	GetByIDForUpdate(ctx context.Context, ownerID, id string) (*entity.Proforma, error)
	// UpdateStatus cambia el estado sólo si el estado actual es from; si no, devuelve ErrStateConflict.
	UpdateStatus(ctx context.Context, id string, from, to entity.ProformaStatus, convertedToInvoiceID string, at time.Time) error
}

// InvoiceRepository puerto de persistencia de facturas (cabecera, líneas y certificación).
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.Invoice, error)
	GetByIDForUpdate(ctx context.Context, ownerID, id string) (*entity.Invoice, error)
	// UpdatePayment persiste paid_amount/payment_status/status si version coincide; incrementa version.
	// Version distinta devuelve ErrStateConflict.
	UpdatePayment(ctx context.Context, inv *entity.Invoice, expectedVersion int64) error
	Cancel(ctx context.Context, id, reason string, at time.Time) error
	// ListByPeriod facturas con issue_date en [start, end] (ambos inclusive), con líneas.
	ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.Invoice, error)
	// List página de facturas, más recientes primero, sin líneas. Devuelve también el total del propietario.
	List(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Invoice, int, error)
}

// CreditNoteRepository puerto de persistencia de notas de crédito.
type CreditNoteRepository interface {
	Create(ctx context.Context, cn *entity.CreditNote) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.CreditNote, error)
	// CreditedTotal suma de notas de crédito emitidas contra una factura.
	CreditedTotal(ctx context.Context, invoiceID string) (decimal.Decimal, error)
	ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.CreditNote, error)
}

// PaymentReceiptRepository puerto de persistencia de recibos y sus asignaciones.
type PaymentReceiptRepository interface {
	Create(ctx context.Context, rc *entity.PaymentReceipt) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.PaymentReceipt, error)
	ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.PaymentReceipt, error)
}
