package billing

import (
	"context"
	"time"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/domain/repository"
)

// BillingRepos repositorios atados a una misma transacción.
type BillingRepos struct {
	Proformas   repository.ProformaRepository
	Invoices    repository.InvoiceRepository
	CreditNotes repository.CreditNoteRepository
	Receipts    repository.PaymentReceiptRepository
	Sequences   repository.SequenceRepository
	Companies   repository.CompanyConfigRepository
	Customers   repository.CustomerRepository
	Products    repository.ProductRepository
}

// BillingTxRunner ejecuta fn dentro de una transacción con los repos de facturación.
// Si fn retorna error se hace rollback: ningún documento queda numerado o certificado a medias.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(repos BillingRepos) error) error
	// RunReadOnly abre una transacción de sólo lectura REPEATABLE READ (snapshot consistente).
	RunReadOnly(ctx context.Context, fn func(repos BillingRepos) error) error
}

// IdempotencyStore reserva claves de un solo uso (Redis SETNX o memoria).
type IdempotencyStore interface {
	// Acquire devuelve false si la clave ya estaba reservada.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ArchiveStore almacena copias de los SAF-T exportados (S3 o compatible).
type ArchiveStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
}

// Metrics eventos de negocio observables (implementado con Prometheus).
type Metrics interface {
	DocumentIssued(docType entity.DocumentType)
	SAFTExported(duration time.Duration, entries int)
}

// InvoicePDFGenerator genera la representación impresa de un documento certificado.
type InvoicePDFGenerator interface {
	GenerateDocumentPDF(ctx context.Context, doc PrintableDocument) ([]byte, error)
}

// PrintableDocument datos que necesita el PDF de una factura o nota de crédito.
type PrintableDocument struct {
	Title         string
	Header        entity.DocumentHeader
	Certification entity.Certification
	Lines         []*entity.LineItem
	Company       *entity.CompanyConfig
	Customer      *entity.Customer
	Reference     string // número de factura original en notas de crédito
	DueDate       *time.Time
}

type noopMetrics struct{}

func (noopMetrics) DocumentIssued(entity.DocumentType) {}
func (noopMetrics) SAFTExported(time.Duration, int)    {}
