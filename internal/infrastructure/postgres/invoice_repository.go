package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceSelect = `SELECT ` + headerColumns + `, ` + certColumns + `,
	status, payment_status, paid_amount, due_date, proforma_id, terms_conditions, cancel_reason, version
	FROM invoices`

// Create persiste la factura certificada con sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	args := append(headerArgs(&inv.DocumentHeader), certArgs(&inv.Certification)...)
	args = append(args,
		string(inv.Status), string(inv.PaymentStatus), inv.PaidAmount, dateOnly(inv.DueDate),
		nullIfEmpty(inv.ProformaID), nullIfEmpty(inv.TermsConditions), nullIfEmpty(inv.CancelReason), inv.Version,
	)
	query := `INSERT INTO invoices (` + headerColumns + `, ` + certColumns + `,
		status, payment_status, paid_amount, due_date, proforma_id, terms_conditions, cancel_reason, version)
		VALUES (` + placeholders(1, len(args)) + `)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapInsert("invoice", err)
	}
	return insertLines(ctx, r.q, inv.ID, inv.Lines)
}

func (r *InvoiceRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Invoice, error) {
	return r.get(ctx, invoiceSelect+` WHERE id = $1 AND owner_id = $2`, ownerID, id)
}

func (r *InvoiceRepo) GetByIDForUpdate(ctx context.Context, ownerID, id string) (*entity.Invoice, error) {
	return r.get(ctx, invoiceSelect+` WHERE id = $1 AND owner_id = $2 FOR UPDATE`, ownerID, id)
}

func (r *InvoiceRepo) get(ctx context.Context, query, ownerID, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	lines, err := loadLines(ctx, r.q, []string{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Lines = lines[inv.ID]
	return inv, nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var (
		inv                   entity.Invoice
		hs                    headerScan
		cs                    certScan
		status, paymentStatus string
		dueDate               *time.Time
		proformaID            *string
		terms, cancelReason   *string
	)
	dest := append(hs.dest(&inv.DocumentHeader), cs.dest(&inv.Certification)...)
	dest = append(dest, &status, &paymentStatus, &inv.PaidAmount, &dueDate, &proformaID, &terms, &cancelReason, &inv.Version)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	hs.apply(&inv.DocumentHeader, entity.DocumentTypeInvoice)
	cs.apply(&inv.Certification)
	inv.Status = entity.InvoiceStatus(status)
	inv.PaymentStatus = entity.PaymentStatus(paymentStatus)
	inv.DueDate = optionalDate(dueDate)
	inv.ProformaID = deref(proformaID)
	inv.TermsConditions = deref(terms)
	inv.CancelReason = deref(cancelReason)
	return &inv, nil
}

// UpdatePayment persiste el estado de cobro con control optimista por version.
func (r *InvoiceRepo) UpdatePayment(ctx context.Context, inv *entity.Invoice, expectedVersion int64) error {
	var version int64
	err := r.q.QueryRow(ctx, `
		UPDATE invoices
		SET paid_amount = $3, payment_status = $4, status = $5, modified_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version`,
		inv.ID, expectedVersion, inv.PaidAmount, string(inv.PaymentStatus), string(inv.Status), inv.ModifiedAt,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: la factura %s fue modificada concurrentemente", domain.ErrStateConflict, inv.DocumentNumber)
		}
		return fmt.Errorf("update invoice payment: %w", err)
	}
	inv.Version = version
	return nil
}

// Cancel anula una factura emitida sin cobros.
func (r *InvoiceRepo) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET status = $2, cancel_reason = $3, modified_at = $4, version = version + 1
		WHERE id = $1 AND status = $5 AND paid_amount = 0`,
		id, string(entity.InvoiceStatusCancelled), reason, at, string(entity.InvoiceStatusIssued))
	if err != nil {
		return fmt.Errorf("cancel invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: la factura %s no se puede anular", domain.ErrStateConflict, id)
	}
	return nil
}

// List página de facturas sin líneas, por fecha de emisión descendente.
func (r *InvoiceRepo) List(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Invoice, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}
	rows, err := r.q.Query(ctx, invoiceSelect+`
		WHERE owner_id = $1
		ORDER BY issue_date DESC, document_number DESC
		LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var out []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return out, total, nil
}

// ListByPeriod facturas con issue_date en los días [start, end], con líneas.
func (r *InvoiceRepo) ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.Invoice, error) {
	from, to := periodBounds(start, end)
	rows, err := r.q.Query(ctx, invoiceSelect+`
		WHERE owner_id = $1 AND issue_date >= $2 AND issue_date < $3
		ORDER BY issue_date, document_number`, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	var (
		out []*entity.Invoice
		ids []string
	)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
		ids = append(ids, inv.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}

	lines, err := loadLines(ctx, r.q, ids)
	if err != nil {
		return nil, err
	}
	for _, inv := range out {
		inv.Lines = lines[inv.ID]
	}
	return out, nil
}
