package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/domain/repository"
)

var _ repository.PaymentReceiptRepository = (*PaymentReceiptRepo)(nil)

// PaymentReceiptRepo recibos y sus asignaciones a facturas.
type PaymentReceiptRepo struct {
	q Querier
}

func NewPaymentReceiptRepository(q Querier) *PaymentReceiptRepo {
	return &PaymentReceiptRepo{q: q}
}

const receiptSelect = `SELECT ` + headerColumns + `, ` + certColumns + `, payment_method, status FROM payment_receipts`

func (r *PaymentReceiptRepo) Create(ctx context.Context, rc *entity.PaymentReceipt) error {
	args := append(headerArgs(&rc.DocumentHeader), certArgs(&rc.Certification)...)
	args = append(args, rc.PaymentMethod, rc.Status)
	query := `INSERT INTO payment_receipts (` + headerColumns + `, ` + certColumns + `, payment_method, status)
		VALUES (` + placeholders(1, len(args)) + `)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapInsert("payment receipt", err)
	}
	for _, a := range rc.Allocations {
		_, err := r.q.Exec(ctx, `
			INSERT INTO payment_allocations (receipt_id, invoice_id, invoice_number, invoice_date, paid_amount)
			VALUES ($1, $2, $3, $4, $5)`,
			rc.ID, a.InvoiceID, a.InvoiceNumber, a.InvoiceDate, a.PaidAmount)
		if err != nil {
			return fmt.Errorf("insert payment allocation: %w", err)
		}
	}
	return nil
}

func (r *PaymentReceiptRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.PaymentReceipt, error) {
	rc, err := scanReceipt(r.q.QueryRow(ctx, receiptSelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment receipt: %w", err)
	}
	allocs, err := r.allocations(ctx, []string{rc.ID})
	if err != nil {
		return nil, err
	}
	rc.Allocations = allocs[rc.ID]
	return rc, nil
}

func scanReceipt(row pgx.Row) (*entity.PaymentReceipt, error) {
	var (
		rc entity.PaymentReceipt
		hs headerScan
		cs certScan
	)
	dest := append(hs.dest(&rc.DocumentHeader), cs.dest(&rc.Certification)...)
	dest = append(dest, &rc.PaymentMethod, &rc.Status)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	hs.apply(&rc.DocumentHeader, entity.DocumentTypePaymentReceipt)
	cs.apply(&rc.Certification)
	return &rc, nil
}

func (r *PaymentReceiptRepo) allocations(ctx context.Context, receiptIDs []string) (map[string][]entity.PaymentAllocation, error) {
	out := make(map[string][]entity.PaymentAllocation, len(receiptIDs))
	if len(receiptIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT receipt_id, invoice_id, invoice_number, invoice_date, paid_amount
		FROM payment_allocations
		WHERE receipt_id::text = ANY($1)
		ORDER BY receipt_id, invoice_id`, receiptIDs)
	if err != nil {
		return nil, fmt.Errorf("query payment allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var receiptID string
		var a entity.PaymentAllocation
		if err := rows.Scan(&receiptID, &a.InvoiceID, &a.InvoiceNumber, &a.InvoiceDate, &a.PaidAmount); err != nil {
			return nil, fmt.Errorf("scan payment allocation: %w", err)
		}
		out[receiptID] = append(out[receiptID], a)
	}
	return out, rows.Err()
}

func (r *PaymentReceiptRepo) ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.PaymentReceipt, error) {
	from, to := periodBounds(start, end)
	rows, err := r.q.Query(ctx, receiptSelect+`
		WHERE owner_id = $1 AND issue_date >= $2 AND issue_date < $3
		ORDER BY issue_date, document_number`, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list payment receipts: %w", err)
	}
	var (
		out []*entity.PaymentReceipt
		ids []string
	)
	for rows.Next() {
		rc, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan payment receipt: %w", err)
		}
		out = append(out, rc)
		ids = append(ids, rc.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payment receipts: %w", err)
	}
	allocs, err := r.allocations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, rc := range out {
		rc.Allocations = allocs[rc.ID]
	}
	return out, nil
}
