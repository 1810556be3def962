package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

// CreditNoteRepo implementación de CreditNoteRepository.
type CreditNoteRepo struct {
	q Querier
}

func NewCreditNoteRepository(q Querier) *CreditNoteRepo {
	return &CreditNoteRepo{q: q}
}

const creditNoteSelect = `SELECT ` + headerColumns + `, ` + certColumns + `,
	original_invoice_id, original_invoice_number, reason, status
	FROM credit_notes`

func (r *CreditNoteRepo) Create(ctx context.Context, cn *entity.CreditNote) error {
	args := append(headerArgs(&cn.DocumentHeader), certArgs(&cn.Certification)...)
	args = append(args, cn.OriginalInvoiceID, cn.OriginalInvoiceNumber, cn.Reason, cn.Status)
	query := `INSERT INTO credit_notes (` + headerColumns + `, ` + certColumns + `,
		original_invoice_id, original_invoice_number, reason, status)
		VALUES (` + placeholders(1, len(args)) + `)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapInsert("credit note", err)
	}
	return insertLines(ctx, r.q, cn.ID, cn.Lines)
}

func (r *CreditNoteRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.CreditNote, error) {
	cn, err := scanCreditNote(r.q.QueryRow(ctx, creditNoteSelect+` WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit note: %w", err)
	}
	lines, err := loadLines(ctx, r.q, []string{cn.ID})
	if err != nil {
		return nil, err
	}
	cn.Lines = lines[cn.ID]
	return cn, nil
}

func scanCreditNote(row pgx.Row) (*entity.CreditNote, error) {
	var (
		cn entity.CreditNote
		hs headerScan
		cs certScan
	)
	dest := append(hs.dest(&cn.DocumentHeader), cs.dest(&cn.Certification)...)
	dest = append(dest, &cn.OriginalInvoiceID, &cn.OriginalInvoiceNumber, &cn.Reason, &cn.Status)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	hs.apply(&cn.DocumentHeader, entity.DocumentTypeCreditNote)
	cs.apply(&cn.Certification)
	return &cn, nil
}

// CreditedTotal suma de notas de crédito emitidas contra la factura.
func (r *CreditNoteRepo) CreditedTotal(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM credit_notes WHERE original_invoice_id = $1`,
		invoiceID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credited total: %w", err)
	}
	return total, nil
}

func (r *CreditNoteRepo) ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.CreditNote, error) {
	from, to := periodBounds(start, end)
	rows, err := r.q.Query(ctx, creditNoteSelect+`
		WHERE owner_id = $1 AND issue_date >= $2 AND issue_date < $3
		ORDER BY issue_date, document_number`, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list credit notes: %w", err)
	}
	var (
		out []*entity.CreditNote
		ids []string
	)
	for rows.Next() {
		cn, err := scanCreditNote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan credit note: %w", err)
		}
		out = append(out, cn)
		ids = append(ids, cn.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credit notes: %w", err)
	}
	lines, err := loadLines(ctx, r.q, ids)
	if err != nil {
		return nil, err
	}
	for _, cn := range out {
		cn.Lines = lines[cn.ID]
	}
	return out, nil
}
