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

var _ repository.ProformaRepository = (*ProformaRepo)(nil)

// ProformaRepo implementación de ProformaRepository (usable con pool o tx).
type ProformaRepo struct {
	q Querier
}

// NewProformaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProformaRepository(q Querier) *ProformaRepo {
	return &ProformaRepo{q: q}
}

const proformaSelect = `SELECT ` + headerColumns + `, status, valid_until, terms_conditions, converted_to_invoice_id FROM proformas`

// Create persiste cabecera y líneas.
func (r *ProformaRepo) Create(ctx context.Context, p *entity.Proforma) error {
	args := append(headerArgs(&p.DocumentHeader), string(p.Status), dateOnly(p.ValidUntil), nullIfEmpty(p.TermsConditions))
	query := `INSERT INTO proformas (` + headerColumns + `, status, valid_until, terms_conditions)
		VALUES (` + placeholders(1, len(args)) + `)`
	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return wrapInsert("proforma", err)
	}
	return insertLines(ctx, r.q, p.ID, p.Lines)
}

func (r *ProformaRepo) GetByID(ctx context.Context, ownerID, id string) (*entity.Proforma, error) {
	return r.get(ctx, proformaSelect+` WHERE id = $1 AND owner_id = $2`, ownerID, id)
}

func (r *ProformaRepo) GetByIDForUpdate(ctx context.Context, ownerID, id string) (*entity.Proforma, error) {
	return r.get(ctx, proformaSelect+` WHERE id = $1 AND owner_id = $2 FOR UPDATE`, ownerID, id)
}

func (r *ProformaRepo) get(ctx context.Context, query, ownerID, id string) (*entity.Proforma, error) {
	var (
		p          entity.Proforma
		hs         headerScan
		status     string
		validUntil *time.Time
		terms      *string
		converted  *string
	)
	dest := append(hs.dest(&p.DocumentHeader), &status, &validUntil, &terms, &converted)
	if err := r.q.QueryRow(ctx, query, id, ownerID).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get proforma: %w", err)
	}
	hs.apply(&p.DocumentHeader, entity.DocumentTypeProforma)
	p.Status = entity.ProformaStatus(status)
	p.ValidUntil = optionalDate(validUntil)
	p.TermsConditions = deref(terms)
	p.ConvertedToInvoiceID = deref(converted)

	lines, err := loadLines(ctx, r.q, []string{p.ID})
	if err != nil {
		return nil, err
	}
	p.Lines = lines[p.ID]
	return &p, nil
}

// UpdateStatus transición condicionada al estado actual (compare-and-set).
func (r *ProformaRepo) UpdateStatus(ctx context.Context, id string, from, to entity.ProformaStatus, convertedToInvoiceID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE proformas
		SET status = $3,
		    converted_to_invoice_id = COALESCE($4, converted_to_invoice_id),
		    modified_at = $5
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), nullIfEmpty(convertedToInvoiceID), at)
	if err != nil {
		return fmt.Errorf("update proforma status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: proforma %s no está en estado %s", domain.ErrStateConflict, id, from)
	}
	return nil
}
