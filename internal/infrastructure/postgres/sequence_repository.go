package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo numeración sin huecos y cadena de hashes. Usar siempre con la tx del documento.
type SequenceRepo struct {
	q Querier
}

func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// Next UPSERT atómico: la fila queda bloqueada hasta el commit, serializando emisores concurrentes.
func (r *SequenceRepo) Next(ctx context.Context, ownerID string, docType entity.DocumentType, series string, year int) (int64, error) {
	var next int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_sequences (owner_id, document_type, series, year, last_value)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (owner_id, document_type, series, year)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`,
		ownerID, string(docType), series, year).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return next, nil
}

func (r *SequenceRepo) LockLastHash(ctx context.Context, ownerID string, docType entity.DocumentType, series string) (string, error) {
	var hash string
	err := r.q.QueryRow(ctx, `
		SELECT last_hash FROM document_chains
		WHERE owner_id = $1 AND document_type = $2 AND series = $3
		FOR UPDATE`,
		ownerID, string(docType), series).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("lock last hash: %w", err)
	}
	return hash, nil
}

func (r *SequenceRepo) SaveLastHash(ctx context.Context, ownerID string, docType entity.DocumentType, series, hash, documentID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO document_chains (owner_id, document_type, series, last_hash, last_document_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (owner_id, document_type, series)
		DO UPDATE SET last_hash = EXCLUDED.last_hash, last_document_id = EXCLUDED.last_document_id, updated_at = now()`,
		ownerID, string(docType), series, hash, documentID)
	if err != nil {
		return fmt.Errorf("save last hash: %w", err)
	}
	return nil
}
