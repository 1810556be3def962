package repository

import (
	"context"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// SequenceRepository numeración y encadenamiento de hash. Debe usarse con la misma tx del documento.
type SequenceRepository interface {
	// Next reserva el siguiente número de (owner, tipo, serie, año) de forma atómica.
	Next(ctx context.Context, ownerID string, docType entity.DocumentType, series string, year int) (int64, error)
	// LockLastHash bloquea y devuelve el último hash certificado de la cadena (owner, tipo, serie); "" si no hay.
	LockLastHash(ctx context.Context, ownerID string, docType entity.DocumentType, series string) (string, error)
	// SaveLastHash registra el hash del documento recién certificado como último de la cadena.
	SaveLastHash(ctx context.Context, ownerID string, docType entity.DocumentType, series, hash, documentID string) error
}
