package repository

import (
	"context"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// CompanyConfigRepository configuración fiscal del emisor.
type CompanyConfigRepository interface {
	// Get devuelve (nil, nil) si el propietario aún no ha configurado sus datos fiscales.
	Get(ctx context.Context, ownerID string) (*entity.CompanyConfig, error)
	Upsert(ctx context.Context, cfg *entity.CompanyConfig) error
}
