package repository

import (
	"context"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// ProductRepository catálogo de productos y servicios.
type ProductRepository interface {
	Create(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.Product, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Product, error)
}
