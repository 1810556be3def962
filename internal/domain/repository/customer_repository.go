package repository

import (
	"context"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// CustomerRepository directorio de clientes del propietario.
type CustomerRepository interface {
	Create(ctx context.Context, c *entity.Customer) error
	GetByID(ctx context.Context, ownerID, id string) (*entity.Customer, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entity.Customer, error)
}
