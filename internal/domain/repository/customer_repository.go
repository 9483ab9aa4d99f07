package repository

import (
	"context"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para clientes y proveedores.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id int64) (*entity.Customer, error)
	GetByIdentification(ctx context.Context, identification string) (*entity.Customer, error)
	// List filtra por tipo (vacío = todos) y texto en identificación o nombre.
	List(ctx context.Context, customerType, search string, limit, offset int) ([]*entity.Customer, int, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id int64) error
}
