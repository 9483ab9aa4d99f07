package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementación de CustomerRepository (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `id, type, identification_number, dv, name, trade_name, phone, email, address,
	type_document_identification_id, type_organization_id, type_regime_id, type_liability_id,
	municipality_id, is_active, created_at, updated_at`

// Create persiste un nuevo cliente o proveedor.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	if c.Type == "" {
		c.Type = entity.CustomerTypeCustomer
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	query := `
		INSERT INTO customers (type, identification_number, dv, name, trade_name, phone, email, address,
			type_document_identification_id, type_organization_id, type_regime_id, type_liability_id,
			municipality_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		c.Type, c.Identification, c.CheckDigit, c.Name, c.TradeName, c.Phone, c.Email, c.Address,
		c.TypeDocumentIdentificationID, c.TypeOrganizationID, c.TypeRegimeID, c.TypeLiabilityID,
		c.MunicipalityID, c.IsActive, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*entity.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
}

// GetByIdentification obtiene un cliente por NIT o cédula.
func (r *CustomerRepo) GetByIdentification(ctx context.Context, identification string) (*entity.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE identification_number = $1`, identification)
}

func (r *CustomerRepo) getOne(ctx context.Context, query string, arg any) (*entity.Customer, error) {
	c, err := scanCustomer(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List lista con paginación y total.
func (r *CustomerRepo) List(ctx context.Context, customerType, search string, limit, offset int) ([]*entity.Customer, int, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := ""
	if strings.TrimSpace(search) != "" {
		pattern = likePattern(search)
	}
	where := ` WHERE ($1 = '' OR type = $1) AND ($2 = '' OR identification_number ILIKE $2 OR name ILIKE $2)`

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, customerType, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+customerColumns+` FROM customers`+where+` ORDER BY name LIMIT $3 OFFSET $4`,
		customerType, pattern, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, total, rows.Err()
}

// Update actualiza el cliente.
func (r *CustomerRepo) Update(ctx context.Context, c *entity.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE customers
		SET type = $2, identification_number = $3, dv = $4, name = $5, trade_name = $6, phone = $7,
		    email = $8, address = $9, type_document_identification_id = $10, type_organization_id = $11,
		    type_regime_id = $12, type_liability_id = $13, municipality_id = $14, is_active = $15, updated_at = $16
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, c.ID,
		c.Type, c.Identification, c.CheckDigit, c.Name, c.TradeName, c.Phone,
		c.Email, c.Address, c.TypeDocumentIdentificationID, c.TypeOrganizationID,
		c.TypeRegimeID, c.TypeLiabilityID, c.MunicipalityID, c.IsActive, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el cliente; los documentos conservan su copia.
func (r *CustomerRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgxScanner) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(
		&c.ID, &c.Type, &c.Identification, &c.CheckDigit, &c.Name, &c.TradeName, &c.Phone, &c.Email, &c.Address,
		&c.TypeDocumentIdentificationID, &c.TypeOrganizationID, &c.TypeRegimeID, &c.TypeLiabilityID,
		&c.MunicipalityID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
