package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

var _ repository.ResolutionRepository = (*ResolutionRepo)(nil)

// ResolutionRepo implementación de ResolutionRepository.
type ResolutionRepo struct {
	q Querier
}

// NewResolutionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewResolutionRepository(q Querier) *ResolutionRepo {
	return &ResolutionRepo{q: q}
}

const resolutionColumns = `id, kind, prefix, resolution, resolution_date, technical_key, range_from, range_to,
	current_number, date_from, date_to, is_active, synced_with_api, created_at, updated_at`

// Create inserta la resolución. Si CurrentNumber es cero arranca en From-1.
func (r *ResolutionRepo) Create(ctx context.Context, res *entity.Resolution) error {
	if res.CurrentNumber == 0 {
		res.CurrentNumber = res.From - 1
	}
	if err := res.Validate(); err != nil {
		return domain.NewValidationFailure("resolution", err.Error())
	}
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	query := `
		INSERT INTO resolutions (kind, prefix, resolution, resolution_date, technical_key, range_from, range_to,
			current_number, date_from, date_to, is_active, synced_with_api, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		res.Kind, res.Prefix, res.Resolution, res.ResolutionDate, res.TechnicalKey, res.From, res.To,
		res.CurrentNumber, res.DateFrom, res.DateTo, res.IsActive, res.SyncedWithAPI, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

// Update reescribe la resolución. El cursor no puede retroceder.
func (r *ResolutionRepo) Update(ctx context.Context, res *entity.Resolution) error {
	if err := res.Validate(); err != nil {
		return domain.NewValidationFailure("resolution", err.Error())
	}
	res.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE resolutions
		SET kind            = $2,
		    prefix          = $3,
		    resolution      = $4,
		    resolution_date = $5,
		    technical_key   = $6,
		    range_from      = $7,
		    range_to        = $8,
		    current_number  = GREATEST(current_number, $9),
		    date_from       = $10,
		    date_to         = $11,
		    is_active       = $12,
		    synced_with_api = $13,
		    updated_at      = $14
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, res.ID,
		res.Kind, res.Prefix, res.Resolution, res.ResolutionDate, res.TechnicalKey, res.From, res.To,
		res.CurrentNumber, res.DateFrom, res.DateTo, res.IsActive, res.SyncedWithAPI, res.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID devuelve nil, nil si no existe.
func (r *ResolutionRepo) GetByID(ctx context.Context, id int64) (*entity.Resolution, error) {
	res, err := scanResolution(r.q.QueryRow(ctx, `SELECT `+resolutionColumns+` FROM resolutions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get resolution: %w", err)
	}
	return res, nil
}

// Delete elimina la resolución; los documentos conservan su número.
func (r *ResolutionRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM resolutions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List ordena por tipo y fecha de creación.
func (r *ResolutionRepo) List(ctx context.Context, kind entity.DocumentKind) ([]*entity.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE ($1 = '' OR kind = $1) ORDER BY kind, created_at DESC`
	rows, err := r.q.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

// GetActive la más reciente activa para el tipo (y prefijo si se indica).
func (r *ResolutionRepo) GetActive(ctx context.Context, kind entity.DocumentKind, prefix string) (*entity.Resolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM resolutions
		WHERE kind = $1 AND is_active AND ($2 = '' OR prefix = $2)
		ORDER BY created_at DESC, id DESC LIMIT 1`
	res, err := scanResolution(r.q.QueryRow(ctx, query, kind, prefix))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active resolution: %w", err)
	}
	return res, nil
}

// AllocateNumber un único UPDATE condicional; dos estaciones nunca obtienen el mismo número.
func (r *ResolutionRepo) AllocateNumber(ctx context.Context, id int64) (int64, error) {
	query := `
		UPDATE resolutions
		SET current_number = GREATEST(current_number + 1, range_from),
		    updated_at     = now()
		WHERE id = $1 AND GREATEST(current_number + 1, range_from) <= range_to
		RETURNING current_number`
	var n int64
	err := r.q.QueryRow(ctx, query, id).Scan(&n)
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("allocate number: %w", err)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM resolutions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("allocate number: %w", err)
	}
	if !exists {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrRangeExhausted
}

func scanResolution(row pgxScanner) (*entity.Resolution, error) {
	var res entity.Resolution
	err := row.Scan(
		&res.ID, &res.Kind, &res.Prefix, &res.Resolution, &res.ResolutionDate, &res.TechnicalKey, &res.From, &res.To,
		&res.CurrentNumber, &res.DateFrom, &res.DateTo, &res.IsActive, &res.SyncedWithAPI, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
