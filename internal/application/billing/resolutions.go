package billing

import (
	"context"
	"strings"

	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

// ResolutionUseCase CRUD de resoluciones de numeración.
// El cursor (current_number) nunca retrocede: una edición con un valor menor se ignora.
type ResolutionUseCase struct {
	repo repository.ResolutionRepository
}

// NewResolutionUseCase construye el caso de uso.
func NewResolutionUseCase(repo repository.ResolutionRepository) *ResolutionUseCase {
	return &ResolutionUseCase{repo: repo}
}

// Create registra una resolución; sin current_number arranca en from-1.
func (uc *ResolutionUseCase) Create(ctx context.Context, in dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	r := &entity.Resolution{IsActive: true}
	if err := applyResolution(r, in); err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	out := dto.NewResolutionResponse(r)
	return &out, nil
}

// Get resolución por id.
func (uc *ResolutionUseCase) Get(ctx context.Context, id int64) (*dto.ResolutionResponse, error) {
	r, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.NewResolutionResponse(r)
	return &out, nil
}

// List resoluciones, opcionalmente de un tipo.
func (uc *ResolutionUseCase) List(ctx context.Context, kind string) ([]dto.ResolutionResponse, error) {
	k := entity.DocumentKind(kind)
	if kind != "" && !k.Valid() {
		return nil, domain.NewValidationFailure("kind", "tipo de documento desconocido")
	}
	list, err := uc.repo.List(ctx, k)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ResolutionResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.NewResolutionResponse(r))
	}
	return out, nil
}

// Update edita la resolución. Cambiar datos de la resolución la marca como no sincronizada.
func (uc *ResolutionUseCase) Update(ctx context.Context, id int64, in dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	r, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	cursor := r.CurrentNumber
	if err := applyResolution(r, in); err != nil {
		return nil, err
	}
	if r.CurrentNumber < cursor {
		r.CurrentNumber = cursor
	}
	if err := r.Validate(); err != nil {
		return nil, domain.NewValidationFailure("resolution", err.Error())
	}
	r.SyncedWithAPI = false
	if err := uc.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	// el repositorio puede haber conservado un cursor mayor escrito por otra estación
	fresh, err := uc.repo.GetByID(ctx, id)
	if err != nil || fresh == nil {
		fresh = r
	}
	out := dto.NewResolutionResponse(fresh)
	return &out, nil
}

// Delete elimina la resolución.
func (uc *ResolutionUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func applyResolution(r *entity.Resolution, in dto.ResolutionRequest) error {
	kind := entity.DocumentKind(in.Kind)
	if !kind.Valid() {
		return domain.NewValidationFailure("kind", "tipo de documento desconocido")
	}
	if strings.TrimSpace(in.Resolution) == "" {
		return domain.NewValidationFailure("resolution", "es obligatorio")
	}
	r.Kind = kind
	r.Prefix = strings.ToUpper(strings.TrimSpace(in.Prefix))
	r.Resolution = strings.TrimSpace(in.Resolution)
	r.ResolutionDate = in.ResolutionDate
	r.TechnicalKey = strings.TrimSpace(in.TechnicalKey)
	r.From = in.From
	r.To = in.To
	r.DateFrom = in.DateFrom
	r.DateTo = in.DateTo
	if in.CurrentNumber > 0 {
		r.CurrentNumber = in.CurrentNumber
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
	return nil
}
