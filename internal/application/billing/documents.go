package billing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

// DocumentQueryUseCase consultas de documentos y vista previa en PDF.
type DocumentQueryUseCase struct {
	docs      repository.DocumentRepository
	settings  SettingsSource
	generator DocumentPDFGenerator
}

// NewDocumentQueryUseCase construye el caso de uso. generator puede ser nil (sin vista previa).
func NewDocumentQueryUseCase(docs repository.DocumentRepository, settings SettingsSource, generator DocumentPDFGenerator) *DocumentQueryUseCase {
	return &DocumentQueryUseCase{docs: docs, settings: settings, generator: generator}
}

// Get documento completo.
func (uc *DocumentQueryUseCase) Get(ctx context.Context, id int64) (*dto.DocumentResponse, error) {
	doc, err := uc.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := dto.NewDocumentResponse(doc)
	return &out, nil
}

// List listado filtrado, más recientes primero.
func (uc *DocumentQueryUseCase) List(ctx context.Context, in dto.DocumentFilterRequest) (*dto.DocumentListResponse, error) {
	filter, err := toDocumentFilter(in)
	if err != nil {
		return nil, err
	}
	list, total, err := uc.docs.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.DocumentListResponse{
		Items: make([]dto.DocumentSummary, 0, len(list)),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}
	for _, d := range list {
		out.Items = append(out.Items, dto.NewDocumentSummary(d))
	}
	return out, nil
}

// PreviewPDF genera la vista previa del documento (no es la representación gráfica oficial,
// que se descarga de la API una vez aceptado).
func (uc *DocumentQueryUseCase) PreviewPDF(ctx context.Context, id int64) ([]byte, string, error) {
	if uc.generator == nil {
		return nil, "", fmt.Errorf("%w: vista previa no configurada", domain.ErrConflict)
	}
	doc, err := uc.load(ctx, id)
	if err != nil {
		return nil, "", err
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateDocumentPDF(ctx, doc, s)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("%s_%s.pdf", doc.Kind, doc.FullNumber()), nil
}

func (uc *DocumentQueryUseCase) load(ctx context.Context, id int64) (*entity.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func toDocumentFilter(in dto.DocumentFilterRequest) (entity.DocumentFilter, error) {
	in.DefaultPage()
	f := entity.DocumentFilter{
		Search: strings.TrimSpace(in.Search),
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if in.Kind != "" {
		k := entity.DocumentKind(in.Kind)
		if !k.Valid() {
			return f, domain.NewValidationFailure("kind", "tipo de documento desconocido")
		}
		f.Kind = k
	}
	if in.Status != "" {
		f.Status = entity.DocumentStatus(in.Status)
	}
	var err error
	if f.From, err = parseDay(in.From, "from"); err != nil {
		return f, err
	}
	if f.To, err = parseDay(in.To, "to"); err != nil {
		return f, err
	}
	if in.Nullified != "" {
		b, err := strconv.ParseBool(in.Nullified)
		if err != nil {
			return f, domain.NewValidationFailure("nullified", "debe ser true o false")
		}
		f.Nullified = &b
	}
	return f, nil
}

func parseDay(s, field string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, domain.NewValidationFailure(field, "formato esperado YYYY-MM-DD")
	}
	return &t, nil
}
