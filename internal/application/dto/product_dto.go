package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

// ProductRequest entrada para crear o actualizar un producto.
type ProductRequest struct {
	Code                     string          `json:"code"`
	Name                     string          `json:"name"`
	Description              string          `json:"description"`
	UnitPrice                decimal.Decimal `json:"unit_price"`
	TaxPercent               decimal.Decimal `json:"tax_percent"`
	TypeItemIdentificationID int             `json:"type_item_identification_id"`
	UnitMeasureID            int             `json:"unit_measure_id"`
	IsActive                 *bool           `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                       int64           `json:"id"`
	Code                     string          `json:"code"`
	Name                     string          `json:"name"`
	Description              string          `json:"description"`
	UnitPrice                decimal.Decimal `json:"unit_price"`
	TaxPercent               decimal.Decimal `json:"tax_percent"`
	TypeItemIdentificationID int             `json:"type_item_identification_id"`
	UnitMeasureID            int             `json:"unit_measure_id"`
	IsActive                 bool            `json:"is_active"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// NewProductResponse mapea la entidad.
func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:                       p.ID,
		Code:                     p.Code,
		Name:                     p.Name,
		Description:              p.Description,
		UnitPrice:                p.UnitPrice,
		TaxPercent:               p.TaxPercent,
		TypeItemIdentificationID: p.TypeItemIdentificationID,
		UnitMeasureID:            p.UnitMeasureID,
		IsActive:                 p.IsActive,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}
