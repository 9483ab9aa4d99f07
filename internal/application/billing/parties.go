package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturador-dian/internal/application/dto"
	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/pkg/dian"
)

// ── Clientes y proveedores ──────────────────────────────────────────────────

// CustomerUseCase CRUD de terceros. Los documentos guardan su propia copia del tercero,
// editar aquí no altera documentos existentes.
type CustomerUseCase struct {
	repo repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(repo repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{repo: repo}
}

// Create crea un cliente o proveedor. Si es NIT y no trae DV, se calcula.
func (uc *CustomerUseCase) Create(ctx context.Context, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	c := &entity.Customer{IsActive: true}
	if err := applyCustomer(c, in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByIdentification(ctx, c.Identification)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe el tercero %s", domain.ErrDuplicate, c.Identification)
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	out := dto.NewCustomerResponse(c)
	return &out, nil
}

// Get tercero por id.
func (uc *CustomerUseCase) Get(ctx context.Context, id int64) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.NewCustomerResponse(c)
	return &out, nil
}

// List lista terceros filtrando por tipo y texto.
func (uc *CustomerUseCase) List(ctx context.Context, customerType, search string, page dto.PageRequest) (*dto.CustomerListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, customerType, strings.TrimSpace(search), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.CustomerListResponse{
		Items: make([]dto.CustomerResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, c := range list {
		out.Items = append(out.Items, dto.NewCustomerResponse(c))
	}
	return out, nil
}

// Update reemplaza los datos del tercero.
func (uc *CustomerUseCase) Update(ctx context.Context, id int64, in dto.CustomerRequest) (*dto.CustomerResponse, error) {
	c, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if err := applyCustomer(c, in); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	out := dto.NewCustomerResponse(c)
	return &out, nil
}

// Delete elimina el tercero.
func (uc *CustomerUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func applyCustomer(c *entity.Customer, in dto.CustomerRequest) error {
	ident := dian.DigitsOnly(in.Identification)
	name := strings.TrimSpace(in.Name)
	if ident == "" {
		return domain.NewValidationFailure("identification_number", "es obligatorio")
	}
	if name == "" {
		return domain.NewValidationFailure("name", "es obligatorio")
	}
	switch in.Type {
	case "":
		if c.Type == "" {
			c.Type = entity.CustomerTypeCustomer
		}
	case entity.CustomerTypeCustomer, entity.CustomerTypeSupplier:
		c.Type = in.Type
	default:
		return domain.NewValidationFailure("type", "debe ser customer o supplier")
	}

	c.Identification = ident
	c.Name = name
	c.TradeName = strings.TrimSpace(in.TradeName)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	c.TypeDocumentIdentificationID = in.TypeDocumentIdentificationID
	c.TypeOrganizationID = in.TypeOrganizationID
	c.TypeRegimeID = in.TypeRegimeID
	c.TypeLiabilityID = in.TypeLiabilityID
	c.MunicipalityID = in.MunicipalityID
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	c.CheckDigit = strings.TrimSpace(in.CheckDigit)
	if c.CheckDigit == "" && c.TypeDocumentIdentificationID == dian.TypeDocumentIdentNIT {
		c.CheckDigit = dian.VerificationDigitString(ident)
	}
	return nil
}

// ── Productos ───────────────────────────────────────────────────────────────

// ProductUseCase CRUD de productos usados como plantilla de líneas manuales.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto; el código es único.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.ProductRequest) (*dto.ProductResponse, error) {
	p := &entity.Product{IsActive: true}
	if err := applyProduct(p, in); err != nil {
		return nil, err
	}
	existing, err := uc.repo.GetByCode(ctx, p.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: ya existe el producto %s", domain.ErrDuplicate, p.Code)
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	out := dto.NewProductResponse(p)
	return &out, nil
}

// Get producto por id.
func (uc *ProductUseCase) Get(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	out := dto.NewProductResponse(p)
	return &out, nil
}

// List lista productos por código o nombre.
func (uc *ProductUseCase) List(ctx context.Context, search string, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, total, err := uc.repo.List(ctx, strings.TrimSpace(search), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductListResponse{
		Items: make([]dto.ProductResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, p := range list {
		out.Items = append(out.Items, dto.NewProductResponse(p))
	}
	return out, nil
}

// Update reemplaza los datos del producto.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.ProductRequest) (*dto.ProductResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if err := applyProduct(p, in); err != nil {
		return nil, err
	}
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	out := dto.NewProductResponse(p)
	return &out, nil
}

// Delete elimina el producto.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Delete(ctx, id)
}

func applyProduct(p *entity.Product, in dto.ProductRequest) error {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" {
		return domain.NewValidationFailure("code", "es obligatorio")
	}
	if name == "" {
		return domain.NewValidationFailure("name", "es obligatorio")
	}
	if in.UnitPrice.IsNegative() {
		return domain.NewValidationFailure("unit_price", "no puede ser negativo")
	}
	if in.TaxPercent.IsNegative() || in.TaxPercent.GreaterThan(decimal.NewFromInt(100)) {
		return domain.NewValidationFailure("tax_percent", "debe estar entre 0 y 100")
	}
	p.Code = code
	p.Name = name
	p.Description = strings.TrimSpace(in.Description)
	p.UnitPrice = in.UnitPrice
	p.TaxPercent = in.TaxPercent
	p.TypeItemIdentificationID = in.TypeItemIdentificationID
	p.UnitMeasureID = in.UnitMeasureID
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}
