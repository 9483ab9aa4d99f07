package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

// ── Resoluciones ──────────────────────────────────────────────────────────────

// ResolutionRepo implementa repository.ResolutionRepository en memoria.
type ResolutionRepo struct {
	s    *Store
	inTx bool
}

var _ repository.ResolutionRepository = (*ResolutionRepo)(nil)

// Create una resolución nueva arranca en From-1.
func (r *ResolutionRepo) Create(_ context.Context, res *entity.Resolution) error {
	if res.CurrentNumber == 0 {
		res.CurrentNumber = res.From - 1
	}
	if err := res.Validate(); err != nil {
		return domain.NewValidationFailure("resolution", err.Error())
	}
	r.s.do(r.inTx, func(st *state) {
		now := r.s.now().UTC()
		res.ID = st.nextID()
		res.CreatedAt, res.UpdatedAt = now, now
		st.resolutions[res.ID] = res.Clone()
	})
	return nil
}

// Update reescribe la resolución; el cursor nunca retrocede.
func (r *ResolutionRepo) Update(_ context.Context, res *entity.Resolution) (err error) {
	if err := res.Validate(); err != nil {
		return domain.NewValidationFailure("resolution", err.Error())
	}
	r.s.do(r.inTx, func(st *state) {
		cur, ok := st.resolutions[res.ID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		next := res.Clone()
		next.CurrentNumber = max(cur.CurrentNumber, res.CurrentNumber)
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = r.s.now().UTC()
		st.resolutions[res.ID] = next
		res.CurrentNumber, res.UpdatedAt = next.CurrentNumber, next.UpdatedAt
	})
	return err
}

// GetByID devuelve nil, nil si no existe.
func (r *ResolutionRepo) GetByID(_ context.Context, id int64) (res *entity.Resolution, _ error) {
	r.s.do(r.inTx, func(st *state) {
		res = st.resolutions[id].Clone()
	})
	return res, nil
}

// Delete elimina la resolución.
func (r *ResolutionRepo) Delete(_ context.Context, id int64) (err error) {
	r.s.do(r.inTx, func(st *state) {
		if _, ok := st.resolutions[id]; !ok {
			err = domain.ErrNotFound
			return
		}
		delete(st.resolutions, id)
	})
	return err
}

// List ordena por tipo y creación descendente.
func (r *ResolutionRepo) List(_ context.Context, kind entity.DocumentKind) ([]*entity.Resolution, error) {
	var list []*entity.Resolution
	r.s.do(r.inTx, func(st *state) {
		for _, res := range st.resolutions {
			if kind == "" || res.Kind == kind {
				list = append(list, res.Clone())
			}
		}
	})
	slices.SortFunc(list, func(a, b *entity.Resolution) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return list, nil
}

// GetActive la más reciente activa del tipo (y prefijo si se indica).
func (r *ResolutionRepo) GetActive(_ context.Context, kind entity.DocumentKind, prefix string) (res *entity.Resolution, _ error) {
	r.s.do(r.inTx, func(st *state) {
		for _, c := range st.resolutions {
			if c.Kind != kind || !c.IsActive || (prefix != "" && c.Prefix != prefix) {
				continue
			}
			if res == nil || c.CreatedAt.After(res.CreatedAt) || (c.CreatedAt.Equal(res.CreatedAt) && c.ID > res.ID) {
				res = c
			}
		}
		res = res.Clone()
	})
	return res, nil
}

// AllocateNumber incrementa el cursor bajo el mutex del store.
func (r *ResolutionRepo) AllocateNumber(_ context.Context, id int64) (n int64, err error) {
	r.s.do(r.inTx, func(st *state) {
		res, ok := st.resolutions[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		next, nerr := res.Next()
		if nerr != nil {
			err = fmt.Errorf("%w: %v", domain.ErrRangeExhausted, nerr)
			return
		}
		res.CurrentNumber = next
		res.UpdatedAt = r.s.now().UTC()
		n = next
	})
	return n, err
}

// ── Terceros ─────────────────────────────────────────────────────────────────

// CustomerRepo implementa repository.CustomerRepository en memoria.
type CustomerRepo struct {
	s *Store
}

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// Create la identificación es única.
func (r *CustomerRepo) Create(_ context.Context, c *entity.Customer) (err error) {
	r.s.do(false, func(st *state) {
		for _, cur := range st.customers {
			if cur.Identification == c.Identification {
				err = fmt.Errorf("%w: tercero %s", domain.ErrDuplicate, c.Identification)
				return
			}
		}
		now := r.s.now().UTC()
		c.ID = st.nextID()
		c.CreatedAt, c.UpdatedAt = now, now
		st.customers[c.ID] = c.Clone()
	})
	return err
}

// GetByID devuelve nil, nil si no existe.
func (r *CustomerRepo) GetByID(_ context.Context, id int64) (c *entity.Customer, _ error) {
	r.s.do(false, func(st *state) { c = st.customers[id].Clone() })
	return c, nil
}

// GetByIdentification devuelve nil, nil si no existe.
func (r *CustomerRepo) GetByIdentification(_ context.Context, identification string) (c *entity.Customer, _ error) {
	r.s.do(false, func(st *state) {
		for _, cur := range st.customers {
			if cur.Identification == identification {
				c = cur.Clone()
				return
			}
		}
	})
	return c, nil
}

// List filtra por tipo y texto, ordenado por nombre.
func (r *CustomerRepo) List(_ context.Context, customerType, search string, limit, offset int) ([]*entity.Customer, int, error) {
	needle := strings.ToLower(strings.TrimSpace(search))
	var list []*entity.Customer
	r.s.do(false, func(st *state) {
		for _, c := range st.customers {
			if customerType != "" && c.Type != customerType {
				continue
			}
			if needle != "" && !containsFold(c.Identification, needle) && !containsFold(c.Name, needle) {
				continue
			}
			list = append(list, c.Clone())
		}
	})
	slices.SortFunc(list, func(a, b *entity.Customer) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	if limit <= 0 {
		limit = 50
	}
	return paginate(list, limit, offset), len(list), nil
}

// Update reescribe el tercero.
func (r *CustomerRepo) Update(_ context.Context, c *entity.Customer) (err error) {
	r.s.do(false, func(st *state) {
		cur, ok := st.customers[c.ID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		for _, other := range st.customers {
			if other.ID != c.ID && other.Identification == c.Identification {
				err = fmt.Errorf("%w: tercero %s", domain.ErrDuplicate, c.Identification)
				return
			}
		}
		c.CreatedAt = cur.CreatedAt
		c.UpdatedAt = r.s.now().UTC()
		st.customers[c.ID] = c.Clone()
	})
	return err
}

// Delete elimina el tercero.
func (r *CustomerRepo) Delete(_ context.Context, id int64) (err error) {
	r.s.do(false, func(st *state) {
		if _, ok := st.customers[id]; !ok {
			err = domain.ErrNotFound
			return
		}
		delete(st.customers, id)
	})
	return err
}

// ── Productos ────────────────────────────────────────────────────────────────

// ProductRepo implementa repository.ProductRepository en memoria.
type ProductRepo struct {
	s *Store
}

var _ repository.ProductRepository = (*ProductRepo)(nil)

// Create el código es único.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) (err error) {
	r.s.do(false, func(st *state) {
		for _, cur := range st.products {
			if cur.Code == p.Code {
				err = fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.Code)
				return
			}
		}
		now := r.s.now().UTC()
		p.ID = st.nextID()
		p.CreatedAt, p.UpdatedAt = now, now
		st.products[p.ID] = p.Clone()
	})
	return err
}

// GetByID devuelve nil, nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id int64) (p *entity.Product, _ error) {
	r.s.do(false, func(st *state) { p = st.products[id].Clone() })
	return p, nil
}

// GetByCode devuelve nil, nil si no existe.
func (r *ProductRepo) GetByCode(_ context.Context, code string) (p *entity.Product, _ error) {
	r.s.do(false, func(st *state) {
		for _, cur := range st.products {
			if cur.Code == code {
				p = cur.Clone()
				return
			}
		}
	})
	return p, nil
}

// List filtra por código o nombre, ordenado por nombre.
func (r *ProductRepo) List(_ context.Context, search string, limit, offset int) ([]*entity.Product, int, error) {
	needle := strings.ToLower(strings.TrimSpace(search))
	var list []*entity.Product
	r.s.do(false, func(st *state) {
		for _, p := range st.products {
			if needle != "" && !containsFold(p.Code, needle) && !containsFold(p.Name, needle) {
				continue
			}
			list = append(list, p.Clone())
		}
	})
	slices.SortFunc(list, func(a, b *entity.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	if limit <= 0 {
		limit = 50
	}
	return paginate(list, limit, offset), len(list), nil
}

// Update reescribe el producto.
func (r *ProductRepo) Update(_ context.Context, p *entity.Product) (err error) {
	r.s.do(false, func(st *state) {
		cur, ok := st.products[p.ID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		for _, other := range st.products {
			if other.ID != p.ID && other.Code == p.Code {
				err = fmt.Errorf("%w: producto %s", domain.ErrDuplicate, p.Code)
				return
			}
		}
		p.CreatedAt = cur.CreatedAt
		p.UpdatedAt = r.s.now().UTC()
		st.products[p.ID] = p.Clone()
	})
	return err
}

// Delete elimina el producto.
func (r *ProductRepo) Delete(_ context.Context, id int64) (err error) {
	r.s.do(false, func(st *state) {
		if _, ok := st.products[id]; !ok {
			err = domain.ErrNotFound
			return
		}
		delete(st.products, id)
	})
	return err
}

// ── Configuración ────────────────────────────────────────────────────────────

// SettingsRepo implementa repository.SettingsRepository en memoria.
type SettingsRepo struct {
	s *Store
}

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// Get devuelve nil, nil hasta el primer Save.
func (r *SettingsRepo) Get(_ context.Context) (s *entity.Settings, _ error) {
	r.s.do(false, func(st *state) { s = st.settings.Clone() })
	return s, nil
}

// Save reemplaza la fila única.
func (r *SettingsRepo) Save(_ context.Context, s *entity.Settings) error {
	r.s.do(false, func(st *state) {
		s.ID = 1
		s.UpdatedAt = r.s.now().UTC()
		st.settings = s.Clone()
	})
	return nil
}
