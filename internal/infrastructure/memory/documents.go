package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

// DocumentRepo implementa repository.DocumentRepository en memoria.
type DocumentRepo struct {
	s    *Store
	inTx bool
}

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// Create asigna id y fechas; un source_filename repetido devuelve domain.ErrDuplicate.
func (r *DocumentRepo) Create(_ context.Context, doc *entity.Document) (err error) {
	r.s.do(r.inTx, func(st *state) {
		if doc.SourceFilename != "" {
			for _, d := range st.documents {
				if d.SourceFilename == doc.SourceFilename {
					err = fmt.Errorf("%w: archivo %s ya importado", domain.ErrDuplicate, doc.SourceFilename)
					return
				}
			}
		}
		if doc.Status == "" {
			doc.Status = entity.StatusPending
		}
		now := r.s.now().UTC()
		doc.ID = st.nextID()
		doc.CreatedAt, doc.UpdatedAt = now, now
		st.documents[doc.ID] = doc.Clone()
	})
	return err
}

// GetByID devuelve nil, nil si no existe.
func (r *DocumentRepo) GetByID(_ context.Context, id int64) (doc *entity.Document, _ error) {
	r.s.do(r.inTx, func(st *state) {
		doc = st.documents[id].Clone()
	})
	return doc, nil
}

// ExistsBySourceFilename indica si el archivo ya fue importado.
func (r *DocumentRepo) ExistsBySourceFilename(_ context.Context, filename string) (exists bool, _ error) {
	r.s.do(r.inTx, func(st *state) {
		for _, d := range st.documents {
			if d.SourceFilename == filename {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

// Update reescribe el documento completo conservando created_at.
func (r *DocumentRepo) Update(_ context.Context, doc *entity.Document) (err error) {
	r.s.do(r.inTx, func(st *state) {
		cur, ok := st.documents[doc.ID]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		doc.CreatedAt = cur.CreatedAt
		doc.UpdatedAt = r.s.now().UTC()
		st.documents[doc.ID] = doc.Clone()
	})
	return err
}

// TransitionStatus cambia el estado solo si el actual está en from.
func (r *DocumentRepo) TransitionStatus(_ context.Context, id int64, from []entity.DocumentStatus, to entity.DocumentStatus) (ok bool, _ error) {
	r.s.do(r.inTx, func(st *state) {
		d, found := st.documents[id]
		if !found || !slices.Contains(from, d.Status) {
			return
		}
		d.Status = to
		d.UpdatedAt = r.s.now().UTC()
		ok = true
	})
	return ok, nil
}

// MarkNullified marca la factura como anulada.
func (r *DocumentRepo) MarkNullified(_ context.Context, id int64) (err error) {
	r.s.do(r.inTx, func(st *state) {
		d, ok := st.documents[id]
		if !ok {
			err = domain.ErrNotFound
			return
		}
		d.IsNullified = true
		d.UpdatedAt = r.s.now().UTC()
	})
	return err
}

// List filtra, ordena por creación descendente y pagina.
func (r *DocumentRepo) List(_ context.Context, f entity.DocumentFilter) (page []*entity.Document, total int, _ error) {
	var matched []*entity.Document
	r.s.do(r.inTx, func(st *state) {
		for _, d := range st.documents {
			if matchDocument(d, f) {
				matched = append(matched, d.Clone())
			}
		}
	})
	slices.SortFunc(matched, func(a, b *entity.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	return paginate(matched, limit, f.Offset), len(matched), nil
}

// ListIDsByStatus IDs en el estado dado, más antiguos primero.
func (r *DocumentRepo) ListIDsByStatus(_ context.Context, status entity.DocumentStatus, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 1000
	}
	var docs []*entity.Document
	r.s.do(r.inTx, func(st *state) {
		for _, d := range st.documents {
			if d.Status == status {
				docs = append(docs, d)
			}
		}
	})
	slices.SortFunc(docs, func(a, b *entity.Document) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	docs = paginate(docs, limit, 0)
	ids := make([]int64, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func matchDocument(d *entity.Document, f entity.DocumentFilter) bool {
	if f.Kind != "" && d.Kind != f.Kind {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.From != nil || f.To != nil {
		if d.IssueDate == nil {
			return false
		}
		day := d.IssueDate.UTC().Truncate(24 * time.Hour)
		if f.From != nil && day.Before(f.From.Truncate(24*time.Hour)) {
			return false
		}
		if f.To != nil && day.After(f.To.Truncate(24*time.Hour)) {
			return false
		}
	}
	if f.Nullified != nil && d.IsNullified != *f.Nullified {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		return containsFold(d.FullNumber(), s) ||
			containsFold(d.Party.Identification, s) ||
			containsFold(d.Party.Name, s)
	}
	return true
}

func containsFold(field, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(field), lowerNeedle)
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
