package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, kind, prefix, number, issue_date, due_date, party, lines, payment,
	subtotal, total_tax, total_discount, total, status, fiscal_key, error_message, is_nullified,
	source_filename, source_xml, reference, discrepancy, notes, resolution_id,
	api_request, api_response, sent_at, created_at, updated_at`

// documentJSON columnas jsonb ya serializadas.
type documentJSON struct {
	party, lines, payment, reference, discrepancy any
}

func encodeDocument(doc *entity.Document) (documentJSON, error) {
	var out documentJSON
	var err error
	if out.party, err = marshalJSONB(doc.Party); err != nil {
		return out, err
	}
	lines := doc.Lines
	if lines == nil {
		lines = []entity.Line{}
	}
	if out.lines, err = marshalJSONB(lines); err != nil {
		return out, err
	}
	if out.payment, err = marshalJSONB(doc.Payment); err != nil {
		return out, err
	}
	if doc.Reference != nil {
		if out.reference, err = marshalJSONB(doc.Reference); err != nil {
			return out, err
		}
	}
	if doc.Discrepancy != nil {
		if out.discrepancy, err = marshalJSONB(doc.Discrepancy); err != nil {
			return out, err
		}
	}
	return out, nil
}

func referenceID(doc *entity.Document) *int64 {
	if doc.Reference == nil || doc.Reference.DocumentID == 0 {
		return nil
	}
	id := doc.Reference.DocumentID
	return &id
}

// Create persiste el documento completo y asigna ID y timestamps.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	enc, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if doc.Status == "" {
		doc.Status = entity.StatusPending
	}
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now

	query := `
		INSERT INTO documents (kind, prefix, number, issue_date, due_date, party, lines, payment,
			subtotal, total_tax, total_discount, total, status, fiscal_key, error_message, is_nullified,
			source_filename, source_xml, reference_document_id, reference, discrepancy, notes, resolution_id,
			api_request, api_response, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		RETURNING id`
	err = r.q.QueryRow(ctx, query,
		doc.Kind, doc.Prefix, doc.Number, doc.IssueDate, doc.DueDate, enc.party, enc.lines, enc.payment,
		doc.Totals.Subtotal, doc.Totals.Tax, doc.Totals.Discount, doc.Totals.Total,
		doc.Status, nullIfEmpty(doc.FiscalKey), nullIfEmpty(doc.ErrorMessage), doc.IsNullified,
		nullIfEmpty(doc.SourceFilename), nullIfEmpty(doc.SourceXML), referenceID(doc), enc.reference, enc.discrepancy,
		doc.Notes, doc.ResolutionID, rawJSON(doc.APIRequest), rawJSON(doc.APIResponse), doc.SentAt,
		doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("documento %q: %w", doc.SourceFilename, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetByID obtiene un documento por ID. Devuelve nil, nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// ExistsBySourceFilename indica si ya se importó un XML con ese nombre.
func (r *DocumentRepo) ExistsBySourceFilename(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE source_filename = $1)`, filename,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists document: %w", err)
	}
	return exists, nil
}

// Update reescribe los campos mutables.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	enc, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE documents
		SET prefix         = $2,
		    number         = $3,
		    issue_date     = $4,
		    due_date       = $5,
		    party          = $6,
		    lines          = $7,
		    payment        = $8,
		    subtotal       = $9,
		    total_tax      = $10,
		    total_discount = $11,
		    total          = $12,
		    status         = $13,
		    fiscal_key     = $14,
		    error_message  = $15,
		    is_nullified   = $16,
		    reference      = $17,
		    discrepancy    = $18,
		    notes          = $19,
		    resolution_id  = $20,
		    api_request    = $21,
		    api_response   = $22,
		    sent_at        = $23,
		    updated_at     = $24
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, doc.ID,
		doc.Prefix, doc.Number, doc.IssueDate, doc.DueDate, enc.party, enc.lines, enc.payment,
		doc.Totals.Subtotal, doc.Totals.Tax, doc.Totals.Discount, doc.Totals.Total,
		doc.Status, nullIfEmpty(doc.FiscalKey), nullIfEmpty(doc.ErrorMessage), doc.IsNullified,
		enc.reference, enc.discrepancy, doc.Notes, doc.ResolutionID,
		rawJSON(doc.APIRequest), rawJSON(doc.APIResponse), doc.SentAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TransitionStatus UPDATE condicional: solo una estación gana el paso a processing.
func (r *DocumentRepo) TransitionStatus(ctx context.Context, id int64, from []entity.DocumentStatus, to entity.DocumentStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE documents SET status = $2, updated_at = now() WHERE id = $1 AND status = ANY($3)`,
		id, to, states,
	)
	if err != nil {
		return false, fmt.Errorf("transition document: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkNullified marca la factura como anulada por una nota crédito.
func (r *DocumentRepo) MarkNullified(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE documents SET is_nullified = true, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("nullify document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List arma el WHERE dinámico y devuelve la página más el total.
func (r *DocumentRepo) List(ctx context.Context, f entity.DocumentFilter) ([]*entity.Document, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.From != nil {
		add("issue_date >= $%d", f.From.Truncate(24*time.Hour))
	}
	if f.To != nil {
		add("issue_date < $%d", f.To.Truncate(24*time.Hour).Add(24*time.Hour))
	}
	if f.Nullified != nil {
		add("is_nullified = $%d", *f.Nullified)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, likePattern(s))
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(prefix || number ILIKE $%d OR party->>'identification' ILIKE $%d OR party->>'name' ILIKE $%d)", n, n, n))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM documents`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	query := `SELECT ` + documentColumns + ` FROM documents` + cond +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, total, rows.Err()
}

// ListIDsByStatus IDs en el estado dado, más antiguos primero (orden de envío).
func (r *DocumentRepo) ListIDsByStatus(ctx context.Context, status entity.DocumentStatus, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx,
		`SELECT id FROM documents WHERE status = $1 ORDER BY created_at, id LIMIT $2`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanDocument(row pgxScanner) (*entity.Document, error) {
	var (
		doc                                entity.Document
		party, lines, payment              []byte
		reference, discrepancy             []byte
		fiscalKey, errMsg, srcFile, srcXML *string
		apiRequest, apiResponse            []byte
	)
	err := row.Scan(
		&doc.ID, &doc.Kind, &doc.Prefix, &doc.Number, &doc.IssueDate, &doc.DueDate, &party, &lines, &payment,
		&doc.Totals.Subtotal, &doc.Totals.Tax, &doc.Totals.Discount, &doc.Totals.Total,
		&doc.Status, &fiscalKey, &errMsg, &doc.IsNullified,
		&srcFile, &srcXML, &reference, &discrepancy, &doc.Notes, &doc.ResolutionID,
		&apiRequest, &apiResponse, &doc.SentAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.FiscalKey = derefStr(fiscalKey)
	doc.ErrorMessage = derefStr(errMsg)
	doc.SourceFilename = derefStr(srcFile)
	doc.SourceXML = derefStr(srcXML)
	if len(apiRequest) > 0 {
		doc.APIRequest = apiRequest
	}
	if len(apiResponse) > 0 {
		doc.APIResponse = apiResponse
	}
	if err := json.Unmarshal(party, &doc.Party); err != nil {
		return nil, fmt.Errorf("party: %w", err)
	}
	if err := json.Unmarshal(lines, &doc.Lines); err != nil {
		return nil, fmt.Errorf("lines: %w", err)
	}
	if err := json.Unmarshal(payment, &doc.Payment); err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}
	if len(reference) > 0 {
		doc.Reference = &entity.Reference{}
		if err := json.Unmarshal(reference, doc.Reference); err != nil {
			return nil, fmt.Errorf("reference: %w", err)
		}
	}
	if len(discrepancy) > 0 {
		doc.Discrepancy = &entity.Discrepancy{}
		if err := json.Unmarshal(discrepancy, doc.Discrepancy); err != nil {
			return nil, fmt.Errorf("discrepancy: %w", err)
		}
	}
	return &doc, nil
}
