package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/facturador-dian/internal/domain"
	domaindian "github.com/jhoicas/facturador-dian/internal/domain/dian"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/siigo"
	"github.com/jhoicas/facturador-dian/pkg/dian"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// DefaultSendTimeout presupuesto de cada envío a la API.
const DefaultSendTimeout = 60 * time.Second

// IngestOutcome resultado de importar un XML.
type IngestOutcome string

const (
	IngestCreated IngestOutcome = "created"
	IngestSkipped IngestOutcome = "skipped" // ya importado
	IngestFailed  IngestOutcome = "failed"  // XML ilegible; no se reintenta solo
)

// IngestResult resultado por archivo.
type IngestResult struct {
	Filename   string
	Outcome    IngestOutcome
	DocumentID int64
	Err        error
}

// DispatchResult estado final de un envío.
type DispatchResult struct {
	DocumentID int64
	Kind       entity.DocumentKind
	Number     string
	Status     entity.DocumentStatus
	FiscalKey  string
	Message    string
	Err        error
}

// Config parámetros del orquestador.
type Config struct {
	SendTimeout     time.Duration
	Workers         int
	MaxMessageRunes int
}

// Deps dependencias del orquestador.
type Deps struct {
	Documents   repository.DocumentRepository
	Resolutions repository.ResolutionRepository
	Customers   repository.CustomerRepository
	Products    repository.ProductRepository
	Tx          BillingTxRunner
	Settings    SettingsSource
	Transport   apidian.Transport
	Parser      *siigo.Parser
	Builder     *apidian.Builder
	Metrics     Recorder
	Log         *logger.Logger
}

// Orchestrator ciclo de vida del documento:
//
//	XML -> pending -> (validar + armar payload) -> processing -> envío -> interpretar -> sent | rejected | error
//
// El paso a processing es un UPDATE condicional: dos estaciones no envían el mismo documento.
type Orchestrator struct {
	docs        repository.DocumentRepository
	resolutions repository.ResolutionRepository
	customers   repository.CustomerRepository
	products    repository.ProductRepository
	tx          BillingTxRunner
	settings    SettingsSource
	transport   apidian.Transport
	provisioner *apidian.Provisioner
	parser      *siigo.Parser
	builder     *apidian.Builder
	interpreter *apidian.Interpreter
	metrics     Recorder
	log         *logger.Logger
	cfg         Config
	now         func() time.Time
}

// NewOrchestrator construye el orquestador; Parser, Builder, Metrics y Log opcionales.
func NewOrchestrator(d Deps, cfg Config) *Orchestrator {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Parser == nil {
		d.Parser = siigo.NewParser(d.Log)
	}
	if d.Builder == nil {
		d.Builder = apidian.NewBuilder()
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Orchestrator{
		docs:        d.Documents,
		resolutions: d.Resolutions,
		customers:   d.Customers,
		products:    d.Products,
		tx:          d.Tx,
		settings:    d.Settings,
		transport:   d.Transport,
		provisioner: apidian.NewProvisioner(d.Transport),
		parser:      d.Parser,
		builder:     d.Builder,
		interpreter: apidian.NewInterpreter(cfg.MaxMessageRunes),
		metrics:     d.Metrics,
		log:         d.Log.Component("orchestrator"),
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	o.builder.WithClock(now)
	return o
}

// ── Ingesta ─────────────────────────────────────────────────────────────────

// Ingest importa un XML de Siigo como documento pendiente. Un nombre de archivo ya importado
// devuelve skipped; un XML ilegible devuelve failed con el *domain.ParseFailure.
func (o *Orchestrator) Ingest(ctx context.Context, raw []byte, filename string) IngestResult {
	res := o.ingest(ctx, raw, filepath.Base(filename))
	o.metrics.IngestOutcome(res.Outcome)
	return res
}

func (o *Orchestrator) ingest(ctx context.Context, raw []byte, filename string) IngestResult {
	res := IngestResult{Filename: filename}

	exists, err := o.docs.ExistsBySourceFilename(ctx, filename)
	if err != nil {
		res.Outcome, res.Err = IngestFailed, err
		return res
	}
	if exists {
		res.Outcome = IngestSkipped
		o.log.Debug().Str("file", filename).Msg("archivo ya importado")
		return res
	}

	parsed, err := o.parser.Parse(raw, filename)
	if err != nil {
		res.Outcome, res.Err = IngestFailed, err
		o.log.Warn().Err(err).Str("file", filename).Msg("XML no importado")
		return res
	}
	o.checkIssuer(ctx, parsed)

	doc := parsed.Document
	if err := o.docs.Create(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			res.Outcome = IngestSkipped
			return res
		}
		res.Outcome, res.Err = IngestFailed, err
		return res
	}
	res.Outcome, res.DocumentID = IngestCreated, doc.ID
	o.log.Info().Int64("doc_id", doc.ID).Str("file", filename).Str("kind", string(doc.Kind)).
		Str("number", doc.FullNumber()).Str("total", doc.Totals.Total.StringFixed(2)).Msg("documento importado")
	return res
}

// checkIssuer advierte si el XML viene de otra empresa; no bloquea la importación.
func (o *Orchestrator) checkIssuer(ctx context.Context, parsed *siigo.Result) {
	s, err := o.settings.Current(ctx)
	if err != nil || s == nil || strings.TrimSpace(s.CompanyNIT) == "" {
		return
	}
	issuer := dian.DigitsOnly(parsed.Issuer.Identification)
	if issuer != "" && issuer != dian.DigitsOnly(s.CompanyNIT) {
		o.log.Warn().Str("file", parsed.Document.SourceFilename).Str("issuer_nit", issuer).
			Str("company_nit", s.CompanyNIT).Msg("el NIT emisor del XML no coincide con la empresa configurada")
	}
}

// ── Envío ───────────────────────────────────────────────────────────────────

// Dispatch envía un documento pendiente. El error devuelto, cuando lo hay, es uno de:
// *domain.ValidationFailure (sigue pending), *domain.RejectionFailure, *domain.TransportFailure
// o *domain.AmbiguousResponse (sigue processing).
func (o *Orchestrator) Dispatch(ctx context.Context, id int64) (DispatchResult, error) {
	start := o.now()
	res, err := o.dispatch(ctx, id)
	res.Err = err
	if res.Status != "" && res.Status != entity.StatusPending {
		o.metrics.DispatchOutcome(res.Kind, res.Status, o.now().Sub(start))
	}
	return res, err
}

func (o *Orchestrator) dispatch(ctx context.Context, id int64) (DispatchResult, error) {
	st := DispatchResult{DocumentID: id}

	doc, err := o.docs.GetByID(ctx, id)
	if err != nil {
		return st, err
	}
	if doc == nil {
		return st, domain.ErrNotFound
	}
	st.Kind, st.Number = doc.Kind, doc.FullNumber()
	if doc.Status == entity.StatusSent {
		st.Status, st.FiscalKey, st.Message = doc.Status, doc.FiscalKey, doc.ErrorMessage
		return st, nil
	}
	if doc.Status != entity.StatusPending {
		st.Status = doc.Status
		return st, fmt.Errorf("%w: el documento está en estado %s", domain.ErrInvalidTransition, doc.Status)
	}
	log := o.log.Zerolog().With().Int64("doc_id", id).Str("kind", string(doc.Kind)).Str("number", st.Number).Logger()

	settings, err := o.settings.Current(ctx)
	if err != nil {
		return st, err
	}
	payload, err := o.prepare(ctx, doc, settings)
	if err != nil {
		if domain.IsValidation(err) {
			st.Status, st.Message = entity.StatusPending, err.Error()
			doc.ErrorMessage = truncate(err.Error(), o.cfg.MaxMessageRunes)
			if uerr := o.docs.Update(ctx, doc); uerr != nil {
				log.Error().Err(uerr).Msg("no se pudo guardar el error de validación")
			}
			log.Warn().Err(err).Msg("documento no enviado: faltan datos")
		}
		return st, err
	}

	ok, err := o.docs.TransitionStatus(ctx, id, []entity.DocumentStatus{entity.StatusPending}, entity.StatusProcessing)
	if err != nil {
		return st, err
	}
	if !ok {
		return st, fmt.Errorf("%w: el documento ya está siendo enviado", domain.ErrConflict)
	}
	st.Status = entity.StatusProcessing

	body, err := payload.JSON()
	if err != nil {
		st.Status = entity.StatusError
		return st, o.fail(ctx, doc, err)
	}
	doc.APIRequest = body

	if doc.Kind.UsesSupportCredentials() {
		// La API exige registrar el software DS antes de cada envío de soporte o ajuste.
		if r, perr := o.provisioner.ConfigureSupportSoftware(ctx, settings); perr != nil {
			log.Warn().Err(perr).Msg("configurar software DS")
		} else if !r.Success {
			log.Warn().Str("message", r.Message).Msg("configurar software DS")
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.cfg.SendTimeout)
	resp, sendErr := o.transport.Do(sendCtx, apidian.TargetFor(settings), http.MethodPost, payload.Path, payload.Body)
	cancel()

	out := o.interpreter.Interpret(resp, sendErr)
	doc.Status = out.Status
	doc.ErrorMessage = out.Message
	if out.FiscalKey != "" {
		doc.FiscalKey = out.FiscalKey
	}
	if resp != nil {
		doc.APIResponse = resp.Stored()
	}
	if out.Status == entity.StatusSent {
		now := o.now()
		doc.SentAt = &now
	}

	if err := o.persist(ctx, doc); err != nil {
		log.Error().Err(err).Msg("no se pudo guardar el resultado del envío")
		return st, err
	}
	st.Status, st.FiscalKey, st.Message = doc.Status, doc.FiscalKey, doc.ErrorMessage

	ev := log.Info()
	if out.Status != entity.StatusSent {
		ev = log.Warn()
	}
	ev.Str("status", string(out.Status)).Str("fiscal_key", doc.FiscalKey).Str("message", out.Message).Msg("documento enviado")
	return st, outcomeError(out, resp, sendErr)
}

// prepare valida y arma el payload sin tocar el estado.
func (o *Orchestrator) prepare(ctx context.Context, doc *entity.Document, settings *entity.Settings) (*apidian.Payload, error) {
	if err := domaindian.ValidateForDispatch(doc, settings); err != nil {
		return nil, err
	}
	var res *entity.Resolution
	if doc.Kind == entity.KindSupportDocument {
		r, err := o.resolutionFor(ctx, doc)
		if err != nil {
			return nil, err
		}
		res = r
	}
	return o.builder.Build(apidian.BuildInput{Document: doc, Settings: settings, Resolution: res})
}

func (o *Orchestrator) resolutionFor(ctx context.Context, doc *entity.Document) (*entity.Resolution, error) {
	if doc.ResolutionID != nil {
		r, err := o.resolutions.GetByID(ctx, *doc.ResolutionID)
		if err != nil || r != nil {
			return r, err
		}
	}
	r, err := o.resolutions.GetActive(ctx, doc.Kind, doc.Prefix)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NewValidationFailure("resolution_number", "no hay resolución activa de documento soporte")
	}
	return r, nil
}

// persist guarda el resultado; una nota crédito aceptada anula su factura en la misma transacción.
func (o *Orchestrator) persist(ctx context.Context, doc *entity.Document) error {
	return o.tx.RunBilling(ctx, func(docs repository.DocumentRepository, _ repository.ResolutionRepository) error {
		if err := docs.Update(ctx, doc); err != nil {
			return err
		}
		if doc.Status == entity.StatusSent && doc.Kind == entity.KindCreditNote &&
			doc.Reference != nil && doc.Reference.DocumentID != 0 {
			if err := docs.MarkNullified(ctx, doc.Reference.DocumentID); err != nil {
				return fmt.Errorf("anular factura %d: %w", doc.Reference.DocumentID, err)
			}
			o.log.Info().Int64("doc_id", doc.Reference.DocumentID).Int64("credit_note_id", doc.ID).Msg("factura anulada por nota crédito")
		}
		return nil
	})
}

// fail deja el documento en error cuando algo local impide el envío después del bloqueo.
func (o *Orchestrator) fail(ctx context.Context, doc *entity.Document, cause error) error {
	doc.Status = entity.StatusError
	doc.ErrorMessage = truncate(cause.Error(), o.cfg.MaxMessageRunes)
	if err := o.docs.Update(ctx, doc); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func outcomeError(out apidian.Outcome, resp *apidian.Response, sendErr error) error {
	switch out.Status {
	case entity.StatusRejected:
		return &domain.RejectionFailure{Message: out.Message}
	case entity.StatusError:
		var tf *domain.TransportFailure
		if errors.As(sendErr, &tf) {
			return tf
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return &domain.TransportFailure{StatusCode: status, Message: out.Message, Err: sendErr}
	case entity.StatusProcessing:
		return &domain.AmbiguousResponse{Message: out.Message}
	}
	return nil
}

// ── Reintento ───────────────────────────────────────────────────────────────

// RetryFailed vuelve a pending un documento en error o rechazado, limpia el mensaje y lo envía
// de nuevo con el mismo número. Un documento en processing nunca se reenvía: la API pudo
// haberlo aceptado sin que llegara la respuesta.
func (o *Orchestrator) RetryFailed(ctx context.Context, id int64) (DispatchResult, error) {
	doc, err := o.docs.GetByID(ctx, id)
	if err != nil {
		return DispatchResult{DocumentID: id}, err
	}
	if doc == nil {
		return DispatchResult{DocumentID: id}, domain.ErrNotFound
	}
	if !doc.Status.Retryable() {
		return DispatchResult{DocumentID: id, Number: doc.FullNumber(), Status: doc.Status},
			fmt.Errorf("%w: solo se reintentan documentos en error o rechazados (estado %s)", domain.ErrInvalidTransition, doc.Status)
	}

	ok, err := o.docs.TransitionStatus(ctx, id, []entity.DocumentStatus{entity.StatusError, entity.StatusRejected}, entity.StatusPending)
	if err != nil {
		return DispatchResult{DocumentID: id}, err
	}
	if !ok {
		return DispatchResult{DocumentID: id}, fmt.Errorf("%w: el estado cambió mientras se reintentaba", domain.ErrConflict)
	}
	doc.Status = entity.StatusPending
	doc.ErrorMessage = ""
	if err := o.docs.Update(ctx, doc); err != nil {
		return DispatchResult{DocumentID: id}, err
	}
	o.log.Info().Int64("doc_id", id).Msg("documento reenviado por el operador")
	return o.Dispatch(ctx, id)
}

func truncate(s string, max int) string {
	if max <= 0 {
		max = apidian.DefaultMaxMessageRunes
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

func isParseFailure(err error) bool {
	var pf *domain.ParseFailure
	return errors.As(err, &pf)
}
