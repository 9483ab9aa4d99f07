package billing_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/memory"
	"github.com/jhoicas/facturador-dian/internal/mocks"
)

const sampleInvoice = `<?xml version="1.0" encoding="UTF-8"?>
<Document>
  <CompanyData>
    <Nit>900123456</Nit>
    <Name>Comercializadora Andina SAS</Name>
  </CompanyData>
  <Customer>
    <Code>1085286295</Code>
    <CheckDigit>3</CheckDigit>
    <FirstName>Ana</FirstName>
    <LastName>Pérez</LastName>
    <IsSocialReason>FALSE</IsSocialReason>
    <EMail>ana@correo.co</EMail>
  </Customer>
  <Billing>
    <Global>
      <D K="0497">FACTURA DE VENTA</D>
      <D K="0073">SETP</D>
      <D K="0008">NUMBER</D>
      <D K="0022">20250315</D>
      <D K="0067">1202.00</D>
    </Global>
    <Detail>
      <R>
        <D K="0031">P001</D>
        <D K="0033">Café molido 500g</D>
        <D K="0038">2</D>
        <D K="0039">500</D>
        <D K="0041">1000</D>
        <D K="0036">19</D>
        <D K="0527">190</D>
      </R>
      <R>
        <D K="0031">P002</D>
        <D K="0033">Almuerzo</D>
        <D K="0038">1</D>
        <D K="0039">12</D>
        <D K="0041">12</D>
      </R>
    </Detail>
  </Billing>
</Document>`

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func invoiceXML(number string) []byte {
	return []byte(strings.Replace(sampleInvoice, "NUMBER", number, 1))
}

type fixture struct {
	store     *memory.Store
	transport *mocks.MockTransport
	settings  *billing.SettingsService
	orch      *billing.Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	settings := billing.NewSettingsService(store.Settings(), "https://api.local/api/ubl2.1", nil)
	_, err := settings.Update(context.Background(), func(s *entity.Settings) error {
		s.CompanyName = "Comercializadora Andina SAS"
		s.CompanyNIT = "900123456"
		s.APIToken = "token"
		s.SoftwareID = "sw-fe"
		s.SoftwarePIN = "12345"
		s.TestSetID = "ts-fe"
		s.SupportSoftwareID = "sw-ds"
		s.SupportSoftwarePIN = "54321"
		s.SupportTestSetID = "ts-ds"
		return nil
	})
	require.NoError(t, err)

	transport := new(mocks.MockTransport)
	orch := billing.NewOrchestrator(billing.Deps{
		Documents:   store.Documents(),
		Resolutions: store.Resolutions(),
		Customers:   store.Customers(),
		Products:    store.Products(),
		Tx:          store.TxRunner(),
		Settings:    settings,
		Transport:   transport,
	}, billing.Config{Workers: 3}).WithClock(func() time.Time { return fixedNow })

	return &fixture{store: store, transport: transport, settings: settings, orch: orch}
}

// apiResponse respuesta 200 con el cuerpo dado, como la entrega el cliente HTTP.
func apiResponse(t *testing.T, body map[string]any) *apidian.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return &apidian.Response{StatusCode: http.StatusOK, Body: body, Raw: raw}
}

func acceptedBody(key string) map[string]any {
	return map[string]any{
		"cufe": key,
		"urlinvoicepdf": "FES-SETP1.pdf",
		"ResponseDian": map[string]any{"Envelope": map[string]any{"Body": map[string]any{
			"SendBillSyncResponse": map[string]any{"SendBillSyncResult": map[string]any{
				"IsValid": "true", "StatusCode": "00", "StatusDescription": "Procesado Correctamente.",
			}},
		}}},
	}
}

func rejectedBody(msg string) map[string]any {
	return map[string]any{
		"ResponseDian": map[string]any{"Envelope": map[string]any{"Body": map[string]any{
			"SendBillSyncResponse": map[string]any{"SendBillSyncResult": map[string]any{
				"IsValid": "false", "StatusCode": "99",
				"ErrorMessage": map[string]any{"string": []any{"Regla: FAD06, Rechazo: " + msg}},
			}},
		}}},
	}
}

func (f *fixture) ingest(t *testing.T, number string) *entity.Document {
	t.Helper()
	res := f.orch.Ingest(context.Background(), invoiceXML(number), "FV"+number+".xml")
	require.Equal(t, billing.IngestCreated, res.Outcome, "err: %v", res.Err)
	doc, err := f.store.Documents().GetByID(context.Background(), res.DocumentID)
	require.NoError(t, err)
	return doc
}

func (f *fixture) sentInvoice(t *testing.T, number, key string) *entity.Document {
	t.Helper()
	doc := f.ingest(t, number)
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(apiResponse(t, acceptedBody(key)), nil).Once()
	res, err := f.orch.Dispatch(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusSent, res.Status)
	doc, _ = f.store.Documents().GetByID(context.Background(), doc.ID)
	return doc
}

func (f *fixture) resolution(t *testing.T, kind entity.DocumentKind, prefix string, from, to int64) *entity.Resolution {
	t.Helper()
	r := &entity.Resolution{Kind: kind, Prefix: prefix, Resolution: "18760000001", From: from, To: to, IsActive: true}
	require.NoError(t, f.store.Resolutions().Create(context.Background(), r))
	return r
}

// ────────────────────────────────────────────────────────────────────────────
// Ingesta
// ────────────────────────────────────────────────────────────────────────────

func TestIngest_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.orch.Ingest(ctx, invoiceXML("990000001"), "C:/export/FV1.xml")
	require.Equal(t, billing.IngestCreated, first.Outcome)
	assert.Equal(t, "FV1.xml", first.Filename)

	second := f.orch.Ingest(ctx, invoiceXML("990000001"), "FV1.xml")
	assert.Equal(t, billing.IngestSkipped, second.Outcome)
	assert.NoError(t, second.Err)

	_, total, err := f.store.Documents().List(ctx, entity.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	doc, _ := f.store.Documents().GetByID(ctx, first.DocumentID)
	assert.Equal(t, entity.StatusPending, doc.Status)
	assert.Equal(t, "SETP990000001", doc.FullNumber())
	assert.Equal(t, "1202.00", doc.Totals.Total.StringFixed(2))
}

func TestIngest_ParseFailure(t *testing.T) {
	f := newFixture(t)
	res := f.orch.Ingest(context.Background(), []byte("<Document><Billing>"), "roto.xml")
	assert.Equal(t, billing.IngestFailed, res.Outcome)
	var pf *domain.ParseFailure
	assert.True(t, errors.As(res.Err, &pf))
}

func TestIngest_RecordsMetrics(t *testing.T) {
	store := memory.NewStore()
	rec := new(mocks.MockRecorder)
	rec.On("IngestOutcome", billing.IngestCreated).Once()
	rec.On("IngestOutcome", billing.IngestSkipped).Once()
	orch := billing.NewOrchestrator(billing.Deps{
		Documents: store.Documents(), Resolutions: store.Resolutions(), Tx: store.TxRunner(),
		Settings:  billing.NewSettingsService(store.Settings(), "http://api", nil),
		Transport: new(mocks.MockTransport), Metrics: rec,
	}, billing.Config{})

	orch.Ingest(context.Background(), invoiceXML("1"), "a.xml")
	orch.Ingest(context.Background(), invoiceXML("1"), "a.xml")
	rec.AssertExpectations(t)
}

// ────────────────────────────────────────────────────────────────────────────
// Envío
// ────────────────────────────────────────────────────────────────────────────

func TestDispatch_Sent(t *testing.T) {
	f := newFixture(t)
	doc := f.sentInvoice(t, "990000001", "cufe-abc")

	assert.Equal(t, entity.StatusSent, doc.Status)
	assert.Equal(t, "cufe-abc", doc.FiscalKey)
	require.NotNil(t, doc.SentAt)
	assert.Equal(t, fixedNow, *doc.SentAt)
	assert.NotEmpty(t, doc.APIRequest)
	assert.Contains(t, string(doc.APIResponse), "cufe-abc")

	// el segundo envío no llama a la API
	res, err := f.orch.Dispatch(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, res.Status)
	assert.Equal(t, "cufe-abc", res.FiscalKey)
	f.transport.AssertNumberOfCalls(t, "Do", 1)
}

func TestDispatch_ValidationKeepsPending(t *testing.T) {
	f := newFixture(t)
	_, err := f.settings.Update(context.Background(), func(s *entity.Settings) error {
		s.SoftwareID = ""
		return nil
	})
	require.NoError(t, err)
	doc := f.ingest(t, "990000002")

	res, err := f.orch.Dispatch(context.Background(), doc.ID)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, entity.StatusPending, res.Status)

	got, _ := f.store.Documents().GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Contains(t, got.ErrorMessage, "software_id")
	f.transport.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatch_RejectedThenRetry(t *testing.T) {
	f := newFixture(t)
	doc := f.ingest(t, "990000003")
	ctx := context.Background()

	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(apiResponse(t, rejectedBody("NIT del adquiriente no existe")), nil).Once()
	res, err := f.orch.Dispatch(ctx, doc.ID)
	var rej *domain.RejectionFailure
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, entity.StatusRejected, res.Status)
	assert.Contains(t, res.Message, "Rechazo")

	got, _ := f.store.Documents().GetByID(ctx, doc.ID)
	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Empty(t, got.FiscalKey)

	// Dispatch directo no reenvía un rechazado
	_, err = f.orch.Dispatch(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(apiResponse(t, acceptedBody("cufe-retry")), nil).Once()
	res, err = f.orch.RetryFailed(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, res.Status)

	got, _ = f.store.Documents().GetByID(ctx, doc.ID)
	assert.Equal(t, "cufe-retry", got.FiscalKey)
	assert.Equal(t, "SETP990000003", got.FullNumber(), "el reintento conserva el número")
	assert.Empty(t, got.ErrorMessage)
}

func TestDispatch_TransportError(t *testing.T) {
	f := newFixture(t)
	doc := f.ingest(t, "990000004")
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(nil, &domain.TransportFailure{Message: "connection refused"}).Once()

	res, err := f.orch.Dispatch(context.Background(), doc.ID)
	var tf *domain.TransportFailure
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, entity.StatusError, res.Status)

	got, _ := f.store.Documents().GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusError, got.Status)
	assert.Contains(t, got.ErrorMessage, "connection refused")
	assert.True(t, got.Status.Retryable())
}

func TestDispatch_HTTPErrorMessage(t *testing.T) {
	f := newFixture(t)
	doc := f.ingest(t, "990000005")
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(&apidian.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Body:       map[string]any{"message": "The given data was invalid.", "errors": map[string]any{"customer.email": []any{"correo inválido"}}},
		}, nil).Once()

	_, err := f.orch.Dispatch(context.Background(), doc.ID)
	var tf *domain.TransportFailure
	require.True(t, errors.As(err, &tf))
	assert.Equal(t, http.StatusUnprocessableEntity, tf.StatusCode)

	got, _ := f.store.Documents().GetByID(context.Background(), doc.ID)
	assert.Contains(t, got.ErrorMessage, "correo inválido")
}

func TestDispatch_AmbiguousStaysProcessing(t *testing.T) {
	f := newFixture(t)
	doc := f.ingest(t, "990000006")
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(apiResponse(t, map[string]any{"message": "en cola"}), nil).Once()

	res, err := f.orch.Dispatch(context.Background(), doc.ID)
	var amb *domain.AmbiguousResponse
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, entity.StatusProcessing, res.Status)

	_, err = f.orch.RetryFailed(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRetryFailed_ProcessingAntiguoNoSeReenvia(t *testing.T) {
	f := newFixture(t)
	doc := f.ingest(t, "990000016")
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(apiResponse(t, map[string]any{"message": "en cola"}), nil).Once()

	_, err := f.orch.Dispatch(context.Background(), doc.ID)
	require.Error(t, err)

	later := time.Now().Add(24 * time.Hour)
	f.orch.WithClock(func() time.Time { return later })
	res, err := f.orch.RetryFailed(context.Background(), doc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, entity.StatusProcessing, res.Status)

	got, _ := f.store.Documents().GetByID(context.Background(), doc.ID)
	assert.Equal(t, entity.StatusProcessing, got.Status)
	f.transport.AssertNumberOfCalls(t, "Do", 1)
}

func TestDispatch_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Dispatch(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ────────────────────────────────────────────────────────────────────────────
// Envío masivo
// ────────────────────────────────────────────────────────────────────────────

func TestSendAllPending(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"990000010", "990000011", "990000012"} {
		f.ingest(t, n)
	}
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe",
		mock.MatchedBy(func(body any) bool {
			raw, _ := json.Marshal(body)
			return strings.Contains(string(raw), `"number":990000011`)
		})).
		Return(apiResponse(t, rejectedBody("duplicado")), nil)
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/invoice/ts-fe", mock.Anything).
		Return(apiResponse(t, acceptedBody("cufe-bulk")), nil)

	batch, err := f.orch.SendAllPending(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, batch.BatchID)
	assert.Len(t, batch.Results, 3)
	assert.Equal(t, 2, batch.Sent)
	assert.Equal(t, 1, batch.Failed)

	ids, _ := f.store.Documents().ListIDsByStatus(context.Background(), entity.StatusPending, 0)
	assert.Empty(t, ids)

	again, err := f.orch.SendAllPending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Results)
}

// ────────────────────────────────────────────────────────────────────────────
// Notas
// ────────────────────────────────────────────────────────────────────────────

func TestCreditNote_NullifiesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.sentInvoice(t, "990000020", "cufe-inv")
	f.resolution(t, entity.KindCreditNote, "NC", 1, 100)

	note, err := f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{
		ReferenceID: inv.ID,
		Lines:       []billing.NoteLineInput{{Code: "P001", Quantity: decimal.NewFromInt(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "NC1", note.FullNumber())
	require.NotNil(t, note.Reference)
	assert.Equal(t, "cufe-inv", note.Reference.FiscalKey)
	assert.Equal(t, "SETP990000020", note.Reference.Number)
	assert.Equal(t, 2, note.Discrepancy.Code, "concepto por defecto: anulación")
	require.Len(t, note.Lines, 1)
	assert.Equal(t, "500.00", note.Lines[0].Base.StringFixed(2))
	assert.Equal(t, "595.00", note.Totals.Total.StringFixed(2))

	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/credit-note/ts-fe", mock.Anything).
		Return(apiResponse(t, acceptedBody("cude-nc")), nil).Once()
	res, err := f.orch.Dispatch(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, res.Status)

	got, _ := f.store.Documents().GetByID(ctx, inv.ID)
	assert.True(t, got.IsNullified)

	_, err = f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{ReferenceID: inv.ID})
	assert.ErrorIs(t, err, domain.ErrConflict, "una factura anulada no admite otra nota crédito")
}

func TestCreditNote_LineRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.sentInvoice(t, "990000021", "cufe-x")
	f.resolution(t, entity.KindCreditNote, "NC", 1, 100)

	_, err := f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{
		ReferenceID: inv.ID,
		Lines:       []billing.NoteLineInput{{Code: "P001", Quantity: decimal.NewFromInt(3)}},
	})
	assert.True(t, domain.IsValidation(err), "más cantidad que la original")

	_, err = f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{
		ReferenceID: inv.ID,
		Lines: []billing.NoteLineInput{
			{Code: "P001", Quantity: decimal.NewFromInt(1)},
			{Code: "P001", Quantity: decimal.NewFromInt(2)},
		},
	})
	assert.True(t, domain.IsValidation(err), "la suma de selecciones también se limita")

	_, err = f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{
		ReferenceID: inv.ID,
		Lines:       []billing.NoteLineInput{{Code: "NOEXISTE", Quantity: decimal.NewFromInt(1)}},
	})
	assert.True(t, domain.IsValidation(err))

	_, err = f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{ReferenceID: inv.ID, DiscrepancyCode: 9})
	assert.True(t, domain.IsValidation(err))

	full, err := f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{ReferenceID: inv.ID})
	require.NoError(t, err)
	assert.Len(t, full.Lines, 2)
	assert.True(t, full.Totals.Total.Equal(inv.Totals.Subtotal.Add(inv.Totals.Tax)))

	// ninguna validación fallida consumió número
	assert.Equal(t, "NC1", full.FullNumber())
}

func TestCreditNote_RequiresAcceptedInvoice(t *testing.T) {
	f := newFixture(t)
	pending := f.ingest(t, "990000022")
	f.resolution(t, entity.KindCreditNote, "NC", 1, 100)

	_, err := f.orch.CreateCreditNote(context.Background(), billing.CreditNoteInput{ReferenceID: pending.ID})
	require.Error(t, err)
	var vf *domain.ValidationFailure
	require.True(t, errors.As(err, &vf))
	assert.Equal(t, "billing_reference.uuid", vf.Field)
}

func TestCreditNote_NoActiveRangeAndExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.sentInvoice(t, "990000023", "cufe-y")

	_, err := f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{ReferenceID: inv.ID})
	assert.ErrorIs(t, err, domain.ErrNoActiveRange)

	f.resolution(t, entity.KindCreditNote, "NC", 5, 5)
	note, err := f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{ReferenceID: inv.ID, Lines: []billing.NoteLineInput{{Code: "P002", Quantity: decimal.NewFromInt(1)}}})
	require.NoError(t, err)
	assert.Equal(t, "NC5", note.FullNumber())

	_, err = f.orch.CreateCreditNote(ctx, billing.CreditNoteInput{ReferenceID: inv.ID, Lines: []billing.NoteLineInput{{Code: "P001", Quantity: decimal.NewFromInt(1)}}})
	assert.ErrorIs(t, err, domain.ErrRangeExhausted)
}

func TestDebitNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.sentInvoice(t, "990000030", "cufe-d")
	f.resolution(t, entity.KindDebitNote, "ND", 1, 10)

	note, err := f.orch.CreateDebitNote(ctx, billing.DebitNoteInput{
		ReferenceID: inv.ID,
		Lines: []billing.ManualLineInput{{
			Description: "Intereses de mora", Quantity: decimal.NewFromInt(1),
			UnitPrice: decimal.NewFromInt(1000), TaxPercent: decimal.NewFromInt(19),
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, note.Discrepancy.Code)
	assert.Equal(t, "1190.00", note.Totals.Total.StringFixed(2), "en nota débito el precio no incluye IVA")

	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/debit-note/ts-fe", mock.Anything).
		Return(apiResponse(t, acceptedBody("cude-nd")), nil).Once()
	_, err = f.orch.Dispatch(ctx, note.ID)
	require.NoError(t, err)

	got, _ := f.store.Documents().GetByID(ctx, inv.ID)
	assert.False(t, got.IsNullified, "la nota débito no anula la factura")
}

// ────────────────────────────────────────────────────────────────────────────
// Documento soporte y nota de ajuste
// ────────────────────────────────────────────────────────────────────────────

func TestSupportDocumentAndAdjustment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.resolution(t, entity.KindSupportDocument, "DS", 1, 50)
	f.resolution(t, entity.KindAdjustmentNote, "NA", 1, 50)

	supplier := &entity.Customer{
		Type: entity.CustomerTypeSupplier, Identification: "1085286295", Name: "Proveedor Campesino",
	}
	require.NoError(t, f.store.Customers().Create(ctx, supplier))
	product := &entity.Product{Code: "LECHE", Name: "Leche cruda", UnitPrice: decimal.NewFromInt(1190), TaxPercent: decimal.NewFromInt(19)}
	require.NoError(t, f.store.Products().Create(ctx, product))

	ds, err := f.orch.CreateSupportDocument(ctx, billing.SupportDocumentInput{
		SupplierID: supplier.ID,
		Lines:      []billing.ManualLineInput{{ProductID: product.ID, Quantity: decimal.NewFromInt(10)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "DS1", ds.FullNumber())
	assert.NotEmpty(t, ds.Party.CheckDigit, "el DV se calcula si falta")
	assert.Equal(t, "10000.00", ds.Totals.Subtotal.StringFixed(2), "precio con IVA incluido")
	assert.Equal(t, "11900.00", ds.Totals.Total.StringFixed(2))
	assert.Equal(t, "SIN OBSERVACIONES", ds.Notes)

	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPut, "/config/software", mock.Anything).
		Return(apiResponse(t, map[string]any{"success": true}), nil)
	f.transport.On("Do", mock.Anything, mock.Anything, http.MethodPost, "/support-document/ts-ds", mock.Anything).
		Return(apiResponse(t, map[string]any{"cuds": "cuds-1"}), nil).Once()
	res, err := f.orch.Dispatch(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSent, res.Status)
	assert.Equal(t, "cuds-1", res.FiscalKey)

	adj, err := f.orch.CreateAdjustmentNote(ctx, billing.AdjustmentNoteInput{
		ReferenceID: ds.ID,
		Lines:       []billing.NoteLineInput{{Code: "LECHE", Quantity: decimal.NewFromInt(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "NA1", adj.FullNumber())
	assert.Equal(t, "NOTA DE AJUSTE AL DOCUMENTO SOPORTE", adj.Notes)
	assert.Equal(t, "4000.00", adj.Totals.Subtotal.StringFixed(2))

	// la nota de ajuste no se acepta sobre una factura
	inv := f.sentInvoice(t, "990000040", "cufe-z")
	_, err = f.orch.CreateAdjustmentNote(ctx, billing.AdjustmentNoteInput{ReferenceID: inv.ID})
	assert.True(t, domain.IsValidation(err))
}
