package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/memory"
)

func newResolution(t *testing.T, store *memory.Store, from, to int64) *entity.Resolution {
	t.Helper()
	res := &entity.Resolution{
		Kind: entity.KindCreditNote, Prefix: "NC", Resolution: "18760000001",
		From: from, To: to, IsActive: true,
	}
	require.NoError(t, store.Resolutions().Create(context.Background(), res))
	return res
}

// ────────────────────────────────────────────────────────────────────────────
// Numeración
// ────────────────────────────────────────────────────────────────────────────

func TestAllocateNumber_ConcurrentUnique(t *testing.T) {
	store := memory.NewStore()
	res := newResolution(t, store, 1, 100)
	assert.Equal(t, int64(0), res.CurrentNumber)

	const workers = 50
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := store.Resolutions().AllocateNumber(context.Background(), res.ID)
			assert.NoError(t, err)
			mu.Lock()
			assert.False(t, seen[n], "número repetido %d", n)
			seen[n] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers)
	for n := int64(1); n <= workers; n++ {
		assert.True(t, seen[n], "falta el número %d", n)
	}
	got, err := store.Resolutions().GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), got.CurrentNumber)
}

func TestAllocateNumber_Exhausted(t *testing.T) {
	store := memory.NewStore()
	res := newResolution(t, store, 10, 11)
	ctx := context.Background()

	n, err := store.Resolutions().AllocateNumber(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	n, err = store.Resolutions().AllocateNumber(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	_, err = store.Resolutions().AllocateNumber(ctx, res.ID)
	assert.ErrorIs(t, err, domain.ErrRangeExhausted)

	_, err = store.Resolutions().AllocateNumber(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolutionUpdate_CursorNeverMovesBack(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	res := newResolution(t, store, 1, 10)
	_, err := store.Resolutions().AllocateNumber(ctx, res.ID)
	require.NoError(t, err)
	_, err = store.Resolutions().AllocateNumber(ctx, res.ID)
	require.NoError(t, err)

	res.CurrentNumber = 0
	res.Prefix = "NC2"
	require.NoError(t, store.Resolutions().Update(ctx, res))
	assert.Equal(t, int64(2), res.CurrentNumber)

	got, _ := store.Resolutions().GetByID(ctx, res.ID)
	assert.Equal(t, "NC2", got.Prefix)
	assert.Equal(t, int64(2), got.CurrentNumber)
}

// ────────────────────────────────────────────────────────────────────────────
// Transacciones
// ────────────────────────────────────────────────────────────────────────────

func TestRunBilling_RollbackRestoresState(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	res := newResolution(t, store, 1, 10)
	boom := errors.New("insert falló")

	err := store.TxRunner().RunBilling(ctx, func(docs repository.DocumentRepository, resolutions repository.ResolutionRepository) error {
		_, err := resolutions.AllocateNumber(ctx, res.ID)
		require.NoError(t, err)
		require.NoError(t, docs.Create(ctx, &entity.Document{Kind: entity.KindCreditNote, Number: "1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := store.Resolutions().GetByID(ctx, res.ID)
	assert.Equal(t, int64(0), got.CurrentNumber, "el número no se consume si la transacción falla")
	_, total, _ := store.Documents().List(ctx, entity.DocumentFilter{})
	assert.Zero(t, total)
}

func TestRunBilling_Commit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	inv := &entity.Document{Kind: entity.KindInvoice, Number: "1", SourceFilename: "a.xml"}
	require.NoError(t, store.Documents().Create(ctx, inv))

	err := store.TxRunner().RunBilling(ctx, func(docs repository.DocumentRepository, _ repository.ResolutionRepository) error {
		return docs.MarkNullified(ctx, inv.ID)
	})
	require.NoError(t, err)
	got, _ := store.Documents().GetByID(ctx, inv.ID)
	assert.True(t, got.IsNullified)
}

// ────────────────────────────────────────────────────────────────────────────
// Documentos
// ────────────────────────────────────────────────────────────────────────────

func TestDocuments_DuplicateFilename(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Documents().Create(ctx, &entity.Document{Kind: entity.KindInvoice, SourceFilename: "f1.xml"}))
	err := store.Documents().Create(ctx, &entity.Document{Kind: entity.KindInvoice, SourceFilename: "f1.xml"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	exists, err := store.Documents().ExistsBySourceFilename(ctx, "f1.xml")
	require.NoError(t, err)
	assert.True(t, exists)

	// las notas no tienen archivo de origen
	require.NoError(t, store.Documents().Create(ctx, &entity.Document{Kind: entity.KindCreditNote}))
	require.NoError(t, store.Documents().Create(ctx, &entity.Document{Kind: entity.KindCreditNote}))
}

func TestDocuments_TransitionStatus(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	doc := &entity.Document{Kind: entity.KindInvoice}
	require.NoError(t, store.Documents().Create(ctx, doc))
	assert.Equal(t, entity.StatusPending, doc.Status)

	ok, err := store.Documents().TransitionStatus(ctx, doc.ID, []entity.DocumentStatus{entity.StatusPending}, entity.StatusProcessing)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Documents().TransitionStatus(ctx, doc.ID, []entity.DocumentStatus{entity.StatusPending}, entity.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, ok, "la segunda estación pierde la carrera")
}

func TestDocuments_ListFilters(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	store := memory.NewStore().WithClock(func() time.Time { clock = clock.Add(time.Second); return clock })
	ctx := context.Background()

	day := func(d int) *time.Time { t := base.AddDate(0, 0, d); return &t }
	docs := []*entity.Document{
		{Kind: entity.KindInvoice, Prefix: "FE", Number: "1", IssueDate: day(0), Party: entity.Party{Identification: "111", Name: "ACME SAS"}},
		{Kind: entity.KindInvoice, Prefix: "FE", Number: "2", IssueDate: day(1), Party: entity.Party{Identification: "222", Name: "Otro"}, Status: entity.StatusSent},
		{Kind: entity.KindCreditNote, Prefix: "NC", Number: "1", IssueDate: day(2), Party: entity.Party{Identification: "111", Name: "ACME SAS"}},
	}
	for _, d := range docs {
		require.NoError(t, store.Documents().Create(ctx, d))
	}

	list, total, err := store.Documents().List(ctx, entity.DocumentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, docs[2].ID, list[0].ID, "más reciente primero")

	_, total, _ = store.Documents().List(ctx, entity.DocumentFilter{Kind: entity.KindInvoice})
	assert.Equal(t, 2, total)

	_, total, _ = store.Documents().List(ctx, entity.DocumentFilter{Status: entity.StatusSent})
	assert.Equal(t, 1, total)

	list, total, _ = store.Documents().List(ctx, entity.DocumentFilter{Search: "acme"})
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	_, total, _ = store.Documents().List(ctx, entity.DocumentFilter{Search: "FE2"})
	assert.Equal(t, 1, total)

	_, total, _ = store.Documents().List(ctx, entity.DocumentFilter{From: day(1), To: day(1)})
	assert.Equal(t, 1, total)

	list, total, _ = store.Documents().List(ctx, entity.DocumentFilter{Limit: 1, Offset: 1})
	assert.Equal(t, 3, total)
	require.Len(t, list, 1)
	assert.Equal(t, docs[1].ID, list[0].ID)

	ids, err := store.Documents().ListIDsByStatus(ctx, entity.StatusPending, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{docs[0].ID, docs[2].ID}, ids)
}

func TestDocuments_ReturnsCopies(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	doc := &entity.Document{Kind: entity.KindInvoice, Notes: "original"}
	require.NoError(t, store.Documents().Create(ctx, doc))

	got, _ := store.Documents().GetByID(ctx, doc.ID)
	got.Notes = "modificada"
	again, _ := store.Documents().GetByID(ctx, doc.ID)
	assert.Equal(t, "original", again.Notes)
}

// ────────────────────────────────────────────────────────────────────────────
// Terceros y configuración
// ────────────────────────────────────────────────────────────────────────────

func TestCustomers_UniqueIdentification(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{Identification: "900", Name: "B"}))
	err := store.Customers().Create(ctx, &entity.Customer{Identification: "900", Name: "C"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, store.Customers().Create(ctx, &entity.Customer{Identification: "800", Name: "A", Type: entity.CustomerTypeSupplier}))
	list, total, err := store.Customers().List(ctx, "", "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "A", list[0].Name)

	_, total, _ = store.Customers().List(ctx, entity.CustomerTypeSupplier, "", 10, 0)
	assert.Equal(t, 1, total)
}

func TestSettings_GetBeforeSave(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	s, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, store.Settings().Save(ctx, entity.DefaultSettings("http://api")))
	s, err = store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://api", s.APIURL)
	assert.Equal(t, int64(1), s.ID)
}
