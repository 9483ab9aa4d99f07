package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
)

func TestRecorder(t *testing.T) {
	m := New(false)

	m.IngestOutcome(billing.IngestCreated)
	m.IngestOutcome(billing.IngestCreated)
	m.IngestOutcome(billing.IngestSkipped)
	m.DispatchOutcome(entity.KindInvoice, entity.StatusSent, 1500*time.Millisecond)
	m.DispatchOutcome(entity.KindInvoice, entity.StatusRejected, time.Second)
	m.RangeExhausted(entity.KindCreditNote)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestTotal.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("invoice", "sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rangeExhausted.WithLabelValues("credit_note")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.dispatchDuration))
}

func TestHandler(t *testing.T) {
	m := New(false)
	m.IngestOutcome(billing.IngestFailed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `facturador_ingest_total{outcome="failed"} 1`))
}
