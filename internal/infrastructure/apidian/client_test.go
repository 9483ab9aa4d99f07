package apidian_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
	"github.com/jhoicas/facturador-dian/pkg/config"
)

func newClient(timeout time.Duration, failures uint32) *apidian.Client {
	return apidian.NewClient(config.APIDianConfig{
		Timeout:          timeout,
		BreakerFailures:  failures,
		BreakerOpenFor:   time.Minute,
		MaxResponseBytes: 1 << 20,
	}, nil)
}

func TestClient_PostEnviaJSONConToken(t *testing.T) {
	var gotAuth, gotCT, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"cufe":"abc"}`))
	}))
	defer srv.Close()

	target := apidian.Target{BaseURL: srv.URL + "/api/ubl2.1/", Token: "tok"}
	resp, err := newClient(5*time.Second, 5).Do(context.Background(), target, http.MethodPost, "/invoice/ts", map[string]any{"number": 1})
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.Equal(t, "abc", resp.Body["cufe"])
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "/api/ubl2.1/invoice/ts", gotPath)
	assert.Equal(t, float64(1), gotBody["number"])
}

func TestClient_SinTokenNoEnviaAuthorization(t *testing.T) {
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := newClient(5*time.Second, 5).Do(context.Background(), apidian.Target{BaseURL: srv.URL}, http.MethodGet, "/plan/infoplanuser", nil)
	require.NoError(t, err)
	assert.True(t, resp.Success())
	assert.False(t, hasAuth)
}

func TestClient_422LlegaComoRespuesta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"number":["requerido"]}}`))
	}))
	defer srv.Close()

	resp, err := newClient(5*time.Second, 5).Do(context.Background(), apidian.Target{BaseURL: srv.URL}, http.MethodPost, "/invoice", struct{}{})
	require.NoError(t, err)
	assert.False(t, resp.Success())
	assert.Equal(t, "number: requerido", resp.ErrorMessage())
}

func TestClient_TimeoutEsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := newClient(5*time.Second, 5).Do(ctx, apidian.Target{BaseURL: srv.URL}, http.MethodPost, "/invoice", nil)
	var tf *domain.TransportFailure
	require.ErrorAs(t, err, &tf)
	assert.Contains(t, tf.Message, "timeout")
}

func TestClient_CircuitoSeAbreTrasFallos5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newClient(5*time.Second, 2)
	target := apidian.Target{BaseURL: srv.URL}
	for i := 0; i < 2; i++ {
		resp, err := c.Do(context.Background(), target, http.MethodPost, "/invoice", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}

	_, err := c.Do(context.Background(), target, http.MethodPost, "/invoice", nil)
	var tf *domain.TransportFailure
	require.ErrorAs(t, err, &tf)
	assert.Contains(t, tf.Message, "circuito abierto")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_SinURL(t *testing.T) {
	_, err := newClient(time.Second, 1).Do(context.Background(), apidian.Target{}, http.MethodGet, "/x", nil)
	var tf *domain.TransportFailure
	require.ErrorAs(t, err, &tf)
}
