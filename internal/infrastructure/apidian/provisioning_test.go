package apidian_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func provisioningServer(t *testing.T, status int, reply string) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: body})
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func provisioner(srv *httptest.Server) (*apidian.Provisioner, *entity.Settings) {
	s := testSettings()
	s.APIURL = srv.URL
	s.SoftwarePIN = "55555"
	return apidian.NewProvisioner(newClient(5*time.Second, 5)), s
}

func TestProvisioner_ConfigureSoftwareDS(t *testing.T) {
	srv, calls := provisioningServer(t, http.StatusOK, `{"message":"Software actualizado"}`)
	p, s := provisioner(srv)

	res, err := p.ConfigureSupportSoftware(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, *calls, 1)
	c := (*calls)[0]
	assert.Equal(t, http.MethodPut, c.method)
	assert.Equal(t, "/config/software", c.path)
	assert.Equal(t, "sw-ds", c.body["id"])
	assert.Equal(t, float64(12345), c.body["pin"])
}

func TestProvisioner_PINNoNumerico(t *testing.T) {
	srv, calls := provisioningServer(t, http.StatusOK, `{}`)
	p, s := provisioner(srv)
	s.SoftwarePIN = "12a"

	_, err := p.ConfigureSoftware(context.Background(), s)
	var vf *domain.ValidationFailure
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "software_pin", vf.Field)
	assert.Empty(t, *calls)
}

func TestProvisioner_ConfigureResolution(t *testing.T) {
	srv, calls := provisioningServer(t, http.StatusOK, `{}`)
	p, s := provisioner(srv)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := &entity.Resolution{Kind: entity.KindSupportDocument, Prefix: "DS", Resolution: "1876", From: 1, To: 100, DateFrom: &from}

	_, err := p.ConfigureResolution(context.Background(), s, r)
	require.NoError(t, err)
	body := (*calls)[0].body
	assert.Equal(t, float64(11), body["type_document_id"])
	assert.Equal(t, "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c", body["technical_key"])
	assert.Equal(t, "2025-01-01", body["date_from"])
	assert.Equal(t, "", body["date_to"])
}

func TestProvisioner_ConfigureEnvironment(t *testing.T) {
	srv, _ := provisioningServer(t, http.StatusOK, `{}`)
	p, s := provisioner(srv)

	res, err := p.ConfigureEnvironment(context.Background(), s, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ambiente cambiado a Producción exitosamente", res.Message)

	_, err = p.ConfigureEnvironment(context.Background(), s, 3)
	assert.True(t, domain.IsValidation(err))
}

func TestProvisioner_ErrorPUTUsaMensaje(t *testing.T) {
	srv, _ := provisioningServer(t, http.StatusBadRequest, `{"error":"token inválido"}`)
	p, s := provisioner(srv)

	res, err := p.TestConnection(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "token inválido", res.Message)
}

func TestProvisioner_LookupAcquirer(t *testing.T) {
	srv, calls := provisioningServer(t, http.StatusOK, `{"ResponseDian":{"GetAcquirerResponse":{"GetAcquirerResult":{
		"FirstName":"ANA","FirstSurname":"GOMEZ","ReceiverEmail":"ana@correo.co"}}}}`)
	p, s := provisioner(srv)

	acq, err := p.LookupAcquirer(context.Background(), s, "13", "1.085.286.295")
	require.NoError(t, err)
	assert.Equal(t, "ANA GOMEZ", acq.Name)
	assert.Equal(t, "ana@correo.co", acq.Email)
	assert.Equal(t, "/customer/13/1085286295", (*calls)[0].path)
}

func TestProvisioner_LookupAcquirerSinResultado(t *testing.T) {
	srv, _ := provisioningServer(t, http.StatusOK, `{"ResponseDian":{}}`)
	p, s := provisioner(srv)
	_, err := p.LookupAcquirer(context.Background(), s, "13", "123")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProvisioner_Download(t *testing.T) {
	srv, calls := provisioningServer(t, http.StatusOK, "%PDF-1.4")
	p, s := provisioner(srv)

	name, content, err := p.Download(context.Background(), s, map[string]any{"urlinvoicepdf": "FES-SETP1.pdf"}, apidian.ArtifactPDF)
	require.NoError(t, err)
	assert.Equal(t, "FES-SETP1.pdf", name)
	assert.Equal(t, "%PDF-1.4", string(content))
	assert.Equal(t, "/download/900123456/FES-SETP1.pdf", (*calls)[0].path)

	_, _, err = p.Download(context.Background(), s, map[string]any{}, apidian.ArtifactAttached)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
