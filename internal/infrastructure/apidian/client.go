// Package apidian habla con la API REST de facturación (ApiDian): construye los cuerpos JSON
// de cada tipo de documento, los envía y traduce la respuesta de la DIAN a un estado final.
package apidian

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/pkg/config"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// ── Destino ────────────────────────────────────────────────────────────────────

// Target URL base y token vigentes. Se toman de settings en cada llamada porque el
// operador puede cambiarlos sin reiniciar.
type Target struct {
	BaseURL string
	Token   string
}

// TargetFor destino a partir de la configuración.
func TargetFor(s *entity.Settings) Target {
	if s == nil {
		return Target{}
	}
	return Target{BaseURL: s.APIURL, Token: s.APIToken}
}

func (t Target) url(path string) string {
	return strings.TrimRight(strings.TrimSpace(t.BaseURL), "/") + path
}

// ── Respuesta ──────────────────────────────────────────────────────────────────

// Response respuesta HTTP ya leída. Body es nil si el cuerpo no era un objeto JSON.
type Response struct {
	StatusCode int
	Body       map[string]any
	Raw        []byte
}

// Success la API solo considera exitosos 200 y 201.
func (r *Response) Success() bool {
	return r != nil && (r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated)
}

// ErrorMessage texto de error de una respuesta no exitosa, en el orden en que la API lo informa:
// errors de validación ("campo: m1, m2; campo2: m3"), message, error y por último el cuerpo crudo.
func (r *Response) ErrorMessage() string {
	if r == nil {
		return "Error desconocido"
	}
	if r.Body != nil {
		if errs, ok := r.Body["errors"]; ok && errs != nil {
			if msg := formatValidationErrors(errs); msg != "" {
				return msg
			}
		}
		if msg := stringField(r.Body, "message"); msg != "" {
			return msg
		}
		if msg := stringField(r.Body, "error"); msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(r.Raw))
	if text == "" {
		return fmt.Sprintf("Error HTTP %d", r.StatusCode)
	}
	return fmt.Sprintf("Error HTTP %d: %s", r.StatusCode, truncateRunes(text, 200))
}

// Stored cuerpo a guardar en api_response: el JSON tal cual, o {"raw_response": texto}.
func (r *Response) Stored() json.RawMessage {
	if r == nil {
		return nil
	}
	if r.Body != nil {
		return json.RawMessage(r.Raw)
	}
	b, _ := json.Marshal(map[string]any{
		"status_code":  r.StatusCode,
		"raw_response": string(r.Raw),
	})
	return b
}

// ── Puerto ─────────────────────────────────────────────────────────────────────

// Transport puerto de salida hacia la API. Devuelve error solo si no hubo respuesta HTTP
// (red, timeout, circuito abierto); un 4xx/5xx llega como Response no exitosa.
type Transport interface {
	Do(ctx context.Context, target Target, method, path string, body any) (*Response, error)
}

// ── Implementación HTTP ────────────────────────────────────────────────────────

// Client cliente JSON con timeout propio y circuit breaker.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	maxBody    int64
	log        *logger.Logger
}

var _ Transport = (*Client)(nil)

// errServerStatus marca un 5xx para que cuente como fallo del breaker.
var errServerStatus = errors.New("apidian: respuesta 5xx")

// NewClient construye el cliente. La API firma y valida con la DIAN de forma síncrona,
// por eso el timeout por defecto es de 60 s.
func NewClient(cfg config.APIDianConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("apidian")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	maxBody := cfg.MaxResponseBytes
	if maxBody <= 0 {
		maxBody = 4 << 20
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "apidian",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("cambio de estado del circuito")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker:    breaker,
		maxBody:    maxBody,
		log:        log,
	}
}

// Do envía una petición JSON. body nil envía sin cuerpo.
func (c *Client) Do(ctx context.Context, target Target, method, path string, body any) (*Response, error) {
	if strings.TrimSpace(target.BaseURL) == "" {
		return nil, &domain.TransportFailure{Message: "URL de la API no configurada"}
	}
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apidian: serializar cuerpo: %w", err)
		}
	}

	url := target.url(path)
	started := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.send(ctx, target, method, url, payload)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})

	resp, _ := out.(*Response)
	switch {
	case errors.Is(err, errServerStatus):
		err = nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.log.Error().Str("method", method).Str("url", url).Msg("circuito abierto, petición no enviada")
		return nil, &domain.TransportFailure{Message: "API de facturación no disponible (circuito abierto)", Err: err}
	case err != nil:
		c.log.Error().Err(err).Str("method", method).Str("url", url).Dur("elapsed", time.Since(started)).Msg("fallo de transporte")
		return nil, err
	}

	c.log.Debug().Str("method", method).Str("url", url).Int("status", resp.StatusCode).Dur("elapsed", time.Since(started)).Msg("respuesta de la API")
	return resp, nil
}

func (c *Client) send(ctx context.Context, target Target, method, url string, payload []byte) (*Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &domain.TransportFailure{Message: fmt.Sprintf("apidian: crear request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(target.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &domain.TransportFailure{Message: "apidian: timeout o cancelación", Err: ctx.Err()}
		}
		return nil, &domain.TransportFailure{Message: fmt.Sprintf("apidian: %s %s: %v", method, url, err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, &domain.TransportFailure{StatusCode: resp.StatusCode, Message: fmt.Sprintf("apidian: leer respuesta: %v", err), Err: err}
	}

	out := &Response{StatusCode: resp.StatusCode, Raw: raw}
	if len(bytes.TrimSpace(raw)) > 0 {
		var body map[string]any
		if json.Unmarshal(raw, &body) == nil {
			out.Body = body
		}
	} else {
		out.Body = map[string]any{}
	}
	return out, nil
}

// ── helpers ────────────────────────────────────────────────────────────────────

func formatValidationErrors(v any) string {
	switch errs := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, joinAny(errs[k], ", ")))
		}
		return strings.Join(parts, "; ")
	case []any:
		return joinAny(errs, "; ")
	case string:
		return errs
	default:
		return fmt.Sprint(errs)
	}
}

func joinAny(v any, sep string) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, sep)
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
