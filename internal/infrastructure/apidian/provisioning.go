package apidian

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/pkg/dian"
)

// defaultTechnicalKey clave técnica del set de pruebas de habilitación.
const defaultTechnicalKey = "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c"

// Provisioner llamadas de configuración de la cuenta en la API (no envían documentos).
type Provisioner struct {
	transport Transport
}

// NewProvisioner provisioner sobre el transporte dado.
func NewProvisioner(t Transport) *Provisioner {
	return &Provisioner{transport: t}
}

// CallResult resultado de una llamada de configuración.
type CallResult struct {
	Success bool
	Message string
	Body    map[string]any
}

// ConfigureSoftware registra el software de facturación (PUT /config/software).
func (p *Provisioner) ConfigureSoftware(ctx context.Context, s *entity.Settings) (*CallResult, error) {
	return p.configureSoftware(ctx, s, s.SoftwareID, s.SoftwarePIN, "software_id", "software_pin")
}

// ConfigureSupportSoftware registra el software de documento soporte; se llama antes de cada
// envío de documento soporte o nota de ajuste.
func (p *Provisioner) ConfigureSupportSoftware(ctx context.Context, s *entity.Settings) (*CallResult, error) {
	return p.configureSoftware(ctx, s, s.SupportSoftwareID, s.SupportSoftwarePIN, "ds_software_id", "ds_software_pin")
}

type softwareBody struct {
	ID  string `json:"id"`
	PIN int64  `json:"pin"`
}

func (p *Provisioner) configureSoftware(ctx context.Context, s *entity.Settings, id, pin, idField, pinField string) (*CallResult, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.NewValidationFailure(idField, "configure el Software ID")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(pin), 10, 64)
	if err != nil {
		return nil, domain.NewValidationFailure(pinField, fmt.Sprintf("el PIN %q no es numérico", pin))
	}
	return p.call(ctx, s, http.MethodPut, PathConfigSoftware, softwareBody{ID: strings.TrimSpace(id), PIN: n})
}

type resolutionBody struct {
	TypeDocumentID int    `json:"type_document_id"`
	Prefix         string `json:"prefix"`
	Resolution     string `json:"resolution"`
	ResolutionDate string `json:"resolution_date"`
	TechnicalKey   string `json:"technical_key"`
	From           int64  `json:"from"`
	To             int64  `json:"to"`
	DateFrom       string `json:"date_from"`
	DateTo         string `json:"date_to"`
}

// ConfigureResolution registra una resolución de numeración (PUT /config/resolution).
func (p *Provisioner) ConfigureResolution(ctx context.Context, s *entity.Settings, r *entity.Resolution) (*CallResult, error) {
	if r == nil {
		return nil, domain.NewValidationFailure("resolution", "resolución nula")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	body := resolutionBody{
		TypeDocumentID: r.Kind.TypeDocumentID(),
		Prefix:         r.Prefix,
		Resolution:     r.Resolution,
		ResolutionDate: formatDate(r.ResolutionDate),
		TechnicalKey:   firstString(r.TechnicalKey, defaultTechnicalKey),
		From:           r.From,
		To:             r.To,
		DateFrom:       formatDate(r.DateFrom),
		DateTo:         formatDate(r.DateTo),
	}
	return p.call(ctx, s, http.MethodPut, PathConfigResolution, body)
}

type environmentBody struct {
	TypeEnvironmentID int `json:"type_environment_id"`
}

// ConfigureEnvironment cambia el ambiente (1 producción, 2 habilitación). El llamador
// actualiza settings solo si la API respondió con éxito.
func (p *Provisioner) ConfigureEnvironment(ctx context.Context, s *entity.Settings, environment int) (*CallResult, error) {
	if environment != dian.EnvironmentProduction && environment != dian.EnvironmentTest {
		return nil, domain.NewValidationFailure("type_environment_id", fmt.Sprintf("ambiente %d inválido (1 producción, 2 habilitación)", environment))
	}
	res, err := p.call(ctx, s, http.MethodPut, PathConfigEnvironment, environmentBody{TypeEnvironmentID: environment})
	if err != nil {
		return nil, err
	}
	if res.Success {
		name := "Habilitación"
		if environment == dian.EnvironmentProduction {
			name = "Producción"
		}
		res.Message = fmt.Sprintf("Ambiente cambiado a %s exitosamente", name)
	}
	return res, nil
}

type numberingRangeBody struct {
	IDSoftware string `json:"IDSoftware"`
}

// NumberingRanges consulta a la DIAN las resoluciones asociadas al software.
func (p *Provisioner) NumberingRanges(ctx context.Context, s *entity.Settings) (*CallResult, error) {
	if strings.TrimSpace(s.SoftwareID) == "" {
		return nil, domain.NewValidationFailure("software_id", "configure el Software ID")
	}
	return p.call(ctx, s, http.MethodPost, PathNumberingRange, numberingRangeBody{IDSoftware: s.SoftwareID})
}

// TestConnection GET /plan/infoplanuser: valida URL y token.
func (p *Provisioner) TestConnection(ctx context.Context, s *entity.Settings) (*CallResult, error) {
	return p.call(ctx, s, http.MethodGet, PathPlanInfo, nil)
}

// Acquirer datos del adquiriente registrados en la DIAN.
type Acquirer struct {
	Name  string
	Email string
	Data  map[string]any
}

// LookupAcquirer consulta un tercero por código de tipo de documento (13 cédula, 31 NIT) y número.
func (p *Provisioner) LookupAcquirer(ctx context.Context, s *entity.Settings, typeCode, number string) (*Acquirer, error) {
	number = dian.DigitsOnly(number)
	if number == "" {
		return nil, domain.NewValidationFailure("identification_number", "número de documento vacío")
	}
	res, err := p.call(ctx, s, http.MethodGet, CustomerPath(strings.TrimSpace(typeCode), number), nil)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, &domain.TransportFailure{Message: res.Message}
	}
	result := dig(res.Body, "ResponseDian", "GetAcquirerResponse", "GetAcquirerResult")
	if len(result) == 0 {
		return nil, fmt.Errorf("apidian: tercero %s/%s: %w", typeCode, number, domain.ErrNotFound)
	}

	name := firstString(stringField(result, "ReceiverName"), stringField(result, "Name"), stringField(result, "BusinessName"))
	if name == "" {
		parts := []string{
			stringField(result, "FirstName"),
			stringField(result, "SecondName"),
			firstString(stringField(result, "FirstSurname"), stringField(result, "FamilyName")),
			stringField(result, "SecondSurname"),
		}
		name = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	}
	email := firstString(stringField(result, "ReceiverEmail"), stringField(result, "Email"), stringField(result, "ElectronicMail"))
	return &Acquirer{Name: name, Email: email, Data: result}, nil
}

// Artifact archivo generado por la API para un documento enviado.
type Artifact int

const (
	ArtifactPDF      Artifact = iota // representación gráfica
	ArtifactAttached                 // AttachedDocument (XML)
)

func (a Artifact) responseKey() string {
	if a == ArtifactAttached {
		return "urlinvoiceattached"
	}
	return "urlinvoicepdf"
}

// Download descarga un artefacto usando el nombre de archivo que la API devolvió al enviar.
func (p *Provisioner) Download(ctx context.Context, s *entity.Settings, stored map[string]any, a Artifact) (filename string, content []byte, err error) {
	filename = stringField(stored, a.responseKey())
	if filename == "" {
		return "", nil, fmt.Errorf("apidian: la respuesta guardada no trae %s: %w", a.responseKey(), domain.ErrNotFound)
	}
	resp, err := p.transport.Do(ctx, TargetFor(s), http.MethodGet, DownloadPath(s.CompanyNIT, filename), nil)
	if err != nil {
		return "", nil, err
	}
	if !resp.Success() {
		return "", nil, &domain.TransportFailure{StatusCode: resp.StatusCode, Message: resp.ErrorMessage()}
	}
	return filename, resp.Raw, nil
}

func (p *Provisioner) call(ctx context.Context, s *entity.Settings, method, path string, body any) (*CallResult, error) {
	if s == nil {
		return nil, errors.New("apidian: configuración no cargada")
	}
	resp, err := p.transport.Do(ctx, TargetFor(s), method, path, body)
	if err != nil {
		return nil, err
	}
	res := &CallResult{Success: resp.Success(), Body: resp.Body}
	if res.Success {
		res.Message = stringField(resp.Body, "message")
	} else {
		res.Message = resp.ErrorMessage()
	}
	return res, nil
}
