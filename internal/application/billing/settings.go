package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/pkg/dian"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

var _ SettingsSource = (*SettingsService)(nil)

// SettingsService lee y actualiza la fila única de configuración.
// La primera lectura crea la fila con valores por defecto.
type SettingsService struct {
	repo          repository.SettingsRepository
	defaultAPIURL string
	log           *logger.Logger
	mu            sync.Mutex
}

// NewSettingsService construye el servicio. defaultAPIURL se usa solo al crear la fila.
func NewSettingsService(repo repository.SettingsRepository, defaultAPIURL string, log *logger.Logger) *SettingsService {
	if log == nil {
		log = logger.Nop()
	}
	return &SettingsService{repo: repo, defaultAPIURL: defaultAPIURL, log: log.Component("settings")}
}

// Current devuelve la configuración vigente (copia).
func (s *SettingsService) Current(ctx context.Context) (*entity.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("leer configuración: %w", err)
	}
	if cur != nil {
		return cur, nil
	}
	cur = entity.DefaultSettings(s.defaultAPIURL)
	if err := s.repo.Save(ctx, cur); err != nil {
		return nil, fmt.Errorf("crear configuración: %w", err)
	}
	s.log.Info().Str("api_url", cur.APIURL).Msg("configuración creada con valores por defecto")
	return cur.Clone(), nil
}

// Update aplica fn sobre la configuración vigente, valida y persiste.
func (s *SettingsService) Update(ctx context.Context, fn func(*entity.Settings) error) (*entity.Settings, error) {
	cur, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(cur); err != nil {
		return nil, err
	}
	if err := validateSettings(cur); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.Save(ctx, cur); err != nil {
		return nil, fmt.Errorf("guardar configuración: %w", err)
	}
	s.log.Info().Int("environment", cur.Environment).Msg("configuración actualizada")
	return cur.Clone(), nil
}

func validateSettings(c *entity.Settings) error {
	if c.Environment != dian.EnvironmentProduction && c.Environment != dian.EnvironmentTest {
		return domain.NewValidationFailure("type_environment_id", fmt.Sprintf("ambiente %d no soportado", c.Environment))
	}
	nit := strings.TrimSpace(c.CompanyNIT)
	if nit != "" && dian.DigitsOnly(nit) != nit {
		return domain.NewValidationFailure("company_nit", "el NIT debe ser numérico, sin dígito de verificación")
	}
	if nit != "" && strings.TrimSpace(c.CompanyDV) == "" {
		c.CompanyDV = dian.VerificationDigitString(nit)
	}
	for field, v := range map[string]string{"software_pin": c.SoftwarePIN, "ds_software_pin": c.SupportSoftwarePIN} {
		v = strings.TrimSpace(v)
		if v != "" && dian.DigitsOnly(v) != v {
			return domain.NewValidationFailure(field, "el PIN debe ser numérico")
		}
	}
	return nil
}
