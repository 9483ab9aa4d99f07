package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/facturador-dian/internal/domain"
	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
	"github.com/jhoicas/facturador-dian/pkg/dian"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// ProvisioningUseCase configuración de la cuenta en la API (software, resoluciones, ambiente)
// y consultas auxiliares.
type ProvisioningUseCase struct {
	provisioner *apidian.Provisioner
	settings    *SettingsService
	resolutions repository.ResolutionRepository
	docs        repository.DocumentRepository
	log         *logger.Logger
}

// NewProvisioningUseCase construye el caso de uso.
func NewProvisioningUseCase(
	transport apidian.Transport,
	settings *SettingsService,
	resolutions repository.ResolutionRepository,
	docs repository.DocumentRepository,
	log *logger.Logger,
) *ProvisioningUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ProvisioningUseCase{
		provisioner: apidian.NewProvisioner(transport),
		settings:    settings,
		resolutions: resolutions,
		docs:        docs,
		log:         log.Component("provisioning"),
	}
}

// ConfigureSoftware registra el software de facturación; support=true usa las credenciales DS.
func (uc *ProvisioningUseCase) ConfigureSoftware(ctx context.Context, support bool) (*apidian.CallResult, error) {
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	var res *apidian.CallResult
	if support {
		res, err = uc.provisioner.ConfigureSupportSoftware(ctx, s)
	} else {
		res, err = uc.provisioner.ConfigureSoftware(ctx, s)
	}
	uc.logCall("config_software", res, err)
	return res, err
}

// SyncResolution envía la resolución a la API y la marca sincronizada si la API la acepta.
func (uc *ProvisioningUseCase) SyncResolution(ctx context.Context, id int64) (*apidian.CallResult, error) {
	r, err := uc.resolutions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	res, err := uc.provisioner.ConfigureResolution(ctx, s, r)
	uc.logCall("config_resolution", res, err)
	if err != nil || !res.Success {
		return res, err
	}
	r.SyncedWithAPI = true
	if err := uc.resolutions.Update(ctx, r); err != nil {
		return res, err
	}
	return res, nil
}

// SwitchEnvironment cambia el ambiente en la API y, si responde bien, en settings.
// Pasar a producción borra el test_set_id.
func (uc *ProvisioningUseCase) SwitchEnvironment(ctx context.Context, environment int) (*apidian.CallResult, error) {
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	res, err := uc.provisioner.ConfigureEnvironment(ctx, s, environment)
	uc.logCall("config_environment", res, err)
	if err != nil || !res.Success {
		return res, err
	}
	_, err = uc.settings.Update(ctx, func(cur *entity.Settings) error {
		cur.Environment = environment
		if environment == dian.EnvironmentProduction {
			cur.TestSetID = ""
		}
		return nil
	})
	return res, err
}

// NumberingRanges rangos autorizados para el software configurado.
func (uc *ProvisioningUseCase) NumberingRanges(ctx context.Context) (*apidian.CallResult, error) {
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	res, err := uc.provisioner.NumberingRanges(ctx, s)
	uc.logCall("numbering_range", res, err)
	return res, err
}

// TestConnection comprueba URL y token.
func (uc *ProvisioningUseCase) TestConnection(ctx context.Context) (*apidian.CallResult, error) {
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	res, err := uc.provisioner.TestConnection(ctx, s)
	uc.logCall("test_connection", res, err)
	return res, err
}

// LookupAcquirer nombre y correo registrados en la DIAN para una identificación.
func (uc *ProvisioningUseCase) LookupAcquirer(ctx context.Context, typeCode, number string) (*apidian.Acquirer, error) {
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	return uc.provisioner.LookupAcquirer(ctx, s, typeCode, number)
}

// DownloadArtifact descarga el PDF o el attached document de un documento aceptado.
func (uc *ProvisioningUseCase) DownloadArtifact(ctx context.Context, docID int64, artifact apidian.Artifact) (string, []byte, error) {
	doc, err := uc.docs.GetByID(ctx, docID)
	if err != nil {
		return "", nil, err
	}
	if doc == nil {
		return "", nil, domain.ErrNotFound
	}
	if doc.Status != entity.StatusSent || len(doc.APIResponse) == 0 {
		return "", nil, fmt.Errorf("%w: el documento %s no ha sido aceptado", domain.ErrInvalidInput, doc.FullNumber())
	}
	var stored map[string]any
	if err := json.Unmarshal(doc.APIResponse, &stored); err != nil {
		return "", nil, fmt.Errorf("respuesta guardada ilegible: %w", err)
	}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return "", nil, err
	}
	return uc.provisioner.Download(ctx, s, stored, artifact)
}

func (uc *ProvisioningUseCase) logCall(op string, res *apidian.CallResult, err error) {
	switch {
	case err != nil:
		uc.log.Error().Err(err).Str("op", op).Msg("llamada de configuración")
	case !res.Success:
		uc.log.Warn().Str("op", op).Str("message", res.Message).Msg("la API rechazó la configuración")
	default:
		uc.log.Info().Str("op", op).Msg("configuración aplicada en la API")
	}
}
