// Package bootstrap arma las dependencias compartidas por los binarios de cmd/.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/apidian"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/memory"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/facturador-dian/internal/infrastructure/pdf"
	"github.com/jhoicas/facturador-dian/internal/infrastructure/postgres"
	"github.com/jhoicas/facturador-dian/pkg/config"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// Backends de almacenamiento soportados en APP_STORAGE.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Storage repositorios de un backend.
type Storage struct {
	Documents   repository.DocumentRepository
	Resolutions repository.ResolutionRepository
	Customers   repository.CustomerRepository
	Products    repository.ProductRepository
	Settings    repository.SettingsRepository
	Tx          billing.BillingTxRunner
	Close       func()
}

// OpenStorage abre el backend configurado. memory no persiste entre reinicios.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.App.Storage {
	case StorageMemory:
		st := memory.NewStore()
		return &Storage{
			Documents:   st.Documents(),
			Resolutions: st.Resolutions(),
			Customers:   st.Customers(),
			Products:    st.Products(),
			Settings:    st.Settings(),
			Tx:          st.TxRunner(),
			Close:       func() {},
		}, nil
	case StoragePostgres, "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Documents:   postgres.NewDocumentRepository(pool),
			Resolutions: postgres.NewResolutionRepository(pool),
			Customers:   postgres.NewCustomerRepository(pool),
			Products:    postgres.NewProductRepository(pool),
			Settings:    postgres.NewSettingsRepository(pool),
			Tx:          postgres.NewTxRunner(pool),
			Close:       pool.Close,
		}, nil
	default:
		return nil, fmt.Errorf("APP_STORAGE %q no soportado (postgres | memory)", cfg.App.Storage)
	}
}

// App casos de uso listos para exponer.
type App struct {
	Storage      *Storage
	Metrics      *metrics.Metrics
	Settings     *billing.SettingsService
	Orchestrator *billing.Orchestrator
	Documents    *billing.DocumentQueryUseCase
	Customers    *billing.CustomerUseCase
	Products     *billing.ProductUseCase
	Resolutions  *billing.ResolutionUseCase
	Provisioning *billing.ProvisioningUseCase
	Folder       *billing.FolderUseCase
}

// Build conecta almacenamiento, cliente de la API, métricas y casos de uso.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	st, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New(true)
	client := apidian.NewClient(cfg.APIDian, log)
	settings := billing.NewSettingsService(st.Settings, cfg.APIDian.BaseURL, log)

	orch := billing.NewOrchestrator(billing.Deps{
		Documents:   st.Documents,
		Resolutions: st.Resolutions,
		Customers:   st.Customers,
		Products:    st.Products,
		Tx:          st.Tx,
		Settings:    settings,
		Transport:   client,
		Metrics:     m,
		Log:         log,
	}, billing.Config{
		SendTimeout:     cfg.APIDian.Timeout,
		Workers:         cfg.Dispatch.Workers,
		MaxMessageRunes: cfg.Dispatch.MaxMessageRunes,
	})

	return &App{
		Storage:      st,
		Metrics:      m,
		Settings:     settings,
		Orchestrator: orch,
		Documents:    billing.NewDocumentQueryUseCase(st.Documents, settings, infrapdf.NewMarotoPDFGenerator()),
		Customers:    billing.NewCustomerUseCase(st.Customers),
		Products:     billing.NewProductUseCase(st.Products),
		Resolutions:  billing.NewResolutionUseCase(st.Resolutions),
		Provisioning: billing.NewProvisioningUseCase(client, settings, st.Resolutions, st.Documents, log),
		Folder:       billing.NewFolderUseCase(orch, settings, cfg.Folder, cfg.Dispatch, log),
	}, nil
}

// Close libera el almacenamiento.
func (a *App) Close() {
	if a.Storage != nil && a.Storage.Close != nil {
		a.Storage.Close()
	}
}
