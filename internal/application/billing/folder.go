package billing

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturador-dian/internal/infrastructure/folder"
	"github.com/jhoicas/facturador-dian/pkg/config"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// ScanReport resultado de un escaneo de carpeta.
type ScanReport struct {
	BatchID  string
	Created  int
	Skipped  int
	Failed   int
	Files    []IngestResult
	Dispatch *BatchResult // solo con envío automático
}

// FolderUseCase importa los XML de la carpeta vigilada. Las carpetas de settings
// tienen prioridad sobre las de configuración.
type FolderUseCase struct {
	orch         *Orchestrator
	settings     SettingsSource
	defaults     config.FolderConfig
	autoDispatch bool
	workers      int
	log          *logger.Logger
	mu           sync.Mutex // un escaneo a la vez
}

// NewFolderUseCase construye el caso de uso.
func NewFolderUseCase(orch *Orchestrator, settings SettingsSource, cfg config.FolderConfig, dispatch config.DispatchConfig, log *logger.Logger) *FolderUseCase {
	if log == nil {
		log = logger.Nop()
	}
	workers := dispatch.Workers
	if workers <= 0 {
		workers = 1
	}
	return &FolderUseCase{
		orch:         orch,
		settings:     settings,
		defaults:     cfg,
		autoDispatch: dispatch.AutoAfterIngest,
		workers:      workers,
		log:          log.Component("folder"),
	}
}

// Dirs carpetas efectivas.
func (uc *FolderUseCase) Dirs(ctx context.Context) (folder.Dirs, error) {
	dirs := folder.Dirs{Watch: uc.defaults.Watch, Processed: uc.defaults.Processed, Failed: uc.defaults.Failed}
	s, err := uc.settings.Current(ctx)
	if err != nil {
		return dirs, err
	}
	if strings.TrimSpace(s.WatchFolder) != "" {
		dirs.Watch = s.WatchFolder
	}
	if strings.TrimSpace(s.ProcessedFolder) != "" {
		dirs.Processed = s.ProcessedFolder
	}
	return dirs, nil
}

// Scan importa todos los *.xml: los creados van a procesados, los ilegibles a fallidos
// y los ya conocidos se dejan donde están.
func (uc *FolderUseCase) Scan(ctx context.Context) (*ScanReport, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	dirs, err := uc.Dirs(ctx)
	if err != nil {
		return nil, err
	}
	scanner, err := folder.NewScanner(dirs)
	if err != nil {
		return nil, err
	}
	names, err := scanner.List()
	if err != nil {
		return nil, err
	}

	report := &ScanReport{BatchID: uuid.NewString(), Files: make([]IngestResult, len(names))}
	log := uc.log.Zerolog().With().Str("batch_id", report.BatchID).Str("dir", dirs.Watch).Logger()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			report.Files[i] = uc.ingestFile(gctx, scanner, name)
			return nil
		})
	}
	_ = g.Wait()

	for _, f := range report.Files {
		switch f.Outcome {
		case IngestCreated:
			report.Created++
		case IngestSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}
	if len(names) > 0 {
		log.Info().Int("created", report.Created).Int("skipped", report.Skipped).Int("failed", report.Failed).Msg("carpeta escaneada")
	}

	if uc.autoDispatch && report.Created > 0 {
		batch, err := uc.orch.SendAllPending(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("envío automático interrumpido")
		}
		report.Dispatch = batch
	}
	return report, nil
}

func (uc *FolderUseCase) ingestFile(ctx context.Context, scanner *folder.Scanner, name string) IngestResult {
	raw, err := scanner.Read(name)
	if err != nil {
		return IngestResult{Filename: name, Outcome: IngestFailed, Err: err}
	}
	res := uc.orch.Ingest(ctx, raw, name)
	switch {
	case res.Outcome == IngestCreated:
		if _, err := scanner.MarkProcessed(name); err != nil {
			uc.log.Warn().Err(err).Str("file", name).Msg("no se pudo mover a procesados")
		}
	case res.Outcome == IngestFailed && isParseFailure(res.Err):
		if _, err := scanner.MarkFailed(name); err != nil {
			uc.log.Warn().Err(err).Str("file", name).Msg("no se pudo mover a fallidos")
		}
	}
	return res
}

// Watch escanea periódicamente y ante eventos de la carpeta hasta que ctx termine.
func (uc *FolderUseCase) Watch(ctx context.Context) error {
	dirs, err := uc.Dirs(ctx)
	if err != nil {
		return err
	}
	w := folder.NewWatcher(dirs.Watch, uc.defaults.ScanInterval, uc.defaults.UseFSNotify, uc.log)
	return w.Run(ctx, func(ctx context.Context) {
		if _, err := uc.Scan(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("escaneo de carpeta")
		}
	})
}
