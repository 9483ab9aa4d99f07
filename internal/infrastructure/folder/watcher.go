package folder

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jhoicas/facturador-dian/pkg/logger"
)

// debounce espera tras el último evento: el POS escribe el archivo en varias llamadas.
const debounce = 500 * time.Millisecond

// Watcher dispara un escaneo periódico y, si se habilita, cuando aparece un XML nuevo.
type Watcher struct {
	dir      string
	interval time.Duration
	notify   bool
	log      *logger.Logger
}

// NewWatcher interval <= 0 desactiva el escaneo periódico.
func NewWatcher(dir string, interval time.Duration, useFSNotify bool, log *logger.Logger) *Watcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Watcher{dir: dir, interval: interval, notify: useFSNotify, log: log.Component("folder_watcher")}
}

// Run llama a scan hasta que ctx termine. Nunca hay dos scan en paralelo.
func (w *Watcher) Run(ctx context.Context, scan func(context.Context)) error {
	var events chan fsnotify.Event
	var errs chan error
	if w.notify {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer fw.Close()
		if err := fw.Add(w.dir); err != nil {
			return err
		}
		events, errs = fw.Events, fw.Errors
		w.log.Info().Str("dir", w.dir).Msg("vigilando carpeta")
	}

	var tick <-chan time.Time
	if w.interval > 0 {
		t := time.NewTicker(w.interval)
		defer t.Stop()
		tick = t.C
	}

	pending := time.NewTimer(time.Hour)
	pending.Stop()
	defer pending.Stop()

	scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			scan(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 && IsXML(filepath.Base(ev.Name)) {
				pending.Reset(debounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Warn().Err(err).Msg("fsnotify")
		case <-pending.C:
			scan(ctx)
		}
	}
}
