package folder_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-dian/internal/infrastructure/folder"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newDirs(t *testing.T) folder.Dirs {
	base := t.TempDir()
	watch := filepath.Join(base, "in")
	require.NoError(t, os.Mkdir(watch, 0o755))
	return folder.Dirs{Watch: watch, Processed: filepath.Join(base, "ok"), Failed: filepath.Join(base, "bad")}
}

func TestScanner_ListSoloXML(t *testing.T) {
	dirs := newDirs(t)
	writeFile(t, dirs.Watch, "b.xml", "<b/>")
	writeFile(t, dirs.Watch, "A.XML", "<a/>")
	writeFile(t, dirs.Watch, "notas.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dirs.Watch, "sub.xml"), 0o755))

	s, err := folder.NewScanner(dirs)
	require.NoError(t, err)
	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"A.XML", "b.xml"}, names)

	raw, err := s.Read("b.xml")
	require.NoError(t, err)
	assert.Equal(t, "<b/>", string(raw))
}

func TestScanner_MueveAProcesadosYFallidos(t *testing.T) {
	dirs := newDirs(t)
	writeFile(t, dirs.Watch, "ok.xml", "<ok/>")
	writeFile(t, dirs.Watch, "bad.xml", "<bad")
	s, err := folder.NewScanner(dirs)
	require.NoError(t, err)

	dst, err := s.MarkProcessed("ok.xml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dirs.Processed, "ok.xml"), dst)
	_, err = s.MarkFailed("bad.xml")
	require.NoError(t, err)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.FileExists(t, filepath.Join(dirs.Failed, "bad.xml"))
}

func TestScanner_NoSobrescribeEnDestino(t *testing.T) {
	dirs := newDirs(t)
	require.NoError(t, os.MkdirAll(dirs.Processed, 0o755))
	writeFile(t, dirs.Processed, "f.xml", "viejo")
	writeFile(t, dirs.Watch, "f.xml", "nuevo")
	s, err := folder.NewScanner(dirs)
	require.NoError(t, err)

	dst, err := s.MarkProcessed("f.xml")
	require.NoError(t, err)
	assert.NotEqual(t, filepath.Join(dirs.Processed, "f.xml"), dst)
	old, _ := os.ReadFile(filepath.Join(dirs.Processed, "f.xml"))
	assert.Equal(t, "viejo", string(old))
}

func TestScanner_CarpetaInexistente(t *testing.T) {
	_, err := folder.NewScanner(folder.Dirs{Watch: filepath.Join(t.TempDir(), "nada")})
	assert.Error(t, err)
	_, err = folder.NewScanner(folder.Dirs{})
	assert.Error(t, err)
}

func TestWatcher_EscaneaAlArrancarYPorIntervalo(t *testing.T) {
	dir := t.TempDir()
	var scans int32
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	w := folder.NewWatcher(dir, 50*time.Millisecond, false, nil)
	require.NoError(t, w.Run(ctx, func(context.Context) { atomic.AddInt32(&scans, 1) }))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&scans), int32(3))
}

func TestWatcher_FSNotifyDisparaEscaneo(t *testing.T) {
	dir := t.TempDir()
	scanned := make(chan struct{}, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := folder.NewWatcher(dir, 0, true, nil)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(context.Context) { scanned <- struct{}{} }) }()

	<-scanned // escaneo inicial
	writeFile(t, dir, "nuevo.xml", "<x/>")
	select {
	case <-scanned:
	case <-time.After(3 * time.Second):
		t.Fatal("fsnotify no disparó el escaneo")
	}
	cancel()
	assert.NoError(t, <-done)
}
