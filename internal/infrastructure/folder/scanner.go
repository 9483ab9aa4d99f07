// Package folder lee los XML que el POS deja en la carpeta vigilada y los mueve
// a procesados o fallidos según el resultado de la importación.
package folder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Dirs carpetas de trabajo. Processed y Failed vacías dejan los archivos en su sitio.
type Dirs struct {
	Watch     string
	Processed string
	Failed    string
}

// Scanner acceso a la carpeta vigilada.
type Scanner struct {
	dirs Dirs
	now  func() time.Time
}

// NewScanner valida que la carpeta vigilada exista.
func NewScanner(dirs Dirs) (*Scanner, error) {
	if strings.TrimSpace(dirs.Watch) == "" {
		return nil, errors.New("folder: carpeta vigilada no configurada")
	}
	info, err := os.Stat(dirs.Watch)
	if err != nil {
		return nil, fmt.Errorf("folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("folder: %s no es una carpeta", dirs.Watch)
	}
	return &Scanner{dirs: dirs, now: time.Now}, nil
}

// Dirs carpetas configuradas.
func (s *Scanner) Dirs() Dirs { return s.dirs }

// List nombres de los *.xml de la carpeta vigilada (sin subcarpetas), ordenados.
func (s *Scanner) List() ([]string, error) {
	entries, err := os.ReadDir(s.dirs.Watch)
	if err != nil {
		return nil, fmt.Errorf("folder: listar %s: %w", s.dirs.Watch, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsXML(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Read contenido del archivo.
func (s *Scanner) Read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dirs.Watch, filepath.Base(name)))
}

// MarkProcessed mueve el archivo a la carpeta de procesados.
func (s *Scanner) MarkProcessed(name string) (string, error) {
	return s.move(name, s.dirs.Processed)
}

// MarkFailed mueve el archivo a la carpeta de fallidos; un rescan no lo vuelve a intentar.
func (s *Scanner) MarkFailed(name string) (string, error) {
	return s.move(name, s.dirs.Failed)
}

func (s *Scanner) move(name, dir string) (string, error) {
	name = filepath.Base(name)
	src := filepath.Join(s.dirs.Watch, name)
	if strings.TrimSpace(dir) == "" {
		return src, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("folder: crear %s: %w", dir, err)
	}
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(name)
		dst = filepath.Join(dir, fmt.Sprintf("%s_%s%s", strings.TrimSuffix(name, ext), s.now().Format("20060102150405"), ext))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("folder: %w", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("folder: mover %s: %w", name, err)
	}
	return dst, nil
}

// IsXML extensión .xml sin importar mayúsculas.
func IsXML(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xml")
}
