package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/jhoicas/facturador-dian/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/facturador-dian/pkg/config"
)

const usage = "Uso: migrate [up|down|steps N|version|force V]"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cargar configuración: %v", err)
	}

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		log.Fatalf("leer migraciones embebidas: %v", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.DB.ConnectionString())
	if err != nil {
		log.Fatalf("crear instancia de migrate: %v", err)
	}
	defer m.Close()

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch cmd := os.Args[1]; cmd {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migración up: %v", err)
		}
		log.Println("migraciones aplicadas")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migración down: %v", err)
		}
		log.Println("migraciones revertidas")

	case "steps":
		n := intArg("steps")
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migración steps: %v", err)
		}
		log.Printf("%d pasos aplicados", n)

	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("consultar versión: %v", err)
		}
		fmt.Printf("versión: %d, dirty: %v\n", version, dirty)

	case "force":
		v := intArg("force")
		if err := m.Force(v); err != nil {
			log.Fatalf("forzar versión: %v", err)
		}
		log.Printf("versión forzada a %d", v)

	default:
		fmt.Printf("comando desconocido: %s\n", cmd)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func intArg(cmd string) int {
	if len(os.Args) < 3 {
		log.Fatalf("%s requiere un argumento numérico", cmd)
	}
	n, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("argumento inválido para %s: %v", cmd, err)
	}
	return n
}
