// ingest importa XML de Siigo desde la línea de comandos, sin levantar el servidor HTTP.
//
// Uso:
//
//	go run ./cmd/ingest [--send] archivo.xml [archivo2.xml ...]
//	go run ./cmd/ingest --scan [--send]
//
// Con --scan procesa la carpeta vigilada configurada (FOLDER_WATCH o settings).
// Con --send envía a la DIAN todos los documentos pendientes al terminar.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jhoicas/facturador-dian/internal/application/billing"
	"github.com/jhoicas/facturador-dian/internal/bootstrap"
	"github.com/jhoicas/facturador-dian/pkg/config"
	"github.com/jhoicas/facturador-dian/pkg/logger"
)

func main() {
	scan := pflag.Bool("scan", false, "procesar la carpeta vigilada configurada")
	send := pflag.Bool("send", false, "enviar los documentos pendientes al terminar")
	pflag.Parse()

	if !*scan && pflag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Uso: ingest [--send] archivo.xml ... | ingest --scan [--send]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer a.Close()

	failed := 0
	if *scan {
		report, err := a.Folder.Scan(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("escanear carpeta")
		}
		for _, r := range report.Files {
			printIngest(r)
		}
		failed += report.Failed
		if report.Dispatch != nil {
			*send = false
			printBatch(report.Dispatch)
			failed += report.Dispatch.Failed
		}
	}

	for _, path := range pflag.Args() {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("%-40s  error       %v\n", filepath.Base(path), err)
			failed++
			continue
		}
		r := a.Orchestrator.Ingest(ctx, raw, filepath.Base(path))
		printIngest(r)
		if r.Outcome == billing.IngestFailed {
			failed++
		}
	}

	if *send {
		batch, err := a.Orchestrator.SendAllPending(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("envío de pendientes")
		}
		printBatch(batch)
		failed += batch.Failed
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func printIngest(r billing.IngestResult) {
	detail := ""
	switch {
	case r.Err != nil:
		detail = r.Err.Error()
	case r.DocumentID != 0:
		detail = fmt.Sprintf("documento %d", r.DocumentID)
	}
	fmt.Printf("%-40s  %-10s  %s\n", r.Filename, r.Outcome, detail)
}

func printBatch(b *billing.BatchResult) {
	fmt.Printf("lote %s: %d enviados, %d fallidos\n", b.BatchID, b.Sent, b.Failed)
	for _, r := range b.Results {
		msg := r.Message
		if r.Err != nil {
			msg = r.Err.Error()
		}
		fmt.Printf("  %-6d %-12s %-10s %s\n", r.DocumentID, r.Number, r.Status, msg)
	}
}
