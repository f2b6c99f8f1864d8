package main

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/RSKPixel/wealth/internal/amfi"
	"github.com/RSKPixel/wealth/internal/api"
	"github.com/RSKPixel/wealth/internal/config"
	"github.com/RSKPixel/wealth/internal/database"
	"github.com/RSKPixel/wealth/internal/domain"
	"github.com/RSKPixel/wealth/internal/eod"
	"github.com/RSKPixel/wealth/internal/export"
	"github.com/RSKPixel/wealth/internal/ingest"
	"github.com/RSKPixel/wealth/internal/ledger"
	"github.com/RSKPixel/wealth/internal/normalize"
	"github.com/RSKPixel/wealth/internal/pdftext"
	"github.com/RSKPixel/wealth/internal/portfolio"
	"github.com/RSKPixel/wealth/internal/statement"
	"github.com/RSKPixel/wealth/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Load()
	setupLogging(cfg)

	app := &cli.App{
		Name:  "wealth",
		Usage: "mutual fund statement ingestion and NAV service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API and the daily NAV worker",
				Action: func(c *cli.Context) error {
					return serve(c.Context, cfg)
				},
			},
			{
				Name:  "parse",
				Usage: "parse a statement PDF and print its transactions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "statement PDF", Required: true},
					&cli.StringFlag{Name: "pan", Usage: "client PAN", Required: true},
					&cli.StringFlag{Name: "password", Usage: "document password"},
					&cli.StringFlag{Name: "xlsx", Usage: "write transactions to this workbook instead of stdout"},
					&cli.BoolFlag{Name: "store", Usage: "upsert transactions into the ledger"},
				},
				Action: func(c *cli.Context) error {
					return parse(c, cfg)
				},
			},
			{
				Name:  "eod",
				Usage: "fetch the NAV feed once and store NAVs for held instruments",
				Action: func(c *cli.Context) error {
					return runEOD(c.Context, cfg)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("wealth: command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func referenceCache(cfg config.Config) *amfi.Cache {
	client := amfi.NewClient(cfg.AMFINAVURL, cfg.AMFITimeout, cfg.AMFIRetryMax, cfg.AMFIRetryBaseDelay)
	return amfi.NewCache(client, amfi.NewArchive(cfg.AMFIArchivePath), cfg.AMFICacheTTL)
}

func schemeTypes(cfg config.Config) (eod.SchemeTypes, error) {
	if cfg.SchemeTypesPath == "" {
		return nil, nil
	}
	return eod.LoadSchemeTypes(cfg.SchemeTypesPath)
}

func ingestService(ctx context.Context, cfg config.Config, refs *amfi.Cache, repo ledger.Repository) (*ingest.Service, error) {
	normalizer := normalize.NewNormalizer(domain.DirectionLabels{
		Acquisition: cfg.AcquisitionLabel,
		Disposal:    cfg.DisposalLabel,
	})

	var hooks []ingest.AfterIngestHook
	if cfg.GoogleSheetsID != "" && cfg.GoogleCredentialsJSON != "" {
		sheetsWriter, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		hooks = append(hooks, export.NewService(sheetsWriter))
		slog.Info("Google Sheets export enabled")
	}

	return ingest.NewService(pdftext.NewExtractor(), refs, statement.CAMSPatterns, normalizer, repo, hooks...), nil
}

func serve(ctx context.Context, cfg config.Config) error {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	types, err := schemeTypes(cfg)
	if err != nil {
		return err
	}

	refs := referenceCache(cfg)
	ledgerRepo := ledger.NewPgRepository(pool)
	ingestSvc, err := ingestService(ctx, cfg, refs, ledgerRepo)
	if err != nil {
		return err
	}
	eodSvc := eod.NewService(refs, ledgerRepo, eod.NewPgRepository(pool), types)

	navWorker := worker.NewNAVWorker(eodSvc, cfg.NAVWorkerInterval)
	go navWorker.Run(ctx)

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, eod endpoint is unprotected")
	}

	holdingsSvc := portfolio.NewService(ledgerRepo, refs, eodSvc)
	handler := api.NewHandler(ingestSvc, refs, eodSvc, pool, cfg.MaxUploadBytes).WithHoldings(holdingsSvc)
	srv := api.NewServer(cfg.HTTPPort, handler, cfg.AdminAPIKey, cfg.CORSOrigins)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-serveCtx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}

func parse(c *cli.Context, cfg config.Config) error {
	ctx := c.Context

	doc, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	var repo ledger.Repository
	if c.Bool("store") {
		pool, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo = ledger.NewPgRepository(pool)
	}

	svc, err := ingestService(ctx, cfg, referenceCache(cfg), repo)
	if err != nil {
		return err
	}

	res, err := svc.Process(ctx, ingest.Upload{
		Filename:    c.String("file"),
		ContentType: ingest.ContentTypePDF,
		Document:    doc,
		Password:    c.String("password"),
		ClientPAN:   c.String("pan"),
	})
	if err != nil {
		return err
	}

	if path := c.String("xlsx"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating workbook: %w", err)
		}
		if err := export.WriteXLSX(f, res.Data); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing workbook: %w", err)
		}
		slog.Info("workbook written", "path", path, "transactions", len(res.Data))
		return nil
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func runEOD(ctx context.Context, cfg config.Config) error {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	types, err := schemeTypes(cfg)
	if err != nil {
		return err
	}

	svc := eod.NewService(referenceCache(cfg), ledger.NewPgRepository(pool), eod.NewPgRepository(pool), types)
	n, err := svc.FetchAndStore(ctx)
	if err != nil {
		return err
	}
	slog.Info("end-of-day NAVs stored", "count", n)
	return nil
}
