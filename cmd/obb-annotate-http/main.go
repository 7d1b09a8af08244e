package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/obb-annotate-mcp/internal/config"
	"github.com/ironsheep/obb-annotate-mcp/internal/httpapi"
	"github.com/ironsheep/obb-annotate-mcp/internal/labels"
	"github.com/ironsheep/obb-annotate-mcp/internal/ledger"
	"github.com/ironsheep/obb-annotate-mcp/internal/workspace"
)

// Version information - set by ldflags during build
var Version = "dev"

func main() {
	var (
		configPath string
		addr       string
		dataset    string
		labelDir   string
		ledgerPath string
		resume     bool
		accessLog  bool
	)
	flag.StringVar(&configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "JSON config file")
	flag.StringVar(&addr, "addr", "", "listen address (overrides config)")
	flag.StringVar(&dataset, "dataset", "", "image directory to open on startup")
	flag.StringVar(&labelDir, "labels", "", "label output directory (overrides config)")
	flag.StringVar(&ledgerPath, "ledger", "", "SQLite progress ledger path (overrides config)")
	flag.BoolVar(&resume, "resume", false, "skip images already in the ledger")
	flag.BoolVar(&accessLog, "access-log", true, "log every request")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}
	if labelDir != "" {
		cfg.LabelDir = labelDir
	}
	if ledgerPath != "" {
		cfg.LedgerPath = ledgerPath
	}
	if resume {
		cfg.Resume = true
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	if err := run(cfg, dataset, accessLog, logger); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, dataset string, accessLog bool, logger *slog.Logger) error {
	list, err := cfg.Classes()
	if err != nil {
		return err
	}

	opts := workspace.Options{
		Logger:        logger,
		Writer:        labels.NewDirWriter(cfg.LabelDir, cfg.LabelExt),
		Classes:       list,
		AngleMode:     cfg.AngleMode,
		ClassesFile:   cfg.ClassesFile,
		OCRLanguage:   cfg.OCRLanguage,
		PreviewFormat: cfg.PreviewFormat,
	}
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		opts.Ledger = l
	}
	ws := workspace.New(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dataset != "" {
		st, err := ws.OpenDataset(ctx, dataset, cfg.Resume)
		if err != nil {
			return err
		}
		logger.Info("dataset ready", "dir", dataset, "image", st.Image, "total", st.Total)
	}

	app := httpapi.NewApp(ws, httpapi.Config{
		AppName:      "obb-annotate " + Version,
		ReadTimeout:  time.Duration(cfg.ReadTimeout),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
		Resume:       cfg.Resume,
		AccessLog:    accessLog,
		Logger:       logger,
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr)
	return app.Listen(cfg.HTTPAddr)
}
