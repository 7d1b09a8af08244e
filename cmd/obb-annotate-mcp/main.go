package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/obb-annotate-mcp/internal/config"
	"github.com/ironsheep/obb-annotate-mcp/internal/labels"
	"github.com/ironsheep/obb-annotate-mcp/internal/ledger"
	"github.com/ironsheep/obb-annotate-mcp/internal/server"
	"github.com/ironsheep/obb-annotate-mcp/internal/workspace"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("obb-annotate-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("obb-annotate-mcp - MCP server for oriented bounding box annotation")
			fmt.Println()
			fmt.Println("Usage: obb-annotate-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  OBB_ANNOTATE_CONFIG=path         JSON config file")
			fmt.Println("  OBB_ANNOTATE_LOG_LEVEL=debug     Log level (debug, info, warn, error)")
			fmt.Println("  OBB_ANNOTATE_LABEL_DIR=path      Write labels here instead of next to images")
			fmt.Println("  OBB_ANNOTATE_LEDGER_PATH=path    Track progress in a SQLite ledger")
			fmt.Println("  OBB_ANNOTATE_CLASSES_FILE=path   Load classes from a YAML manifest")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	cfg, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Log to stderr (stdout is for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	logger.Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(workspace.New(opts), server.Options{
		Logger:  logger,
		Resume:  cfg.Resume,
		Version: Version,
	})
	return srv.Run(ctx)
}
