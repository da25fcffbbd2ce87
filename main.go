// Package main is the entry point for the distributor service.
package main

import (
	"log"
	"os"

	"github.com/blogforge/distributor/internal/app"
	"github.com/blogforge/distributor/internal/config"
	"github.com/blogforge/distributor/internal/logger"
)

var (
	// version can be set at build time via -ldflags
	version = "dev"
)

func main() {
	command := "both"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "both", "all":
		run(app.Options{Server: true, Scheduler: true})
	case "serve", "api":
		run(app.Options{Server: true})
	case "scheduler":
		run(app.Options{Server: false, Scheduler: true})
	case "version":
		log.Printf("Distributor version %s\n", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)
	default:
		log.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(opts app.Options) {
	cfg, err := config.Load(os.Getenv("DISTRIBUTOR_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Distributor starting",
		logger.String("version", version),
		logger.Bool("server", opts.Server),
		logger.Bool("scheduler", opts.Scheduler),
	)

	engine, err := app.New(cfg, appLogger, opts)
	if err != nil {
		appLogger.Error("Failed to assemble engine", logger.Error(err))
		os.Exit(1)
	}
	if err := engine.Run(); err != nil {
		appLogger.Error("Engine stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func printUsage() {
	log.Println("Distributor Service - Multi-command CLI")
	log.Println()
	log.Println("Usage:")
	log.Println("  distributor [command]")
	log.Println()
	log.Println("Commands:")
	log.Println("  both       Start the HTTP API server and publish scheduler (default)")
	log.Println("  serve      Start the HTTP API server only")
	log.Println("  scheduler  Start the publish scheduler only")
	log.Println("  version    Print version information")
	log.Println("  help       Show this help message")
	log.Println()
	log.Println("Environment Variables:")
	log.Println("  Registry database:")
	log.Println("    POSTGRES_ADMIN_HOST      - PostgreSQL host")
	log.Println("    POSTGRES_ADMIN_PORT      - PostgreSQL port (default: 5432)")
	log.Println("    POSTGRES_ADMIN_USER      - PostgreSQL user (default: postgres)")
	log.Println("    POSTGRES_ADMIN_PASSWORD  - PostgreSQL password")
	log.Println("    POSTGRES_ADMIN_DB        - PostgreSQL database")
	log.Println()
	log.Println("  API Server:")
	log.Println("    DISTRIBUTOR_PORT         - HTTP port (default: 8090)")
	log.Println("    DISTRIBUTOR_CONFIG       - Path to YAML config file (optional)")
	log.Println("    APP_DEBUG                - Enable debug logging (default: false)")
	log.Println()
	log.Println("  Cache and storage:")
	log.Println("    REDIS_ADDR               - Redis address")
	log.Println("    REDIS_PASSWORD           - Redis password (optional)")
	log.Println("    STORAGE_ENDPOINT         - Default S3-compatible endpoint")
	log.Println("    STORAGE_ACCESS_KEY       - Default storage access key")
	log.Println("    STORAGE_SECRET_KEY       - Default storage secret key")
	log.Println("    STORAGE_BUCKET           - Default bucket (default: distributor-assets)")
	log.Println("    STORAGE_PUBLIC_URL       - Public base URL for uploaded assets")
	log.Println()
	log.Println("  Content generation:")
	log.Println("    GENERATOR_URL            - Content generation service URL")
	log.Println("    GENERATOR_TOKEN          - Bearer token (optional)")
}
