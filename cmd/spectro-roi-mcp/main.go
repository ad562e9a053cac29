package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ironsheep/spectro-roi/internal/config"
	"github.com/ironsheep/spectro-roi/internal/logger"
	"github.com/ironsheep/spectro-roi/internal/server"
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
			fmt.Printf("spectro-roi-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("spectro-roi-mcp - MCP server for spectrogram region detection")
			fmt.Println()
			fmt.Println("Usage: spectro-roi-mcp [-config config.yaml]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  -config PATH     Detection configuration (required for spectrogram_seek)")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SPECTRO_ROI_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			return
		}
	}

	configPath := flag.String("config", "", "Path to the YAML configuration")
	flag.Parse()

	// Logging goes to stderr; stdout is for MCP protocol.
	level, err := logger.ParseLevel(os.Getenv("SPECTRO_ROI_LOG_LEVEL"))
	if err != nil {
		level = logger.INFO
	}
	logger.Init(level, os.Stderr, false)
	logger.Debug("main", "Spectro ROI MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	var cfg *config.Config
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Error("main", "%v", err)
			os.Exit(1)
		}
		logger.Info("main", "loaded %d targets from %s", len(cfg.Targets), *configPath)
	}

	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		logger.Error("main", "Server error: %v", err)
		os.Exit(1)
	}
}
