package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/StarCycle/GraphExtract/internal/config"
	"github.com/StarCycle/GraphExtract/internal/pipeline"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// 2. Build the program graph
	report, err := pipeline.NewBuild(cfg, logger).Run(context.Background())
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}

	fmt.Printf("✨ Process complete! %d nodes written to %s\n", report.Result.Graph.NodeCount(), cfg.Output.JSON)
}
