package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/StarCycle/GraphExtract/internal/config"
	"github.com/StarCycle/GraphExtract/internal/pipeline"
	"github.com/StarCycle/GraphExtract/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "graphextract",
		Short: "Stitch per-method control-flow graphs into one program graph",
	}
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML configuration")

	buildCmd.Flags().Int("bound", -1, "Counter index bound (0 sizes it automatically; overrides config)")
	buildCmd.Flags().String("methods", "", "Path to the method export (overrides config)")
	runsCmd.Flags().String("db", "", "SQLite database holding stored runs (defaults to output.db)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(vocabCmd)
	rootCmd.AddCommand(runsCmd)
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist.
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if os.IsNotExist(err) {
		fmt.Printf("⚠️  %s not found, using defaults\n", configPath)
		return config.Default()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the program graph from a method export",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if bound, _ := cmd.Flags().GetInt("bound"); bound >= 0 {
			cfg.Input.CounterBound = bound
		}
		if methods, _ := cmd.Flags().GetString("methods"); methods != "" {
			cfg.Input.Methods = methods
		}
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid config: %v", err)
		}

		b := pipeline.NewBuild(cfg, newLogger(cfg.Log.Level))
		if _, err := b.Run(context.Background()); err != nil {
			log.Fatalf("Build failed: %v", err)
		}
	},
}

var vocabCmd = &cobra.Command{
	Use:   "vocab [root]",
	Short: "Embed the vocabulary of a C/C++ source tree for embedding features",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		root := ""
		if len(args) > 0 {
			root = args[0]
		}

		v := pipeline.NewVocab(cfg, newLogger(cfg.Log.Level))
		if _, err := v.Run(context.Background(), root); err != nil {
			log.Fatalf("Vocabulary build failed: %v", err)
		}
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the runs stored in the database",
	Run: func(cmd *cobra.Command, args []string) {
		dbPath, _ := cmd.Flags().GetString("db")
		if dbPath == "" {
			dbPath = loadConfig().Output.DB
		}
		if dbPath == "" {
			log.Fatal("No database configured (set output.db or pass --db)")
		}

		store, err := storage.NewSQLiteStore(dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer store.Close()

		runs, err := store.ListRuns(context.Background())
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("📭 No runs stored.")
			return
		}
		for _, r := range runs {
			fmt.Printf("%s  %s  methods=%d nodes=%d edges=%d bound=%d\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Methods, r.Nodes, r.Edges, r.CounterBound)
		}
	},
}
