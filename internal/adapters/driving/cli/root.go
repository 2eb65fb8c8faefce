// Package cli implements the command-line interface. Commands talk to
// the engine through the driving ports; service wiring happens once in
// the root command's PersistentPreRunE.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragd/internal/adapters/driven/embedding/hybrid"
	"github.com/custodia-labs/ragd/internal/adapters/driven/embedding/lexical"
	"github.com/custodia-labs/ragd/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragd/internal/adapters/driven/rerank/cohere"
	"github.com/custodia-labs/ragd/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragd/internal/config"
	"github.com/custodia-labs/ragd/internal/core/domain"
	"github.com/custodia-labs/ragd/internal/core/ports/driven"
	"github.com/custodia-labs/ragd/internal/core/ports/driving"
	"github.com/custodia-labs/ragd/internal/core/services"
	"github.com/custodia-labs/ragd/internal/logger"
	"github.com/custodia-labs/ragd/internal/tokenizer"
)

var version = "0.1.0"

// Package-level services shared by commands. Tests swap these.
var (
	cfg      *config.Config
	registry driving.Registry
	store    *sqlite.Store
)

// Persistent flags.
var (
	tenantFlag  string
	configFlag  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "Multi-tenant document indexing and retrieval",
	Long: `ragd indexes documents into per-tenant collections and retrieves
them with hybrid dense and sparse vector search, optionally refined by
a second-stage reranker.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if registry != nil {
			// Already wired (tests inject services)
			return nil
		}
		return initServices()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if store != nil {
			err := store.Close()
			store = nil
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tenantFlag, "tenant", "t", "default", "tenant whose collection to operate on")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "path to config file (default ~/.ragd/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initServices wires the production adapters into a tenant registry.
func initServices() error {
	var err error
	cfg, err = config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	store, err = sqlite.NewStore(dataDir, sqlite.WithHybridAlpha(cfg.Search.Alpha))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	dense, err := openai.NewEmbeddingService(openai.Config{
		APIKey:            cfg.Embedding.APIKey,
		BaseURL:           cfg.Embedding.BaseURL,
		Model:             cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("embedding service: %w", err)
	}
	embedder := hybrid.NewEmbeddingService(dense, lexical.NewEncoder(0))

	var reranker *cohere.Reranker
	if cfg.Rerank.Enabled {
		reranker, err = cohere.NewReranker(cohere.Config{
			APIKey:  cfg.Rerank.APIKey,
			BaseURL: cfg.Rerank.BaseURL,
			Model:   cfg.Rerank.Model,
		})
		if err != nil {
			return fmt.Errorf("reranker: %w", err)
		}
	}

	tokens := tokenizer.NewCounter("")

	registry, err = services.NewRegistry(func(_ context.Context, tenant domain.Tenant) (driving.Engine, error) {
		engineCfg := services.EngineConfig{
			Tenant:       tenant,
			Prefix:       cfg.Prefix,
			ChunkSize:    cfg.Chunking.Size,
			ChunkOverlap: cfg.Chunking.Overlap,
			DefaultMode:  domain.SearchMode(cfg.Search.Mode),
			MaxTopK:      cfg.Search.MaxTopK,
		}
		var rr driven.Reranker
		if reranker != nil {
			rr = reranker
		}
		eng, err := services.NewEngine(engineCfg, embedder, rr, store.DocumentStore(), store.VectorIndex(), tokens)
		if err != nil {
			return nil, err
		}
		return eng, nil
	})
	if err != nil {
		return fmt.Errorf("engine registry: %w", err)
	}
	return nil
}

// engineForTenant resolves the engine for the --tenant flag.
func engineForTenant(cmd *cobra.Command) (driving.Engine, error) {
	if registry == nil {
		return nil, fmt.Errorf("engine registry not configured")
	}
	return registry.GetOrCreate(cmd.Context(), tenantFlag, true)
}
