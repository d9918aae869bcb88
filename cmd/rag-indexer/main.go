package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/fatih/color"

	"github.com/andrew/rag-pipeline/pkg/config"
	"github.com/andrew/rag-pipeline/pkg/ingest"
	"github.com/andrew/rag-pipeline/pkg/llm"
	"github.com/andrew/rag-pipeline/pkg/vector"
)

// logError logs an error with file and line information
func logError(err error) {
	_, file, line, _ := runtime.Caller(1)
	log.Fatalf("😡 %s:%d - %v", file, line, err)
}

// logDebug prints debug information only when debug mode is enabled
func logDebug(format string, args ...interface{}) {
	if debugMode {
		fmt.Printf(format+"\n", args...)
	}
}

var (
	debugMode = false // Global debug flag
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	batchPath := flag.String("batch", "", "Path to the batch JSON file to ingest")
	recreate := flag.Bool("recreate", false, "Recreate the collection if it exists")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	debugMode = *debug

	if *batchPath == "" {
		logError(fmt.Errorf("missing required -batch flag"))
	}

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logError(err)
	}

	// Connect to the vector store
	store, err := newStore(cfg)
	if err != nil {
		logError(err)
	}
	defer store.Close()
	logDebug("✅ Connected to %s vector store", cfg.StoreType)

	if *recreate {
		logDebug("🗑️ Dropping existing collection: %s", cfg.Collection.Name)
		if err := store.Drop(ctx); err != nil {
			logDebug("⚠️ Drop failed (collection may not exist): %v", err)
		}
	}

	// Provision the collection; a no-op when it already exists
	err = store.EnsureCollection(ctx, vector.CollectionConfig{
		Dimension:       cfg.Collection.Dimension,
		Distance:        cfg.Collection.Distance,
		HNSWM:           cfg.Collection.HNSWM,
		HNSWEfConstruct: cfg.Collection.HNSWEfConstruct,
	})
	if err != nil {
		logError(fmt.Errorf("failed to setup collection: %w", err))
	}
	logDebug("✅ Collection '%s' ready", cfg.Collection.Name)

	// Set up the Ollama client for creating embeddings
	ollamaClient, err := llm.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.EmbedModel, cfg.Ollama.ChatModel)
	if err != nil {
		logError(err)
	}

	// Load the batch
	records, err := ingest.LoadRecords(*batchPath)
	if err != nil {
		logError(err)
	}
	fmt.Printf("📚 Processing %d records from %s\n", len(records), *batchPath)

	// Ingest with per-record progress
	engine := ingest.NewEngine(store, ollamaClient, ingest.WithProgress(printProgress))
	report, err := engine.UpsertBatch(ctx, records)
	if err != nil {
		fmt.Printf("⚠️ Stopped after %d records\n", len(report.Results))
		logError(err)
	}

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Printf("%s %d created, %d skipped\n", boldGreen("✅ Batch indexed:"), report.Created(), report.Skipped())
}

func printProgress(current, total int, result ingest.ItemResult) {
	icon := "🆕"
	if result.Outcome == ingest.OutcomeSkipped {
		icon = "⏭️"
	}
	fmt.Printf("%s [%d/%d] %s (%s)\n", icon, current, total, result.ID, result.Outcome)
}

// newStore builds the configured vector store backend.
func newStore(cfg *config.Config) (vector.Store, error) {
	switch cfg.StoreType {
	case "memory":
		return vector.NewMemoryStore(), nil
	case "qdrant":
		return vector.NewQdrantStore(cfg.Qdrant.Host, cfg.Qdrant.Port, cfg.Collection.Name)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.StoreType)
	}
}
