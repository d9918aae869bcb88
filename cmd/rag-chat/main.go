package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"

	"github.com/andrew/rag-pipeline/pkg/config"
	"github.com/andrew/rag-pipeline/pkg/llm"
	"github.com/andrew/rag-pipeline/pkg/models"
	"github.com/andrew/rag-pipeline/pkg/responder"
	"github.com/andrew/rag-pipeline/pkg/vector"
)

// logError logs an error with file and line information
func logError(err error) {
	_, file, line, _ := runtime.Caller(1)
	log.Fatalf("😡 %s:%d - %v", file, line, err)
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	question := flag.String("q", "", "Ask a single question and exit")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logError(err)
	}

	store, err := newStore(cfg)
	if err != nil {
		logError(fmt.Errorf("failed to connect to vector store: %w", err))
	}
	defer store.Close()

	ollamaClient, err := llm.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.EmbedModel, cfg.Ollama.ChatModel)
	if err != nil {
		logError(err)
	}

	rag := responder.New(store, ollamaClient, ollamaClient,
		responder.WithModelConfig(llm.ModelConfig{
			Temperature: cfg.Generation.Temperature,
			TopP:        cfg.Generation.TopP,
			MaxTokens:   cfg.Generation.MaxTokens,
		}))

	if *question != "" {
		runSingleQuestion(ctx, rag, *question)
		return
	}
	runInteractive(ctx, rag)
}

// runSingleQuestion answers one question without conversation memory.
func runSingleQuestion(ctx context.Context, rag *responder.Responder, question string) {
	fmt.Println("🦄 Question:", question)
	fmt.Println("🤖 Answer:")
	_, err := rag.AnswerStream(ctx, question, nil, printFragment)
	if err != nil {
		if errors.Is(err, responder.ErrNoGrounding) {
			fmt.Println("I don't know — nothing in the collection matches that question.")
			return
		}
		logError(err)
	}
	fmt.Println()
}

// runInteractive runs a chat session that carries conversation history
// across turns.
func runInteractive(ctx context.Context, rag *responder.Responder) {
	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Println(boldGreen("🤖 Welcome to the grounded chat mode!"))
	fmt.Println("💡 Answers come only from the indexed records. Type 'exit' or 'quit' to end the session.")

	history := models.NewHistory("")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("\n" + boldGreen("👤 You: "))
		input, err := reader.ReadString('\n')
		if err != nil {
			break
		}

		question := strings.TrimSpace(input)
		if question == "" {
			continue
		}
		if q := strings.ToLower(question); q == "exit" || q == "quit" {
			fmt.Println("\n👋 Goodbye!")
			break
		}

		fmt.Print(boldCyan("🤖 Assistant: "))
		_, err = rag.AnswerStream(ctx, question, history, printFragment)
		if err != nil {
			if errors.Is(err, responder.ErrNoGrounding) {
				fmt.Println("I don't know — nothing in the collection matches that question.")
				continue
			}
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			fmt.Println("Make sure Ollama and the vector store are running, and that the indexer was run first.")
			continue
		}
		fmt.Println()
	}
}

func printFragment(fragment string) error {
	fmt.Print(fragment)
	return nil
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
