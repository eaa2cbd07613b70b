package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
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

	embopenai "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tbxark/apptagent/agent"
	"github.com/tbxark/apptagent/config"
	"github.com/tbxark/apptagent/dialogue"
	"github.com/tbxark/apptagent/docqa"
	"github.com/tbxark/apptagent/form"
	"github.com/tbxark/apptagent/router"
	"github.com/tbxark/apptagent/server"
	"github.com/tbxark/apptagent/session"
	"github.com/tbxark/apptagent/sink"
	"github.com/tbxark/apptagent/structured"
)

func main() {
	repl := flag.Bool("repl", false, "run an interactive console instead of the HTTP server")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logOut := os.Stdout
	if *repl {
		// keep the console readable
		logOut = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{Level: level})))

	if err := run(context.Background(), cfg, *repl); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, repl bool) error {
	var chatModel model.ToolCallingChatModel
	if cfg.LLMEnabled() {
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
		if err != nil {
			return fmt.Errorf("chat model: %w", err)
		}
		chatModel = cm
	}

	index, err := buildIndex(ctx, cfg)
	if err != nil {
		return err
	}

	var answerer docqa.Answerer
	if chatModel != nil {
		answerer = docqa.NewModelAnswerer(chatModel, index, docqa.WithAnswerTimeout(cfg.Timeout))
	} else {
		slog.Info("no API key set, answering from documents without a model")
		answerer = docqa.NewStaticAnswerer(index)
	}

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing appointment store", "error", err)
		}
	}()

	assistant, err := buildAssistant(cfg, chatModel, answerer, store)
	if err != nil {
		return err
	}

	if repl {
		return runREPL(ctx, assistant)
	}
	return serve(ctx, cfg, server.NewServer(assistant, store, index))
}

func buildIndex(ctx context.Context, cfg *config.Config) (*docqa.Index, error) {
	opts := []docqa.IndexOption{
		docqa.WithChunker(docqa.Chunker{Size: cfg.Retrieval.ChunkSize, Overlap: cfg.Retrieval.ChunkOverlap}),
		docqa.WithTopK(cfg.Retrieval.TopK),
	}
	if cfg.LLMEnabled() {
		embedder, err := embopenai.NewEmbedder(ctx, &embopenai.EmbeddingConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.EmbedModel,
			BaseURL: cfg.OpenAI.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("embedder: %w", err)
		}
		opts = append(opts, docqa.WithEmbedder(embedder))
	}
	index := docqa.NewIndex(opts...)

	docs, err := docqa.LoadDir(cfg.DocsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("docs directory missing, starting with an empty index", "dir", cfg.DocsDir)
			return index, nil
		}
		return nil, err
	}
	if err := index.Add(ctx, docs...); err != nil {
		return nil, fmt.Errorf("index documents: %w", err)
	}
	return index, nil
}

func buildStore(cfg *config.Config) (sink.Store, error) {
	if cfg.DBPath == "" {
		slog.Info("DB_PATH empty, keeping appointments in memory")
		return sink.NewMemory(), nil
	}
	store, err := sink.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func buildAssistant(cfg *config.Config, chatModel model.ToolCallingChatModel, answerer docqa.Answerer, bookings sink.Sink) (*agent.Assistant, error) {
	guard := router.NewLocalRouter()
	if len(cfg.Form.TriggerPhrases) > 0 {
		guard.TriggerKeywords = cfg.Form.TriggerPhrases
	}

	opts := []agent.Option{
		agent.WithGuard(guard),
		agent.WithEngine(form.NewEngine(
			form.WithRules(cfg.Rules()),
			form.WithRetryLimit(cfg.Form.RetryLimit),
		)),
		agent.WithSessions(session.NewMemoryStore(
			session.WithTrimmer(session.KeepLastN{N: cfg.HistoryLimit}),
		)),
		agent.WithTimeout(cfg.Timeout),
	}

	if chatModel != nil && cfg.OpenAI.RouterEnabled {
		toolRouter, err := router.NewToolBasedRouter(chatModel, structured.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, fmt.Errorf("tool router: %w", err)
		}
		opts = append(opts, agent.WithRouter(router.NewChainRouter(toolRouter, guard)))
	}
	if chatModel != nil && cfg.OpenAI.DialogueEnabled {
		generator, err := dialogue.NewToolBasedGenerator(chatModel, structured.WithTimeout(cfg.Timeout))
		if err != nil {
			return nil, fmt.Errorf("dialogue generator: %w", err)
		}
		opts = append(opts, agent.WithDialogue(generator))
	}

	return agent.NewAssistant(answerer, bookings, opts...), nil
}

func serve(ctx context.Context, cfg *config.Config, api *server.Server) error {
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.Handler(),
		ReadTimeout: 30 * time.Second,
		// no write timeout, the chat socket stays open
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func runREPL(ctx context.Context, assistant *agent.Assistant) error {
	sessionID := uuid.NewString()
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Ask about our documents, or say 'book appointment' to schedule a call. Ctrl-D exits.")
	for {
		fmt.Print("you: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		reply, err := assistant.HandleMessage(ctx, sessionID, input)
		if err != nil {
			return err
		}
		fmt.Printf("assistant: %s\n", reply.Text)
	}
}
