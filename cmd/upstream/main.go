package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adjebara/people-search/backend/internal/config"
	"github.com/adjebara/people-search/backend/internal/upstream/handler"
	"github.com/adjebara/people-search/backend/internal/upstream/process"
	"github.com/adjebara/people-search/backend/internal/upstream/search"
	"github.com/adjebara/people-search/backend/internal/upstream/state"
	"github.com/adjebara/people-search/backend/internal/upstream/summary"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.Search.Enabled() {
		log.Fatal("EXA_API_KEY is required for the upstream service")
	}
	if !cfg.AI.Enabled() {
		log.Fatal("ark credentials are required for the upstream service: provide ARK_API_KEY + Model, or the AK/SK pair")
	}

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Fatalf("failed to create chat model: %v", err)
	}

	summarizer, err := summary.NewService(ctx, chatModel)
	if err != nil {
		log.Fatalf("failed to initialize summarizer: %v", err)
	}

	processor, err := process.NewService(ctx, chatModel)
	if err != nil {
		log.Fatalf("failed to initialize instruction processor: %v", err)
	}

	searcher := search.NewClient(cfg.Search.BaseURL, cfg.Search.APIKey, cfg.Search.MaxResults)

	h := handler.New(searcher, summarizer, processor, state.NewStore())
	router := handler.NewRouter(h)

	addr := cfg.Server.Addr
	if strings.TrimSpace(os.Getenv("PORT")) == "" {
		// The session API's gateway points at 8001 by default.
		addr = ":8001"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("People Search upstream service listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
