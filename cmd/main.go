package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"call-insights/internal/answer"
	"call-insights/internal/config"
	"call-insights/internal/helper"
	"call-insights/internal/ingest"
	"call-insights/internal/llmservice"
	"call-insights/internal/retrieval"
	"call-insights/internal/scorer"
	"call-insights/internal/semindex"
	"call-insights/internal/server"
	"call-insights/internal/store"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	printConfig := flag.Bool("print-config", false, "Print the resolved config and exit")
	flag.Parse()

	// .env is optional; real deployments set env vars directly
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file loaded")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *printConfig {
		helper.PrettyPrint(cfg)
		return
	}

	ctx := context.Background()

	blobs, cleanup, err := newBlobStore(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage")
	}
	defer cleanup()
	calls := store.NewCallStore(blobs)

	llm, err := llmservice.New(&cfg.ExtractLLM, &cfg.AnswerLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	var (
		indexer ingest.Indexer
		search  retrieval.Index
		deleter server.Deleter
	)
	if cfg.Embedding.Enabled {
		embedder, err := semindex.NewEmbedder(&cfg.EmbedLLM)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing embedder")
		}
		ix, err := semindex.New(&cfg.Embedding, embedder)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing vector index")
		}
		indexer, search, deleter = ix, ix, ix
		log.Info().Str("collection", cfg.Embedding.Collection).Msg("Semantic index enabled")
	}

	pipeline := ingest.New(calls, llm, indexer, &cfg.RAG)
	engine := retrieval.New(calls, scorer.Keyword{}, search, cfg.RAG.Concurrency)
	composer := answer.New(llm, cfg.RAG.TopChunks, cfg.RAG.MaxSources)
	srv := server.New(pipeline, engine, composer, calls, deleter)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.Server.RequestTimeoutSecs) * time.Second,
	}
	log.Info().Str("addr", cfg.Server.Addr).Str("storage", cfg.Storage.Backend).Msg("Server listening")
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func newBlobStore(ctx context.Context, cfg *config.StorageConfig) (store.BlobStore, func(), error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemory(), func() {}, nil
	case "postgres":
		sqldb := store.ConnectDB(&cfg.Database)
		pg, err := store.NewPostgres(ctx, sqldb, cfg.Database.Debug)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	default:
		fsStore, err := store.NewFS(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return fsStore, func() {}, nil
	}
}
