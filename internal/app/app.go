package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/repositories"
	"alfredoptarigan/agentic-curie/internal/services"
)

// Container holds every wired component. Surfaces (HTTP, MCP, CLI) pick
// what they need from it.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LLM        services.GeminiService
	Extractor  services.TextExtractor
	Files      repositories.FileRepository
	Sessions   repositories.SessionRepository
	Index      services.DocumentIndex
	Summarizer services.Summarizer
	Matcher    services.Matcher
	Toolbox    *services.Toolbox
	Agent      services.ChatAgent
	Janitor    services.Janitor

	closers []func()
}

// Build wires the components in dependency order. A missing Gemini key is
// not an error here; the pipelines report it per request.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	log = logger.OrNop(log)
	c := &Container{Config: cfg, Logger: log}

	llm, err := services.NewGeminiService(ctx, cfg.Gemini, cfg.Log.MaxLength, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini: %w", err)
	}
	if llm.Configured() {
		log.Info("✅ Gemini initialized", zap.String(logger.FieldModel, llm.Model()))
	}
	c.LLM = llm

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	c.Files = repositories.NewFileRepository(blobs, cfg.Storage.TTL, cfg.Storage.Capacity, log)
	log.Info("✅ File store initialized", zap.String("backend", cfg.Storage.Backend))

	if err := c.initSessions(ctx); err != nil {
		return nil, err
	}

	c.Extractor = services.NewTextExtractor(log)
	chunker := services.NewTextChunker()

	if cfg.IndexEnabled() {
		c.Index = c.initIndex(ctx, chunker)
	}

	c.Summarizer = services.NewSummarizer(llm, c.Extractor, chunker, services.NewTokenCounter(cfg.Gemini.Model, log), cfg.Pipeline, log)
	c.Matcher = services.NewMatcher(llm, c.Extractor, cfg.Pipeline, log)
	c.Toolbox = services.NewToolbox(c.Files, c.Summarizer, c.Matcher, c.Extractor, c.Index, log)
	c.Agent = services.NewChatAgent(llm, c.Toolbox, c.Files, c.Sessions, cfg.Agent.MaxToolRounds, log)
	log.Info("✅ Pipelines and agent initialized")

	c.Janitor = services.NewJanitor(map[string]services.Sweeper{
		"files":    c.Files,
		"sessions": c.Sessions,
	}, cfg.Janitor.Interval, log)

	return c, nil
}

// Close stops the janitor and releases backend connections.
func (c *Container) Close() {
	if c.Janitor != nil {
		c.Janitor.Stop()
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

func (c *Container) initSessions(ctx context.Context) error {
	cfg := c.Config.Session
	if cfg.Backend != config.BackendValkey {
		c.Sessions = repositories.NewMemorySessionRepository(cfg.TTL, cfg.Capacity)
		return nil
	}

	client, err := repositories.NewValkeyClient(ctx, cfg.ValkeyAddr, cfg.ValkeyPassword)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	c.closers = append(c.closers, client.Close)
	c.Sessions = repositories.NewValkeySessionRepository(client, cfg.TTL)
	c.Logger.Info("✅ Valkey session store connected", zap.String("addr", cfg.ValkeyAddr))
	return nil
}

// initIndex returns nil when Qdrant is unreachable so the rest of the
// service keeps working without search.
func (c *Container) initIndex(ctx context.Context, chunker services.TextChunker) services.DocumentIndex {
	store, err := services.NewQdrantService(c.Config.Qdrant, c.Logger)
	if err != nil {
		c.Logger.Warn("⚠️  Document index disabled", zap.Error(err))
		return nil
	}
	if err := store.InitCollection(ctx); err != nil {
		c.Logger.Warn("⚠️  Document index disabled", zap.Error(err))
		return nil
	}
	c.Logger.Info("✅ Qdrant initialized", zap.String("collection", c.Config.Qdrant.Collection))
	return services.NewDocumentIndex(store, c.LLM, c.Extractor, chunker, c.Config.Qdrant, c.Logger)
}

func newBlobStore(ctx context.Context, cfg config.StorageConfig) (repositories.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendS3:
		client, err := services.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3: %w", err)
		}
		return services.NewS3BlobStore(client, manager.NewUploader(client), cfg.S3.Bucket), nil
	default:
		store, err := services.NewLocalBlobStore(cfg.UploadPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		return store, nil
	}
}
