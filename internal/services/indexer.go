package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/config"
	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
)

// DocumentIndex makes stored files searchable by meaning.
type DocumentIndex interface {
	IndexFile(ctx context.Context, file *models.StoredFile, data []byte) (int, error)
	Search(ctx context.Context, query string, fileIDs []string, limit int) ([]SearchResult, error)
	Remove(ctx context.Context, fileID string) error
}

type documentIndex struct {
	store     QdrantService
	llm       GeminiService
	extractor TextExtractor
	chunker   TextChunker
	cfg       config.QdrantConfig
	logger    *zap.Logger
}

func NewDocumentIndex(store QdrantService, llm GeminiService, extractor TextExtractor, chunker TextChunker, cfg config.QdrantConfig, log *zap.Logger) DocumentIndex {
	return &documentIndex{
		store:     store,
		llm:       llm,
		extractor: extractor,
		chunker:   chunker,
		cfg:       cfg,
		logger:    logger.OrNop(log),
	}
}

// IndexFile extracts, chunks and embeds a file. It returns the number of
// chunks stored; a file without text stores nothing.
func (d *documentIndex) IndexFile(ctx context.Context, file *models.StoredFile, data []byte) (int, error) {
	text := d.extractor.ExtractText(file.Filename, data)
	if strings.TrimSpace(text) == "" {
		d.logger.Debug("📭 Nothing to index", zap.String("file_id", file.ID))
		return 0, nil
	}

	var chunks []IndexedChunk
	for i, chunk := range d.chunker.ChunkText(text, d.cfg.ChunkSize, d.cfg.ChunkOverlap) {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		embedding, err := d.llm.GenerateEmbedding(ctx, chunk)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %d of %s: %w", i, file.ID, err)
		}
		chunks = append(chunks, IndexedChunk{
			FileID:    file.ID,
			Filename:  file.Filename,
			Chunk:     i,
			Text:      chunk,
			Embedding: embedding,
		})
	}

	if err := d.store.UpsertChunks(ctx, chunks); err != nil {
		return 0, err
	}

	d.logger.Info("📚 Indexed file", zap.String("file_id", file.ID), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

func (d *documentIndex) Search(ctx context.Context, query string, fileIDs []string, limit int) ([]SearchResult, error) {
	embedding, err := d.llm.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return d.store.SearchSimilar(ctx, embedding, fileIDs, limit)
}

func (d *documentIndex) Remove(ctx context.Context, fileID string) error {
	return d.store.DeleteFile(ctx, fileID)
}
