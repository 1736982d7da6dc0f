package repositories

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/agentic-curie/internal/logger"
	"alfredoptarigan/agentic-curie/internal/models"
)

var ErrFileNotFound = errors.New("file not found")

// BlobStore keeps file payloads. Keys are chosen by the repository.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

type FileRepository interface {
	Save(ctx context.Context, data []byte, filename, contentType string) (*models.StoredFile, error)
	Get(ctx context.Context, id string) (*models.StoredFile, error)
	Read(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context) ([]models.StoredFile, error)
	Delete(ctx context.Context, id string) error
	Sweep(ctx context.Context) (int, error)
}

type fileEntry struct {
	file *models.StoredFile
	seq  uint64
}

// fileRepository is an in-memory registry over a blob store. Entries expire
// after ttl and the oldest entry is evicted once capacity is reached.
// Registry contents do not survive a restart.
type fileRepository struct {
	mu       sync.RWMutex
	blobs    BlobStore
	files    map[string]*fileEntry
	seq      uint64
	ttl      time.Duration
	capacity int
	now      func() time.Time
	logger   *zap.Logger
}

func NewFileRepository(blobs BlobStore, ttl time.Duration, capacity int, log *zap.Logger) FileRepository {
	return &fileRepository{
		blobs:    blobs,
		files:    make(map[string]*fileEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		logger:   logger.OrNop(log),
	}
}

// Save implements FileRepository.
func (r *fileRepository) Save(ctx context.Context, data []byte, filename, contentType string) (*models.StoredFile, error) {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	now := r.now()

	file := &models.StoredFile{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Key:         id + filepath.Ext(filename),
		Size:        int64(len(data)),
		CreatedAt:   now,
	}
	if r.ttl > 0 {
		file.ExpiresAt = now.Add(r.ttl)
	}

	if err := r.blobs.Put(ctx, file.Key, data, file.MediaType()); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	r.mu.Lock()
	var evicted []*models.StoredFile
	for r.capacity > 0 && len(r.files) >= r.capacity {
		oldest := r.oldestLocked()
		if oldest == nil {
			break
		}
		delete(r.files, oldest.file.ID)
		evicted = append(evicted, oldest.file)
	}
	r.seq++
	r.files[id] = &fileEntry{file: file, seq: r.seq}
	r.mu.Unlock()

	for _, f := range evicted {
		r.logger.Info("🗑️  Evicted file to stay within capacity", zap.String("file_id", f.ID))
		r.removeBlob(ctx, f)
	}

	copied := *file
	return &copied, nil
}

// Get implements FileRepository.
func (r *fileRepository) Get(ctx context.Context, id string) (*models.StoredFile, error) {
	r.mu.RLock()
	entry, ok := r.files[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	if r.expired(entry.file) {
		r.remove(ctx, id)
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}

	copied := *entry.file
	return &copied, nil
}

// Read implements FileRepository.
func (r *fileRepository) Read(ctx context.Context, id string) ([]byte, error) {
	file, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := r.blobs.Get(ctx, file.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", id, err)
	}
	return data, nil
}

// List implements FileRepository. Files are returned oldest first.
func (r *fileRepository) List(ctx context.Context) ([]models.StoredFile, error) {
	r.mu.RLock()
	entries := make([]*fileEntry, 0, len(r.files))
	for _, e := range r.files {
		if !r.expired(e.file) {
			entries = append(entries, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})

	files := make([]models.StoredFile, 0, len(entries))
	for _, e := range entries {
		files = append(files, *e.file)
	}
	return files, nil
}

// Delete implements FileRepository.
func (r *fileRepository) Delete(ctx context.Context, id string) error {
	if !r.remove(ctx, id) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, id)
	}
	return nil
}

// Sweep drops expired files and returns how many were removed.
func (r *fileRepository) Sweep(ctx context.Context) (int, error) {
	r.mu.Lock()
	var expired []*models.StoredFile
	for id, e := range r.files {
		if r.expired(e.file) {
			delete(r.files, id)
			expired = append(expired, e.file)
		}
	}
	r.mu.Unlock()

	for _, f := range expired {
		r.removeBlob(ctx, f)
	}
	return len(expired), nil
}

func (r *fileRepository) remove(ctx context.Context, id string) bool {
	r.mu.Lock()
	entry, ok := r.files[id]
	delete(r.files, id)
	r.mu.Unlock()

	if ok {
		r.removeBlob(ctx, entry.file)
	}
	return ok
}

func (r *fileRepository) removeBlob(ctx context.Context, file *models.StoredFile) {
	if err := r.blobs.Delete(ctx, file.Key); err != nil {
		r.logger.Warn("⚠️  Failed to delete file payload", zap.String("file_id", file.ID), zap.Error(err))
	}
}

func (r *fileRepository) expired(file *models.StoredFile) bool {
	return !file.ExpiresAt.IsZero() && !r.now().Before(file.ExpiresAt)
}

func (r *fileRepository) oldestLocked() *fileEntry {
	var oldest *fileEntry
	for _, e := range r.files {
		if oldest == nil || e.seq < oldest.seq {
			oldest = e
		}
	}
	return oldest
}
