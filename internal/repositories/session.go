package repositories

import (
	"context"
	"sync"
	"time"

	"google.golang.org/genai"
)

// SessionRepository keeps the conversation history of each chat session.
// Loading an unknown session yields an empty history.
type SessionRepository interface {
	Load(ctx context.Context, sessionID string) ([]*genai.Content, error)
	Save(ctx context.Context, sessionID string, history []*genai.Content) error
	Delete(ctx context.Context, sessionID string) error
	Sweep(ctx context.Context) (int, error)
}

type sessionEntry struct {
	history   []*genai.Content
	touchedAt time.Time
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

// NewMemorySessionRepository keeps sessions in process memory. A session
// expires ttl after its last save; the least recently saved session is
// dropped once capacity is reached.
func NewMemorySessionRepository(ttl time.Duration, capacity int) SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

func (r *memorySessionRepository) Load(_ context.Context, sessionID string) ([]*genai.Content, error) {
	r.mu.RLock()
	entry, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok || r.expired(entry) {
		return nil, nil
	}

	history := make([]*genai.Content, len(entry.history))
	copy(history, entry.history)
	return history, nil
}

func (r *memorySessionRepository) Save(_ context.Context, sessionID string, history []*genai.Content) error {
	stored := make([]*genai.Content, len(history))
	copy(stored, history)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[sessionID]; !exists {
		for r.capacity > 0 && len(r.sessions) >= r.capacity {
			r.evictOldestLocked()
		}
	}
	r.sessions[sessionID] = &sessionEntry{history: stored, touchedAt: r.now()}
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	return nil
}

func (r *memorySessionRepository) Sweep(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, entry := range r.sessions {
		if r.expired(entry) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memorySessionRepository) expired(entry *sessionEntry) bool {
	return r.ttl > 0 && !r.now().Before(entry.touchedAt.Add(r.ttl))
}

func (r *memorySessionRepository) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, entry := range r.sessions {
		if oldestID == "" || entry.touchedAt.Before(oldest) {
			oldestID, oldest = id, entry.touchedAt
		}
	}
	delete(r.sessions, oldestID)
}
