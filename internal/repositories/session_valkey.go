package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
	"google.golang.org/genai"
)

const sessionKeyPrefix = "curie:session:"

type valkeySessionRepository struct {
	client valkey.Client
	ttl    time.Duration
}

// NewValkeySessionRepository stores each session as a JSON document whose
// expiry is refreshed on every save.
func NewValkeySessionRepository(client valkey.Client, ttl time.Duration) SessionRepository {
	return &valkeySessionRepository{client: client, ttl: ttl}
}

// NewValkeyClient connects and pings the server.
func NewValkeyClient(ctx context.Context, address, password string) (valkey.Client, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{address},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Valkey client: %w", err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to ping Valkey: %w", err)
	}

	return client, nil
}

func (r *valkeySessionRepository) Load(ctx context.Context, sessionID string) ([]*genai.Content, error) {
	raw, err := r.client.Do(ctx, r.client.B().Get().Key(sessionKeyPrefix+sessionID).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var history []*genai.Content
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return history, nil
}

func (r *valkeySessionRepository) Save(ctx context.Context, sessionID string, history []*genai.Content) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}

	key := sessionKeyPrefix + sessionID
	var cmd valkey.Completed
	if seconds := int64(r.ttl / time.Second); seconds > 0 {
		cmd = r.client.B().Set().Key(key).Value(valkey.BinaryString(raw)).ExSeconds(seconds).Build()
	} else {
		cmd = r.client.B().Set().Key(key).Value(valkey.BinaryString(raw)).Build()
	}

	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	return nil
}

func (r *valkeySessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Do(ctx, r.client.B().Del().Key(sessionKeyPrefix+sessionID).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Sweep is a no-op: Valkey expires keys on its own.
func (r *valkeySessionRepository) Sweep(context.Context) (int, error) {
	return 0, nil
}
