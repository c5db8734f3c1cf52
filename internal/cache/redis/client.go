package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/legal-assistant/docclient/internal/session"
	"github.com/legal-assistant/docclient/pkg/logger"
)

// Snapshot is the persisted part of a session. Outputs are never stored; a
// restored session starts idle.
type Snapshot struct {
	SessionID string        `json:"sessionId"`
	Input     session.Input `json:"input"`
	SavedAt   time.Time     `json:"savedAt"`
}

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(ctx context.Context, host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr), zap.Duration("ttl", ttl))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SaveSnapshot(ctx context.Context, snap session.Snapshot) error {
	data, err := encodeSnapshot(snap, time.Now())
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, snapshotKey(snap.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}

	logger.Debug("Session snapshot saved", zap.String("session_id", snap.ID), zap.Uint64("version", snap.Version))
	return nil
}

// LoadSnapshot reports false when no snapshot exists for id.
func (c *Client) LoadSnapshot(ctx context.Context, id string) (*Snapshot, bool, error) {
	data, err := c.client.Get(ctx, snapshotKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session snapshot: %w", err)
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, false, err
	}

	logger.Debug("Session snapshot loaded", zap.String("session_id", id))
	return snap, true, nil
}

func (c *Client) DeleteSnapshot(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, snapshotKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session snapshot: %w", err)
	}
	return nil
}

func snapshotKey(id string) string {
	return fmt.Sprintf("docclient:session:%s", id)
}

func encodeSnapshot(snap session.Snapshot, now time.Time) ([]byte, error) {
	data, err := json.Marshal(Snapshot{SessionID: snap.ID, Input: snap.Input, SavedAt: now})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session snapshot: %w", err)
	}
	return data, nil
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	return &snap, nil
}
