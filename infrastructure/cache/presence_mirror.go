package cache

import (
	"chat-relay/domain/event"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// OnlineUsersKey holds the set of users currently connected to this node.
const OnlineUsersKey = "presence:online"

// NewRedisClient parses redisURL and pings the server before returning.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL cannot be empty")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PresenceMirror copies every presence snapshot into a Redis set so that
// other processes can read who is online.
type PresenceMirror struct {
	log    *slog.Logger
	client *redis.Client
	key    string
}

func NewPresenceMirror(log *slog.Logger, client *redis.Client) *PresenceMirror {
	return &PresenceMirror{log: log, client: client, key: OnlineUsersKey}
}

// Consume replaces the set with the snapshot carried by a PresenceChanged event.
// Other events are ignored.
func (m *PresenceMirror) Consume(ctx context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.PresenceChanged)
	if !ok {
		return nil
	}

	pipe := m.client.TxPipeline()
	pipe.Del(ctx, m.key)
	if len(evt.Online) > 0 {
		members := make([]interface{}, 0, len(evt.Online))
		for _, id := range evt.Online {
			members = append(members, id)
		}
		pipe.SAdd(ctx, m.key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror presence to redis: %w", err)
	}
	m.log.Debug("Presence mirrored", "online", len(evt.Online))
	return nil
}

// Online reads the mirrored set back.
func (m *PresenceMirror) Online(ctx context.Context) ([]string, error) {
	members, err := m.client.SMembers(ctx, m.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read mirrored presence: %w", err)
	}
	return members, nil
}
