// Package events carries live session events (turn results, session
// end) from the interview service to WebSocket subscribers via Redis
// pub/sub. Publishing is best-effort; a dropped event never fails the
// operation that produced it.
package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Publisher interface {
	Publish(ctx context.Context, sessionID string, event any)
}

// Channel returns the pub/sub channel name for a session.
func Channel(sessionID string) string {
	return "session:" + sessionID + ":events"
}

type RedisPublisher struct {
	rdb *redis.Client
	log *logrus.Logger
}

func NewRedisPublisher(rdb *redis.Client, log *logrus.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, sessionID string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.WithError(err).WithField("session_id", sessionID).Warn("event marshal failed")
		return
	}
	if err := p.rdb.Publish(ctx, Channel(sessionID), payload).Err(); err != nil {
		p.log.WithError(err).WithField("session_id", sessionID).Warn("event publish failed")
	}
}

// NopPublisher discards events; used when Redis is not configured and
// in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) {}
