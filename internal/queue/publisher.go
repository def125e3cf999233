package queue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher defines the interface for publishing events to a stream.
type Publisher interface {
	// Publish adds an event to the specified stream.
	// Returns the message ID assigned by Redis.
	Publish(ctx context.Context, stream string, event EmailEvent) (messageID string, err error)
}

// RedisPublisher implements Publisher using Redis Streams.
type RedisPublisher struct {
	client *redis.Client
}

// NewPublisher creates a new Publisher backed by Redis Streams.
func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

// Publish adds an event to the stream using XADD.
// Uses "*" for auto-generated message ID (timestamp-sequence).
func (p *RedisPublisher) Publish(ctx context.Context, stream string, event EmailEvent) (string, error) {
	startTime := time.Now()

	values, err := event.ToMap()
	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("serialize event: %w", err)
	}

	// XADD stream * field value [field value ...]
	// "*" means Redis auto-generates the message ID
	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()

	if err != nil {
		log.Printf("[Publisher] Publish FAILED: stream=%s type=%s err=%v", stream, event.Type, err)
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Printf("[Publisher] Publish OK: stream=%s type=%s msgID=%s user=%d duration=%v",
		stream, event.Type, messageID, event.UserID, time.Since(startTime))

	return messageID, nil
}

// PublishVerification is a convenience method for publishing verification email events.
func (p *RedisPublisher) PublishVerification(ctx context.Context, userID int64, recipient, name, token string) (string, error) {
	event := NewVerificationEvent(userID, recipient, name, token)
	return p.Publish(ctx, StreamEmail, event)
}

// PublishWelcome is a convenience method for publishing welcome email events.
func (p *RedisPublisher) PublishWelcome(ctx context.Context, userID int64, recipient, name string) (string, error) {
	event := NewWelcomeEvent(userID, recipient, name)
	return p.Publish(ctx, StreamEmail, event)
}

// PublishPasswordReset is a convenience method for publishing password reset email events.
func (p *RedisPublisher) PublishPasswordReset(ctx context.Context, userID int64, recipient, name, token string) (string, error) {
	event := NewPasswordResetEvent(userID, recipient, name, token)
	return p.Publish(ctx, StreamEmail, event)
}
