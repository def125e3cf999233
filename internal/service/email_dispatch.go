package service

import (
	"context"
	"fmt"

	"github.com/Callypige/dreamology-diary/internal/queue"
)

// EmailDispatcher abstracts how transactional emails leave the request
// path. The normal implementation publishes to the Redis email stream; a
// synchronous fallback exists for deployments without Redis.
type EmailDispatcher interface {
	DispatchVerification(ctx context.Context, userID int64, recipient, name, token string) error
	DispatchWelcome(ctx context.Context, userID int64, recipient, name string) error
	DispatchPasswordReset(ctx context.Context, userID int64, recipient, name, token string) error
}

// QueueDispatcher publishes email events to the Redis stream for the
// worker pool to deliver.
type QueueDispatcher struct {
	publisher queue.Publisher
}

func NewQueueDispatcher(publisher queue.Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

func (d *QueueDispatcher) DispatchVerification(ctx context.Context, userID int64, recipient, name, token string) error {
	_, err := d.publisher.Publish(ctx, queue.StreamEmail, queue.NewVerificationEvent(userID, recipient, name, token))
	if err != nil {
		return fmt.Errorf("publish verification event: %w", err)
	}
	return nil
}

func (d *QueueDispatcher) DispatchWelcome(ctx context.Context, userID int64, recipient, name string) error {
	_, err := d.publisher.Publish(ctx, queue.StreamEmail, queue.NewWelcomeEvent(userID, recipient, name))
	if err != nil {
		return fmt.Errorf("publish welcome event: %w", err)
	}
	return nil
}

func (d *QueueDispatcher) DispatchPasswordReset(ctx context.Context, userID int64, recipient, name, token string) error {
	_, err := d.publisher.Publish(ctx, queue.StreamEmail, queue.NewPasswordResetEvent(userID, recipient, name, token))
	if err != nil {
		return fmt.Errorf("publish password reset event: %w", err)
	}
	return nil
}

// SyncDispatcher sends emails inline over SMTP. Used when no Redis URL is
// configured; delivery latency lands on the request, so it is a fallback,
// not the default.
type SyncDispatcher struct {
	mailer *Mailer
}

func NewSyncDispatcher(mailer *Mailer) *SyncDispatcher {
	return &SyncDispatcher{mailer: mailer}
}

func (d *SyncDispatcher) DispatchVerification(ctx context.Context, userID int64, recipient, name, token string) error {
	return d.mailer.SendVerification(recipient, name, token)
}

func (d *SyncDispatcher) DispatchWelcome(ctx context.Context, userID int64, recipient, name string) error {
	return d.mailer.SendWelcome(recipient, name)
}

func (d *SyncDispatcher) DispatchPasswordReset(ctx context.Context, userID int64, recipient, name, token string) error {
	return d.mailer.SendPasswordReset(recipient, name, token)
}
