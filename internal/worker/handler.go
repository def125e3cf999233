package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Callypige/dreamology-diary/internal/queue"
)

// EmailSender defines the interface for delivering emails.
// This abstracts the SMTP layer so workers can be tested without a mail server.
type EmailSender interface {
	SendVerification(to, name, token string) error
	SendWelcome(to, name string) error
	SendPasswordReset(to, name, token string) error
}

const (
	// maxSendAttempts bounds SMTP retries per message before giving up.
	maxSendAttempts = 3

	// retryDelay is the pause between SMTP attempts.
	retryDelay = 2 * time.Second
)

// Handler processes email events from the queue.
type Handler struct {
	sender EmailSender
}

// NewHandler creates a new event handler.
func NewHandler(sender EmailSender) *Handler {
	return &Handler{sender: sender}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.EmailEvent) error {
	startTime := time.Now()
	var err error

	switch event.Type {
	case queue.EventEmailVerification:
		err = h.withRetry(ctx, event, func() error {
			return h.sender.SendVerification(event.Recipient, event.Name, event.Token)
		})
	case queue.EventEmailWelcome:
		err = h.withRetry(ctx, event, func() error {
			return h.sender.SendWelcome(event.Recipient, event.Name)
		})
	case queue.EventEmailPasswordReset:
		err = h.withRetry(ctx, event, func() error {
			return h.sender.SendPasswordReset(event.Recipient, event.Name, event.Token)
		})
	default:
		log.Printf("[Worker] Unknown event type: %s", event.Type)
		return fmt.Errorf("unknown event type: %s", event.Type)
	}

	if err != nil {
		log.Printf("[Worker] HandleEvent FAILED: type=%s user=%d duration=%v err=%v",
			event.Type, event.UserID, time.Since(startTime), err)
		return err
	}

	log.Printf("[Worker] HandleEvent OK: type=%s user=%d duration=%v",
		event.Type, event.UserID, time.Since(startTime))
	return nil
}

// withRetry attempts SMTP delivery up to maxSendAttempts times.
// Delivery failures here are final: the manager ACKs the message regardless,
// so there is no poison-message loop in the stream.
func (h *Handler) withRetry(ctx context.Context, event queue.EmailEvent, send func() error) error {
	var lastErr error

	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = send()
		if lastErr == nil {
			return nil
		}

		log.Printf("[Worker] Send attempt %d/%d failed: type=%s user=%d err=%v",
			attempt, maxSendAttempts, event.Type, event.UserID, lastErr)

		if attempt < maxSendAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return fmt.Errorf("send after %d attempts: %w", maxSendAttempts, lastErr)
}
