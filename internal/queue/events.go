package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the email stream
const (
	EventEmailVerification  = "email_verification"
	EventEmailWelcome       = "email_welcome"
	EventEmailPasswordReset = "email_password_reset"
)

// Stream names
const (
	StreamEmail = "stream:email"
)

// Consumer group name for email workers
const (
	ConsumerGroupEmail = "email_workers"
)

// EmailEvent represents an event published to the email stream.
// All email-related events share this structure.
type EmailEvent struct {
	Type      string `json:"type"`      // EventEmailVerification, EventEmailWelcome, EventEmailPasswordReset
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	UserID    int64  `json:"user_id"`
	Recipient string `json:"recipient"`
	Name      string `json:"name"`

	// Verification and password reset events carry a one-time token.
	Token string `json:"token,omitempty"`
}

// NewVerificationEvent creates an event for sending an email verification link.
// Worker will render the verification template and deliver it over SMTP.
func NewVerificationEvent(userID int64, recipient, name, token string) EmailEvent {
	return EmailEvent{
		Type:      EventEmailVerification,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Recipient: recipient,
		Name:      name,
		Token:     token,
	}
}

// NewWelcomeEvent creates an event for the welcome email sent after
// the user confirms their address.
func NewWelcomeEvent(userID int64, recipient, name string) EmailEvent {
	return EmailEvent{
		Type:      EventEmailWelcome,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Recipient: recipient,
		Name:      name,
	}
}

// NewPasswordResetEvent creates an event for sending a password reset link.
func NewPasswordResetEvent(userID int64, recipient, name, token string) EmailEvent {
	return EmailEvent{
		Type:      EventEmailPasswordReset,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Recipient: recipient,
		Name:      name,
		Token:     token,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e EmailEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEmailEvent parses an EmailEvent from Redis stream message values.
func ParseEmailEvent(values map[string]interface{}) (EmailEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return EmailEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event EmailEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return EmailEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
