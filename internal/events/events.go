// Package events publishes auth lifecycle events to Kafka for downstream
// analytics. Publishing is optional: when no brokers are configured the
// gateway simply runs without a publisher.
package events

import (
	"fmt"
	"os"
	"time"
)

// Type names an auth lifecycle event.
type Type string

const (
	TypeRegistered Type = "user.registered"
	TypeLoggedIn   Type = "user.logged_in"
	TypeLoggedOut  Type = "user.logged_out"
	TypeExpired    Type = "session.expired"
)

// AuthEvent is the record published for each auth transition.
type AuthEvent struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Email     string    `json:"email"`
	At        time.Time `json:"at"`
	RequestID string    `json:"request_id,omitempty"`
}

// Config holds Kafka publisher configuration
type Config struct {
	Brokers           string
	Topic             string
	EnableIdempotence bool
	Acks              string
}

// LoadConfig loads publisher configuration from environment variables.
// KAFKA_BROKERS is required; the topic defaults to auth-events.
func LoadConfig() (*Config, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	topic := os.Getenv("KAFKA_TOPIC_AUTH_EVENTS")
	if topic == "" {
		topic = "auth-events"
	}

	return &Config{
		Brokers:           brokers,
		Topic:             topic,
		EnableIdempotence: true,
		Acks:              "all",
	}, nil
}
