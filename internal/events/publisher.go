package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
)

// Publisher wraps a Kafka producer for auth events
type Publisher struct {
	producer *kafka.Producer
	config   *Config
	logger   *slog.Logger
}

// NewPublisher creates a Kafka-backed publisher with idempotence enabled so
// gateway retries never duplicate analytics events.
func NewPublisher(config *Config, logger *slog.Logger) (*Publisher, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":                     config.Brokers,
		"enable.idempotence":                    config.EnableIdempotence,
		"acks":                                  config.Acks,
		"max.in.flight.requests.per.connection": 5,
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	publisher := &Publisher{
		producer: p,
		config:   config,
		logger:   logger,
	}

	go publisher.handleDeliveryReports()

	logger.Info("Auth event publisher initialized",
		"brokers", config.Brokers,
		"topic", config.Topic)

	return publisher, nil
}

// Publish sends an auth event asynchronously. Delivery failures surface in
// the delivery-report handler; callers treat publishing as best effort.
func (p *Publisher) Publish(eventType Type, email, requestID string) error {
	event := AuthEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Email:     email,
		At:        time.Now().UTC(),
		RequestID: requestID,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &p.config.Topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(email),
		Value: data,
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce event: %w", err)
	}

	p.logger.Debug("Auth event published",
		"type", string(eventType),
		"size", len(data))

	return nil
}

// handleDeliveryReports processes asynchronous delivery reports
func (p *Publisher) handleDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Auth event delivery failed",
					"topic", *ev.TopicPartition.Topic,
					"error", ev.TopicPartition.Error)
			}
		case kafka.Error:
			p.logger.Error("Kafka error", "code", ev.Code().String(), "error", ev.Error())
		}
	}
}

// Close flushes outstanding events and shuts the producer down.
func (p *Publisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
}
