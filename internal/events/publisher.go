// Package events fans completed readings out to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/carelink/bpbot/internal/domain"
)

// ReadingEvent is the message published for every stored reading.
type ReadingEvent struct {
	EventID    string    `json:"event_id"`
	PatientID  string    `json:"patient_id"`
	Systolic   float64   `json:"systolic_bp"`
	Diastolic  float64   `json:"diastolic_bp"`
	Pulse      float64   `json:"pulse"`
	MAP        int       `json:"map"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewReadingEvent builds the event for r.
func NewReadingEvent(r domain.Reading) ReadingEvent {
	return ReadingEvent{
		EventID:    uuid.NewString(),
		PatientID:  r.PatientID,
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      r.Pulse,
		MAP:        r.MAP(),
		RecordedAt: r.RecordedAt,
	}
}

// Publisher delivers reading events.
type Publisher interface {
	PublishReading(ctx context.Context, r domain.Reading) error
	Close() error
}

// NopPublisher drops every event. It is used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishReading(context.Context, domain.Reading) error { return nil }
func (NopPublisher) Close() error                                         { return nil }

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON reading events keyed by patient ID.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher for topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

// PublishReading writes one event for r.
func (p *KafkaPublisher) PublishReading(ctx context.Context, r domain.Reading) error {
	event := NewReadingEvent(r)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal reading event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(r.PatientID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write reading event: %w", err)
	}
	p.logger.Debug("Reading event published", "event_id", event.EventID, "patient_id", r.PatientID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
