// Package events publishes listing lifecycle changes so other vendors'
// clients can be notified without polling.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Type names a lifecycle change.
type Type string

const (
	EmergencyCreated   Type = "emergency.created"
	EmergencyResponded Type = "emergency.responded"
	EmergencyFulfilled Type = "emergency.fulfilled"
	EmergencyCancelled Type = "emergency.cancelled"

	SurplusCreated   Type = "surplus.created"
	SurplusClaimed   Type = "surplus.claimed"
	SurplusCompleted Type = "surplus.completed"
	SurplusRemoved   Type = "surplus.removed"

	PriceReported Type = "price.reported"
	PriceVerified Type = "price.verified"
	PriceRejected Type = "price.rejected"
	PriceVoted    Type = "price.voted"
)

// Event is one lifecycle change of an emergency request, surplus listing or
// price report.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	EntityID   string    `json:"entityId"`
	VendorID   string    `json:"vendorId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// New stamps an event with a fresh id.
func New(t Type, entityID, vendorID string, at time.Time, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		EntityID:   entityID,
		VendorID:   vendorID,
		OccurredAt: at,
		Data:       data,
	}
}

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON to one topic, keyed by entity id so a
// listing's events stay ordered within a partition.
type KafkaPublisher struct {
	w messageWriter
}

// NewWriter builds a synchronous kafka-go writer for topic.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaPublisher publishes to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: NewWriter(brokers, topic)}
}

// Publish encodes e and writes it.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityID),
		Value: body,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

// LogPublisher writes events to a zerolog logger. It is the sink used when no
// brokers are configured.
type LogPublisher struct {
	log zerolog.Logger
}

// NewLogPublisher returns a publisher that logs to l.
func NewLogPublisher(l zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: l}
}

// Publish logs e at info level.
func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	p.log.Info().
		Str("eventId", e.ID).
		Str("type", string(e.Type)).
		Str("entityId", e.EntityID).
		Str("vendorId", e.VendorID).
		Time("occurredAt", e.OccurredAt).
		Msg("lifecycle event")
	return nil
}

// Discard drops every event.
type Discard struct{}

// Publish does nothing.
func (Discard) Publish(context.Context, Event) error { return nil }
