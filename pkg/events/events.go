// Package events publishes domain events (activity timeline entries) to kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"maeum-toegeun/backend/internal/models"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/middleware"
)

// Publisher delivers activity events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishActivity(ctx context.Context, activity models.Activity) error
	Close() error
}

// Envelope is the JSON value written for each event
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Activity   models.Activity `json:"activity"`
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes activity events keyed by user id
type KafkaPublisher struct {
	writer writer
	log    *logger.Logger
	now    func() time.Time
}

// NewKafkaPublisher creates an async writer for topic on brokers
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.LogError(err, "failed to deliver activity events", "count", len(messages))
			}
		},
	}
	return &KafkaPublisher{writer: w, log: log, now: time.Now}
}

// PublishActivity encodes activity and hands it to the writer
func (p *KafkaPublisher) PublishActivity(ctx context.Context, activity models.Activity) error {
	data, err := json.Marshal(Envelope{
		Type:       string(activity.Type),
		OccurredAt: p.now(),
		Activity:   activity,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(activity.UserID),
		Value: data,
		Time:  p.now(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(activity.Type)},
		},
	}
	if id := middleware.GetTraceID(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "trace-id", Value: []byte(id)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish activity event: %w", err)
	}
	p.log.Debug("published activity event", "user_id", activity.UserID, "type", activity.Type)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishActivity(context.Context, models.Activity) error { return nil }
func (Nop) Close() error                                          { return nil }

// New returns a kafka publisher when brokers are configured, Nop otherwise
func New(brokers []string, topic string, log *logger.Logger) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(brokers, topic, log)
}
