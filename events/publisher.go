package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/learnhub/course-checkout/models"
	awspkg "github.com/learnhub/course-checkout/pkg/aws"
	"github.com/segmentio/kafka-go"
)

// Publisher delivers payment events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.PaymentEvent) error
}

// SNSPublisher publishes events to an SNS topic with the event type as a
// message attribute.
type SNSPublisher struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSPublisher(client awspkg.SNSPublisher, topicArn string) *SNSPublisher {
	return &SNSPublisher{client: client, topicArn: topicArn}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.client.Publish(ctx, p.topicArn, data, map[string]string{"event_type": event.Type})
}

// SQSPublisher sends events straight to a queue, for deployments without an
// SNS fan-out in front of the consumer.
type SQSPublisher struct {
	client   awspkg.SQSSender
	queueURL string
}

func NewSQSPublisher(client awspkg.SQSSender, queueURL string) *SQSPublisher {
	return &SQSPublisher{client: client, queueURL: queueURL}
}

func (p *SQSPublisher) Publish(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.client.SendMessage(ctx, p.queueURL, data, map[string]string{"event_type": event.Type})
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by order ID, so all
// events of one order land on the same partition.
type KafkaPublisher struct {
	writer kafkaWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.OrderID),
		Value:   data,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(event.Type)}},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every event. Used when no bus is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.PaymentEvent) error { return nil }
