package alerts

import (
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
	"safewatch/apps/safewatch/internal/events"
)

// Publisher mirrors dispatched alerts onto a Kafka topic for downstream
// consumers. Delivery of email alerts never depends on Kafka being up; a
// publish failure is logged by the caller and dropped.
type Publisher struct {
	logger        *zap.Logger
	kafkaProducer *kafka.Producer
	kafkaTopic    string
}

func NewPublisher(kafkaBroker, kafkaTopic string, logger *zap.Logger) (*Publisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": kafkaBroker,
		"acks":              "all",
		"retries":           3,
		"retry.backoff.ms":  100,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Publisher{
		logger:        logger,
		kafkaProducer: producer,
		kafkaTopic:    kafkaTopic,
	}, nil
}

// PublishAlert publishes one alert event, keyed by safe address for partition
// consistency, and waits for the delivery confirmation.
func (p *Publisher) PublishAlert(event events.AlertEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	deliveryChan := make(chan kafka.Event)
	defer close(deliveryChan)

	err = p.kafkaProducer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.kafkaTopic, Partition: kafka.PartitionAny},
		Key:            []byte(event.SafeAddress),
		Value:          msgBytes,
	}, deliveryChan)

	if err != nil {
		return fmt.Errorf("failed to produce alert event: %w", err)
	}

	e := <-deliveryChan
	switch ev := e.(type) {
	case *kafka.Message:
		if ev.TopicPartition.Error != nil {
			return ev.TopicPartition.Error
		}
	default:
		return fmt.Errorf("unexpected kafka event type: %T", e)
	}

	p.logger.Info("Published alert event",
		zap.String("monitor_id", event.MonitorID),
		zap.String("tx_hash", event.TxHash),
		zap.String("outcome", event.Outcome))
	return nil
}

func (p *Publisher) Close() error {
	if p.kafkaProducer != nil {
		p.kafkaProducer.Close()
	}
	return nil
}
