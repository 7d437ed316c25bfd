package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/rs/zerolog"
)

// KafkaPublisher implements Publisher using Apache Kafka. The event key is
// used as the message key so events for one entity land on one partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	config   KafkaConfig
	logger   zerolog.Logger
	doneCh   chan struct{}
}

// NewKafkaPublisher creates a new Kafka-based Publisher.
func NewKafkaPublisher(cfg KafkaConfig, topics []string, logger zerolog.Logger) (*KafkaPublisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	kp := &KafkaPublisher{
		producer: p,
		config:   cfg,
		logger:   logger.With().Str("component", "kafka_publisher").Logger(),
		doneCh:   make(chan struct{}),
	}

	go kp.deliveryReportHandler()

	if err := kp.ensureTopics(topics); err != nil {
		kp.logger.Warn().Err(err).Msg("failed to ensure kafka topics (may already exist)")
	}

	return kp, nil
}

// ensureTopics creates the given topics if they don't exist.
func (k *KafkaPublisher) ensureTopics(topics []string) error {
	if len(topics) == 0 {
		return nil
	}

	admin, err := kafka.NewAdminClientFromProducer(k.producer)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	partitions := k.config.Partitions
	if partitions <= 0 {
		partitions = 4
	}
	replication := k.config.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := make([]kafka.TopicSpecification, 0, len(topics))
	for _, t := range topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             t,
			NumPartitions:     partitions,
			ReplicationFactor: replication,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}

	for _, r := range results {
		if r.Error.Code() != kafka.ErrNoError && r.Error.Code() != kafka.ErrTopicAlreadyExists {
			k.logger.Warn().Str("topic", r.Topic).Err(r.Error).Msg("failed to create topic")
		}
	}

	return nil
}

// deliveryReportHandler processes delivery reports from the producer.
func (k *KafkaPublisher) deliveryReportHandler() {
	for e := range k.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				topic := ""
				if ev.TopicPartition.Topic != nil {
					topic = *ev.TopicPartition.Topic
				}
				k.logger.Error().
					Err(ev.TopicPartition.Error).
					Str("topic", topic).
					Str("key", string(ev.Key)).
					Msg("kafka delivery failed")
			}
		case kafka.Error:
			k.logger.Error().Err(ev).Bool("fatal", ev.IsFatal()).Msg("kafka producer error")
		}
	}
	close(k.doneCh)
}

// Publish enqueues the event on topic. Delivery failures are reported
// asynchronously through the logger.
func (k *KafkaPublisher) Publish(ctx context.Context, topic string, event *Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.Key),
		Value: data,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	return nil
}

// Close flushes pending messages and closes the producer.
func (k *KafkaPublisher) Close() error {
	if remaining := k.producer.Flush(5000); remaining > 0 {
		k.logger.Warn().Int("remaining", remaining).Msg("kafka flush timed out")
	}
	k.producer.Close()
	<-k.doneCh
	return nil
}
