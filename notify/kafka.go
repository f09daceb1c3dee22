package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"compressd/models"
)

// Kafka writes progress events to a topic keyed by job id, so one job's
// events land in order on the same partition.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (k *Kafka) Notify(ctx context.Context, ev models.ProgressEvent) error {
	data, err := json.Marshal(payload(ev))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.JobID),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("write to kafka: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}
