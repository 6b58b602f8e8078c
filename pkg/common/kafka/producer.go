package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/verident/registry/pkg/common/config"
	"github.com/verident/registry/pkg/common/logger"
	"github.com/verident/registry/pkg/common/models"
)

// Producer publishes record lifecycle events. Publishing is best effort:
// failures are logged and never block the originating request.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(cfg *config.Config) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.RecordEventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{writer: writer}
}

func (p *Producer) PublishRecordEvent(ctx context.Context, action, recordID, actor string, data map[string]interface{}) error {
	event := models.RecordEvent{
		ID:        uuid.New().String(),
		Action:    action,
		RecordID:  recordID,
		Actor:     actor,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(recordID),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(action)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"event_id": event.ID,
			"action":   action,
		}).Error("Failed to publish record event")
		return err
	}

	logger.Log.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"action":   action,
		"topic":    p.writer.Topic,
	}).Debug("Record event published")

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
