package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the sink needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON, keyed by account so that one
// account's events stay on one partition
type KafkaSink struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zap.Logger
}

// NewKafkaWriter creates an asynchronous writer for the audit topic.
// Delivery failures are reported through logger once retries are exhausted.
func NewKafkaWriter(brokers []string, topic string, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		Async:        true,
		Completion:   deliveryReport(logger),
		Logger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Debug(fmt.Sprintf(msg, args...)) }),
		ErrorLogger:  kafka.LoggerFunc(func(msg string, args ...interface{}) { logger.Error(fmt.Sprintf(msg, args...)) }),
	}
}

func deliveryReport(logger *zap.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			logger.Debug("Audit events delivered", zap.Int("count", len(messages)))
			return
		}
		for _, m := range messages {
			logger.Error("Failed to deliver audit event",
				zap.String("key", string(m.Key)),
				zap.ByteString("event", m.Value),
				zap.Error(err),
			)
		}
	}
}

// NewKafkaSink creates a sink publishing through writer
func NewKafkaSink(writer MessageWriter, logger *zap.Logger) *KafkaSink {
	return &KafkaSink{
		writer:  writer,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// Record hands the event to the writer. With an asynchronous writer this only
// enqueues it; the timeout bounds how long a full queue can hold the caller.
func (s *KafkaSink) Record(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	produceCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(eventKey(e)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "operation", Value: []byte(e.Operation)},
			{Key: "outcome", Value: []byte(e.Outcome)},
		},
	}
	if err := s.writer.WriteMessages(produceCtx, msg); err != nil {
		return fmt.Errorf("failed to publish audit event %s: %w", e.ID, err)
	}
	s.logger.Debug("Audit event queued", zap.String("operation", e.Operation), zap.Stringer("event_id", e.ID))
	return nil
}

// Close closes the underlying writer
func (s *KafkaSink) Close() error {
	if err := s.writer.Close(); err != nil {
		return fmt.Errorf("failed to close audit writer: %w", err)
	}
	return nil
}

func eventKey(e Event) string {
	if e.AccountNumber != 0 {
		return e.BranchCode + "/" + strconv.Itoa(e.AccountNumber)
	}
	if e.TaxID != "" {
		return e.TaxID
	}
	return e.Operation
}
