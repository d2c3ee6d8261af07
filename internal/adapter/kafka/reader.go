// Package kafka adapts the telemetry source topic and the alert sink topic
// to the pipeline's extractor and publisher interfaces.
package kafka

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/field-physics-service/internal/config"
	"github.com/couchcryptid/field-physics-service/internal/domain"
)

// pollTimeout bounds how long one ExtractBatch call waits for further
// messages after the first; it sets the worst-case shutdown latency of the
// ingest loop.
const pollTimeout = 500 * time.Millisecond

// Reader consumes raw telemetry from the source topic as part of a consumer
// group. It implements pipeline.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a consumer-group reader for the configured source topic.
// Offsets are committed explicitly per message via RawEvent.Commit, after
// the reading has been loaded.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaSourceTopic,
		GroupID:     cfg.KafkaGroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch blocks for the first available message, then drains up to
// batchSize-1 more without waiting longer than the poll timeout. A cancelled
// context returns whatever was already fetched.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	batch := []domain.RawEvent{r.mapMessage(msg)}

	for len(batch) < batchSize {
		pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
		msg, err := r.reader.FetchMessage(pollCtx)
		cancel()
		if err != nil {
			break
		}
		batch = append(batch, r.mapMessage(msg))
	}
	return batch, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessage converts a Kafka message into a RawEvent carrying a commit
// callback bound to this reader.
func (r *Reader) mapMessage(msg kafkago.Message) domain.RawEvent {
	raw := mapMessageToRawEvent(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw
}

func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
