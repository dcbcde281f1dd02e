package kafka

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/cybertank378/student-point-app-sub000/internal/infra/config"
)

// Producer owns the async Sarama producer. Delivery is fire-and-forget with
// local-ack durability; failed deliveries surface in the logs only.
type Producer struct {
	inner  sarama.AsyncProducer
	logger *zap.Logger
	prefix string
}

// NewProducer connects to the configured brokers and starts the error drain.
func NewProducer(cfg config.KafkaSettings, logger *zap.Logger) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_5_0_0
	sc.Producer.RequiredAcks = sarama.WaitForLocal
	sc.Producer.Compression = sarama.CompressionSnappy
	sc.Producer.Flush.Frequency = 100 * time.Millisecond
	sc.Producer.Flush.Messages = 100
	sc.Producer.Retry.Max = 3
	sc.Producer.Return.Successes = false
	sc.Producer.Return.Errors = true
	sc.Metadata.Retry.Max = 3
	sc.Metadata.Retry.Backoff = 250 * time.Millisecond

	inner, err := sarama.NewAsyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	p := &Producer{inner: inner, logger: logger, prefix: cfg.TopicPrefix}
	go p.drainErrors()

	logger.Info("kafka producer ready",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic_prefix", cfg.TopicPrefix),
	)
	return p, nil
}

// drainErrors runs until Close shuts the underlying error channel.
func (p *Producer) drainErrors() {
	for perr := range p.inner.Errors() {
		p.logger.Error("kafka delivery failed",
			zap.String("topic", perr.Msg.Topic),
			zap.Error(perr.Err),
		)
	}
}

// Producer exposes the underlying async producer for the event publisher.
func (p *Producer) Producer() sarama.AsyncProducer {
	return p.inner
}

// TopicName prefixes the event type with the configured topic namespace.
func (p *Producer) TopicName(eventType string) string {
	if p.prefix == "" || strings.HasPrefix(eventType, p.prefix+".") {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Close flushes pending messages and stops the drain goroutine.
func (p *Producer) Close() error {
	p.logger.Info("closing kafka producer")
	if err := p.inner.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
