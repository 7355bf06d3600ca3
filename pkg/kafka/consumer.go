package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries is the maximum number of times a message handler will be
// attempted before the message is dead-lettered (or, without a DLQ, committed
// and skipped as a poison pill).
const maxHandlerRetries = 3

// ErrPermanent marks handler failures that can never succeed on retry, such
// as a payload that does not parse. Handlers wrap such errors with it; the
// consumer sends the message straight to the DLQ instead of retrying.
var ErrPermanent = errors.New("permanent handler failure")

// Handler is a function that processes a Kafka event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topics   []string
	MinBytes int
	MaxBytes int
}

// Consumer wraps the kafka-go reader for consuming events. One reader spans
// every subscribed topic and messages are fetched and processed one at a
// time, so events sharing a routing key are never in flight concurrently
// within a process, regardless of which topic they arrived on.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	handler   Handler
	dlq       *DLQProducer
	groupID   string
	topics    string
	closeOnce sync.Once
}

// NewConsumer creates a new Kafka consumer for a group and set of topics.
// The DLQ producer is optional; without it, failed messages are committed and
// skipped after the retry budget is exhausted.
func NewConsumer(cfg ConsumerConfig, handler Handler, dlq *DLQProducer, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
	})

	return &Consumer{
		reader:  r,
		logger:  logger,
		handler: handler,
		dlq:     dlq,
		groupID: cfg.GroupID,
		topics:  strings.Join(cfg.Topics, ","),
	}
}

// Start begins consuming messages. It blocks until the context is canceled
// and closes the reader on every exit path.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.Close()

	c.logger.Info("consumer started",
		slog.String("topics", c.topics),
		slog.String("group", c.groupID),
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", slog.String("topics", c.topics))
			return nil
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
				continue
			}

			ConsumerMessagesReceived.WithLabelValues(msg.Topic, c.groupID).Inc()

			event, err := UnmarshalEvent(msg.Value)
			if err != nil {
				// The envelope itself is unparseable; retrying is wasted work.
				c.deadLetter(ctx, msg, fmt.Errorf("unmarshal event: %w", err))
				c.commit(ctx, msg)
				continue
			}

			if err := c.process(ctx, event, msg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				ConsumerMessagesFailed.WithLabelValues(msg.Topic, c.groupID).Inc()
				c.deadLetter(ctx, msg, err)
			} else {
				ConsumerMessagesProcessed.WithLabelValues(msg.Topic, c.groupID).Inc()
			}

			c.commit(ctx, msg)
		}
	}
}

// process runs the handler with bounded retries. Permanent errors are
// returned immediately; transient errors are retried with linear backoff.
func (c *Consumer) process(ctx context.Context, event *Event, msg kafka.Message) error {
	start := time.Now()
	defer func() {
		ConsumerProcessingDuration.WithLabelValues(msg.Topic, c.groupID).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		err := c.handler(ctx, event)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) {
			c.logger.Error("handler failed permanently, not retrying",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.String("error", err.Error()),
			)
			return err
		}

		lastErr = err
		c.logger.Warn("handler failed, will retry",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.Int("max_retries", maxHandlerRetries),
		)

		if attempt < maxHandlerRetries {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", maxHandlerRetries, lastErr)
}

func (c *Consumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) {
	if c.dlq == nil {
		c.logger.Error("no DLQ configured, skipping failed message",
			slog.String("topic", msg.Topic),
			slog.Int("partition", msg.Partition),
			slog.Int64("offset", msg.Offset),
			slog.String("error", cause.Error()),
		)
		return
	}
	if err := c.dlq.Publish(ctx, msg, cause, c.groupID); err != nil {
		c.logger.Error("failed to dead-letter message", slog.String("error", err.Error()))
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message", slog.String("error", err.Error()))
	}
}

// Close closes the consumer. It is safe to call multiple times.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// TopicPrefix is the standard prefix for all marketplace Kafka topics.
const TopicPrefix = "marketplace"

// Topic constructs a fully-qualified topic name.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

// PingBrokers verifies that at least one broker is reachable.
func PingBrokers(ctx context.Context, brokers []string) error {
	var lastErr error
	for _, addr := range brokers {
		d := &net.Dialer{Timeout: 2 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		conn.Close()
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no brokers configured")
	}
	return fmt.Errorf("kafka brokers unreachable: %w", lastErr)
}
