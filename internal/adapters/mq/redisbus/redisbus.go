// Package redisbus carries row submissions and results over Redis pub/sub.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"github.com/okian/vigil/internal/adapters/repository"
	"github.com/okian/vigil/internal/domain/engine"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

// Default channels and breaker settings.
const (
	DefaultInputChannel  = "vigil:rows"
	DefaultResultChannel = "vigil:results"

	breakerInterval     = 60 * time.Second
	breakerTimeout      = 60 * time.Second
	breakerTripFailures = 3
	breakerMinRequests  = 20
	breakerFailureRatio = 0.05
)

// Message is one submission read from the input channel.
type Message struct {
	BatchID string         `json:"batch_id"`
	Rows    []engine.Input `json:"rows"`
}

// Handler receives decoded submissions.
type Handler func(ctx context.Context, batchID string, rows []engine.Input) error

// NewClient connects to addr and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  5 * time.Minute,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

// Publisher publishes stored records as JSON.
type Publisher struct {
	client  *redis.Client
	channel string
	breaker *gobreaker.CircuitBreaker
}

// NewPublisher creates a publisher on channel. An empty channel selects
// DefaultResultChannel.
func NewPublisher(client *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = DefaultResultChannel
	}
	st := gobreaker.Settings{Name: "redis-" + channel}
	st.Interval = breakerInterval
	st.Timeout = breakerTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		if counts.ConsecutiveFailures >= breakerTripFailures {
			return true
		}
		if counts.Requests < breakerMinRequests {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > breakerFailureRatio
	}
	return &Publisher{client: client, channel: channel, breaker: gobreaker.NewCircuitBreaker(st)}
}

// State returns the breaker state.
func (p *Publisher) State() gobreaker.State { return p.breaker.State() }

// Publish sends rec to the result channel.
func (p *Publisher) Publish(ctx context.Context, rec repository.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.RecordID, err)
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.client.Publish(ctx, p.channel, string(body)).Err()
	})
	switch {
	case err == nil:
		metrics.RecordPublished("ok")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordPublished("open")
		return fmt.Errorf("%w: %w", ErrBreakerOpen, err)
	default:
		metrics.RecordPublished("error")
		return fmt.Errorf("failed to publish record %s: %w", rec.RecordID, err)
	}
}

// Subscriber feeds submissions from the input channel to a handler.
type Subscriber struct {
	client  *redis.Client
	channel string
	handler Handler
	logger  logger.Logger
}

// NewSubscriber creates a subscriber on channel. An empty channel selects
// DefaultInputChannel.
func NewSubscriber(client *redis.Client, channel string, h Handler) *Subscriber {
	if channel == "" {
		channel = DefaultInputChannel
	}
	return &Subscriber{client: client, channel: channel, handler: h, logger: logger.Get().Named("redis-subscriber")}
}

// Run consumes messages until ctx is canceled. Malformed or rejected
// messages are logged and skipped.
func (s *Subscriber) Run(ctx context.Context) error {
	if s.handler == nil {
		return ErrNoHandler
	}
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}
	s.logger.Info(ctx, "subscribed", logger.String("channel", s.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Handle(ctx, msg.Payload); err != nil {
				s.logger.Warn(ctx, "message dropped", logger.String("channel", s.channel), logger.Error(err))
			}
		}
	}
}

// Handle decodes one payload and passes it to the handler. A bare row
// object is accepted as a batch of one.
func (s *Subscriber) Handle(ctx context.Context, payload string) error {
	if s.handler == nil {
		return ErrNoHandler
	}
	metrics.RecordReceived()

	msg, err := decode(payload)
	if err != nil {
		return err
	}
	return s.handler(ctx, msg.BatchID, msg.Rows)
}

func decode(payload string) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if len(msg.Rows) > 0 {
		for i, row := range msg.Rows {
			if row.RecordID == "" {
				return Message{}, fmt.Errorf("%w: rows[%d]: missing record_id", ErrInvalidMessage, i)
			}
		}
		return msg, nil
	}
	var row engine.Input
	if err := json.Unmarshal([]byte(payload), &row); err != nil || row.RecordID == "" {
		return Message{}, fmt.Errorf("%w: no rows", ErrInvalidMessage)
	}
	return Message{BatchID: msg.BatchID, Rows: []engine.Input{row}}, nil
}
