package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/aretw0/dispatch/pkg/observability"
	backend "github.com/redis/go-redis/v9"
)

// DefaultStream is the stream key used when none is configured.
const DefaultStream = "dispatch:events"

// StreamSink appends every event it handles to a Redis stream. A write
// failure is returned to the caller, which aborts the intercepted operation.
type StreamSink struct {
	client *backend.Client
	stream string
	maxLen int64
}

// Option configures a StreamSink.
type Option func(*StreamSink)

// WithStream sets the stream key.
func WithStream(stream string) Option {
	return func(s *StreamSink) {
		s.stream = stream
	}
}

// WithMaxLen caps the stream length (approximate trimming).
func WithMaxLen(n int64) Option {
	return func(s *StreamSink) {
		s.maxLen = n
	}
}

// New creates a sink with its own client.
func New(address, password string, db int, opts ...Option) *StreamSink {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a sink from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *StreamSink {
	sink := &StreamSink{
		client: client,
		stream: DefaultStream,
	}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// Handle implements domain.Handler.
func (s *StreamSink) Handle(ctx context.Context, ev domain.Event) error {
	payload, err := observability.Encode(ev)
	if err != nil {
		return err
	}

	args := &backend.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":        ev.ID(),
			"kind":      ev.Kind().String(),
			"target":    ev.TargetName(),
			"operation": ev.Operation(),
			"payload":   string(payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis xadd %s: %w", s.stream, err)
	}
	return nil
}

// Read returns up to count records from the start of the stream; count <= 0
// reads everything.
func (s *StreamSink) Read(ctx context.Context, count int64) ([]observability.Record, error) {
	var (
		msgs []backend.XMessage
		err  error
	)
	if count > 0 {
		msgs, err = s.client.XRangeN(ctx, s.stream, "-", "+", count).Result()
	} else {
		msgs, err = s.client.XRange(ctx, s.stream, "-", "+").Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redis xrange %s: %w", s.stream, err)
	}

	records := make([]observability.Record, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["payload"].(string)
		if !ok {
			return nil, fmt.Errorf("stream entry %s has no payload", msg.ID)
		}
		r, err := observability.Decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Close releases the underlying client.
func (s *StreamSink) Close() error {
	return s.client.Close()
}

// Len returns the number of entries in the stream.
func (s *StreamSink) Len(ctx context.Context) (int64, error) {
	return s.client.XLen(ctx, s.stream).Result()
}
