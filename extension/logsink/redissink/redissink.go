// Package redissink implements logsink.Sink by XADD-ing every record to a
// Redis stream, grounded on the teacher's own redis/go-redis/v8 log-sink
// usage (internal/logsink in the teacher repo).
package redissink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v8"

	"github.com/oriys/go-lambda-runtime/extension/logsink"
)

// Sink forwards delivered batches to a Redis stream, one XADD per record.
type Sink struct {
	client *redis.Client
	stream string
}

// New builds a Sink writing to stream on client. XADD is issued without
// MAXLEN, so the stream is not trimmed.
func New(client *redis.Client, stream string) *Sink {
	return &Sink{client: client, stream: stream}
}

func (s *Sink) Accept(ctx context.Context, batch []logsink.Record) error {
	pipe := s.client.Pipeline()
	for _, rec := range batch {
		payload, err := json.Marshal(rec.Record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			Values: map[string]interface{}{
				"type":   rec.Type,
				"time":   rec.Time.UnixMilli(),
				"record": string(payload),
			},
		})
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("xadd batch: %w", err)
	}
	return nil
}
