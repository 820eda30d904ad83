package mykafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Event map[string]any

func NewEvent(kind string, fields map[string]any) Event {
	ev := Event{
		"type":        kind,
		"event_id":    uuid.NewString(),
		"occurred_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		ev[k] = v
	}
	return ev
}

// Publish sends ev best-effort: failures are logged and swallowed.
func Publish(ctx context.Context, p Publisher, l *slog.Logger, topic, key string, ev Event) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		l.Error("kafka_publish_failed", "topic", topic, "type", ev["type"], "error", err)
	}
}
