// Package kafkatest provides an in-memory event publisher for tests.
package kafkatest

import (
	"context"
	"encoding/json"
	"sync"
)

type Message struct {
	Topic string
	Key   string
	Event map[string]any
}

type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	Err  error
}

func (r *Recorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	if r.Err != nil {
		return r.Err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, Message{Topic: topic, Key: key, Event: m})
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

func (r *Recorder) Types(topic string) []string {
	var out []string
	for _, m := range r.Messages() {
		if m.Topic == topic {
			t, _ := m.Event["type"].(string)
			out = append(out, t)
		}
	}
	return out
}
