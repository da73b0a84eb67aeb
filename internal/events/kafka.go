package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"orderhub/internal/logger"
)

const writeTimeout = 10 * time.Second

// KafkaPublisher buffers events and writes them from a single goroutine.
type KafkaPublisher struct {
	w        *kafka.Writer
	producer string
	log      *logger.Logger

	mu     sync.RWMutex
	closed bool
	inbox  chan kafka.Message
	done   chan struct{}
}

// NewKafkaPublisher starts a publisher writing to topic.
func NewKafkaPublisher(brokers []string, topic, producer string, buf int, log *logger.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		producer: producer,
		log:      log,
		inbox:    make(chan kafka.Message, buf),
		done:     make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for m := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.w.WriteMessages(ctx, m); err != nil {
			p.log.Error("publish event failed", "key", string(m.Key), "error", err)
		}
		cancel()
	}
}

// Publish enqueues an event keyed by key. It never blocks: when the buffer is
// full the event is dropped and logged.
func (p *KafkaPublisher) Publish(_ context.Context, eventType, key string, payload any) {
	env, err := NewEnvelope(p.producer, eventType, key, payload)
	if err != nil {
		p.log.Error("build event envelope", "event_type", eventType, "error", err)
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Error("marshal event envelope", "event_type", eventType, "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn("event dropped after shutdown", "event_type", eventType, "key", key)
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.log.Warn("event buffer full, dropping event", "event_type", eventType, "key", key)
	}
}

// Close stops accepting events, flushes the buffer and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.done
	return p.w.Close()
}
