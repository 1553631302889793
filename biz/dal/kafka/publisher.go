package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"portfolio-ledger/biz/model"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/segmentio/kafka-go"
)

const (
	publishBatchSize = 100
	publishInterval  = 10 * time.Millisecond
	publishTimeout   = 5 * time.Second
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Publisher batches ledger events into Kafka, keyed by user so one user's events stay in order.
// Publish never blocks a ledger request: when the queue is full the event is dropped and logged.
type Publisher struct {
	writer  MessageWriter
	events  chan model.LedgerEvent
	closeCh chan struct{}
	done    chan struct{}
	closed  atomic.Bool
}

func NewPublisher(writer MessageWriter, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	p := &Publisher{
		writer:  writer,
		events:  make(chan model.LedgerEvent, queueSize),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Publisher) Publish(ctx context.Context, ev model.LedgerEvent) {
	if p.closed.Load() {
		hlog.CtxWarnf(ctx, "[LedgerEvents] publisher closed, drop event_id=%s", ev.EventID)
		return
	}
	select {
	case p.events <- ev:
	default:
		hlog.CtxWarnf(ctx, "[LedgerEvents] queue full, drop event_id=%s, type=%s", ev.EventID, ev.Type)
	}
}

// Close flushes queued events and stops the loop.
func (p *Publisher) Close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.closeCh)
	<-p.done
}

func (p *Publisher) loop() {
	defer close(p.done)
	batch := make([]kafka.Message, 0, publishBatchSize)
	ticker := time.NewTicker(publishInterval)
	defer ticker.Stop()
	for {
		select {
		case ev := <-p.events:
			batch = p.appendEvent(batch, ev)
			if len(batch) >= publishBatchSize {
				batch = p.flush(batch)
			}
		case <-ticker.C:
			batch = p.flush(batch)
		case <-p.closeCh:
			for {
				select {
				case ev := <-p.events:
					batch = p.appendEvent(batch, ev)
				default:
					p.flush(batch)
					return
				}
			}
		}
	}
}

func (p *Publisher) appendEvent(batch []kafka.Message, ev model.LedgerEvent) []kafka.Message {
	b, err := json.Marshal(ev)
	if err != nil {
		hlog.Errorf("[LedgerEvents] marshal event_id=%s: %v", ev.EventID, err)
		return batch
	}
	return append(batch, kafka.Message{Key: []byte(ev.UserID), Value: b, Time: ev.OccurredAt})
}

func (p *Publisher) flush(batch []kafka.Message) []kafka.Message {
	if len(batch) == 0 {
		return batch
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		hlog.Errorf("[LedgerEvents] write %d messages failed: %v", len(batch), err)
	}
	return batch[:0]
}
