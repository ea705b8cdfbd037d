package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"docqa/internal/model"
	"docqa/internal/pkg/logger"
)

const logModule = "journal_worker"

type JournalSink interface {
	Create(ctx context.Context, entry *model.JournalEntry) error
}

// JournalWorker drains the journal queue into the sink.
type JournalWorker struct {
	conn      *amqp.Connection
	sink      JournalSink
	queueName string
	log       logger.ILogger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewJournalWorker(conn *amqp.Connection, sink JournalSink, queueName string, log logger.ILogger) *JournalWorker {
	if log == nil {
		log = logger.Nop()
	}
	return &JournalWorker{
		conn:      conn,
		sink:      sink,
		queueName: queueName,
		log:       log,
	}
}

func (w *JournalWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *JournalWorker) handle(ctx context.Context, d amqp.Delivery) {
	w.process(ctx, d.Body, &d)
}

func (w *JournalWorker) process(ctx context.Context, body []byte, ack acknowledger) {
	var entry model.JournalEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		w.log.Warn(logModule, "decode journal entry failed", map[string]interface{}{"error": err.Error()})
		_ = ack.Nack(false, false)
		return
	}

	if err := w.sink.Create(ctx, &entry); err != nil {
		w.log.Error(logModule, "persist journal entry failed", map[string]interface{}{
			"error":      err,
			"session_id": entry.SessionID,
		})
		_ = ack.Nack(false, false)
		return
	}

	_ = ack.Ack(false)
}

func (w *JournalWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
