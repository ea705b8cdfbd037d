package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"docqa/internal/model"
)

type JournalPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewJournalPublisher(conn *amqp.Connection, queueName string) *JournalPublisher {
	return &JournalPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *JournalPublisher) Publish(ctx context.Context, entry model.JournalEntry) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish journal entry failed: %w", err)
	}
	return nil
}

func (p *JournalPublisher) Connected() bool {
	return p.conn != nil && !p.conn.IsClosed()
}
