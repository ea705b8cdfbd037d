package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialTimeout = 3 * time.Second
	heartbeat   = 10 * time.Second
)

type Options struct {
	URL            string
	Queue          string
	ConnectionName string
}

// New connects to the broker and makes sure the journal queue exists before
// the publisher or the worker touches it.
func New(ctx context.Context, opts Options) (*amqp.Connection, error) {
	props := amqp.NewConnectionProperties()
	if opts.ConnectionName != "" {
		props.SetClientConnectionName(opts.ConnectionName)
	}

	conn, err := amqp.DialConfig(opts.URL, amqp.Config{
		Heartbeat:  heartbeat,
		Properties: props,
		Dial:       amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	if err := ensureQueue(ctx, conn, opts.Queue); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func ensureQueue(ctx context.Context, conn *amqp.Connection, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("declare queue %s aborted: %w", name, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	// durable, not auto-deleted, shared between publisher and worker
	if _, err := ch.QueueDeclare(name, true, false, false, false, amqp.Table{
		"x-queue-type": "classic",
	}); err != nil {
		return fmt.Errorf("declare queue %s failed: %w", name, err)
	}
	return nil
}
