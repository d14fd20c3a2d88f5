package queue

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultDialTimeout bounds TCP connect and the AMQP handshake when the
// context carries no deadline.
const DefaultDialTimeout = 10 * time.Second

// Dial opens a broker connection.  The TCP connect and the AMQP handshake
// together must finish before ctx's deadline (or DefaultDialTimeout), so a
// broker that accepts connections but never answers cannot stall the caller.
func Dial(ctx context.Context, url string) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := DefaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		if timeout = time.Until(dl); timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	return amqp.DialConfig(url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
}
