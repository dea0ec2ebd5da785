package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/marketledger/pkg/domain/events"
	"github.com/amirasaad/marketledger/pkg/eventbus"
	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQEventBus publishes to a durable topic exchange, routing by event
// type, and consumes from one durable queue bound per registered type.
type RabbitMQEventBus struct {
	conn          *amqp.Connection
	pubCh         *amqp.Channel
	pubMu         sync.Mutex
	exchange      string
	queue         string
	typeFactories map[string]func() events.Event
	logger        *slog.Logger

	mu       sync.RWMutex
	handlers handlerSet
	subCh    *amqp.Channel
	started  sync.Once
}

// NewWithRabbitMQ dials amqpURL and declares the exchange.
func NewWithRabbitMQ(
	amqpURL, exchange, queue string,
	types map[string]func() events.Event,
	logger *slog.Logger,
) (*RabbitMQEventBus, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq event bus: %w", err)
	}
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq event bus: connection failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq event bus: channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq event bus: exchange declare: %w", err)
	}
	return &RabbitMQEventBus{
		conn:          conn,
		pubCh:         ch,
		exchange:      exchange,
		queue:         queue,
		typeFactories: types,
		logger:        logger.With("bus", "rabbitmq"),
		handlers:      make(handlerSet),
	}, nil
}

// Emit publishes an event with its type as routing key.
func (b *RabbitMQEventBus) Emit(ctx context.Context, event events.Event) error {
	body, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("rabbitmq event bus: %w", err)
	}
	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	if err := b.pubCh.PublishWithContext(ctx, b.exchange, routingKeyFor(event.Type()), false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Type:         event.Type(),
			Body:         body,
		}); err != nil {
		return fmt.Errorf("rabbitmq event bus: publish failed: %w", err)
	}
	return nil
}

// Register binds the queue to eventType and starts the consumer on first use.
func (b *RabbitMQEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()

	var startErr error
	b.started.Do(func() { startErr = b.startConsumer() })
	if startErr != nil {
		b.logger.Error("failed to start consumer", "error", startErr)
		return
	}
	if b.subCh == nil {
		return
	}
	if err := b.subCh.QueueBind(b.queue, routingKeyFor(eventType.String()), b.exchange, false, nil); err != nil {
		b.logger.Error("failed to bind queue", "error", err, "event_type", eventType)
	}
}

func (b *RabbitMQEventBus) startConsumer() error {
	ch, err := b.conn.Channel()
	if err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
		return err
	}
	deliveries, err := ch.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	b.subCh = ch
	go func() {
		for d := range deliveries {
			b.handleDelivery(d)
		}
	}()
	return nil
}

func (b *RabbitMQEventBus) handleDelivery(d amqp.Delivery) {
	evt, err := decodeEnvelope(d.Body, b.typeFactories)
	if err != nil {
		b.logger.Error("dropping undecodable event", "error", err)
		_ = d.Nack(false, false)
		return
	}
	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[events.EventType(evt.Type())]...)
	b.mu.RUnlock()

	if dispatch(context.Background(), b.logger, handlers, evt) {
		_ = d.Ack(false)
		return
	}
	// Dead-lettering is left to the queue policy.
	_ = d.Nack(false, false)
}

// Close closes channels and the connection.
func (b *RabbitMQEventBus) Close() error {
	if b.subCh != nil {
		_ = b.subCh.Close()
	}
	_ = b.pubCh.Close()
	return b.conn.Close()
}

func routingKeyFor(eventType string) string {
	return strings.ToLower(eventType)
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", fmt.Errorf("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

var _ eventbus.Bus = (*RabbitMQEventBus)(nil)
