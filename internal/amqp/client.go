package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
)

// ActivityBinding matches every activity routing key.
const ActivityBinding = "activity.#"

var (
	ErrCircuitOpen  = errors.New("circuit breaker is open")
	ErrReconnecting = errors.New("reconnecting to broker")
	ErrNacked       = errors.New("broker did not confirm message")
)

// Client publishes and consumes activity events on a topic exchange. Each
// consumer process owns its queue so the feed and the exporter both see
// every event.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	reconnecting atomic.Bool

	state        int32
	failureCount int64
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	c := &Client{url: url, exchangeName: exchangeName, queueName: queueName}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, channel, err := c.dial()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

// dial opens a connection and a confirm-mode channel with the exchange and
// queue declared. It does not touch the client's state.
func (c *Client) dial() (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := c.setup(channel); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	if err := channel.Confirm(false); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("enable publisher confirms: %w", err)
	}
	return conn, channel, nil
}

func (c *Client) setup(channel *amqp091.Channel) error {
	err := channel.ExchangeDeclare(
		c.exchangeName, // name
		"topic",        // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// Publish-only clients have no queue.
	if c.queueName == "" {
		return nil
	}

	_, err = channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := channel.QueueBind(c.queueName, ActivityBinding, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// reconnect replaces a dead connection, retrying with exponential backoff
// until ctx is done. Only one reconnect runs at a time; concurrent callers
// get ErrReconnecting. The client lock is only held to swap state, so
// publishers fail fast while the broker is away.
func (c *Client) reconnect(ctx context.Context) error {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return ErrReconnecting
	}
	defer c.reconnecting.Store(false)

	c.mu.Lock()
	if c.conn != nil && !c.conn.IsClosed() {
		c.mu.Unlock()
		return nil
	}
	oldConn, oldChannel := c.conn, c.channel
	c.conn, c.channel = nil, nil
	c.mu.Unlock()
	closeQuietly(oldConn, oldChannel)

	for attempt := 0; ; attempt++ {
		conn, channel, err := c.dial()
		if err == nil {
			c.mu.Lock()
			c.conn, c.channel = conn, channel
			c.mu.Unlock()
			slog.InfoContext(ctx, "Reconnected to AMQP broker", "attempt", attempt+1, "exchange", c.exchangeName)
			return nil
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "AMQP reconnect failed", "error", err, "attempt", attempt+1, "retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// PublishActivity publishes one activity event. Publishing is refused while
// the circuit is open.
func (c *Client) PublishActivity(ctx context.Context, msg *ActivityMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s: %w", msg.ID, ErrCircuitOpen)
	}
	if c.reconnecting.Load() {
		return fmt.Errorf("publish %s: %w", msg.ID, ErrReconnecting)
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		c.recordFailure()
		return fmt.Errorf("publish message: channel not open")
	}

	confirm, err := channel.PublishWithDeferredConfirmWithContext(
		pubCtx,
		c.exchangeName,   // exchange
		msg.RoutingKey(), // routing key
		false,            // mandatory
		false,            // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.PublishedAt,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			go func() {
				rctx, cancel := context.WithTimeout(context.Background(), openTimeout)
				defer cancel()
				_ = c.reconnect(rctx)
			}()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	if confirm != nil {
		acked, err := confirm.WaitContext(pubCtx)
		if err != nil {
			c.recordFailure()
			return fmt.Errorf("await confirm for %s: %w", msg.ID, err)
		}
		if !acked {
			c.recordFailure()
			return fmt.Errorf("publish %s: %w", msg.ID, ErrNacked)
		}
	}
	c.recordSuccess()

	slog.DebugContext(ctx, "Published activity message",
		"id", msg.ID,
		"kind", msg.Kind,
		"exchange", c.exchangeName)
	return nil
}

// ConsumeActivity delivers activity messages to handler until ctx is done.
// Malformed messages are dropped; handler errors requeue the delivery.
func (c *Client) ConsumeActivity(ctx context.Context, handler func(context.Context, *ActivityMessage) error) error {
	if c.queueName == "" {
		return errors.New("consume: client has no queue")
	}
	for attempt := 0; ; attempt++ {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}
		wait := exponentialBackoff(attempt)
		slog.WarnContext(ctx, "Activity consumer interrupted", "error", err, "queue", c.queueName, "retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if rerr := c.reconnect(ctx); rerr != nil && !errors.Is(rerr, ErrReconnecting) {
			return rerr
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler func(context.Context, *ActivityMessage) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return errors.New("channel not open")
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming activity messages", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			msg, err := ActivityMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"id", msg.ID,
					"kind", msg.Kind)
				delivery.Nack(false, true)
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn, channel := c.conn, c.channel
	c.conn, c.channel = nil, nil
	c.mu.Unlock()
	return closeQuietly(conn, channel)
}

func closeQuietly(conn *amqp091.Connection, channel *amqp091.Channel) error {
	if channel != nil {
		channel.Close()
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
			return err
		}
	}
	return nil
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	last := c.lastFailure
	c.mu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	n := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if n >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff returns 1s, 2s, 4s... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << uint(attempt)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "closed network"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
