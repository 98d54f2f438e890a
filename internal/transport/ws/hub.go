package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/logger"
)

var ErrHubStopped = errors.New("hub stopped")

const tracerName = "github.com/cwrk-planet/signal-service/internal/transport/ws"

type inboundFrame struct {
	client *Client
	in     Inbound
}

// Hub serialises every state change of the service onto one goroutine:
// connection lifecycle, inbound events, scheduled callbacks and admin calls
// each run to completion before the next one starts.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
	calls      chan func()
	done       chan struct{}

	// owned by the Run goroutine
	clients map[string]*Client

	// read by client goroutines for Dispatcher.Prepare
	disp atomic.Pointer[Dispatcher]

	log    *slog.Logger
	tracer trace.Tracer
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundFrame, 256),
		calls:      make(chan func(), 64),
		done:       make(chan struct{}),
		clients:    make(map[string]*Client),
		log:        log,
		tracer:     otel.Tracer(tracerName),
	}
}

// Run processes hub events until ctx is cancelled. All open connections are
// closed on return.
func (h *Hub) Run(ctx context.Context, d *Dispatcher) {
	h.disp.Store(d)
	defer func() {
		close(h.done)
		for id, c := range h.clients {
			close(c.send)
			delete(h.clients, id)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.clients[c.id] = c
			h.guard(ctx, "ws.connect", c, 0, func(ctx context.Context) {
				d.Connect(c.id)
			})
			h.send(c, Outbound{Event: EventWelcome, Data: welcomePayload{ID: c.id}})

		case c := <-h.unregister:
			if _, ok := h.clients[c.id]; !ok {
				continue
			}
			h.guard(ctx, "ws.disconnect", c, 0, func(ctx context.Context) {
				d.Disconnect(c.id)
			})
			delete(h.clients, c.id)
			close(c.send)

		case f := <-h.inbound:
			if _, ok := h.clients[f.client.id]; !ok {
				continue
			}
			h.guard(ctx, "ws."+f.in.Event, f.client, f.in.Ack, func(ctx context.Context) {
				ack, ok := d.Handle(ctx, f.client.id, f.in)
				if ok && f.in.Ack > 0 {
					h.send(f.client, Outbound{Event: EventAck, Ack: f.in.Ack, Data: ack})
				}
			})

		case fn := <-h.calls:
			h.guard(ctx, "hub.call", nil, 0, func(context.Context) { fn() })
		}
	}
}

// guard runs fn in a span and turns a panic into a logged error (and an
// error ack when the client asked for one).
func (h *Hub) guard(ctx context.Context, name string, c *Client, ack uint64, fn func(ctx context.Context)) {
	attrs := []attribute.KeyValue{}
	if c != nil {
		attrs = append(attrs, attribute.String("ws.conn_id", c.id))
	}
	ctx, span := h.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	defer span.End()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic: %v", r)
		span.RecordError(err)
		span.SetStatus(codes.Error, "panic")

		la := append(logger.AttrsFromCtx(ctx),
			slog.String("event", name),
			slog.Any("err", err),
			slog.String("stack", string(debug.Stack())),
		)
		if c != nil {
			la = append(la, slog.String("conn", c.id))
		}
		h.log.LogAttrs(ctx, slog.LevelError, "hub handler panic", la...)

		if c != nil && ack > 0 {
			h.send(c, Outbound{Event: EventAck, Ack: ack, Data: ackPayload{OK: false, Error: errInternal}})
		}
	}()

	fn(ctx)
}

// prepare runs Dispatcher.Prepare on the calling client goroutine. A panic
// there fails only this frame.
func (h *Hub) prepare(c *Client, in Inbound) (prepared any) {
	d := h.disp.Load()
	if d == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("ws prepare panic",
				slog.String("conn", c.id),
				slog.String("event", in.Event),
				slog.Any("err", fmt.Errorf("panic: %v", r)),
				slog.String("stack", string(debug.Stack())),
			)
			prepared = errNotPrepared
		}
	}()
	return d.Prepare(c.id, in)
}

// send encodes and queues a frame. Must be called on the Run goroutine.
// A client whose queue is full is disconnected.
func (h *Hub) send(c *Client, out Outbound) {
	data, err := c.codec.Encode(out)
	if err != nil {
		h.log.Error("ws encode failed", slog.String("conn", c.id), slog.String("event", out.Event), slog.Any("err", err))
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("ws send buffer full, dropping connection", slog.String("conn", c.id))
		c.close()
	}
}

// Emit delivers a core event to one connection. Must be called on the Run
// goroutine; services only run there.
func (h *Hub) Emit(connID string, ev domain.Event) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	name, data, ok := encodeEvent(ev)
	if !ok {
		h.log.Warn("ws unmapped event", slog.String("type", fmt.Sprintf("%T", ev)))
		return
	}
	h.send(c, Outbound{Event: name, Data: data})
}

// AfterFunc schedules fn to run on the hub loop after d.
func (h *Hub) AfterFunc(d time.Duration, fn func()) func() bool {
	t := time.AfterFunc(d, func() { h.post(fn) })
	return t.Stop
}

func (h *Hub) post(fn func()) bool {
	select {
	case h.calls <- fn:
		return true
	case <-h.done:
		return false
	}
}

// Do runs fn on the hub loop and waits for it to finish. It must not be
// called from the loop itself.
func (h *Hub) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		fn()
	}

	select {
	case h.calls <- wrapped:
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register hands a new connection to the loop.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Inbound(c *Client, in Inbound) {
	select {
	case h.inbound <- inboundFrame{client: c, in: in}:
	case <-h.done:
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }
