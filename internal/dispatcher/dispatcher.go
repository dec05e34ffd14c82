// Package dispatcher routes editor commands to their handlers.
package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrUnknownCommand is returned when no handler is registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrClosed is returned for every command once Close has been called.
	ErrClosed = errors.New("dispatcher closed")
	// ErrQueueFull is returned by non-blocking buffered handlers under load.
	ErrQueueFull = errors.New("queue full")
)

// Queued is the result of a command accepted by a buffered handler.
const Queued = "queued"

// Event represents an incoming editor command for one session.
type Event struct {
	Command   string
	SessionID string
	Payload   json.RawMessage
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on its own goroutine behind a queue of the given
// size. Dispatch then answers Queued instead of the handler's result.
func Buffered(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// Blocking makes a buffered handler wait for queue space instead of failing
// with ErrQueueFull.
func Blocking() Option {
	return func(o *options) {
		o.blocking = true
	}
}

// Logged logs each command's start, outcome and duration.
func Logged() Option {
	return func(o *options) {
		o.logged = true
	}
}

// Dispatcher routes events to registered handlers. Register is expected at
// startup; Dispatch is safe from any goroutine.
type Dispatcher struct {
	logger  Logger
	metrics *metrics

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	queues   map[string]chan Event
	closed   bool
	workers  sync.WaitGroup
}

// New creates a Dispatcher reporting to the global OTel meter, which is a
// no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
		queues:   make(map[string]chan Event),
	}
	m, err := newMetrics(meter(), d.queueLengths)
	if err != nil {
		return nil, err
	}
	d.metrics = m
	return d, nil
}

// Register adds or replaces the handler for command.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	handler := d.timed(command, h)
	if o.bufferSize > 0 {
		handler = d.queued(command, o.bufferSize, o.blocking, handler)
	}
	if o.logged {
		handler = d.logged(command, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler, stamping the event
// time when the caller left it empty.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	closed := d.closed
	d.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrClosed
	case !ok:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Commands returns the registered command names in sorted order.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	d.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Close rejects further commands and waits for queued ones to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) queueLengths() map[string]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]int, len(d.queues))
	for cmd, q := range d.queues {
		out[cmd] = len(q)
	}
	return out
}

// timed records every handler run, buffered or not.
func (d *Dispatcher) timed(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)
		d.metrics.observe(command, time.Since(start), err)
		return result, err
	}
}

func (d *Dispatcher) queued(command string, size int, blocking bool, h HandlerFunc) HandlerFunc {
	q := make(chan Event, size)

	d.mu.Lock()
	d.queues[command] = q
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range q {
			if _, err := h(e); err != nil {
				d.logger.Error("queued command failed", "command", command, "session", e.SessionID, "error", err)
			}
		}
	}()

	return func(e Event) (any, error) {
		// The read lock keeps Close from closing q during the send.
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}
		if blocking {
			q <- e
			return Queued, nil
		}
		select {
		case q <- e:
			return Queued, nil
		default:
			d.metrics.drop(command)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling command", "command", command, "session", e.SessionID, "payloadBytes", len(e.Payload))

		result, err := h(e)

		if err != nil {
			d.logger.Error("command failed", "command", command, "session", e.SessionID, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("command complete", "command", command, "session", e.SessionID, "duration", time.Since(start))
		}
		return result, err
	}
}
