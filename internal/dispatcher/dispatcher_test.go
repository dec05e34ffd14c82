package dispatcher

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// testLogger implements Logger for testing
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *testLogger) Debug(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("DEBUG: %s %v", msg, keysAndValues))
}

func (l *testLogger) Info(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("INFO: %s %v", msg, keysAndValues))
}

func (l *testLogger) Error(msg string, keysAndValues ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("ERROR: %s %v", msg, keysAndValues))
}

func (l *testLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *testLogger) {
	t.Helper()
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, logger
}

func TestDispatcher_SyncHandler(t *testing.T) {
	defer goleak.VerifyNone(t)
	d, _ := newTestDispatcher(t)

	var got Event
	d.Register("rotate", func(e Event) (any, error) {
		got = e
		return "result", nil
	})

	result, err := d.Dispatch(Event{Command: "rotate", SessionID: "s1", Payload: json.RawMessage(`{"labelId":"1"}`)})

	require.NoError(t, err)
	assert.Equal(t, "result", result)
	assert.Equal(t, "s1", got.SessionID)
	assert.JSONEq(t, `{"labelId":"1"}`, string(got.Payload))
	assert.False(t, got.Timestamp.IsZero(), "timestamp should be stamped on dispatch")
}

func TestDispatcher_KeepsGivenTimestamp(t *testing.T) {
	d, _ := newTestDispatcher(t)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var got time.Time
	d.Register("save", func(e Event) (any, error) {
		got = e.Timestamp
		return nil, nil
	})

	_, err := d.Dispatch(Event{Command: "save", Timestamp: ts})
	require.NoError(t, err)
	assert.Equal(t, ts, got)
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(Event{Command: "fly"})

	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.ErrorContains(t, err, "fly")
}

func TestDispatcher_BufferedHandler(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	d.Register("buffered", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return nil, nil
	}, Buffered(100))

	for i := 0; i < 3; i++ {
		result, err := d.Dispatch(Event{Command: "buffered"})
		require.NoError(t, err)
		assert.Equal(t, Queued, result)
	}

	wg.Wait()
	assert.Equal(t, int32(3), processed.Load())
}

func TestDispatcher_BufferedDropsWhenFull(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("full", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(2))

	d.Dispatch(Event{Command: "full"}) // being processed
	<-started
	d.Dispatch(Event{Command: "full"}) // queued
	d.Dispatch(Event{Command: "full"}) // queued

	_, err := d.Dispatch(Event{Command: "full"})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.ErrorContains(t, err, "full")

	close(block)
}

func TestDispatcher_BufferedBlocking(t *testing.T) {
	d, _ := newTestDispatcher(t)

	block := make(chan struct{})
	started := make(chan struct{}, 1)
	d.Register("blocking", func(e Event) (any, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-block
		return nil, nil
	}, Buffered(1), Blocking())

	d.Dispatch(Event{Command: "blocking"})
	<-started
	d.Dispatch(Event{Command: "blocking"})

	done := make(chan struct{})
	go func() {
		d.Dispatch(Event{Command: "blocking"})
		close(done)
	}()

	select {
	case <-done:
		t.Error("dispatch should have blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
}

func TestDispatcher_CloseDrainsAndRejects(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)

	var processed atomic.Int32
	d.Register("buffered", func(e Event) (any, error) {
		processed.Add(1)
		return nil, nil
	}, Buffered(10))

	for i := 0; i < 5; i++ {
		_, err := d.Dispatch(Event{Command: "buffered"})
		require.NoError(t, err)
	}
	d.Close()
	d.Close()

	assert.Equal(t, int32(5), processed.Load())
	_, err = d.Dispatch(Event{Command: "buffered"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDispatcher_LoggedHandler(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("logged", func(e Event) (any, error) {
		return "ok", nil
	}, Logged())

	_, err := d.Dispatch(Event{Command: "logged", SessionID: "abc"})
	require.NoError(t, err)

	msgs := logger.snapshot()
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0], "abc")
}

func TestDispatcher_LoggedHandlerError(t *testing.T) {
	d, logger := newTestDispatcher(t)

	d.Register("failing", func(e Event) (any, error) {
		return nil, fmt.Errorf("boom")
	}, Logged())

	_, err := d.Dispatch(Event{Command: "failing"})
	require.Error(t, err)

	hasError := false
	for _, msg := range logger.snapshot() {
		if strings.HasPrefix(msg, "ERROR") {
			hasError = true
			break
		}
	}
	assert.True(t, hasError, "expected error log message")
}

func TestDispatcher_HasHandlerAndCommands(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("save", func(e Event) (any, error) { return nil, nil })
	d.Register("click", func(e Event) (any, error) { return nil, nil })

	assert.True(t, d.HasHandler("save"))
	assert.False(t, d.HasHandler("rotate"))
	assert.Equal(t, []string{"click", "save"}, d.Commands())
}

func TestDispatcher_CombinedOptions(t *testing.T) {
	d, logger := newTestDispatcher(t)

	var processed atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	d.Register("combined", func(e Event) (any, error) {
		processed.Add(1)
		wg.Done()
		return "done", nil
	}, Buffered(100), Logged())

	result, err := d.Dispatch(Event{Command: "combined"})
	require.NoError(t, err)
	assert.Equal(t, Queued, result)

	wg.Wait()
	assert.Equal(t, int32(1), processed.Load())
	assert.GreaterOrEqual(t, len(logger.snapshot()), 2)
}

func TestDispatcher_SyncRejectedAfterClose(t *testing.T) {
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)

	calls := 0
	d.Register("click", func(e Event) (any, error) {
		calls++
		return nil, nil
	})
	d.Close()

	_, err = d.Dispatch(Event{Command: "click"})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = d.Dispatch(Event{Command: "fly"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Zero(t, calls)
}

func TestDispatcher_QueuedFailureIsLogged(t *testing.T) {
	logger := &testLogger{}
	d, err := New(logger)
	require.NoError(t, err)

	d.Register("save", func(e Event) (any, error) {
		return nil, fmt.Errorf("disk full")
	}, Buffered(1))

	_, err = d.Dispatch(Event{Command: "save", SessionID: "s9"})
	require.NoError(t, err)
	d.Close()

	msgs := logger.snapshot()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "disk full")
	assert.Contains(t, msgs[0], "s9")
}

func TestDispatcher_RegisterReplaces(t *testing.T) {
	d, _ := newTestDispatcher(t)

	d.Register("save", func(e Event) (any, error) { return 1, nil })
	d.Register("save", func(e Event) (any, error) { return 2, nil })

	result, err := d.Dispatch(Event{Command: "save"})
	require.NoError(t, err)
	assert.Equal(t, 2, result)
	assert.Len(t, d.Commands(), 1)
}
