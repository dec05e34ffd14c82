package influx

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"

	"github.com/gymjs/muscle-selector/internal/queue"
	"github.com/gymjs/muscle-selector/pkg/core"
)

// Measurement names.
const (
	MeasurementDrag    = "label_drag"
	MeasurementSave    = "layout_save"
	MeasurementCommand = "editor_command"
)

// MaxPending caps points held between flushes; the oldest are dropped first.
const MaxPending = 10000

// PointWriter is anything accepting points, usually a Manager.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Recorder batches interaction points and hands them to a PointWriter on a
// fixed interval. A nil writer drops every point.
type Recorder struct {
	writer   PointWriter
	pending  *queue.Queue[*influxdb2_write.Point]
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// NewRecorder creates a recorder. Call Start to begin periodic flushing.
func NewRecorder(writer PointWriter, interval time.Duration, logger zerolog.Logger) *Recorder {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Recorder{
		writer:   writer,
		pending:  queue.New[*influxdb2_write.Point](MaxPending),
		interval: interval,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enabled reports whether points are kept.
func (r *Recorder) Enabled() bool {
	return r != nil && r.writer != nil
}

// Start launches the flush loop.
func (r *Recorder) Start() {
	if !r.Enabled() {
		return
	}
	r.startOnce.Do(func() {
		r.started.Store(true)
		go r.flushLoop()
	})
}

func (r *Recorder) flushLoop() {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Flush()
		case <-r.stop:
			r.Flush()
			return
		}
	}
}

// Close stops the flush loop after a final flush.
func (r *Recorder) Close() {
	if !r.Enabled() {
		return
	}
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	if r.started.Load() {
		<-r.done
		return
	}
	r.Flush()
}

// Flush writes every pending point and returns how many were written.
func (r *Recorder) Flush() int {
	if !r.Enabled() {
		return 0
	}
	written := 0
	for _, p := range r.pending.Drain() {
		if err := r.writer.WritePoint(p); err != nil {
			r.logger.Error().Err(err).Str("measurement", p.Name()).Msg("Error writing interaction point")
			continue
		}
		written++
	}
	return written
}

// Dropped returns how many points were evicted before a flush.
func (r *Recorder) Dropped() int {
	if !r.Enabled() {
		return 0
	}
	return r.pending.Dropped()
}

// Pending returns how many points wait for the next flush.
func (r *Recorder) Pending() int {
	if !r.Enabled() {
		return 0
	}
	return r.pending.Len()
}

// RecordDrag records a finished drag.
func (r *Recorder) RecordDrag(sessionID string, labelID core.LabelID, from, to core.Position) {
	if !r.Enabled() {
		return
	}
	r.pending.Push(influxdb2.NewPoint(MeasurementDrag,
		map[string]string{"session": sessionID, "label": string(labelID)},
		map[string]interface{}{
			"from_x":   from.X,
			"from_y":   from.Y,
			"to_x":     to.X,
			"to_y":     to.Y,
			"distance": math.Hypot(to.X-from.X, to.Y-from.Y),
		},
		r.now()))
}

// RecordSave records a layout save attempt.
func (r *Recorder) RecordSave(sessionID string, labels int, err error) {
	if !r.Enabled() {
		return
	}
	r.pending.Push(influxdb2.NewPoint(MeasurementSave,
		map[string]string{"session": sessionID},
		map[string]interface{}{
			"labels": labels,
			"ok":     err == nil,
		},
		r.now()))
}

// RecordCommand records one handled editor command.
func (r *Recorder) RecordCommand(command, sessionID string, took time.Duration, err error) {
	if !r.Enabled() {
		return
	}
	r.pending.Push(influxdb2.NewPoint(MeasurementCommand,
		map[string]string{"command": command, "session": sessionID},
		map[string]interface{}{
			"duration_us": took.Microseconds(),
			"ok":          err == nil,
		},
		r.now()))
}
