package influx

import (
	"errors"
	"sync"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gymjs/muscle-selector/pkg/core"
)

type captureWriter struct {
	mu     sync.Mutex
	points []*influxdb2_write.Point
	fail   bool
}

func (w *captureWriter) WritePoint(p *influxdb2_write.Point) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fail {
		return errors.New("unavailable")
	}
	w.points = append(w.points, p)
	return nil
}

func (w *captureWriter) names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.points))
	for _, p := range w.points {
		out = append(out, p.Name())
	}
	return out
}

func fieldValue(p *influxdb2_write.Point, key string) any {
	for _, f := range p.FieldList() {
		if f.Key == key {
			return f.Value
		}
	}
	return nil
}

func tagValue(p *influxdb2_write.Point, key string) string {
	for _, tag := range p.TagList() {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

func TestRecorder_DisabledDropsEverything(t *testing.T) {
	r := NewRecorder(nil, time.Second, zerolog.Nop())

	r.RecordDrag("s", "1", core.Position{}, core.Position{X: 1})
	r.RecordSave("s", 3, nil)
	r.Start()
	r.Close()

	assert.False(t, r.Enabled())
	assert.Equal(t, 0, r.Pending())
	assert.Equal(t, 0, r.Flush())
}

func TestRecorder_RecordDrag(t *testing.T) {
	w := &captureWriter{}
	r := NewRecorder(w, time.Hour, zerolog.Nop())

	r.RecordDrag("sess", "7", core.Position{X: 10, Y: 10}, core.Position{X: 13, Y: 14})
	assert.Equal(t, 1, r.Pending())
	assert.Equal(t, 1, r.Flush())

	require.Len(t, w.points, 1)
	p := w.points[0]
	assert.Equal(t, MeasurementDrag, p.Name())
	assert.Equal(t, "sess", tagValue(p, "session"))
	assert.Equal(t, "7", tagValue(p, "label"))
	assert.InDelta(t, 5.0, fieldValue(p, "distance"), 1e-9)
}

func TestRecorder_RecordSaveAndCommand(t *testing.T) {
	w := &captureWriter{}
	r := NewRecorder(w, time.Hour, zerolog.Nop())

	r.RecordSave("sess", 16, errors.New("disk full"))
	r.RecordCommand("rotate", "sess", 1500*time.Microsecond, nil)
	r.Flush()

	require.Len(t, w.points, 2)
	assert.Equal(t, false, fieldValue(w.points[0], "ok"))
	assert.Equal(t, int64(16), fieldValue(w.points[0], "labels"))
	assert.Equal(t, "rotate", tagValue(w.points[1], "command"))
	assert.Equal(t, int64(1500), fieldValue(w.points[1], "duration_us"))
}

func TestRecorder_FlushErrorsAreDropped(t *testing.T) {
	w := &captureWriter{fail: true}
	r := NewRecorder(w, time.Hour, zerolog.Nop())

	r.RecordSave("sess", 1, nil)
	assert.Equal(t, 0, r.Flush())
	assert.Equal(t, 0, r.Pending())
}

func TestRecorder_CloseFlushesRunningLoop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	w := &captureWriter{}
	r := NewRecorder(w, time.Hour, zerolog.Nop())
	r.Start()
	r.Start()

	r.RecordSave("sess", 1, nil)
	r.Close()
	r.Close()

	assert.Equal(t, []string{MeasurementSave}, w.names())
}

func TestRecorder_CloseWithoutStartFlushes(t *testing.T) {
	w := &captureWriter{}
	r := NewRecorder(w, time.Hour, zerolog.Nop())

	r.RecordSave("sess", 1, nil)
	r.Close()

	assert.Equal(t, []string{MeasurementSave}, w.names())
}

func TestRecorder_PeriodicFlush(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	w := &captureWriter{}
	r := NewRecorder(w, 10*time.Millisecond, zerolog.Nop())
	r.Start()
	defer r.Close()

	r.RecordSave("sess", 1, nil)

	assert.Eventually(t, func() bool {
		return len(w.names()) == 1
	}, time.Second, 5*time.Millisecond)
}
