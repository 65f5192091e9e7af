package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
	"github.com/aretw0/emberly/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	records []ports.Record
}

func (r *recorder) Publish(_ context.Context, rec ports.Record) error {
	r.records = append(r.records, rec)
	return nil
}

func fixedClock() time.Time { return time.UnixMilli(1700000000000) }

func TestSink_AcceptsTransition(t *testing.T) {
	rec := &recorder{}
	sink := telemetry.NewSink(telemetry.WithPublisher(rec), telemetry.WithClock(fixedClock))

	err := sink.Emit(context.Background(), domain.TelemetryTransition, telemetry.TransitionProps(domain.TransitionResult{
		To: domain.StateListening, From: domain.StateIdle, Event: domain.EventBegin,
	}))
	require.NoError(t, err)

	require.Len(t, rec.records, 1)
	assert.Equal(t, ports.Record{
		Name:          domain.TelemetryTransition,
		Timestamp:     1700000000000,
		State:         "listening",
		PreviousState: "idle",
		Event:         "BEGIN",
	}, rec.records[0])
}

func TestSink_KeepsCallerTimestamp(t *testing.T) {
	rec := &recorder{}
	sink := telemetry.NewSink(telemetry.WithPublisher(rec), telemetry.WithClock(fixedClock))

	require.NoError(t, sink.Emit(context.Background(), domain.TelemetryRequestFailed, map[string]any{
		domain.PropTimestamp: 42,
		domain.PropResult:    domain.ResultFail,
	}))
	require.Len(t, rec.records, 1)
	assert.Equal(t, int64(42), rec.records[0].Timestamp)
	assert.Equal(t, "fail", rec.records[0].Result)
}

func TestSink_DropsWholeEvent(t *testing.T) {
	long := strings.Repeat("a", telemetry.MaxValueLength)

	tests := []struct {
		name  string
		event domain.TelemetryEvent
		props map[string]any
	}{
		{"Unknown Name", "ui.secret_clicked", nil},
		{"Disallowed Key", domain.TelemetryTransition, map[string]any{"state": "idle", "text": "hello"}},
		{"Overlong Value", domain.TelemetryTransition, map[string]any{"state": long}},
		{"Free Text State", domain.TelemetryTransition, map[string]any{"state": "my name is bob"}},
		{"Unknown Event Value", domain.TelemetryTransition, map[string]any{"event": "JUMP"}},
		{"Bad Result", domain.TelemetryRequestFailed, map[string]any{"result": "maybe"}},
		{"Bad Reason", domain.TelemetryCancelClicked, map[string]any{"reason": "bored"}},
		{"Wrong Type", domain.TelemetryTransition, map[string]any{"state": 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			sink := telemetry.NewSink(telemetry.WithPublisher(rec))

			err := sink.Emit(context.Background(), tt.event, tt.props)
			assert.ErrorIs(t, err, domain.ErrEventDropped)
			assert.Empty(t, rec.records)
		})
	}
}

func TestSink_DropWarningNamesKeyOnly(t *testing.T) {
	var buf bytes.Buffer
	sink := telemetry.NewSink(telemetry.WithLogger(logging.NewWithWriter(&buf, slog.LevelDebug)))

	_ = sink.Emit(context.Background(), domain.TelemetryTransition, map[string]any{"draft": "my secret diary"})

	out := buf.String()
	assert.Contains(t, out, "telemetry event dropped")
	assert.Contains(t, out, "draft")
	assert.NotContains(t, out, "secret diary")
}

func TestSink_AllowListedNames(t *testing.T) {
	rec := &recorder{}
	sink := telemetry.NewSink(telemetry.WithPublisher(rec))

	for _, name := range domain.TelemetryEvents {
		require.NoError(t, sink.Emit(context.Background(), name, nil), name)
	}
	assert.Len(t, rec.records, len(domain.TelemetryEvents))
}

func TestSink_PublisherErrorsAreReturned(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	sink := telemetry.NewSink(
		telemetry.WithPublisher(telemetry.PublisherFunc(func(context.Context, ports.Record) error { return boom })),
		telemetry.WithPublisher(rec),
	)

	err := sink.Emit(context.Background(), domain.TelemetryBeginClicked, nil)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.records, 1, "later publishers still run")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := telemetry.NewLogPublisher(logging.NewWithWriter(&buf, slog.LevelDebug), slog.LevelInfo)

	require.NoError(t, pub.Publish(context.Background(), ports.Record{
		Name: domain.TelemetryCancelClicked, Timestamp: 1, Reason: domain.ReasonEsc,
	}))
	out := buf.String()
	assert.Contains(t, out, "ui.cancel_clicked")
	assert.Contains(t, out, "reason=esc")
	assert.NotContains(t, out, "state=")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := telemetry.NewMetrics(reg)
	sink := telemetry.NewSink(telemetry.WithPublisher(m))

	require.NoError(t, sink.Emit(context.Background(), domain.TelemetryBeginClicked, nil))
	require.NoError(t, sink.Emit(context.Background(), domain.TelemetryBeginClicked, nil))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues("ui.begin_clicked")))

	hooks := m.Hooks()
	hooks.OnTransition(context.Background(), &domain.TransitionEvent{
		TransitionResult: domain.TransitionResult{From: domain.StateIdle, To: domain.StateListening, Event: domain.EventBegin},
	})
	hooks.OnDiscard(context.Background(), &domain.DiscardEvent{Event: domain.EventResolve, State: domain.StateCanceled})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("idle", "listening", "BEGIN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Discarded))
}
