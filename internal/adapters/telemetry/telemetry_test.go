package telemetry_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/ehrquery/internal/adapters/telemetry"
)

func TestNoopTelemetry(t *testing.T) {
	ctx := context.Background()
	tel := telemetry.NewNoopTelemetry()

	assert.NotPanics(t, func() {
		tel.RecordQuery(ctx, telemetry.QueryInfo{Operation: "run", Duration: time.Millisecond, Success: true})
		tel.RecordError(ctx, telemetry.ErrorInfo{Error: errors.New("boom"), Operation: "run"})
		tel.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "connect", Success: true})
	})
}

func TestStatsTelemetry(t *testing.T) {
	ctx := context.Background()
	tel := telemetry.NewStatsTelemetry()

	tel.RecordQuery(ctx, telemetry.QueryInfo{Operation: "run", Duration: 100 * time.Millisecond, Success: true, Rows: 10})
	tel.RecordQuery(ctx, telemetry.QueryInfo{Operation: "run", Duration: 300 * time.Millisecond, Success: false})
	tel.RecordQuery(ctx, telemetry.QueryInfo{Operation: "count", Duration: 200 * time.Millisecond, Success: true, Rows: 3})
	tel.RecordError(ctx, telemetry.ErrorInfo{Error: errors.New("boom")})
	tel.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "connect", Success: true})
	tel.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "connect", Success: false})
	tel.RecordConnection(ctx, telemetry.ConnectionInfo{Event: "disconnect", Success: true})

	s := tel.Snapshot()
	assert.Equal(t, int64(3), s.Queries)
	assert.Equal(t, int64(1), s.FailedQueries)
	assert.Equal(t, int64(13), s.Rows)
	assert.Equal(t, 600*time.Millisecond, s.TotalDuration)
	assert.Equal(t, 300*time.Millisecond, s.MaxDuration)
	assert.Equal(t, 200*time.Millisecond, s.AverageDuration())
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(1), s.Connections)
	assert.Equal(t, map[string]int64{"run": 2, "count": 1}, s.ByOperation)

	// snapshots are copies
	s.ByOperation["run"] = 99
	assert.Equal(t, int64(2), tel.Snapshot().ByOperation["run"])
}

func TestStatsTelemetry_Concurrent(t *testing.T) {
	ctx := context.Background()
	tel := telemetry.NewStatsTelemetry()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				tel.RecordQuery(ctx, telemetry.QueryInfo{Operation: "batch", Success: true, Rows: 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1000), tel.Snapshot().Queries)
	assert.Equal(t, int64(1000), tel.Snapshot().Rows)
}

func TestStats_AverageDurationEmpty(t *testing.T) {
	assert.Zero(t, telemetry.Stats{}.AverageDuration())
}

func TestLogTelemetry(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	tel := telemetry.NewLogTelemetry(logger)
	ctx := context.Background()

	tel.RecordQuery(ctx, telemetry.QueryInfo{Operation: "run", SQL: "SELECT 1", Duration: time.Second, Success: true, Rows: 1})
	tel.RecordError(ctx, telemetry.ErrorInfo{Operation: "run", Error: errors.New("boom")})

	out := buf.String()
	assert.Contains(t, out, "query returned successfully")
	assert.Contains(t, out, "operation=run")
	assert.Contains(t, out, "rows=1")
	assert.Contains(t, out, `sql="SELECT 1"`)
	assert.Contains(t, out, "error=boom")
}

func TestNew(t *testing.T) {
	for _, typ := range []telemetry.Type{"", telemetry.TypeNoop, telemetry.TypeLog, telemetry.TypeStats} {
		tel, err := telemetry.New(typ, nil)
		require.NoError(t, err, typ)
		assert.NotNil(t, tel)
	}

	_, err := telemetry.New("prometheus", nil)
	assert.Error(t, err)
}

func TestMulti(t *testing.T) {
	a, b := telemetry.NewStatsTelemetry(), telemetry.NewStatsTelemetry()
	m := telemetry.Multi{a, b, telemetry.NewNoopTelemetry()}

	m.RecordQuery(context.Background(), telemetry.QueryInfo{Operation: "run", Success: true})

	assert.Equal(t, int64(1), a.Snapshot().Queries)
	assert.Equal(t, int64(1), b.Snapshot().Queries)
}
