package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSlowQueryTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := newSlowQueryTracer(zerolog.New(&buf), 100*time.Millisecond)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tracer.now = func() time.Time { return clock }

	run := func(d time.Duration, err error) string {
		buf.Reset()
		ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{
			SQL:  "SELECT id\n\t\tFROM users WHERE id = $1",
			Args: []any{"secret-arg"},
		})
		clock = clock.Add(d)
		tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: err})
		return buf.String()
	}

	assert.Empty(t, run(10*time.Millisecond, nil))
	assert.Empty(t, run(10*time.Millisecond, pgx.ErrNoRows))

	out := run(250*time.Millisecond, nil)
	assert.Contains(t, out, "slow query")
	assert.Contains(t, out, "SELECT id FROM users WHERE id = $1")
	assert.NotContains(t, out, "secret-arg")

	out = run(time.Millisecond, errors.New("connection reset"))
	assert.Contains(t, out, "query failed")
	assert.Contains(t, out, "connection reset")
}
