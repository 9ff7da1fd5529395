package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy4d/engine/resource"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsAtInterval(t *testing.T) {
	var out bytes.Buffer
	logger := log.New(&out)

	reg := resource.NewRegistry(resource.WithLogger(log.New(&bytes.Buffer{})))
	_, err := reg.Register("s", resource.TypeBuffer, resource.Func(func() {}), 1024, "buf")
	require.NoError(t, err)

	clock := time.Unix(0, 0)
	p := NewProfiler(
		WithLogger(logger),
		WithInterval(time.Second),
		WithRegistry(reg),
		WithClock(func() time.Time { return clock }),
	)

	for range 29 {
		clock = clock.Add(time.Second / 60)
		assert.False(t, p.Tick())
	}
	clock = time.Unix(0, 0).Add(time.Second)
	require.True(t, p.Tick())

	s := p.Last()
	// 30 frames over one second
	assert.InDelta(t, 30, s.FPS, 1e-4)
	assert.Equal(t, uint64(1024), s.ResourceBytes)
	assert.Equal(t, 1, s.ResourceEntries)
	assert.Contains(t, out.String(), "frame stats")
	assert.Contains(t, out.String(), "gpu_bytes=1024")

	// counter resets after a report
	clock = clock.Add(100 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithLogger(log.New(&bytes.Buffer{})))
	assert.Equal(t, time.Second, p.updateInterval)
}
