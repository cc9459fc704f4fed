package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerScopesAndTotals(t *testing.T) {
	p := NewProfiler()

	for i := 0; i < 2; i++ {
		p.BeginScope("trace")
		time.Sleep(time.Millisecond)
		p.EndScope("trace")
		p.BeginScope("trace")
		p.EndScope("trace")
		p.Reset()
	}

	assert.Equal(t, []string{"trace"}, p.Order)
	assert.Equal(t, 2, p.Frames)
	assert.GreaterOrEqual(t, p.Totals["trace"], 2*time.Millisecond)
	assert.Equal(t, time.Duration(0), p.Scopes["trace"])
	assert.GreaterOrEqual(t, p.Average("trace"), time.Millisecond)
}

func TestProfilerEndWithoutBegin(t *testing.T) {
	p := NewProfiler()
	p.EndScope("missing")
	assert.Empty(t, p.Scopes)
	assert.Empty(t, p.Totals)
}

func TestProfilerTimePassesError(t *testing.T) {
	p := NewProfiler()
	boom := errors.New("boom")

	err := p.Time("bake", func() error { return boom })
	require.ErrorIs(t, err, boom)
	assert.Contains(t, p.Order, "bake")
	_, running := p.StartTimes["bake"]
	assert.False(t, running)
}

func TestProfilerString(t *testing.T) {
	p := NewProfiler()
	p.BeginScope("diffuse")
	p.EndScope("diffuse")
	p.SetCount("rays", 10)
	p.AddCount("rays", 5)
	p.SetCount("pixels", 4)

	s := p.String()
	assert.Contains(t, s, "diffuse")
	assert.Contains(t, s, "rays")
	assert.Contains(t, s, ": 15")
	assert.Less(t, strings.Index(s, "pixels"), strings.Index(s, "rays"))
}
