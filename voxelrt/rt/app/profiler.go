package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler records named CPU scopes per frame plus running totals, and
// integer counters. It is safe for use from several goroutines.
type Profiler struct {
	mu         sync.Mutex
	Scopes     map[string]time.Duration
	Totals     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string
	Frames     int
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		Totals:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		Order:      make([]string, 0),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.StartTimes[name] = time.Now()
	// Keep first-seen order for display
	for _, n := range p.Order {
		if n == name {
			return
		}
	}
	p.Order = append(p.Order, name)
}

func (p *Profiler) EndScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if start, ok := p.StartTimes[name]; ok {
		d := time.Since(start)
		p.Scopes[name] = d
		p.Totals[name] += d
		delete(p.StartTimes, name)
	}
}

// Time runs fn inside the named scope.
func (p *Profiler) Time(name string, fn func() error) error {
	p.BeginScope(name)
	defer p.EndScope(name)
	return fn()
}

func (p *Profiler) SetCount(name string, count int) {
	p.mu.Lock()
	p.Counts[name] = count
	p.mu.Unlock()
}

func (p *Profiler) AddCount(name string, delta int) {
	p.mu.Lock()
	p.Counts[name] += delta
	p.mu.Unlock()
}

// Reset clears the per-frame scope times and counts one more frame. Totals
// and display order are kept.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
	p.Frames++
}

// Average returns the mean duration of a scope over the frames counted by
// Reset, or the last duration if Reset was never called.
func (p *Profiler) Average(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Frames == 0 {
		return p.Totals[name]
	}
	return p.Totals[name] / time.Duration(p.Frames)
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func (p *Profiler) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms (total %.2f ms)\n", name, ms(p.Scopes[name]), ms(p.Totals[name])))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
