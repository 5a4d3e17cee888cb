package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type scopeStat struct {
	start   time.Time
	last    time.Duration
	total   time.Duration
	samples int
}

// Profiler collects CPU timings per named scope and free-form counters.
// Not safe for concurrent use; it is only touched from the frame loop.
type Profiler struct {
	scopes map[string]*scopeStat
	counts map[string]int
	order  []string
	now    func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		scopes: make(map[string]*scopeStat),
		counts: make(map[string]int),
		now:    time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	s, ok := p.scopes[name]
	if !ok {
		s = &scopeStat{}
		p.scopes[name] = s
		p.order = append(p.order, name)
	}
	s.start = p.now()
}

func (p *Profiler) EndScope(name string) {
	s, ok := p.scopes[name]
	if !ok || s.start.IsZero() {
		return
	}
	d := p.now().Sub(s.start)
	s.start = time.Time{}
	s.last = d
	s.total += d
	s.samples++
}

// Last returns the most recent duration of a scope.
func (p *Profiler) Last(name string) time.Duration {
	if s, ok := p.scopes[name]; ok {
		return s.last
	}
	return 0
}

// Average returns the mean duration of a scope since the last Reset.
func (p *Profiler) Average(name string) time.Duration {
	s, ok := p.scopes[name]
	if !ok || s.samples == 0 {
		return 0
	}
	return s.total / time.Duration(s.samples)
}

func (p *Profiler) SetCount(name string, count int) {
	p.counts[name] = count
}

func (p *Profiler) Count(name string) int {
	return p.counts[name]
}

// Reset clears accumulated timings. Scope order and counters are kept.
func (p *Profiler) Reset() {
	for _, s := range p.scopes {
		s.last, s.total, s.samples = 0, 0, 0
	}
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.order {
		ms := float64(p.Average(name).Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.counts[k]))
	}

	return sb.String()
}
