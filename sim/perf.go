package sim

import (
	"sort"
	"time"
)

// perfWindow is the number of recent ticks timings are averaged over.
const perfWindow = 120

// phaseTimer accumulates per-phase step durations over a rolling window so
// perf output reflects recent load rather than the whole run.
type phaseTimer struct {
	phases map[string]*phaseRing
}

// phaseRing is a fixed-size ring of duration samples with a running sum.
type phaseRing struct {
	buf  [perfWindow]time.Duration
	next int
	n    int
	sum  time.Duration
}

func newPhaseTimer() *phaseTimer {
	return &phaseTimer{phases: make(map[string]*phaseRing)}
}

// Record adds a duration sample for the named phase.
func (p *phaseTimer) Record(name string, d time.Duration) {
	r := p.phases[name]
	if r == nil {
		r = &phaseRing{}
		p.phases[name] = r
	}
	if r.n == perfWindow {
		r.sum -= r.buf[r.next]
	} else {
		r.n++
	}
	r.buf[r.next] = d
	r.sum += d
	r.next = (r.next + 1) % perfWindow
}

// Avg returns the windowed average duration for the named phase.
func (p *phaseTimer) Avg(name string) time.Duration {
	r := p.phases[name]
	if r == nil || r.n == 0 {
		return 0
	}
	return r.sum / time.Duration(r.n)
}

// Total returns the sum of all phase averages, i.e. the average cost of one
// full tick over the window.
func (p *phaseTimer) Total() time.Duration {
	var total time.Duration
	for name := range p.phases {
		total += p.Avg(name)
	}
	return total
}

// SortedNames returns phase names ordered by average duration, most
// expensive first.
func (p *phaseTimer) SortedNames() []string {
	names := make([]string, 0, len(p.phases))
	for name := range p.phases {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return p.Avg(names[i]) > p.Avg(names[j])
	})
	return names
}
