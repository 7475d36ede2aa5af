package sync

import (
	"sync"

	"github.com/ETAnderson/skubridge/internal/domain"
)

// Counts is a point-in-time snapshot of the accumulator.
type Counts struct {
	Total     int
	Completed int
	Success   int
	Failed    int
	Cancelled bool
}

// Progress is the shared accumulator every worker reports into. All fields
// are guarded by mu and critical sections stay short; the store write
// for a swapped-out batch always happens outside the lock.
type Progress struct {
	mu sync.Mutex

	total     int
	completed int
	success   int
	failed    int
	cancelled bool

	flushAt int
	pending []domain.ProductRecord
}

func NewProgress(total, flushAt int) *Progress {
	if flushAt <= 0 {
		flushAt = DefaultBatchSize
	}
	return &Progress{total: total, flushAt: flushAt}
}

// Record folds one result in. When the pending buffer reaches the flush
// threshold it is swapped out under the lock and returned; the caller
// performs the store write without holding the lock.
func (p *Progress) Record(res EnrichResult) (batch []domain.ProductRecord, counts Counts) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if res.Err != nil {
		p.failed++
	} else {
		p.success++
		if res.Update != nil {
			p.pending = append(p.pending, *res.Update)
		}
	}

	if len(p.pending) >= p.flushAt {
		batch = p.pending
		p.pending = nil
	}

	return batch, p.countsLocked()
}

// Drain removes and returns whatever is still pending.
func (p *Progress) Drain() []domain.ProductRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	batch := p.pending
	p.pending = nil
	return batch
}

func (p *Progress) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = true
}

func (p *Progress) Cancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

func (p *Progress) Counts() Counts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.countsLocked()
}

func (p *Progress) countsLocked() Counts {
	return Counts{
		Total:     p.total,
		Completed: p.completed,
		Success:   p.success,
		Failed:    p.failed,
		Cancelled: p.cancelled,
	}
}
