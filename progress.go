package sevenz

// ProgressFunc receives byte-level progress during long-running extraction or
// finalization. completed and total are monotonically non-decreasing within
// one operation; total may be 0 when the container does not record sizes.
//
// Returning false requests cancellation: the operation stops at the next item
// boundary and fails with CodeCancelled. The callback runs synchronously on
// the goroutine that invoked the operation, so it must not block for long.
type ProgressFunc func(completed, total int64) bool

// progressTracker clamps callback arguments so completed never regresses and
// never overshoots total, whatever the underlying copies report.
type progressTracker struct {
	fn        ProgressFunc
	completed int64
	total     int64
}

func newProgressTracker(fn ProgressFunc, total int64) *progressTracker {
	return &progressTracker{fn: fn, total: total}
}

// advance adds n bytes and reports. Returns false when the callback asked to
// cancel; a nil callback never cancels.
func (p *progressTracker) advance(n int64) bool {
	p.completed += n
	if p.total > 0 && p.completed > p.total {
		p.completed = p.total
	}

	if p.fn == nil {
		return true
	}
	return p.fn(p.completed, p.total)
}
