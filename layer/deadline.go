package layer

import (
	"container/heap"
	"time"
)

// deadlineEntry is one scheduled hold-decision deadline. token guards
// against acting on a stale entry whose cell was released and re-pressed
// (a new press gets a new token) before the old deadline fired.
type deadlineEntry struct {
	fireAt time.Duration
	rc     RowCol
	token  uint64
}

// deadlineQueue is a min-heap of pending deadlines, ordered by fireAt.
// It backs LT's hold-vs-tap timer without requiring a background task:
// the dispatcher drains it after every edge, and the driver loop can
// peek it to know how long it may safely sleep.
type deadlineQueue []deadlineEntry

func (q deadlineQueue) Len() int            { return len(q) }
func (q deadlineQueue) Less(i, j int) bool  { return q[i].fireAt < q[j].fireAt }
func (q deadlineQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *deadlineQueue) Push(x interface{}) { *q = append(*q, x.(deadlineEntry)) }
func (q *deadlineQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func (e *Engine) scheduleDeadline(rc RowCol, token uint64, fireAt time.Duration) {
	heap.Push(&e.deadlines, deadlineEntry{fireAt: fireAt, rc: rc, token: token})
}

// NextDeadline reports when the soonest pending deadline fires, so the
// driver loop knows how long it may sleep before it must wake even
// without a new input event.
func (e *Engine) NextDeadline() (time.Duration, bool) {
	if e.deadlines.Len() == 0 {
		return 0, false
	}
	return e.deadlines[0].fireAt, true
}

// drainDeadlines fires every deadline whose time has elapsed, in
// deadline order.
func (e *Engine) drainDeadlines(now time.Duration) {
	for e.deadlines.Len() > 0 && e.deadlines[0].fireAt <= now {
		d := heap.Pop(&e.deadlines).(deadlineEntry)
		entry, ok := e.active[d.rc]
		if !ok || entry.timed == nil || entry.timed.token != d.token {
			continue // stale: the cell was released/re-pressed since this was scheduled
		}
		e.forceHold(entry, now)
	}
}
