// Package workqueue implements the scheduler's priority work queue: a
// binary min-heap over WorkItems ordered by (sample stage number ASC,
// arrival sequence ASC), per spec §4.D. Push/pop are serialized under a
// single mutex; a condition variable wakes workers blocked waiting for
// work or for shutdown.
package workqueue

import (
	"container/heap"
	"sync"

	"github.com/saxsrs/batchsched/internal/sample"
	"github.com/saxsrs/batchsched/internal/stage"
)

// Item is a WorkItem: a sample paired with the stage identifier that must
// run next, and the arrival sequence number assigned when it was pushed.
type Item struct {
	Sample sample.Sample
	Stage  stage.ID
	Seq    uint64
}

// heapData is the container/heap.Interface implementation backing Queue.
// It is not exported; all access goes through Queue's locked methods.
type heapData []Item

func (h heapData) Len() int { return len(h) }

func (h heapData) Less(i, j int) bool {
	si, sj := h[i].Sample.Stage(), h[j].Sample.Stage()
	if si != sj {
		return si < sj
	}
	return h[i].Seq < h[j].Seq
}

func (h heapData) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *heapData) Push(x interface{}) {
	*h = append(*h, x.(Item))
}

func (h *heapData) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is the scheduler's shared priority work queue.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	data     heapData
	seq      uint64
	shutdown bool
}

// New returns an empty Queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues s to run stage id next, assigning it the next arrival
// sequence number, and wakes one waiting worker.
func (q *Queue) Push(s sample.Sample, id stage.ID) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.data, Item{Sample: s, Stage: id, Seq: q.seq})
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an item is available or Shutdown has been called. Once
// shutdown, Pop returns ok=false immediately, even if items remain queued:
// per spec §4.F/§5, a cancelled worker stops taking new items rather than
// draining whatever is left, which reset later discards via Clear.
func (q *Queue) Pop() (item Item, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.data.Len() == 0 {
		if q.shutdown {
			return Item{}, false
		}
		q.cond.Wait()
	}
	if q.shutdown {
		return Item{}, false
	}
	return heap.Pop(&q.data).(Item), true
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data.Len()
}

// Clear discards all queued items, returning the number discarded. Used by
// reset after a cancelled run, per spec §4.F ("the queue is not drained;
// remaining items... are left in the queue for reset to discard").
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.data.Len()
	q.data = nil
	return n
}

// Shutdown marks the queue closed and wakes every worker blocked in Pop so
// they can observe it and exit.
func (q *Queue) Shutdown() {
	q.mu.Lock()
	q.shutdown = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Reopen clears the shutdown flag and resets the arrival counter, for
// reuse after reset.
func (q *Queue) Reopen() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shutdown = false
	q.seq = 0
}
