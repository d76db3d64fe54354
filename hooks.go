package treasury

import (
	"context"
	"sync"

	"github.com/xraph/treasury/transaction"
)

const defaultHookQueue = 256

// hookQueue delivers post-commit events to plugins on one goroutine, in
// commit order. Enqueue blocks only when the queue is full, and then holds
// the write lock, so a hook must never wait on a treasury mutation.
type hookQueue struct {
	mu      sync.RWMutex
	jobs    chan func()
	stopped chan struct{}
}

func (q *hookQueue) start(size int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.jobs != nil {
		return
	}
	q.jobs = make(chan func(), size)
	q.stopped = make(chan struct{})
	go q.run(q.jobs, q.stopped)
}

func (q *hookQueue) run(jobs <-chan func(), stopped chan<- struct{}) {
	defer close(stopped)
	for job := range jobs {
		job()
	}
}

// enqueue reports false once the queue is stopped.
func (q *hookQueue) enqueue(job func()) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.jobs == nil {
		return false
	}
	q.jobs <- job
	return true
}

// stop drains the queue and waits for the worker to exit.
func (q *hookQueue) stop() {
	q.mu.Lock()
	jobs, stopped := q.jobs, q.stopped
	q.jobs = nil
	q.mu.Unlock()

	if jobs == nil {
		return
	}
	close(jobs)
	<-stopped
}

// Flush waits until every hook queued before the call has run.
func (t *Treasury) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !t.hooks.enqueue(func() { close(done) }) {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatch queues the post-commit events of a committed book. It runs under
// the write lock so events keep commit order.
func (t *Treasury) dispatch(ctx context.Context, b *book) {
	ctx = context.WithoutCancel(ctx)
	plugins := t.plugins
	snap := b.snap

	var ops []func()
	for _, op := range b.opened {
		rows := make([]*transaction.Transaction, 0, len(op.TransactionIDs))
		for _, txID := range op.TransactionIDs {
			if tx, ok := b.txns[txID]; ok {
				rows = append(rows, tx.Clone())
			}
		}
		op := op.Clone()
		ops = append(ops, func() { plugins.EmitOperationCommitted(ctx, op, rows) })
	}
	events := b.events

	job := func() {
		for _, emit := range ops {
			emit()
		}
		for _, e := range events {
			e(ctx, plugins)
		}
		plugins.EmitSnapshotSaved(ctx, snap)
	}
	if !t.hooks.enqueue(job) {
		t.logger.Warn("hooks dropped after stop", "version", snap.Version)
	}
}
