package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/awgo/awserver/internal/store"
)

// command is a unit of work submitted to the loop: a closure over the
// batch-scoped store, plus the commit-policy hints the loop needs to
// decide when to end the current transaction.
type command struct {
	run func(ctx context.Context, s *store.Store) (any, error)

	// durable forces an immediate commit after this command runs:
	// bucket create/delete and explicit ForceCommit calls set this.
	durable bool

	// events is how many uncommitted events this command contributes
	// toward commitThreshold (0 for reads and non-event writes).
	events int

	reply chan result
}

type result struct {
	value any
	err   error
}

// loop is the unexported implementation of Worker.
type loop struct {
	base     *store.Store
	commands chan *command

	closeOnce sync.Once
	closeCh   chan struct{}

	doneOnce sync.Once
	readyCh  chan struct{} // closed once the loop goroutine has exited
	finalErr error
}

// New starts a worker goroutine over s and returns its façade. The
// goroutine runs until ctx is canceled or Close is called.
func New(ctx context.Context, s *store.Store) Worker {
	w := &loop{
		base:     s,
		commands: make(chan *command),
		closeCh:  make(chan struct{}),
		readyCh:  make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Done returns a channel that receives the loop's terminal error (nil on
// a clean shutdown) once it exits. Safe to call any number of times,
// including after the loop has already exited.
func (w *loop) Done() <-chan error {
	ch := make(chan error, 1)
	go func() {
		<-w.readyCh
		ch <- w.finalErr
	}()
	return ch
}

func (w *loop) Close() error {
	w.closeOnce.Do(func() { close(w.closeCh) })
	<-w.readyCh
	return w.finalErr
}

// finish records the loop's terminal error (nil on a clean shutdown) and
// wakes everyone waiting on Done/Close. Safe to call more than once; only
// the first call has any effect.
func (w *loop) finish(err error) {
	w.doneOnce.Do(func() {
		w.finalErr = err
		close(w.readyCh)
	})
}

// submit hands cmd to the loop and waits for its reply, honoring ctx
// cancellation on both the send and the receive.
func (w *loop) submit(ctx context.Context, cmd *command) (any, error) {
	select {
	case w.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.closeCh:
		return nil, errors.New("worker: closed")
	}
	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the worker's single goroutine: it owns the store exclusively,
// opening one write transaction per batch and draining commands into it
// until a durability condition is hit, per the commit policy in §4.2.
func (w *loop) run(ctx context.Context) {
	tx, batch, err := w.beginBatch(ctx)
	if err != nil {
		w.finish(fmt.Errorf("worker: begin initial batch: %w", err))
		return
	}
	uncommitted := 0

	commit := func() error {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			if err := commit(); err != nil {
				log.Printf("worker: %v", err)
				w.finish(err)
				return
			}
			w.finish(nil)
			return

		case <-w.closeCh:
			w.drainAndCommit(ctx, tx, batch)
			return

		case cmd, ok := <-w.commands:
			if !ok {
				return
			}
			value, cmdErr := cmd.run(ctx, batch)
			cmd.reply <- result{value: value, err: cmdErr}

			uncommitted += cmd.events
			if cmd.durable || uncommitted >= commitThreshold {
				if err := commit(); err != nil {
					// A failed commit means the store's on-disk state and
					// our in-memory cache may have diverged; the worker
					// cannot safely continue.
					log.Printf("worker: %v", err)
					w.finish(err)
					return
				}
				uncommitted = 0
				tx, batch, err = w.beginBatch(ctx)
				if err != nil {
					log.Printf("worker: begin next batch: %v", err)
					w.finish(fmt.Errorf("begin next batch: %w", err))
					return
				}
			}
		}
	}
}

// drainAndCommit answers every already-queued command with the current
// batch, then commits and exits. Used on Close so callers mid-flight at
// shutdown still get a reply instead of hanging.
func (w *loop) drainAndCommit(ctx context.Context, tx *sql.Tx, batch *store.Store) {
	for {
		select {
		case cmd := <-w.commands:
			value, err := cmd.run(ctx, batch)
			cmd.reply <- result{value: value, err: err}
		default:
			if err := tx.Commit(); err != nil {
				w.finish(fmt.Errorf("commit final batch: %w", err))
				return
			}
			w.finish(nil)
			return
		}
	}
}

func (w *loop) beginBatch(ctx context.Context) (*sql.Tx, *store.Store, error) {
	tx, err := w.base.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tx, w.base.WithTx(tx), nil
}
