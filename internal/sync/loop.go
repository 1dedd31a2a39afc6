package sync

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/awgo/awserver/internal/worker"
)

// DefaultInterval is the sync cadence used by the daemon subcommand.
const DefaultInterval = 5 * time.Minute

// Loop runs RunOnce on a fixed interval until stopped, the way the
// teacher's sync loop hands periodic work to a single background
// goroutine rather than a caller-driven poll.
type Loop struct {
	w        worker.Worker
	syncDir  string
	hostname string
	deviceID string
	interval time.Duration

	mu         sync.Mutex
	running    bool
	lastSyncAt time.Time
	lastErr    error

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

// NewLoop builds a Loop that syncs w against syncDir under (hostname,
// deviceID) every interval. interval <= 0 means DefaultInterval.
func NewLoop(w worker.Worker, syncDir, hostname, deviceID string, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{w: w, syncDir: syncDir, hostname: hostname, deviceID: deviceID, interval: interval}
}

// Start begins the periodic sync cycle in a background goroutine,
// running one cycle immediately before the first tick.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("sync loop already running")
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.stoppedCh = make(chan struct{})
	l.mu.Unlock()

	go l.run(ctx)
	return nil
}

// Stop halts the loop and waits for its goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	stopCh := l.stopCh
	l.mu.Unlock()

	close(stopCh)
	<-l.stoppedCh

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

// Status reports whether the loop is running, and the outcome of its
// most recent cycle.
func (l *Loop) Status() (running bool, lastSyncAt time.Time, lastErr error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running, l.lastSyncAt, l.lastErr
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.stoppedCh)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.syncOnce(ctx)
		}
	}
}

func (l *Loop) syncOnce(ctx context.Context) {
	err := RunOnce(ctx, l.w, l.syncDir, l.hostname, l.deviceID)

	l.mu.Lock()
	l.lastSyncAt = time.Now().UTC()
	l.lastErr = err
	l.mu.Unlock()

	if err != nil {
		log.Printf("sync: cycle failed: %v", err)
	}
}
