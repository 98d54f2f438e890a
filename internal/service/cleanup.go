package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/signal-service/internal/registry"
)

const DefaultCleanupDelay = 30 * time.Second

type cleanupTask struct {
	seq  uint64
	stop func() bool
}

// CleanupQueue holds at most one pending deletion check per room code.
type CleanupQueue struct {
	reg   *registry.Registry
	sched Scheduler
	delay time.Duration
	log   *slog.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]cleanupTask
}

func NewCleanupQueue(reg *registry.Registry, sched Scheduler, delay time.Duration, log *slog.Logger) *CleanupQueue {
	if delay <= 0 {
		delay = DefaultCleanupDelay
	}
	if log == nil {
		log = slog.Default()
	}
	return &CleanupQueue{
		reg:     reg,
		sched:   sched,
		delay:   delay,
		log:     log,
		pending: make(map[string]cleanupTask),
	}
}

// Schedule arms a deletion check for code, replacing any earlier one.
func (q *CleanupQueue) Schedule(code string) {
	q.mu.Lock()
	if prev, ok := q.pending[code]; ok {
		prev.stop()
	}
	q.seq++
	seq := q.seq
	stop := q.sched.AfterFunc(q.delay, func() { q.fire(code, seq) })
	q.pending[code] = cleanupTask{seq: seq, stop: stop}
	q.mu.Unlock()

	q.log.Debug("room cleanup scheduled", slog.String("room", code), slog.Duration("delay", q.delay))
}

// Cancel drops the pending check for code, if any.
func (q *CleanupQueue) Cancel(code string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.pending[code]
	if !ok {
		return false
	}
	t.stop()
	delete(q.pending, code)
	return true
}

func (q *CleanupQueue) Pending(code string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[code]
	return ok
}

func (q *CleanupQueue) fire(code string, seq uint64) {
	q.mu.Lock()
	t, ok := q.pending[code]
	if !ok || t.seq != seq {
		// superseded or cancelled after the timer already fired
		q.mu.Unlock()
		return
	}
	delete(q.pending, code)
	q.mu.Unlock()

	room, err := q.reg.FindRoom(code)
	if err != nil {
		return
	}
	if len(room.Members) > 0 {
		q.log.Debug("room cleanup skipped", slog.String("room", code), slog.Int("members", len(room.Members)))
		return
	}
	q.reg.DeleteRoom(code)
	q.log.Info("room deleted", slog.String("room", code))
}
