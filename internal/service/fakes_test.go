package service

import (
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
	"github.com/cwrk-planet/signal-service/internal/security"
)

type sent struct {
	to string
	ev domain.Event
}

type fakeEmitter struct {
	out []sent
}

func (f *fakeEmitter) Emit(connID string, ev domain.Event) {
	f.out = append(f.out, sent{to: connID, ev: ev})
}

func (f *fakeEmitter) reset() { f.out = nil }

func (f *fakeEmitter) to(id string) []domain.Event {
	var evs []domain.Event
	for _, s := range f.out {
		if s.to == id {
			evs = append(evs, s.ev)
		}
	}
	return evs
}

func (f *fakeEmitter) recipients() []string {
	var ids []string
	for _, s := range f.out {
		ids = append(ids, s.to)
	}
	sort.Strings(ids)
	return ids
}

type manualTask struct {
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// manualScheduler fires callbacks only when the test advances it.
type manualScheduler struct {
	now   time.Duration
	tasks []*manualTask
}

func (m *manualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	t := &manualTask{at: m.now + d, fn: fn}
	m.tasks = append(m.tasks, t)
	return func() bool {
		if t.fired || t.stopped {
			return false
		}
		t.stopped = true
		return true
	}
}

func (m *manualScheduler) Advance(d time.Duration) {
	m.now += d
	for _, t := range m.tasks {
		if !t.stopped && !t.fired && t.at <= m.now {
			t.fired = true
			t.fn()
		}
	}
}

type fixture struct {
	reg     *registry.Registry
	emit    *fakeEmitter
	sched   *manualScheduler
	cleanup *CleanupQueue
	chat    *ChatService
	members *MemberService
	rooms   *RoomService
	signal  *SignalService
}

func newFixture(t *testing.T, codes ...string) *fixture {
	t.Helper()

	var opts []registry.Option
	if len(codes) > 0 {
		i := 0
		opts = append(opts, registry.WithCodeGenerator(func() string {
			c := codes[i%len(codes)]
			i++
			return c
		}))
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		reg:   registry.New(opts...),
		emit:  &fakeEmitter{},
		sched: &manualScheduler{},
	}
	f.cleanup = NewCleanupQueue(f.reg, f.sched, DefaultCleanupDelay, log)
	f.chat = NewChatService(f.reg, f.emit)
	f.chat.SetClock(func() time.Time { return time.UnixMilli(1_700_000_000_000) })
	f.members = NewMemberService(f.reg, f.emit, f.chat, f.cleanup, log)
	f.rooms = NewRoomService(f.reg, f.emit, f.chat, f.members, f.cleanup, security.PinConfig{Cost: bcrypt.MinCost}, log)
	f.signal = NewSignalService(f.reg, f.emit, f.members)
	return f
}

func (f *fixture) connect(ids ...string) {
	for _, id := range ids {
		f.members.Connect(id)
		_ = f.members.Hello(id, id)
	}
}

// room creates a room hosted by host and joins guests into it.
func (f *fixture) room(t *testing.T, pin, host string, guests ...string) domain.RoomSnapshot {
	t.Helper()
	snap, _, err := f.rooms.Create(host, "Room", pin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, g := range guests {
		if _, err := f.members.Join(g, snap.Code, pin, ""); err != nil {
			t.Fatalf("join %s: %v", g, err)
		}
	}
	f.emit.reset()
	return snap
}

func notices(evs []domain.Event) []string {
	var out []string
	for _, ev := range evs {
		if n, ok := ev.(domain.Notice); ok {
			out = append(out, n.Text)
		}
	}
	return out
}

func hasEndCall(evs []domain.Event) bool {
	for _, ev := range evs {
		if _, ok := ev.(domain.EndCall); ok {
			return true
		}
	}
	return false
}
