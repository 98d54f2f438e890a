package service

import (
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

func TestScenario_StandupCall(t *testing.T) {
	f := newFixture(t, "482913")
	f.connect("A", "B")

	snap, _, err := f.rooms.Create("A", "Standup", "1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.Code != "482913" || snap.Name != "Standup" || snap.Locked || snap.Live || snap.HostID != "A" {
		t.Fatalf("create snapshot = %+v", snap)
	}

	if _, err := f.members.Join("B", snap.Code, "0000", ""); !errors.Is(err, domain.ErrWrongPin) || err.Error() != "wrong pin" {
		t.Fatalf("wrong pin join: %v", err)
	}

	if _, err := f.members.Join("B", snap.Code, "1234", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	for _, id := range []string{"A", "B"} {
		if n := notices(f.emit.to(id)); len(n) != 1 || n[0] != "B joined" {
			t.Fatalf("%s notices = %v", id, n)
		}
	}

	f.emit.reset()
	if err := f.rooms.SetLive("A", true); err != nil {
		t.Fatalf("live: %v", err)
	}
	for _, id := range []string{"A", "B"} {
		evs := f.emit.to(id)
		if len(evs) != 1 || evs[0] != (domain.RoomLive{Live: true}) {
			t.Fatalf("%s events = %+v", id, evs)
		}
	}

	f.emit.reset()
	f.members.Disconnect("A")
	evs := f.emit.to("B")
	if !hasEndCall(evs) {
		t.Fatalf("B missing end-call")
	}
	if n := notices(evs); len(n) != 1 || n[0] != "Host ended the call" {
		t.Fatalf("B notices = %v", n)
	}

	f.members.Disconnect("B")
	f.sched.Advance(30 * time.Second)
	if _, err := f.rooms.Get(snap.Code); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("room still present after grace delay")
	}
}
