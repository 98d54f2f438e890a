package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

func TestCreate_Snapshot(t *testing.T) {
	f := newFixture(t, "482913")
	f.connect("A")

	snap, token, err := f.rooms.Create("A", "Standup", "1234")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if snap.Code != "482913" || snap.Name != "Standup" || snap.HostID != "A" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Locked || snap.Live || !snap.HasPin {
		t.Fatalf("flags = %+v", snap)
	}
	if token == "" {
		t.Fatalf("expected host token")
	}
	room, _ := f.reg.FindRoom(snap.Code)
	if room.PinHash == "1234" {
		t.Fatalf("pin stored in clear")
	}
}

func TestCreate_LeavesCurrentRoom(t *testing.T) {
	f := newFixture(t, "111111", "222222")
	f.connect("A", "B")
	first := f.room(t, "", "A", "B")

	if _, _, err := f.rooms.Create("B", "mine", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.reg.Members(first.Code); len(got) != 1 || got[0] != "A" {
		t.Fatalf("first room members = %v", got)
	}
}

func TestHostOnlyOps_RejectGuests(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B", "C")
	snap := f.room(t, "", "A", "B")

	ops := map[string]func(id string) error{
		"lock":  func(id string) error { return f.rooms.SetLocked(id, true) },
		"live":  func(id string) error { return f.rooms.SetLive(id, true) },
		"end":   func(id string) error { return f.rooms.EndForAll(id) },
		"offer": func(id string) error { return f.signal.BroadcastOffer(id, "sdp") },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			before, _ := f.reg.FindRoom(snap.Code)
			f.emit.reset()

			if err := op("B"); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("guest: expected ErrUnauthorized, got %v", err)
			}
			if err := op("C"); !errors.Is(err, domain.ErrNotInRoom) {
				t.Fatalf("outsider: expected ErrNotInRoom, got %v", err)
			}

			after, _ := f.reg.FindRoom(snap.Code)
			if before.Locked != after.Locked || before.Live != after.Live {
				t.Fatalf("state changed: %+v -> %+v", before, after)
			}
			if len(f.emit.out) != 0 {
				t.Fatalf("unexpected emits: %+v", f.emit.out)
			}
		})
	}
}

func TestSetLockedAndLive_Broadcast(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B")
	snap := f.room(t, "", "A", "B")

	if err := f.rooms.SetLocked("A", true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := f.rooms.SetLive("A", true); err != nil {
		t.Fatalf("live: %v", err)
	}
	for _, id := range []string{"A", "B"} {
		evs := f.emit.to(id)
		if len(evs) != 2 {
			t.Fatalf("%s events = %+v", id, evs)
		}
		if ev, ok := evs[0].(domain.RoomLocked); !ok || !ev.Locked {
			t.Fatalf("%s first event = %+v", id, evs[0])
		}
		if ev, ok := evs[1].(domain.RoomLive); !ok || !ev.Live {
			t.Fatalf("%s second event = %+v", id, evs[1])
		}
	}
	room, _ := f.reg.FindRoom(snap.Code)
	if !room.Locked || !room.Live {
		t.Fatalf("room = %+v", room)
	}
}

func TestEndForAll(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B", "C")
	snap := f.room(t, "", "A", "B", "C")
	_ = f.rooms.SetLive("A", true)
	f.emit.reset()

	if err := f.rooms.EndForAll("A"); err != nil {
		t.Fatalf("end: %v", err)
	}
	for _, id := range []string{"B", "C"} {
		evs := f.emit.to(id)
		if !hasEndCall(evs) || len(notices(evs)) != 1 {
			t.Fatalf("%s events = %+v", id, evs)
		}
	}
	if len(f.emit.to("A")) != 0 {
		t.Fatalf("host should not receive its own end-call")
	}
	room, _ := f.reg.FindRoom(snap.Code)
	if room.Live || len(room.Members) != 3 {
		t.Fatalf("room = %+v", room)
	}
}

func TestClose_NotifiesAndDeletes(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B")
	snap := f.room(t, "", "A", "B")

	if err := f.rooms.Close(snap.Code); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, id := range []string{"A", "B"} {
		evs := f.emit.to(id)
		if !hasEndCall(evs) {
			t.Fatalf("%s missing end-call", id)
		}
		if n := notices(evs); len(n) != 1 || n[0] != domain.NoticeRoomClosed {
			t.Fatalf("%s notices = %v", id, n)
		}
		if c, _ := f.reg.Connection(id); c.InRoom() {
			t.Fatalf("%s still attached", id)
		}
	}
	if _, err := f.rooms.Get(snap.Code); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("room still present")
	}
	if err := f.rooms.Close(snap.Code); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("second close: %v", err)
	}
}

func TestListPage(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B", "C")
	for _, id := range []string{"A", "B", "C"} {
		if _, _, err := f.rooms.Create(id, id, ""); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if got := len(f.rooms.List()); got != 3 {
		t.Fatalf("list = %d", got)
	}
	page, next, err := f.rooms.ListPage(2, "")
	if err != nil || len(page) != 2 || next == "" {
		t.Fatalf("page1 len=%d next=%q err=%v", len(page), next, err)
	}
	page, next, err = f.rooms.ListPage(2, next)
	if err != nil || len(page) != 1 || next != "" {
		t.Fatalf("page2 len=%d next=%q err=%v", len(page), next, err)
	}
}

func TestCreate_RejectsOverlongPin(t *testing.T) {
	f := newFixture(t)
	f.connect("A")

	_, _, err := f.rooms.Create("A", "Room", strings.Repeat("1", 73))
	if !errors.Is(err, domain.ErrPinTooLong) {
		t.Fatalf("expected ErrPinTooLong, got %v", err)
	}
	if f.reg.RoomCount() != 0 {
		t.Fatalf("room created with a rejected pin")
	}
}

func TestCreateHashed_UsesPreparedHash(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B")

	hash, err := f.rooms.HashPin(" 4321 ")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	snap, _, err := f.rooms.CreateHashed("A", "Room", hash)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !snap.HasPin {
		t.Fatalf("snapshot must report the pin")
	}
	if _, err := f.members.Join("B", snap.Code, "4321", ""); err != nil {
		t.Fatalf("join with prepared pin: %v", err)
	}
}
