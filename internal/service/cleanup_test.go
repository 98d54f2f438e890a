package service

import (
	"testing"
	"time"
)

func TestCleanup_DeletesEmptyRoomAfterDelay(t *testing.T) {
	f := newFixture(t)
	f.connect("A")
	snap := f.room(t, "", "A")

	f.members.Disconnect("A")
	f.sched.Advance(29 * time.Second)
	if _, err := f.reg.FindRoom(snap.Code); err != nil {
		t.Fatalf("room deleted before the delay")
	}
	f.sched.Advance(time.Second)
	if _, err := f.reg.FindRoom(snap.Code); err == nil {
		t.Fatalf("empty room not deleted")
	}
}

func TestCleanup_RejoinKeepsRoom(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B")
	snap := f.room(t, "", "A")

	f.members.Disconnect("A")
	f.sched.Advance(10 * time.Second)
	if _, err := f.members.Join("B", snap.Code, "", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	f.sched.Advance(time.Minute)
	if _, err := f.reg.FindRoom(snap.Code); err != nil {
		t.Fatalf("room with a member was deleted")
	}
}

func TestCleanup_FireRechecksMembership(t *testing.T) {
	f := newFixture(t)
	f.connect("A", "B")
	snap := f.room(t, "", "A", "B")

	// host leaves with a guest still present: the check fires but keeps the room
	f.members.Leave("A")
	f.sched.Advance(30 * time.Second)
	if _, err := f.reg.FindRoom(snap.Code); err != nil {
		t.Fatalf("room with a guest was deleted")
	}

	// last member leaving arms a fresh check
	f.members.Leave("B")
	if !f.cleanup.Pending(snap.Code) {
		t.Fatalf("empty room not scheduled")
	}
	f.sched.Advance(30 * time.Second)
	if _, err := f.reg.FindRoom(snap.Code); err == nil {
		t.Fatalf("empty room survived")
	}
}

func TestCleanup_RoomAlreadyGone(t *testing.T) {
	f := newFixture(t)
	f.connect("A")
	snap := f.room(t, "", "A")

	f.members.Leave("A")
	f.reg.DeleteRoom(snap.Code)
	f.sched.Advance(30 * time.Second)
	if f.cleanup.Pending(snap.Code) {
		t.Fatalf("pending entry left behind")
	}
}

func TestCleanup_NewerScheduleSupersedes(t *testing.T) {
	f := newFixture(t)
	f.connect("A")
	snap := f.room(t, "", "A")
	f.members.Leave("A")

	f.sched.Advance(20 * time.Second)
	f.cleanup.Schedule(snap.Code)
	f.sched.Advance(10 * time.Second)
	if _, err := f.reg.FindRoom(snap.Code); err != nil {
		t.Fatalf("superseded check still fired")
	}
	f.sched.Advance(20 * time.Second)
	if _, err := f.reg.FindRoom(snap.Code); err == nil {
		t.Fatalf("newer check did not fire")
	}
}

func TestCleanup_StaleCallbackIgnored(t *testing.T) {
	f := newFixture(t)
	f.connect("A")
	snap := f.room(t, "", "A")
	f.members.Leave("A")

	// a callback that raced past stop() must not act on a newer schedule
	f.cleanup.fire(snap.Code, 0)
	if _, err := f.reg.FindRoom(snap.Code); err != nil {
		t.Fatalf("stale callback deleted the room")
	}
	if !f.cleanup.Pending(snap.Code) {
		t.Fatalf("stale callback cleared the pending check")
	}
}
