package registry

import (
	"errors"
	"regexp"
	"testing"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

var codeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)

func TestRandomCode_Format(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := RandomCode()
		if !codeRe.MatchString(code) {
			t.Fatalf("bad code format: %q", code)
		}
	}
}

func TestCreateRoom_RegeneratesOnCollision(t *testing.T) {
	codes := []string{"111111", "111111", "111111", "222222"}
	i := 0
	r := New(WithCodeGenerator(func() string {
		c := codes[i]
		i++
		return c
	}))

	a := r.CreateRoom("A", "", "host-a", "")
	b := r.CreateRoom("B", "", "host-b", "")

	if a.Code != "111111" {
		t.Fatalf("first code = %q", a.Code)
	}
	if b.Code != "222222" {
		t.Fatalf("expected collision retry to yield 222222, got %q", b.Code)
	}
	if r.RoomCount() != 2 {
		t.Fatalf("room count = %d", r.RoomCount())
	}
}

func TestCreateRoom_UniqueCodes(t *testing.T) {
	r := New()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		room := r.CreateRoom("", "", "h", "")
		if seen[room.Code] {
			t.Fatalf("duplicate live code %q", room.Code)
		}
		seen[room.Code] = true
	}
}

func TestCreateRoom_Defaults(t *testing.T) {
	r := New()
	r.AddConnection("host")

	room := r.CreateRoom("Standup", "", "host", "tok")
	if room.HostID != "host" || room.Locked || room.Live {
		t.Fatalf("unexpected initial state: %+v", room)
	}
	if len(room.Members) != 1 || room.Members[0] != "host" {
		t.Fatalf("host must be first member: %v", room.Members)
	}
	c, _ := r.Connection("host")
	if c.RoomCode != room.Code {
		t.Fatalf("host room code = %q, want %q", c.RoomCode, room.Code)
	}
}

func TestFindRoom_ReturnsCopy(t *testing.T) {
	r := New()
	room := r.CreateRoom("x", "", "h", "")

	got, err := r.FindRoom(room.Code)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got.Members[0] = "mutated"
	got.Locked = true

	again, _ := r.FindRoom(room.Code)
	if again.Members[0] != "h" || again.Locked {
		t.Fatalf("registry state leaked through copy: %+v", again)
	}

	if _, err := r.FindRoom("000000"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestDeleteRoom_IdempotentAndDetachesMembers(t *testing.T) {
	r := New()
	r.AddConnection("h")
	r.AddConnection("g")
	room := r.CreateRoom("x", "", "h", "")
	if err := r.AddMember(room.Code, "g"); err != nil {
		t.Fatalf("add member: %v", err)
	}

	r.DeleteRoom(room.Code)
	r.DeleteRoom(room.Code)

	if _, err := r.FindRoom(room.Code); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("room still present")
	}
	for _, id := range []string{"h", "g"} {
		c, _ := r.Connection(id)
		if c.InRoom() {
			t.Fatalf("%s still attached to %q", id, c.RoomCode)
		}
	}
}

func TestSetters(t *testing.T) {
	r := New()
	room := r.CreateRoom("x", "", "h", "")

	if err := r.SetLocked(room.Code, true); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := r.SetLive(room.Code, true); err != nil {
		t.Fatalf("live: %v", err)
	}
	if err := r.SetHost(room.Code, "h2"); err != nil {
		t.Fatalf("host: %v", err)
	}
	got, _ := r.FindRoom(room.Code)
	if !got.Locked || !got.Live || got.HostID != "h2" {
		t.Fatalf("setters not visible: %+v", got)
	}

	if err := r.SetLocked("nope", true); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestMembership_JoinOrderAndRemove(t *testing.T) {
	r := New()
	for _, id := range []string{"h", "a", "b"} {
		r.AddConnection(id)
	}
	room := r.CreateRoom("x", "", "h", "")
	_ = r.AddMember(room.Code, "a")
	_ = r.AddMember(room.Code, "b")
	_ = r.AddMember(room.Code, "a")

	members := r.Members(room.Code)
	want := []string{"h", "a", "b"}
	if len(members) != len(want) {
		t.Fatalf("members = %v", members)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Fatalf("members = %v, want %v", members, want)
		}
	}

	left, err := r.RemoveMember(room.Code, "a")
	if err != nil || left != 2 {
		t.Fatalf("remove: left=%d err=%v", left, err)
	}
	if r.MemberCount(room.Code) != 2 {
		t.Fatalf("member count = %d", r.MemberCount(room.Code))
	}
	if c, _ := r.Connection("a"); c.InRoom() {
		t.Fatalf("a still attached")
	}
}

func TestConnections(t *testing.T) {
	r := New()
	c := r.AddConnection("c1")
	if c.DisplayName != domain.DefaultDisplayName {
		t.Fatalf("default name = %q", c.DisplayName)
	}
	if err := r.SetDisplayName("c1", "Alice"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if r.DisplayName("c1") != "Alice" {
		t.Fatalf("name = %q", r.DisplayName("c1"))
	}
	if err := r.SetDisplayName("missing", "x"); !errors.Is(err, domain.ErrConnNotFound) {
		t.Fatalf("expected ErrConnNotFound, got %v", err)
	}

	r.RemoveConnection("c1")
	if _, ok := r.Connection("c1"); ok {
		t.Fatalf("connection not removed")
	}
	if r.DisplayName("c1") != domain.DefaultDisplayName {
		t.Fatalf("unknown conn should get placeholder name")
	}
}

func TestList_SortedByCreation(t *testing.T) {
	codes := []string{"300000", "100000", "200000"}
	i := 0
	r := New(WithCodeGenerator(func() string { c := codes[i]; i++; return c }))
	for range codes {
		r.CreateRoom("", "", "h", "")
	}

	list := r.List()
	if len(list) != 3 {
		t.Fatalf("list len = %d", len(list))
	}
	for j := 1; j < len(list); j++ {
		if list[j].CreatedAt.Before(list[j-1].CreatedAt) {
			t.Fatalf("list not sorted by creation: %v", list)
		}
	}
}
