package domain

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxRoomNameLen    = 48
	MaxDisplayNameLen = 32
	MaxChatTextLen    = 2000
	CodeLength        = 6

	DefaultRoomName    = "Room"
	DefaultDisplayName = "Guest"
)

// Room is a code-addressed call scope. Members keeps join order; the host is
// normally Members[0] but only HostID is authoritative.
type Room struct {
	Code      string
	Name      string
	PinHash   string
	HostID    string
	HostToken string
	Locked    bool
	Live      bool
	Members   []string
	CreatedAt time.Time
}

func (r *Room) HasPin() bool { return r.PinHash != "" }

func (r *Room) IsMember(connID string) bool {
	return slices.Contains(r.Members, connID)
}

// Clone returns a copy that shares nothing with r.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Members = slices.Clone(r.Members)
	return &cp
}

// Connection is what the core tracks about one transport connection.
type Connection struct {
	ID          string
	DisplayName string
	RoomCode    string
	ConnectedAt time.Time
}

func (c Connection) InRoom() bool { return c.RoomCode != "" }

func NormalizeRoomName(name string) string {
	name = Truncate(strings.TrimSpace(name), MaxRoomNameLen)
	if name == "" {
		return DefaultRoomName
	}
	return name
}

func NormalizeDisplayName(name string) string {
	name = Truncate(strings.TrimSpace(name), MaxDisplayNameLen)
	if name == "" {
		return DefaultDisplayName
	}
	return name
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Member is one entry of a room snapshot.
type Member struct {
	ID   string
	Name string
}

// RoomSnapshot is the public view of a room: what acks, previews and admin
// listings expose. It never carries the PIN hash or host token.
type RoomSnapshot struct {
	Code      string
	Name      string
	HostID    string
	Locked    bool
	Live      bool
	HasPin    bool
	Members   []Member
	CreatedAt time.Time
}

// Snapshot builds the public view of r, resolving member names with nameOf.
func (r *Room) Snapshot(nameOf func(id string) string) RoomSnapshot {
	s := RoomSnapshot{
		Code:      r.Code,
		Name:      r.Name,
		HostID:    r.HostID,
		Locked:    r.Locked,
		Live:      r.Live,
		HasPin:    r.HasPin(),
		Members:   make([]Member, 0, len(r.Members)),
		CreatedAt: r.CreatedAt,
	}
	for _, id := range r.Members {
		s.Members = append(s.Members, Member{ID: id, Name: nameOf(id)})
	}
	return s
}

// IsValidCode reports whether code has the shape of a room code.
func IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
