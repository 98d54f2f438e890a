package service

import (
	"time"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
)

// Emitter delivers an event to one connection. Delivery is best effort and
// must not block; unknown ids are dropped.
type Emitter interface {
	Emit(connID string, ev domain.Event)
}

// Scheduler runs fn once after d. The returned stop func cancels it and
// reports whether the call was prevented.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (stop func() bool)
}

// broadcast delivers ev to every member of the room except the given id.
func broadcast(reg *registry.Registry, emit Emitter, code string, ev domain.Event, except string) {
	for _, id := range reg.Members(code) {
		if id == except {
			continue
		}
		emit.Emit(id, ev)
	}
}

// currentRoom resolves the room the connection is in.
func currentRoom(reg *registry.Registry, connID string) (*domain.Room, error) {
	c, ok := reg.Connection(connID)
	if !ok || !c.InRoom() {
		return nil, domain.ErrNotInRoom
	}
	room, err := reg.FindRoom(c.RoomCode)
	if err != nil {
		return nil, domain.ErrNotInRoom
	}
	return room, nil
}

func snapshot(reg *registry.Registry, room *domain.Room) domain.RoomSnapshot {
	return room.Snapshot(reg.DisplayName)
}
