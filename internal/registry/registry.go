package registry

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cwrk-planet/signal-service/internal/domain"
)

// CodeGenerator returns a candidate room code; the registry retries on collision.
type CodeGenerator func() string

// Registry holds every live room and connection for the process.
// Multi-step operations are expected to run on the hub loop; the mutex only
// keeps readers on other goroutines (admin, HTTP preview) consistent.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*domain.Room
	conns map[string]*domain.Connection

	genCode CodeGenerator
	now     func() time.Time
}

type Option func(*Registry)

func WithCodeGenerator(g CodeGenerator) Option {
	return func(r *Registry) {
		if g != nil {
			r.genCode = g
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		rooms:   make(map[string]*domain.Room),
		conns:   make(map[string]*domain.Connection),
		genCode: RandomCode,
		now:     time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RandomCode returns a 6-digit numeric code in [100000, 999999].
func RandomCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(fmt.Errorf("registry: read random code: %w", err))
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}

// ---- rooms ----

// CreateRoom stores a new room with hostID as host and first member.
func (r *Registry) CreateRoom(name, pinHash, hostID, hostToken string) *domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.genCode()
	for {
		if _, taken := r.rooms[code]; !taken {
			break
		}
		code = r.genCode()
	}

	room := &domain.Room{
		Code:      code,
		Name:      name,
		PinHash:   pinHash,
		HostID:    hostID,
		HostToken: hostToken,
		Members:   []string{hostID},
		CreatedAt: r.now(),
	}
	r.rooms[code] = room
	if c, ok := r.conns[hostID]; ok {
		c.RoomCode = code
	}

	return room.Clone()
}

func (r *Registry) FindRoom(code string) (*domain.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return room.Clone(), nil
}

// DeleteRoom removes the room and detaches its members. Idempotent.
func (r *Registry) DeleteRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return
	}
	for _, id := range room.Members {
		if c, ok := r.conns[id]; ok && c.RoomCode == code {
			c.RoomCode = ""
		}
	}
	delete(r.rooms, code)
}

func (r *Registry) SetLocked(code string, locked bool) error {
	return r.update(code, func(room *domain.Room) { room.Locked = locked })
}

func (r *Registry) SetLive(code string, live bool) error {
	return r.update(code, func(room *domain.Room) { room.Live = live })
}

func (r *Registry) SetHost(code, hostID string) error {
	return r.update(code, func(room *domain.Room) { room.HostID = hostID })
}

func (r *Registry) update(code string, fn func(*domain.Room)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	fn(room)
	return nil
}

// AddMember records connID as a member and as the connection's current room.
func (r *Registry) AddMember(code, connID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if !room.IsMember(connID) {
		room.Members = append(room.Members, connID)
	}
	if c, ok := r.conns[connID]; ok {
		c.RoomCode = code
	}
	return nil
}

// RemoveMember drops connID from the room and returns how many members remain.
func (r *Registry) RemoveMember(code, connID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		return 0, domain.ErrRoomNotFound
	}
	room.Members = slices.DeleteFunc(room.Members, func(id string) bool { return id == connID })
	if c, ok := r.conns[connID]; ok && c.RoomCode == code {
		c.RoomCode = ""
	}
	return len(room.Members), nil
}

// Members returns the room's member ids in join order, nil for an unknown room.
func (r *Registry) Members(code string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if room, ok := r.rooms[code]; ok {
		return slices.Clone(room.Members)
	}
	return nil
}

// List returns copies of all rooms, oldest first.
func (r *Registry) List() []domain.Room {
	r.mu.RLock()
	out := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, *room.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *Registry) MemberCount(code string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if room, ok := r.rooms[code]; ok {
		return len(room.Members)
	}
	return 0
}

func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// ---- connections ----

func (r *Registry) AddConnection(id string) domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &domain.Connection{
		ID:          id,
		DisplayName: domain.DefaultDisplayName,
		ConnectedAt: r.now(),
	}
	r.conns[id] = c
	return *c
}

func (r *Registry) Connection(id string) (domain.Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, false
	}
	return *c, true
}

func (r *Registry) SetDisplayName(id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return domain.ErrConnNotFound
	}
	c.DisplayName = name
	return nil
}

// RemoveConnection forgets the connection. Room membership must be released first.
func (r *Registry) RemoveConnection(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// DisplayName returns the connection's name or the default placeholder.
func (r *Registry) DisplayName(id string) string {
	if c, ok := r.Connection(id); ok {
		return c.DisplayName
	}
	return domain.DefaultDisplayName
}
