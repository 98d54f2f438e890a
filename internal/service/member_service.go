package service

import (
	"errors"
	"log/slog"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
	"github.com/cwrk-planet/signal-service/internal/security"
)

type MemberService struct {
	reg     *registry.Registry
	emit    Emitter
	chat    *ChatService
	cleanup *CleanupQueue
	log     *slog.Logger
}

func NewMemberService(reg *registry.Registry, emit Emitter, chat *ChatService, cleanup *CleanupQueue, log *slog.Logger) *MemberService {
	if log == nil {
		log = slog.Default()
	}
	return &MemberService{reg: reg, emit: emit, chat: chat, cleanup: cleanup, log: log}
}

// Connect registers a new transport connection.
func (s *MemberService) Connect(connID string) domain.Connection {
	return s.reg.AddConnection(connID)
}

// Hello sets the connection's display name.
func (s *MemberService) Hello(connID, name string) error {
	return s.reg.SetDisplayName(connID, domain.NormalizeDisplayName(name))
}

// PinCheck is the result of CheckPin: the room code and PIN hash that a
// presented PIN matched. The zero value matches nothing.
type PinCheck struct {
	code string
	hash string
}

func (p PinCheck) matches(room *domain.Room) bool {
	return p.hash != "" && p.code == room.Code && p.hash == room.PinHash
}

// CheckPin runs the bcrypt comparison for a join attempt. It only reads the
// registry, so it may run on the caller's goroutine; JoinChecked commits.
func (s *MemberService) CheckPin(code, pin, hostToken string) PinCheck {
	room, err := s.reg.FindRoom(code)
	if err != nil || room.PinHash == "" || security.TokenEqual(room.HostToken, hostToken) {
		return PinCheck{}
	}
	if err := security.ComparePin(room.PinHash, pin); err != nil {
		if !errors.Is(err, domain.ErrWrongPin) {
			s.log.Error("pin compare failed", slog.String("room", code), slog.Any("err", err))
		}
		return PinCheck{}
	}
	return PinCheck{code: room.Code, hash: room.PinHash}
}

// Join adds the connection to the room. A matching hostToken makes the
// connection the host and skips the lock and PIN checks.
func (s *MemberService) Join(connID, code, pin, hostToken string) (domain.RoomSnapshot, error) {
	return s.JoinChecked(connID, code, s.CheckPin(code, pin, hostToken), hostToken)
}

// JoinChecked is Join with the PIN already verified by CheckPin. Room
// existence, lock and membership are decided here, against current state.
func (s *MemberService) JoinChecked(connID, code string, pin PinCheck, hostToken string) (domain.RoomSnapshot, error) {
	room, err := s.reg.FindRoom(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}

	reclaim := security.TokenEqual(room.HostToken, hostToken)
	if room.IsMember(connID) && !reclaim {
		return snapshot(s.reg, room), nil
	}
	if !reclaim {
		if room.Locked {
			return domain.RoomSnapshot{}, domain.ErrRoomLocked
		}
		if room.HasPin() && !pin.matches(room) {
			return domain.RoomSnapshot{}, domain.ErrWrongPin
		}
	}

	conn, ok := s.reg.Connection(connID)
	if !ok {
		return domain.RoomSnapshot{}, domain.ErrConnNotFound
	}
	if conn.InRoom() && conn.RoomCode != code {
		s.Leave(connID)
	}
	if reclaim {
		if err := s.reg.SetHost(code, connID); err != nil {
			return domain.RoomSnapshot{}, err
		}
	}

	already := room.IsMember(connID)
	if err := s.reg.AddMember(code, connID); err != nil {
		return domain.RoomSnapshot{}, err
	}
	s.cleanup.Cancel(code)

	if !already {
		s.chat.Notice(code, domain.JoinedNotice(conn.DisplayName))
	}

	room, err = s.reg.FindRoom(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return snapshot(s.reg, room), nil
}

// Leave removes the connection from its current room. No-op outside a room.
func (s *MemberService) Leave(connID string) {
	conn, ok := s.reg.Connection(connID)
	if !ok || !conn.InRoom() {
		return
	}
	code := conn.RoomCode

	room, err := s.reg.FindRoom(code)
	if err != nil {
		return
	}
	left, err := s.reg.RemoveMember(code, connID)
	if err != nil {
		return
	}

	wasHost := room.HostID == connID
	if wasHost {
		_ = s.reg.SetLive(code, false)
		broadcast(s.reg, s.emit, code, domain.EndCall{Reason: domain.EndReasonHostLeft}, "")
		s.chat.Notice(code, domain.NoticeHostEnded)
	} else {
		s.chat.Notice(code, domain.LeftNotice(conn.DisplayName))
	}

	if wasHost || left == 0 {
		s.cleanup.Schedule(code)
	}
	s.log.Debug("left room",
		slog.String("conn", connID),
		slog.String("room", code),
		slog.Bool("host", wasHost),
		slog.Int("remaining", left),
	)
}

// Disconnect releases the connection's room and forgets it.
func (s *MemberService) Disconnect(connID string) {
	s.Leave(connID)
	s.reg.RemoveConnection(connID)
}

// RequireHost returns the connection's room if it is the room's host.
func (s *MemberService) RequireHost(connID string) (*domain.Room, error) {
	room, err := currentRoom(s.reg, connID)
	if err != nil {
		return nil, err
	}
	if room.HostID != connID {
		return nil, domain.ErrUnauthorized
	}
	return room, nil
}
