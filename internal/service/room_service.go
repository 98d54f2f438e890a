package service

import (
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
	"github.com/cwrk-planet/signal-service/internal/security"
)

type RoomService struct {
	reg     *registry.Registry
	emit    Emitter
	chat    *ChatService
	members *MemberService
	cleanup *CleanupQueue
	pin     security.PinConfig
	log     *slog.Logger
}

func NewRoomService(
	reg *registry.Registry,
	emit Emitter,
	chat *ChatService,
	members *MemberService,
	cleanup *CleanupQueue,
	pin security.PinConfig,
	log *slog.Logger,
) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	return &RoomService{
		reg:     reg,
		emit:    emit,
		chat:    chat,
		members: members,
		cleanup: cleanup,
		pin:     pin,
		log:     log,
	}
}

// HashPin prepares a PIN for CreateHashed. It touches no shared state.
func (s *RoomService) HashPin(pin string) (string, error) {
	hash, err := security.HashPin(pin, s.pin)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return hash, nil
}

// Create makes connID the host of a new room and returns the room together
// with the token that lets the host reclaim it from another connection.
func (s *RoomService) Create(connID, name, pin string) (domain.RoomSnapshot, string, error) {
	if _, ok := s.reg.Connection(connID); !ok {
		return domain.RoomSnapshot{}, "", domain.ErrConnNotFound
	}
	hash, err := s.HashPin(pin)
	if err != nil {
		return domain.RoomSnapshot{}, "", err
	}
	return s.CreateHashed(connID, name, hash)
}

// CreateHashed is Create with the PIN already hashed by HashPin.
func (s *RoomService) CreateHashed(connID, name, pinHash string) (domain.RoomSnapshot, string, error) {
	if _, ok := s.reg.Connection(connID); !ok {
		return domain.RoomSnapshot{}, "", domain.ErrConnNotFound
	}
	s.members.Leave(connID)

	token := security.NewHostToken()
	room := s.reg.CreateRoom(domain.NormalizeRoomName(name), pinHash, connID, token)

	s.log.Info("room created",
		slog.String("room", room.Code),
		slog.String("host", connID),
		slog.Bool("pin", room.HasPin()),
	)
	return snapshot(s.reg, room), token, nil
}

// SetLocked toggles whether the room accepts new joins. Host only.
func (s *RoomService) SetLocked(connID string, locked bool) error {
	room, err := s.members.RequireHost(connID)
	if err != nil {
		return err
	}
	if err := s.reg.SetLocked(room.Code, locked); err != nil {
		return err
	}
	broadcast(s.reg, s.emit, room.Code, domain.RoomLocked{Locked: locked}, "")
	return nil
}

// SetLive advertises whether the host's call is joinable. Host only.
func (s *RoomService) SetLive(connID string, live bool) error {
	room, err := s.members.RequireHost(connID)
	if err != nil {
		return err
	}
	if err := s.reg.SetLive(room.Code, live); err != nil {
		return err
	}
	broadcast(s.reg, s.emit, room.Code, domain.RoomLive{Live: live}, "")
	return nil
}

// EndForAll stops the call for every guest while the host stays in the room.
func (s *RoomService) EndForAll(connID string) error {
	room, err := s.members.RequireHost(connID)
	if err != nil {
		return err
	}
	if err := s.reg.SetLive(room.Code, false); err != nil {
		return err
	}
	broadcast(s.reg, s.emit, room.Code, domain.EndCall{Reason: domain.EndReasonEnded}, connID)
	s.chat.NoticeExcept(room.Code, domain.NoticeHostEnded, connID)
	return nil
}

// Close ends the call for everyone and removes the room immediately.
func (s *RoomService) Close(code string) error {
	if _, err := s.reg.FindRoom(code); err != nil {
		return err
	}
	broadcast(s.reg, s.emit, code, domain.EndCall{Reason: domain.EndReasonClosed}, "")
	s.chat.Notice(code, domain.NoticeRoomClosed)
	s.cleanup.Cancel(code)
	s.reg.DeleteRoom(code)

	s.log.Info("room closed", slog.String("room", code))
	return nil
}

func (s *RoomService) Get(code string) (domain.RoomSnapshot, error) {
	room, err := s.reg.FindRoom(code)
	if err != nil {
		return domain.RoomSnapshot{}, err
	}
	return snapshot(s.reg, room), nil
}

func (s *RoomService) List() []domain.RoomSnapshot {
	rooms := s.reg.List()
	out := make([]domain.RoomSnapshot, 0, len(rooms))
	for i := range rooms {
		out = append(out, snapshot(s.reg, &rooms[i]))
	}
	return out
}

// ListPage is List with cursor paging.
func (s *RoomService) ListPage(limit int, cursor string) ([]domain.RoomSnapshot, string, error) {
	rooms, next, err := s.reg.Page(limit, cursor)
	if err != nil {
		return nil, "", err
	}
	out := make([]domain.RoomSnapshot, 0, len(rooms))
	for i := range rooms {
		out = append(out, snapshot(s.reg, &rooms[i]))
	}
	return out, next, nil
}
