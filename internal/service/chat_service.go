package service

import (
	"strings"
	"time"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
)

type ChatService struct {
	reg  *registry.Registry
	emit Emitter
	now  func() time.Time
}

func NewChatService(reg *registry.Registry, emit Emitter) *ChatService {
	return &ChatService{reg: reg, emit: emit, now: time.Now}
}

// SetClock overrides the server clock used for timestamps.
func (s *ChatService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Send delivers a chat line to every member of the sender's room, sender
// included. It reports whether anything was sent.
func (s *ChatService) Send(connID string, in domain.ChatInput) bool {
	c, ok := s.reg.Connection(connID)
	if !ok || !c.InRoom() {
		return false
	}
	text := domain.Truncate(strings.TrimSpace(in.Text), domain.MaxChatTextLen)
	if text == "" {
		return false
	}
	ts := in.TS
	if ts <= 0 {
		ts = s.now().UnixMilli()
	}

	broadcast(s.reg, s.emit, c.RoomCode, domain.ChatMessage{
		From: connID,
		Name: c.DisplayName,
		Text: text,
		TS:   ts,
	}, "")
	return true
}

// Notice sends a system line to every member of the room.
func (s *ChatService) Notice(code, text string) {
	s.NoticeExcept(code, text, "")
}

func (s *ChatService) NoticeExcept(code, text, except string) {
	broadcast(s.reg, s.emit, code, domain.Notice{Text: text, TS: s.now().UnixMilli()}, except)
}
