package service

import (
	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
)

// SignalService relays negotiation payloads between the host and guests.
// Payloads are never inspected. Anything that cannot be routed is dropped.
type SignalService struct {
	reg     *registry.Registry
	emit    Emitter
	members *MemberService
}

func NewSignalService(reg *registry.Registry, emit Emitter, members *MemberService) *SignalService {
	return &SignalService{reg: reg, emit: emit, members: members}
}

// BroadcastOffer sends the host's offer to every other member. Host only.
func (s *SignalService) BroadcastOffer(connID string, offer any) error {
	room, err := s.members.RequireHost(connID)
	if err != nil {
		return err
	}
	broadcast(s.reg, s.emit, room.Code, domain.Signal{
		Kind:    domain.SignalOffer,
		From:    connID,
		Payload: offer,
	}, connID)
	return nil
}

func (s *SignalService) OfferTo(connID, targetID string, payload any) {
	s.sendTo(domain.SignalOffer, connID, targetID, payload)
}

func (s *SignalService) AnswerTo(connID, targetID string, payload any) {
	s.sendTo(domain.SignalAnswer, connID, targetID, payload)
}

func (s *SignalService) IceTo(connID, targetID string, payload any) {
	s.sendTo(domain.SignalCandidate, connID, targetID, payload)
}

func (s *SignalService) sendTo(kind domain.SignalKind, connID, targetID string, payload any) {
	if targetID == "" || targetID == connID {
		return
	}
	room, err := currentRoom(s.reg, connID)
	if err != nil || !room.IsMember(targetID) {
		return
	}
	s.emit.Emit(targetID, domain.Signal{
		Kind:     kind,
		From:     connID,
		To:       targetID,
		Targeted: true,
		Payload:  payload,
	})
}

// Answer forwards a guest's answer to whoever is host right now.
func (s *SignalService) Answer(connID string, answer any) {
	s.toHost(domain.SignalAnswer, connID, answer)
}

// Ice fans the host's candidates out to all guests; a guest's candidates go
// to the host only.
func (s *SignalService) Ice(connID string, candidate any) {
	room, err := currentRoom(s.reg, connID)
	if err != nil {
		return
	}
	if room.HostID == connID {
		broadcast(s.reg, s.emit, room.Code, domain.Signal{
			Kind:    domain.SignalCandidate,
			From:    connID,
			Payload: candidate,
		}, connID)
		return
	}
	s.toHost(domain.SignalCandidate, connID, candidate)
}

// NeedOffer tells the host that connID is ready for an offer.
func (s *SignalService) NeedOffer(connID string) {
	s.toHost(domain.SignalReady, connID, nil)
}

func (s *SignalService) toHost(kind domain.SignalKind, connID string, payload any) {
	room, err := currentRoom(s.reg, connID)
	if err != nil || room.HostID == connID || !room.IsMember(room.HostID) {
		return
	}
	s.emit.Emit(room.HostID, domain.Signal{
		Kind:    kind,
		From:    connID,
		To:      room.HostID,
		Payload: payload,
	})
}
