package ws

import (
	"github.com/cwrk-planet/signal-service/internal/domain"
)

// Inbound client events.
const (
	EventHello      = "hello"
	EventCreateRoom = "create-room"
	EventJoinRoom   = "join-room"
	EventLeaveRoom  = "leave-room"
	EventRoomLock   = "room:lock"
	EventRoomLive   = "room:live"
	EventEndForAll  = "end-for-all"
	EventChat       = "chat"
	EventOffer      = "rtc:offer"
	EventOfferTo    = "rtc:offer-to"
	EventAnswer     = "rtc:answer"
	EventAnswerTo   = "rtc:answer-to"
	EventIce        = "rtc:ice"
	EventIceTo      = "rtc:ice-to"
	EventNeedOffer  = "rtc:need-offer"
	EventReady      = "rtc:ready"
)

// Outbound-only events.
const (
	EventWelcome    = "welcome"
	EventAck        = "ack"
	EventRoomLocked = "room:locked"
	EventEndCall    = "end-call"
)

// Inbound is one client frame. Ack is the client's callback id; zero means
// the client does not wait for a reply.
type Inbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	Ack   uint64 `json:"ack,omitempty"`

	prepared any // set by the read goroutine, see Dispatcher.Prepare
}

// Outbound is one server frame. Ack is set only on ack replies.
type Outbound struct {
	Event string `json:"event"`
	Ack   uint64 `json:"ack,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type welcomePayload struct {
	ID string `json:"id"`
}

type ackPayload struct {
	OK        bool         `json:"ok"`
	Error     string       `json:"error,omitempty"`
	Room      *roomPayload `json:"room,omitempty"`
	HostToken string       `json:"hostToken,omitempty"`
	Locked    *bool        `json:"locked,omitempty"`
	Live      *bool        `json:"live,omitempty"`
}

type memberPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type roomPayload struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	HostID    string          `json:"hostId"`
	Locked    bool            `json:"locked"`
	Live      bool            `json:"live"`
	HasPin    bool            `json:"hasPin"`
	Members   []memberPayload `json:"members"`
	CreatedAt int64           `json:"createdAt"`
}

func newRoomPayload(s domain.RoomSnapshot) *roomPayload {
	p := &roomPayload{
		Code:      s.Code,
		Name:      s.Name,
		HostID:    s.HostID,
		Locked:    s.Locked,
		Live:      s.Live,
		HasPin:    s.HasPin,
		Members:   make([]memberPayload, 0, len(s.Members)),
		CreatedAt: s.CreatedAt.UnixMilli(),
	}
	for _, m := range s.Members {
		p.Members = append(p.Members, memberPayload{ID: m.ID, Name: m.Name})
	}
	return p
}

type chatPayload struct {
	From string `json:"from"`
	Name string `json:"name"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

type noticePayload struct {
	System bool   `json:"system"`
	Text   string `json:"text"`
	TS     int64  `json:"ts"`
}

type endCallPayload struct {
	Reason string `json:"reason"`
}

type lockedPayload struct {
	Locked bool `json:"locked"`
}

type livePayload struct {
	Live bool `json:"live"`
}

type offerPayload struct {
	From  string `json:"from"`
	Offer any    `json:"offer"`
}

type answerPayload struct {
	From   string `json:"from"`
	Answer any    `json:"answer"`
}

type icePayload struct {
	From      string `json:"from"`
	Candidate any    `json:"candidate"`
}

type targetedPayload struct {
	From    string `json:"from"`
	Payload any    `json:"payload"`
}

type needOfferPayload struct {
	ID string `json:"id"`
}

// encodeEvent maps a core event to its wire name and payload.
func encodeEvent(ev domain.Event) (string, any, bool) {
	switch e := ev.(type) {
	case domain.ChatMessage:
		return EventChat, chatPayload{From: e.From, Name: e.Name, Text: e.Text, TS: e.TS}, true
	case domain.Notice:
		return EventChat, noticePayload{System: true, Text: e.Text, TS: e.TS}, true
	case domain.EndCall:
		return EventEndCall, endCallPayload{Reason: e.Reason}, true
	case domain.RoomLocked:
		return EventRoomLocked, lockedPayload{Locked: e.Locked}, true
	case domain.RoomLive:
		return EventRoomLive, livePayload{Live: e.Live}, true
	case domain.Signal:
		return encodeSignal(e)
	default:
		return "", nil, false
	}
}

func encodeSignal(s domain.Signal) (string, any, bool) {
	if s.Targeted {
		var name string
		switch s.Kind {
		case domain.SignalOffer:
			name = EventOfferTo
		case domain.SignalAnswer:
			name = EventAnswerTo
		case domain.SignalCandidate:
			name = EventIceTo
		default:
			return "", nil, false
		}
		return name, targetedPayload{From: s.From, Payload: s.Payload}, true
	}

	switch s.Kind {
	case domain.SignalOffer:
		return EventOffer, offerPayload{From: s.From, Offer: s.Payload}, true
	case domain.SignalAnswer:
		return EventAnswer, answerPayload{From: s.From, Answer: s.Payload}, true
	case domain.SignalCandidate:
		return EventIce, icePayload{From: s.From, Candidate: s.Payload}, true
	case domain.SignalReady:
		return EventNeedOffer, needOfferPayload{ID: s.From}, true
	default:
		return "", nil, false
	}
}
