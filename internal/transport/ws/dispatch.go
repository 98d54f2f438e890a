package ws

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/logger"
	"github.com/cwrk-planet/signal-service/internal/service"
)

type MemberSvc interface {
	Connect(connID string) domain.Connection
	Hello(connID, name string) error
	CheckPin(code, pin, hostToken string) service.PinCheck
	JoinChecked(connID, code string, pin service.PinCheck, hostToken string) (domain.RoomSnapshot, error)
	Leave(connID string)
	Disconnect(connID string)
}

type RoomSvc interface {
	HashPin(pin string) (string, error)
	CreateHashed(connID, name, pinHash string) (domain.RoomSnapshot, string, error)
	SetLocked(connID string, locked bool) error
	SetLive(connID string, live bool) error
	EndForAll(connID string) error
}

type ChatSvc interface {
	Send(connID string, in domain.ChatInput) bool
}

type SignalSvc interface {
	BroadcastOffer(connID string, offer any) error
	OfferTo(connID, targetID string, payload any)
	AnswerTo(connID, targetID string, payload any)
	IceTo(connID, targetID string, payload any)
	Answer(connID string, answer any)
	Ice(connID string, candidate any)
	NeedOffer(connID string)
}

// handlerFunc handles one inbound event. prepared is what Prepare returned
// for the frame. A nil result means no ack is sent.
type handlerFunc func(ctx context.Context, connID string, data, prepared any) *ackPayload

const errInternal = "internal error"

var errNotPrepared = errors.New("ws: event not prepared")

// hashedPin is the prepared form of create-room.
type hashedPin struct {
	hash string
	err  error
}

// Dispatcher routes decoded events to the services. Prepare runs on the
// connection's read goroutine; everything else only on the hub loop.
type Dispatcher struct {
	members MemberSvc
	rooms   RoomSvc
	chat    ChatSvc
	signal  SignalSvc
	log     *slog.Logger

	handlers map[string]handlerFunc
}

func NewDispatcher(members MemberSvc, rooms RoomSvc, chat ChatSvc, signal SignalSvc, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		members: members,
		rooms:   rooms,
		chat:    chat,
		signal:  signal,
		log:     log,
	}
	d.handlers = map[string]handlerFunc{
		EventHello:      d.hello,
		EventCreateRoom: d.createRoom,
		EventJoinRoom:   d.joinRoom,
		EventLeaveRoom:  d.leaveRoom,
		EventRoomLock:   d.roomLock,
		EventRoomLive:   d.roomLive,
		EventEndForAll:  d.endForAll,
		EventChat:       d.chatMessage,
		EventOffer:      d.offer,
		EventOfferTo:    d.offerTo,
		EventAnswer:     d.answer,
		EventAnswerTo:   d.answerTo,
		EventIce:        d.ice,
		EventIceTo:      d.iceTo,
		EventNeedOffer:  d.needOffer,
		EventReady:      d.needOffer,
	}
	return d
}

func (d *Dispatcher) Connect(connID string) {
	d.members.Connect(connID)
}

func (d *Dispatcher) Disconnect(connID string) {
	d.members.Disconnect(connID)
}

// Prepare does the CPU-heavy, state-free part of an event (bcrypt) so the
// hub loop never blocks on it. The result travels with the frame.
func (d *Dispatcher) Prepare(connID string, in Inbound) any {
	switch in.Event {
	case EventCreateRoom:
		hash, err := d.rooms.HashPin(strField(in.Data, "pin"))
		return hashedPin{hash: hash, err: err}
	case EventJoinRoom:
		return d.members.CheckPin(roomCode(in.Data), strField(in.Data, "pin"), strField(in.Data, "hostToken"))
	}
	return nil
}

// Handle runs the handler for the frame and returns its ack payload, if any.
func (d *Dispatcher) Handle(ctx context.Context, connID string, in Inbound) (any, bool) {
	h, ok := d.handlers[in.Event]
	if !ok {
		d.log.LogAttrs(ctx, slog.LevelDebug, "ws unknown event",
			append(logger.AttrsFromCtx(ctx), slog.String("event", in.Event), slog.String("conn", connID))...)
		return nil, false
	}
	prepared := in.prepared
	if prepared == nil {
		prepared = d.Prepare(connID, in)
	}
	ack := h(ctx, connID, in.Data, prepared)
	if ack == nil {
		return nil, false
	}
	return ack, true
}

func (d *Dispatcher) fail(ctx context.Context, connID string, err error) *ackPayload {
	msg := errorMessage(err)
	if msg == errInternal {
		d.log.LogAttrs(ctx, slog.LevelError, "ws handler failed",
			append(logger.AttrsFromCtx(ctx), slog.String("conn", connID), slog.Any("err", err))...)
	}
	return &ackPayload{OK: false, Error: msg}
}

var clientErrors = []error{
	domain.ErrRoomNotFound,
	domain.ErrRoomLocked,
	domain.ErrWrongPin,
	domain.ErrPinTooLong,
	domain.ErrUnauthorized,
	domain.ErrNotInRoom,
}

func errorMessage(err error) string {
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return errInternal
}

// ---- room commands ----

func (d *Dispatcher) hello(ctx context.Context, connID string, data, _ any) *ackPayload {
	if err := d.members.Hello(connID, helloName(data)); err != nil {
		d.log.LogAttrs(ctx, slog.LevelWarn, "ws hello failed",
			append(logger.AttrsFromCtx(ctx), slog.String("conn", connID), slog.Any("err", err))...)
	}
	return nil
}

func (d *Dispatcher) createRoom(ctx context.Context, connID string, data, prepared any) *ackPayload {
	pin, ok := prepared.(hashedPin)
	if !ok {
		return d.fail(ctx, connID, errNotPrepared)
	}
	if pin.err != nil {
		return d.fail(ctx, connID, pin.err)
	}
	snap, token, err := d.rooms.CreateHashed(connID, strField(data, "name"), pin.hash)
	if err != nil {
		return d.fail(ctx, connID, err)
	}
	return &ackPayload{OK: true, Room: newRoomPayload(snap), HostToken: token}
}

func (d *Dispatcher) joinRoom(ctx context.Context, connID string, data, prepared any) *ackPayload {
	pin, ok := prepared.(service.PinCheck)
	if !ok {
		return d.fail(ctx, connID, errNotPrepared)
	}
	snap, err := d.members.JoinChecked(connID, roomCode(data), pin, strField(data, "hostToken"))
	if err != nil {
		return d.fail(ctx, connID, err)
	}
	return &ackPayload{OK: true, Room: newRoomPayload(snap)}
}

func (d *Dispatcher) leaveRoom(_ context.Context, connID string, _, _ any) *ackPayload {
	d.members.Leave(connID)
	return nil
}

func (d *Dispatcher) roomLock(ctx context.Context, connID string, data, _ any) *ackPayload {
	locked := flag(data, "locked", "value")
	if err := d.rooms.SetLocked(connID, locked); err != nil {
		return d.fail(ctx, connID, err)
	}
	return &ackPayload{OK: true, Locked: &locked}
}

func (d *Dispatcher) roomLive(ctx context.Context, connID string, data, _ any) *ackPayload {
	live := flag(data, "live", "value")
	if err := d.rooms.SetLive(connID, live); err != nil {
		return d.fail(ctx, connID, err)
	}
	return &ackPayload{OK: true, Live: &live}
}

func (d *Dispatcher) endForAll(ctx context.Context, connID string, _, _ any) *ackPayload {
	if err := d.rooms.EndForAll(connID); err != nil {
		return d.fail(ctx, connID, err)
	}
	return &ackPayload{OK: true}
}

func (d *Dispatcher) chatMessage(_ context.Context, connID string, data, _ any) *ackPayload {
	d.chat.Send(connID, chatInput(data))
	return nil
}

// ---- signaling ----

func (d *Dispatcher) offer(ctx context.Context, connID string, data, _ any) *ackPayload {
	if err := d.signal.BroadcastOffer(connID, field(data, "offer")); err != nil {
		return d.fail(ctx, connID, err)
	}
	return &ackPayload{OK: true}
}

func (d *Dispatcher) offerTo(_ context.Context, connID string, data, _ any) *ackPayload {
	d.signal.OfferTo(connID, strField(data, "targetId"), field(data, "payload"))
	return nil
}

func (d *Dispatcher) answer(_ context.Context, connID string, data, _ any) *ackPayload {
	d.signal.Answer(connID, field(data, "answer"))
	return nil
}

func (d *Dispatcher) answerTo(_ context.Context, connID string, data, _ any) *ackPayload {
	d.signal.AnswerTo(connID, strField(data, "targetId"), field(data, "payload"))
	return nil
}

func (d *Dispatcher) ice(_ context.Context, connID string, data, _ any) *ackPayload {
	d.signal.Ice(connID, field(data, "candidate"))
	return nil
}

func (d *Dispatcher) iceTo(_ context.Context, connID string, data, _ any) *ackPayload {
	d.signal.IceTo(connID, strField(data, "targetId"), field(data, "payload"))
	return nil
}

func (d *Dispatcher) needOffer(_ context.Context, connID string, _, _ any) *ackPayload {
	d.signal.NeedOffer(connID)
	return nil
}
