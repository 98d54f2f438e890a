package domain

// Event is anything the core delivers to a connection. The transport maps
// each concrete type to its wire event name and payload.
type Event interface {
	event()
}

// ChatInput is a chat payload after boundary normalisation.
type ChatInput struct {
	Text string
	TS   int64 // unix ms, 0 if the client did not send one
}

type ChatMessage struct {
	From string
	Name string
	Text string
	TS   int64
}

// Notice is a system chat line (join/leave/host ended).
type Notice struct {
	Text string
	TS   int64
}

type EndCall struct {
	Reason string
}

type RoomLocked struct {
	Locked bool
}

type RoomLive struct {
	Live bool
}

type SignalKind string

const (
	SignalOffer     SignalKind = "offer"
	SignalAnswer    SignalKind = "answer"
	SignalCandidate SignalKind = "ice-candidate"
	SignalReady     SignalKind = "ready"
)

// Signal is a relayed negotiation message. Payload is opaque to the core.
// Targeted marks the peer-addressed variants (offer-to, answer-to, ice-to).
type Signal struct {
	Kind     SignalKind
	From     string
	To       string
	Targeted bool
	Payload  any
}

const (
	EndReasonHostLeft  = "host-left"
	EndReasonEnded     = "ended"
	EndReasonClosed    = "closed"
	NoticeHostEnded    = "Host ended the call"
	NoticeRoomClosed   = "Room closed"
	noticeJoinedSuffix = " joined"
	noticeLeftSuffix   = " left"
)

func JoinedNotice(name string) string { return name + noticeJoinedSuffix }
func LeftNotice(name string) string   { return name + noticeLeftSuffix }

func (ChatMessage) event() {}
func (Notice) event()      {}
func (EndCall) event()     {}
func (RoomLocked) event()  {}
func (RoomLive) event()    {}
func (Signal) event()      {}
