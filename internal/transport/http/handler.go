package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pion/webrtc/v4"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/transport/http/httputil"
)

type RoomReader interface {
	Get(code string) (domain.RoomSnapshot, error)
}

type Handler struct {
	rooms      RoomReader
	iceServers []webrtc.ICEServer
}

func NewHandler(rooms RoomReader, iceServers []webrtc.ICEServer) *Handler {
	if iceServers == nil {
		iceServers = []webrtc.ICEServer{}
	}
	return &Handler{rooms: rooms, iceServers: iceServers}
}

// RoomPreview is what a prospective guest may learn before joining.
type RoomPreview struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Locked  bool   `json:"locked"`
	Live    bool   `json:"live"`
	HasPin  bool   `json:"hasPin"`
	Members int    `json:"members"`
}

type ICEServersResponse struct {
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

// GET /rooms/{code}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	room, err := h.rooms.Get(code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			httputil.Error(w, http.StatusNotFound, domain.ErrRoomNotFound.Error(), nil)
			return
		}
		httputil.L(r.Context()).Error("handler.GetRoom", "err", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error", nil)
		return
	}

	httputil.OK(w, RoomPreview{
		Code:    room.Code,
		Name:    room.Name,
		Locked:  room.Locked,
		Live:    room.Live,
		HasPin:  room.HasPin,
		Members: len(room.Members),
	})
}

// GET /ice-servers
func (h *Handler) ICEServers(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, ICEServersResponse{ICEServers: h.iceServers})
}

// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
