package grpcx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cwrk-planet/signal-service/internal/domain"
	"github.com/cwrk-planet/signal-service/internal/registry"
	"github.com/cwrk-planet/signal-service/internal/transport/ws"
)

type Rooms interface {
	ListPage(limit int, cursor string) ([]domain.RoomSnapshot, string, error)
	Get(code string) (domain.RoomSnapshot, error)
	Close(code string) error
}

// Loop runs mutations on the goroutine that owns room state.
type Loop interface {
	Do(ctx context.Context, fn func()) error
}

type Server struct {
	rooms Rooms
	loop  Loop
}

func NewServer(rooms Rooms, loop Loop) *Server {
	return &Server{rooms: rooms, loop: loop}
}

// -------- helpers --------

func mapRoom(r domain.RoomSnapshot) map[string]any {
	members := make([]any, 0, len(r.Members))
	for _, m := range r.Members {
		members = append(members, map[string]any{"id": m.ID, "name": m.Name})
	}
	return map[string]any{
		"code":      r.Code,
		"name":      r.Name,
		"hostId":    r.HostID,
		"locked":    r.Locked,
		"live":      r.Live,
		"hasPin":    r.HasPin,
		"members":   members,
		"createdAt": r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, domain.ErrNotInRoom), errors.Is(err, domain.ErrRoomLocked):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, registry.ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ws.ErrHubStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func codeArg(in *wrapperspb.StringValue) (string, error) {
	code := strings.TrimSpace(in.GetValue())
	if code == "" {
		return "", status.Error(codes.InvalidArgument, "room code is required")
	}
	return code, nil
}

// -------- methods --------

func (s *Server) ListRooms(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	limit := int(in.GetFields()["limit"].GetNumberValue())
	cursor := in.GetFields()["cursor"].GetStringValue()

	rooms, next, err := s.rooms.ListPage(limit, cursor)
	if err != nil {
		return nil, mapErr(err)
	}
	items := make([]any, 0, len(rooms))
	for _, r := range rooms {
		items = append(items, mapRoom(r))
	}

	out, err := structpb.NewStruct(map[string]any{
		"rooms":      items,
		"nextCursor": next,
	})
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Server) GetRoom(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	code, err := codeArg(in)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.Get(code)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := structpb.NewStruct(mapRoom(room))
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Server) CloseRoom(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error) {
	code, err := codeArg(in)
	if err != nil {
		return nil, err
	}
	var closeErr error
	if err := s.loop.Do(ctx, func() { closeErr = s.rooms.Close(code) }); err != nil {
		return nil, mapErr(err)
	}
	if closeErr != nil {
		return nil, mapErr(closeErr)
	}
	return &emptypb.Empty{}, nil
}

// -------- wiring --------

type Config struct {
	Addr       string
	AdminToken string
}

// NewGRPCServer builds a grpc.Server carrying the admin and health services.
func NewGRPCServer(cfg Config, admin *Server, log *slog.Logger) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			UnaryServerInterceptor(log),
			AuthUnaryInterceptor(cfg.AdminToken),
		),
		grpc.ChainStreamInterceptor(StreamServerInterceptor(log)),
	)
	RegisterRoomAdminServer(gs, admin)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return gs, hs
}

// Serve runs gs on lis until ctx is done, then stops gracefully.
func Serve(ctx context.Context, gs *grpc.Server, hs *health.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- gs.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		hs.Shutdown()
		gs.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}
