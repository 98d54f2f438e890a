package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cwrk-planet/signal-service/config"
	"github.com/cwrk-planet/signal-service/internal/ice"
	"github.com/cwrk-planet/signal-service/internal/logger"
	"github.com/cwrk-planet/signal-service/internal/registry"
	"github.com/cwrk-planet/signal-service/internal/security"
	"github.com/cwrk-planet/signal-service/internal/service"
	grpcx "github.com/cwrk-planet/signal-service/internal/transport/grpc"
	httpx "github.com/cwrk-planet/signal-service/internal/transport/http"
	"github.com/cwrk-planet/signal-service/internal/transport/ws"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the signaling server (HTTP + WebSocket + gRPC admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			initLogger(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpLis, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return fmt.Errorf("http listen: %w", err)
			}
			grpcLis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				_ = httpLis.Close()
				return fmt.Errorf("grpc listen: %w", err)
			}
			return run(ctx, cfg, httpLis, grpcLis)
		},
	}
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     cfg.Logging.SlogLevel(),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
}

// app holds the wired components of one server instance.
type app struct {
	hub   *ws.Hub
	disp  *ws.Dispatcher
	rooms *service.RoomService
	http  *httpx.Server
	admin *grpcx.Server
	gcfg  grpcx.Config
}

func build(cfg *config.Config, log *slog.Logger) (*app, error) {
	entries := ice.DefaultEntries()
	if len(cfg.ICE.Servers) > 0 {
		entries = make([]ice.Entry, 0, len(cfg.ICE.Servers))
		for _, s := range cfg.ICE.Servers {
			entries = append(entries, ice.Entry{URLs: s.URLs, Username: s.Username, Credential: s.Credential})
		}
	}
	iceServers, err := ice.Servers(entries)
	if err != nil {
		return nil, fmt.Errorf("ice servers: %w", err)
	}

	// --- state & services ---
	reg := registry.New()
	hub := ws.NewHub(log.With(slog.String("component", "hub")))

	cleanup := service.NewCleanupQueue(reg, hub, cfg.Rooms.CleanupDelayOrDefault(), log)
	chatSvc := service.NewChatService(reg, hub)
	memberSvc := service.NewMemberService(reg, hub, chatSvc, cleanup, log)
	roomSvc := service.NewRoomService(reg, hub, chatSvc, memberSvc, cleanup, security.PinConfig{Cost: cfg.Rooms.PinCost}, log)
	signalSvc := service.NewSignalService(reg, hub, memberSvc)

	disp := ws.NewDispatcher(memberSvc, roomSvc, chatSvc, signalSvc, log)

	// --- WS & HTTP ---
	limits := ws.Limits{
		WriteWait:      cfg.Signal.WriteWaitOrZero(),
		PongWait:       cfg.Signal.PongWaitOrZero(),
		MaxMessageSize: cfg.Signal.MaxMessageSize,
		SendBuffer:     cfg.Signal.SendBuffer,
	}
	wsServer := ws.NewServer(hub, cfg.HTTP.AllowedOrigins, limits, log)

	handler := httpx.NewHandler(roomSvc, iceServers)
	router := httpx.NewRouter(handler, wsServer.HandleWS, httpx.RouterConfig{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Timeout:        cfg.HTTP.RequestTimeoutOrDefault(),
	})
	httpSrv := httpx.NewServer(httpx.ServerConfig{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   cfg.HTTP.ShutdownTimeoutOrDefault(),
	}, router)

	return &app{
		hub:   hub,
		disp:  disp,
		rooms: roomSvc,
		http:  httpSrv,
		admin: grpcx.NewServer(roomSvc, hub),
		gcfg:  grpcx.Config{Addr: cfg.GRPC.Addr, AdminToken: cfg.GRPC.AdminToken},
	}, nil
}

// run serves until ctx is done or one of the servers fails.
func run(ctx context.Context, cfg *config.Config, httpLis, grpcLis net.Listener) error {
	log := logger.L()

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shCtx)
	}()

	a, err := build(cfg, log)
	if err != nil {
		_ = httpLis.Close()
		_ = grpcLis.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.hub.Run(ctx, a.disp)

	gs, hs := grpcx.NewGRPCServer(a.gcfg, a.admin, log)

	errCh := make(chan error, 2)
	go func() {
		log.Info("http listen", slog.String("addr", httpLis.Addr().String()))
		errCh <- a.http.Run(ctx, httpLis)
	}()
	go func() {
		log.Info("grpc listen", slog.String("addr", grpcLis.Addr().String()))
		errCh <- grpcx.Serve(ctx, gs, hs, grpcLis)
	}()

	log.Info("signal-service started",
		slog.String("env", cfg.Logging.Env),
		slog.String("version", cfg.Logging.Version),
	)

	var (
		firstErr error
		received int
	)
	select {
	case <-ctx.Done():
		log.Info("shutdown signal")
	case firstErr = <-errCh:
		received++
		if firstErr != nil {
			log.Error("server error", slog.Any("err", firstErr))
		}
	}
	cancel()

	for ; received < 2; received++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	<-a.hub.Done()

	log.Info("stopped")
	return firstErr
}
