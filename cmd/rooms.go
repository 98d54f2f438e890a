package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwrk-planet/signal-service/config"
	"github.com/cwrk-planet/signal-service/internal/domain"
	grpcx "github.com/cwrk-planet/signal-service/internal/transport/grpc"
	"github.com/cwrk-planet/signal-service/internal/ui"
)

type adminFlags struct {
	addr    string
	token   string
	timeout time.Duration
}

func newRoomsCmd(configPath *string) *cobra.Command {
	f := &adminFlags{}

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and manage live rooms over the admin API",
	}
	cmd.PersistentFlags().StringVar(&f.addr, "addr", "", "admin gRPC address (default grpc.addr from config)")
	cmd.PersistentFlags().StringVar(&f.token, "token", "", "admin token (default grpc.adminToken / $SIGNAL_ADMIN_TOKEN)")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 5*time.Second, "per-command timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List active rooms",
			Args:    cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				return withAdmin(c, *configPath, f, func(ctx context.Context, cl *grpcx.AdminClient) error {
					rooms, err := cl.ListAllRooms(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.OutOrStdout(), ui.RoomsTable(rooms, time.Now()))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "show <code>",
			Short: "Show a room and its members",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				if err := checkCode(args[0]); err != nil {
					return err
				}
				return withAdmin(c, *configPath, f, func(ctx context.Context, cl *grpcx.AdminClient) error {
					room, err := cl.GetRoom(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(c.OutOrStdout(), ui.RoomView(room, time.Now()))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "close <code>",
			Short: "End the call for everyone and delete the room",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				if err := checkCode(args[0]); err != nil {
					return err
				}
				return withAdmin(c, *configPath, f, func(ctx context.Context, cl *grpcx.AdminClient) error {
					if err := cl.CloseRoom(ctx, args[0]); err != nil {
						return err
					}
					ui.PrintSuccess(c.OutOrStdout(), "room "+args[0]+" closed")
					return nil
				})
			},
		},
	)
	return cmd
}

func withAdmin(c *cobra.Command, configPath string, f *adminFlags, fn func(context.Context, *grpcx.AdminClient) error) error {
	addr, token := f.addr, f.token
	if addr == "" || token == "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if addr == "" {
			addr = cfg.GRPC.Addr
		}
		if token == "" {
			token = cfg.GRPC.AdminToken
		}
	}
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	conn, err := grpcx.Dial(addr, token)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(c.Context(), f.timeout)
	defer cancel()
	return fn(ctx, grpcx.NewAdminClient(conn))
}

func checkCode(code string) error {
	if !domain.IsValidCode(code) {
		return fmt.Errorf("invalid room code %q: want %d digits", code, domain.CodeLength)
	}
	return nil
}
