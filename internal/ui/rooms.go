package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	grpcx "github.com/cwrk-planet/signal-service/internal/transport/grpc"
)

const maxNameWidth = 32

// RoomsTable renders one row per room.
func RoomsTable(rooms []grpcx.RoomInfo, now time.Time) string {
	if len(rooms) == 0 {
		return MutedStyle.Render("No active rooms")
	}

	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{
			r.Code,
			truncate(r.Name, maxNameWidth),
			strconv.Itoa(len(r.Members)),
			flags(r),
			age(now, r.CreatedAt),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Code", "Name", "Members", "Flags", "Age").
		Rows(rows...).
		StyleFunc(zebra).
		Render()
}

// RoomView renders a single room with its members, host first.
func RoomView(r grpcx.RoomInfo, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", TitleStyle.Render(r.Code), BoldStyle.Render(r.Name))
	fmt.Fprintf(&b, "%s %s   %s %s\n",
		MutedStyle.Render("flags:"), flags(r),
		MutedStyle.Render("age:"), age(now, r.CreatedAt),
	)

	rows := make([][]string, 0, len(r.Members))
	for _, m := range r.Members {
		role := "guest"
		if m.ID == r.HostID {
			role = "host"
			rows = append([][]string{{m.ID, truncate(m.Name, maxNameWidth), role}}, rows...)
			continue
		}
		rows = append(rows, []string{m.ID, truncate(m.Name, maxNameWidth), role})
	}
	if len(rows) == 0 {
		b.WriteString(MutedStyle.Render("no members"))
		return BoxStyle.Render(b.String())
	}

	b.WriteString(table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("ID", "Name", "Role").
		Rows(rows...).
		StyleFunc(zebra).
		Render())
	return BoxStyle.Render(b.String())
}

func zebra(row, _ int) lipgloss.Style {
	switch {
	case row == table.HeaderRow:
		return TableHeaderStyle
	case row%2 == 0:
		return TableRowStyle
	default:
		return TableRowAltStyle
	}
}

func flags(r grpcx.RoomInfo) string {
	var out []string
	if r.Live {
		out = append(out, "live")
	}
	if r.Locked {
		out = append(out, "locked")
	}
	if r.HasPin {
		out = append(out, "pin")
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ",")
}

func age(now, t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	return d.Truncate(time.Second).String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
