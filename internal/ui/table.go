package ui

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/skye-hx/watchparty/internal/room"
)

// RenderParticipants renders a room snapshot as a table, host first by
// join order.
func RenderParticipants(snap *room.Snapshot) string {
	if snap == nil || len(snap.Participants) == 0 {
		return MutedStyle.Render("Nobody here yet")
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatTitle
	t.AppendHeader(table.Row{"#", "Name", "Role", "Joined"})

	for i, p := range snap.Participants {
		name := p.Name
		role := string(p.Role)
		if p.Role == room.RoleHost {
			name = HostStyle.Render(name)
			role = HostStyle.Render(role)
		}
		joined := time.UnixMilli(p.JoinedAt).Format("15:04:05")
		t.AppendRow(table.Row{i + 1, name, role, joined})
	}

	return t.Render()
}
