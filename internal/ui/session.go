package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/skye-hx/watchparty/internal/room"
)

// PartyMode says which side of the session the view renders.
type PartyMode int

const (
	ModeHost PartyMode = iota
	ModeView
)

const chatLogLines = 12

// Updates published into the session view.
type (
	// SnapshotUpdate replaces the membership view.
	SnapshotUpdate struct{ Snap *room.Snapshot }

	// ChatUpdate appends one chat line.
	ChatUpdate struct {
		Name string
		Role room.Role
		Text string
		At   int64
	}

	// ToastUpdate shows a one-time advisory.
	ToastUpdate struct{ Type, Message string }

	// StatusUpdate replaces the status line.
	StatusUpdate struct{ Text string }

	// LinkUpdate shows the link the host is viewing.
	LinkUpdate struct{ URL string }

	// EndUpdate marks the session over; in view mode the reconnect
	// affordance appears instead of an automatic retry.
	EndUpdate struct{ Reason string }
)

// PartyUI runs the live session view in a bubbletea program fed from an
// updates channel.
type PartyUI struct {
	program *tea.Program
	model   *partyModel
	updates chan any
	wg      sync.WaitGroup

	// Reconnect is invoked when the viewer presses r after the session
	// ended. Nil disables the affordance.
	Reconnect func()

	// SendChat is invoked with the composed chat line when the user
	// presses enter. Nil disables sending.
	SendChat func(text string)
}

// NewPartyUI builds the session view.
func NewPartyUI(mode PartyMode, roomCode string) *PartyUI {
	updates := make(chan any, 64)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	input := textinput.New()
	input.Placeholder = "Say something..."
	input.Prompt = "> "
	input.PromptStyle = SpinnerStyle
	input.CharLimit = 500
	input.Focus()

	ui := &PartyUI{
		updates: updates,
	}
	ui.model = &partyModel{
		mode:     mode,
		roomCode: roomCode,
		status:   "Connecting...",
		spinner:  s,
		input:    input,
		updates:  updates,
		owner:    ui,
	}
	return ui
}

// Start runs the view until the user quits.
func (ui *PartyUI) Start() {
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		// Inline mode keeps previous terminal output visible.
		ui.program = tea.NewProgram(ui.model)
		if _, err := ui.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Publish pushes an update into the view, dropping it if the view is not
// keeping up.
func (ui *PartyUI) Publish(update any) {
	select {
	case ui.updates <- update:
	default:
	}
}

// Stop quits the view and waits for it to unwind.
func (ui *PartyUI) Stop() {
	if ui.program != nil {
		ui.program.Quit()
	}
	ui.wg.Wait()
}

// Wait blocks until the user quits the view.
func (ui *PartyUI) Wait() {
	ui.wg.Wait()
}

type chatLine struct {
	name string
	role room.Role
	text string
	at   time.Time
}

type partyModel struct {
	mode     PartyMode
	roomCode string
	owner    *PartyUI

	status  string
	ended   bool
	reason  string
	spinner spinner.Model
	input   textinput.Model
	snap    *room.Snapshot
	link    string
	toast   string
	chat    []chatLine
	updates chan any

	quitting bool
}

func (m *partyModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink, m.listenForUpdates())
}

func (m *partyModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

func (m *partyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case msg.String() == "esc" || msg.String() == "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case msg.Type == tea.KeyEnter:
			if text := strings.TrimSpace(m.input.Value()); text != "" && m.owner.SendChat != nil {
				m.owner.SendChat(text)
			}
			m.input.Reset()

		case msg.String() == "r" && m.mode == ModeView && m.ended && m.owner.Reconnect != nil:
			m.ended = false
			m.status = "Reconnecting..."
			reconnect := m.owner.Reconnect
			cmds = append(cmds, func() tea.Msg {
				reconnect()
				return nil
			})

		default:
			// Everything else types into the chat input.
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SnapshotUpdate:
		m.snap = msg.Snap
		cmds = append(cmds, m.listenForUpdates())

	case ChatUpdate:
		m.chat = append(m.chat, chatLine{
			name: msg.Name,
			role: msg.Role,
			text: msg.Text,
			at:   time.UnixMilli(msg.At),
		})
		if len(m.chat) > chatLogLines {
			m.chat = m.chat[len(m.chat)-chatLogLines:]
		}
		cmds = append(cmds, m.listenForUpdates())

	case ToastUpdate:
		m.toast = msg.Message
		cmds = append(cmds, m.listenForUpdates())

	case StatusUpdate:
		m.status = msg.Text
		cmds = append(cmds, m.listenForUpdates())

	case LinkUpdate:
		m.link = msg.URL
		cmds = append(cmds, m.listenForUpdates())

	case EndUpdate:
		m.ended = true
		m.reason = msg.Reason
		cmds = append(cmds, m.listenForUpdates())

	default:
		// Cursor blink and other component messages.
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *partyModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	modeIcon, modeText := IconScreen, "Hosting"
	if m.mode == ModeView {
		modeText = "Watching"
	}
	b.WriteString(fmt.Sprintf("\n%s %s room %s\n\n", modeIcon, modeText, TitleStyle.Render(m.roomCode)))

	if m.ended {
		b.WriteString(fmt.Sprintf("%s %s\n", IconWarning, WarningStyle.Render(m.reason)))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), m.status))
	}

	if m.snap != nil {
		b.WriteString("\n" + RenderParticipants(m.snap) + "\n")
	}

	if m.link != "" {
		b.WriteString(fmt.Sprintf("\n%s %s\n", IconLink, m.link))
	}

	if m.toast != "" {
		b.WriteString(fmt.Sprintf("\n%s %s\n", IconWarning, WarningStyle.Render(m.toast)))
	}

	if len(m.chat) > 0 {
		b.WriteString("\n" + BoldStyle.Render(IconChat+" Chat") + "\n")
		for _, line := range m.chat {
			name := line.name
			if line.role == room.RoleHost {
				name = HostStyle.Render(name)
			}
			b.WriteString(fmt.Sprintf("  %s %s: %s\n",
				MutedStyle.Render(line.at.Format("15:04")),
				name,
				line.text,
			))
		}
	}

	b.WriteString("\n" + m.input.View() + "\n")

	footer := "Enter to chat, Esc to leave"
	if m.mode == ModeView && m.ended && m.owner.Reconnect != nil {
		footer = "Press r to reconnect, Esc to leave"
	}
	b.WriteString(MutedStyle.Render(footer))

	return b.String()
}
