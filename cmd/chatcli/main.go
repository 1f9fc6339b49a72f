// chatcli is a terminal client for a samchat server. It logs in, opens
// a conversation, and drives the chat controller from a bubbletea UI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samchat/samchat/internal/chatclient"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	toolBoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// ─── Messages ───────────────────────────────────────────────────────────────

type streamEventMsg chatclient.Event

type streamClosedMsg struct{}

// waitForEvent bridges the controller's event channel into the tea loop.
func waitForEvent(events <-chan chatclient.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg(ev)
	}
}

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	ctrl   *chatclient.Controller
	convID string

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model

	events    <-chan chatclient.Event
	streaming bool
	status    string
	ready     bool
	width     int
	height    int
}

func newModel(ctrl *chatclient.Controller, convID string) model {
	input := textinput.New()
	input.Placeholder = "Ask anything (/model <name> to switch, ctrl+c to quit)"
	input.Focus()
	input.CharLimit = 4000

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))

	return model{
		ctrl:   ctrl,
		convID: convID,
		input:  input,
		spin:   spin,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.input.Width = msg.Width - 4
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.streaming {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.Reset()

			if name, ok := strings.CutPrefix(text, "/model "); ok {
				m.ctrl.SetModel(strings.TrimSpace(name))
				m.status = "model set to " + strings.TrimSpace(name)
				return m, nil
			}

			m.events = m.ctrl.Send(context.Background(), text)
			m.streaming = true
			m.status = ""
			m.refresh()
			return m, tea.Batch(m.spin.Tick, waitForEvent(m.events))
		}

	case streamEventMsg:
		ev := chatclient.Event(msg)
		switch ev.Type {
		case "error":
			if ev.Err != nil {
				m.status = errorStyle.Render("error: " + ev.Err.Error())
			} else {
				m.status = errorStyle.Render(ev.Message)
			}
		}
		m.refresh()
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.streaming = false
		m.events = nil
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refresh rebuilds the transcript from controller state and pins the
// viewport to the bottom.
func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m *model) transcript() string {
	var b strings.Builder
	for _, msg := range m.ctrl.Messages() {
		switch msg.Role {
		case "user":
			b.WriteString(userStyle.Render("you") + "  " + msg.Content + "\n\n")
		case "assistant":
			b.WriteString(assistantStyle.Render("sam") + "  ")
			for _, inv := range msg.Invocations {
				rendered := m.ctrl.Render(inv)
				label := toolStyle.Render(inv.Name)
				b.WriteString("\n" + toolBoxStyle.Render(label+"\n"+rendered) + "\n")
			}
			if msg.Content != "" {
				b.WriteString(msg.Content)
			}
			b.WriteString("\n\n")
		}
	}
	return wrap(b.String(), m.width)
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	header := titleStyle.Render("samchat") +
		statusStyle.Render(fmt.Sprintf("  %s  conversation %s", m.ctrl.Model(), shortID(m.convID)))

	var footer string
	if m.streaming {
		footer = m.spin.View() + " thinking..."
	} else {
		footer = m.input.View()
	}
	if m.status != "" {
		footer += "\n" + m.status
	}

	return header + "\n\n" + m.viewport.View() + "\n" + footer
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

// ─── Main ───────────────────────────────────────────────────────────────────

func main() {
	server := flag.String("server", envOr("SAMCHAT_SERVER", "http://localhost:3000"), "samchat server base URL")
	email := flag.String("email", os.Getenv("SAMCHAT_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("SAMCHAT_PASSWORD"), "account password")
	modelName := flag.String("model", envOr("SAMCHAT_MODEL", "gpt-4o"), "model for chat turns")
	conversation := flag.String("conversation", "", "existing conversation ID (default: create a new one)")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "email and password are required (flags or SAMCHAT_EMAIL / SAMCHAT_PASSWORD)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	token, err := chatclient.Login(ctx, *server, *email, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "login failed:", err)
		os.Exit(1)
	}

	ctrl := chatclient.NewController(*server, token)
	ctrl.SetModel(*modelName)
	chatclient.RegisterDefaultRenderers(ctrl)

	convID := *conversation
	if convID == "" {
		convID, err = ctrl.NewConversation(ctx, "")
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to create conversation:", err)
			os.Exit(1)
		}
	} else {
		ctrl.SetConversation(convID)
	}

	p := tea.NewProgram(newModel(ctrl, convID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
