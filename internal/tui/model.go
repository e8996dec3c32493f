package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Martian-dev/inbox-categorizer/internal/inbox"
)

// Source supplies classified messages, typically the inbox API client.
type Source interface {
	Messages(ctx context.Context) ([]inbox.ClassifiedMessage, error)
}

type messagesLoadedMsg struct {
	msgs []inbox.ClassifiedMessage
	err  error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	messageStyle  = lipgloss.NewStyle().PaddingLeft(4)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model renders category groups and lets the user expand or collapse them.
type Model struct {
	src     Source
	timeout time.Duration
	keys    KeyMap
	help    help.Model

	groups  []inbox.CategoryGroup
	state   inbox.ViewState
	cursor  int
	loading bool
	err     error
	width   int
}

func New(src Source, timeout time.Duration) Model {
	return Model{
		src:     src,
		timeout: timeout,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		state:   inbox.NewViewState(),
		loading: true,
	}
}

// Groups returns the current grouping.
func (m Model) Groups() []inbox.CategoryGroup { return m.groups }

// State returns the current expanded set.
func (m Model) State() inbox.ViewState { return m.state }

// Cursor returns the index of the selected group.
func (m Model) Cursor() int { return m.cursor }

func (m Model) Init() tea.Cmd {
	return m.fetchCmd()
}

func (m Model) fetchCmd() tea.Cmd {
	src, timeout := m.src, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		msgs, err := src.Messages(ctx)
		return messagesLoadedMsg{msgs: msgs, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case messagesLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		m.groups = inbox.Group(msg.msgs)
		m.state = inbox.Reconcile(m.state, m.groups)
		if m.cursor >= len(m.groups) {
			m.cursor = max(len(m.groups)-1, 0)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.groups)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(m.groups) {
			m.state = inbox.Toggle(m.state, m.groups[m.cursor].Category)
		}

	case key.Matches(msg, m.keys.Refresh):
		if !m.loading {
			m.loading = true
			return m, m.fetchCmd()
		}
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	total := 0
	for _, g := range m.groups {
		total += g.Count
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Inbox (%d messages, %d categories)", total, len(m.groups))))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.loading && len(m.groups) == 0:
		b.WriteString(mutedStyle.Render("Loading..."))
		b.WriteString("\n")
	case len(m.groups) == 0:
		b.WriteString(mutedStyle.Render("No messages."))
		b.WriteString("\n")
	}

	for i, g := range m.groups {
		marker := "▸"
		if m.state.Expanded(g.Category) {
			marker = "▾"
		}
		line := fmt.Sprintf("%s %s (%d)", marker, g.Category, g.Count)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(headerStyle.Render(line))
		}
		b.WriteString("\n")

		if !m.state.Expanded(g.Category) {
			continue
		}
		for _, msg := range g.Messages {
			b.WriteString(messageStyle.Render(messageLine(msg)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func messageLine(msg inbox.ClassifiedMessage) string {
	from := msg.SenderName
	if from == "" {
		from = msg.SenderAddress
	}
	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	return fmt.Sprintf("%s · %s %s", from, subject, mutedStyle.Render(fmt.Sprintf("%.2f", msg.Confidence)))
}
