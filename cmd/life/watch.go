package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cl "lifesim/internal/cli"
	"lifesim/internal/clock"
	"lifesim/internal/game"
	"lifesim/internal/hub"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F"))

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2)
)

func newWatchCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the current session live and queue actions with number keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := cl.LoadState()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			conn, err := client.Stream(cmd.Context(), st.SessionID, st.PlayerID)
			if err != nil {
				return err
			}
			defer conn.Close()

			m := newWatchModel(client, st, conn)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

type envelopeMsg hub.Envelope

type streamClosedMsg struct{ err error }

type playerMsg struct {
	player game.PlayerSnapshot
	err    error
}

type submittedMsg struct {
	kind game.ActionKind
	err  error
}

type tickMsg time.Time

type watchModel struct {
	client *cl.Client
	state  cl.State
	frames chan tea.Msg

	spinner  spinner.Model
	viewport viewport.Model
	log      []string

	player   *game.PlayerSnapshot
	day      int
	deadline time.Time
	queued   game.ActionKind
	over     bool
	closed   bool
	width    int
	height   int
}

func newWatchModel(client *cl.Client, st cl.State, conn *websocket.Conn) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := watchModel{
		client:   client,
		state:    st,
		frames:   make(chan tea.Msg, 16),
		spinner:  sp,
		viewport: viewport.New(60, 20),
	}
	go pumpFrames(conn, m.frames)
	return m
}

// pumpFrames turns websocket frames into tea messages until the stream ends.
func pumpFrames(conn *websocket.Conn, out chan<- tea.Msg) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			out <- streamClosedMsg{err: err}
			close(out)
			return
		}
		var env hub.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		out <- envelopeMsg(env)
	}
}

func (m watchModel) waitFrame() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.frames
		if !ok {
			return nil
		}
		return msg
	}
}

func (m watchModel) fetchPlayer() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p, err := m.client.Player(ctx, m.state.SessionID, m.state.PlayerID)
		return playerMsg{player: p, err: err}
	}
}

func (m watchModel) submit(kind game.ActionKind) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := m.client.SubmitAction(ctx, m.state.SessionID, m.state.PlayerID, kind)
		return submittedMsg{kind: kind, err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitFrame(), m.fetchPlayer(), tick())
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
		if key := msg.String(); len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < len(game.ActionKinds) {
			if m.over || m.closed {
				return m, nil
			}
			return m, m.submit(game.ActionKinds[key[0]-'1'])
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.6)
		m.viewport.Height = max(5, msg.Height-6)
		m.viewport.SetContent(strings.Join(m.log, "\n"))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		return m, tick()

	case envelopeMsg:
		m.handleEnvelope(hub.Envelope(msg))
		return m, tea.Batch(m.waitFrame(), m.fetchPlayer())

	case streamClosedMsg:
		m.closed = true
		m.appendLog(helpStyle.Render("stream closed"))
		return m, nil

	case playerMsg:
		if msg.err == nil {
			p := msg.player
			m.player = &p
		}

	case submittedMsg:
		if msg.err != nil {
			m.appendLog(badStyle.Render(fmt.Sprintf("%s rejected: %v", msg.kind, msg.err)))
		} else {
			m.queued = msg.kind
		}
	}
	return m, nil
}

func (m *watchModel) handleEnvelope(env hub.Envelope) {
	switch env.Type {
	case clock.EventTurnStart:
		var ts clock.TurnStart
		if json.Unmarshal(env.Data, &ts) == nil {
			m.day = ts.Day
			m.deadline = ts.Deadline
			m.queued = ""
			m.appendLog(titleStyle.Render(fmt.Sprintf("Day %d begins", ts.Day)))
		}
	case clock.EventTurnResult:
		var res game.TurnResult
		if json.Unmarshal(env.Data, &res) == nil {
			m.appendLog(summarizeTurn(&res, m.state.PlayerID)...)
		}
	case clock.EventGameOver:
		var rankings []game.Ranking
		if json.Unmarshal(env.Data, &rankings) == nil {
			m.over = true
			m.appendLog(titleStyle.Render("Game over"))
			for _, r := range rankings {
				m.appendLog(fmt.Sprintf("#%d %-16s %8d  prize %d", r.Rank, r.Username, r.Score, r.Prize))
			}
		}
	case clock.EventClosed:
		m.closed = true
		m.appendLog(helpStyle.Render("session closed"))
	default:
		m.appendLog(helpStyle.Render(env.Type))
	}
}

func (m *watchModel) appendLog(lines ...string) {
	m.log = append(m.log, lines...)
	if len(m.log) > 500 {
		m.log = m.log[len(m.log)-500:]
	}
	m.viewport.SetContent(strings.Join(m.log, "\n"))
	m.viewport.GotoBottom()
}

func summarizeTurn(res *game.TurnResult, me string) []string {
	lines := []string{titleStyle.Render(fmt.Sprintf("Day %d resolved (%s)", res.Day, res.Economy))}
	for _, ev := range res.GlobalEvents {
		lines = append(lines, eventStyle.Render("  global: "+string(ev.Kind)))
	}
	for _, pt := range res.Players {
		prefix := "  "
		if pt.PlayerID == me {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%-14s %10s  score %d", prefix, truncate(pt.Username, 14), pt.Stats.Money.StringFixed(2), pt.Score)
		if pt.Event != nil {
			line += eventStyle.Render("  " + string(pt.Event.Kind))
		}
		if pt.Defeated {
			line = badStyle.Render(line + "  defeated")
		}
		lines = append(lines, line)
	}
	return lines
}

func (m watchModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("Session %s", truncate(m.state.SessionID, 12)))
	switch {
	case m.closed:
		header += helpStyle.Render("  closed")
	case m.over:
		header += helpStyle.Render("  finished")
	case m.day > 0:
		left := max(0, int(time.Until(m.deadline).Seconds()))
		header += fmt.Sprintf("  day %d  %s %ds", m.day, m.spinner.View(), left)
	default:
		header += "  " + m.spinner.View() + " waiting"
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), statusStyle.Render(m.renderPlayer()))

	keys := make([]string, 0, len(game.ActionKinds))
	for i, k := range game.ActionKinds {
		keys = append(keys, fmt.Sprintf("%d %s", i+1, k))
	}
	help := helpStyle.Render(strings.Join(keys, " | ") + " | q quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", help)
}

func (m watchModel) renderPlayer() string {
	if m.player == nil {
		return "loading..."
	}
	p := m.player
	var b strings.Builder
	b.WriteString(titleStyle.Render(p.Username) + "\n")
	if !p.Alive {
		b.WriteString(badStyle.Render("DEFEATED") + "\n")
	}
	fmt.Fprintf(&b, "Money     %s\n", p.Stats.Money.StringFixed(2))
	fmt.Fprintf(&b, "Happiness %d\n", p.Stats.Happiness)
	fmt.Fprintf(&b, "Energy    %d\n", p.Stats.Energy)
	fmt.Fprintf(&b, "Health    %d\n", p.Stats.Health)
	fmt.Fprintf(&b, "Stress    %d\n", p.Stats.Stress)
	fmt.Fprintf(&b, "Knowledge %d\n", p.Stats.Knowledge)
	fmt.Fprintf(&b, "Score     %d\n", p.Score)
	if p.Career != nil {
		fmt.Fprintf(&b, "\n%s\n", p.Career.Title)
	}
	queued := m.queued
	if queued == "" && p.Pending != nil {
		queued = *p.Pending
	}
	if queued != "" {
		fmt.Fprintf(&b, "\nQueued: %s\n", queued)
	}
	return b.String()
}
