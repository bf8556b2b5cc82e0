// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the kawachess authors

package cmd

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"kawachess/pkg/config"
	"kawachess/pkg/robot"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live controller status dashboard",
	Long: `Shows the controller switch flags, refreshed twice a second.

Read-only: like the status command, the dashboard never changes
controller state. Press q to quit.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

const statusPollInterval = 500 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	onStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	offStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type connectedMsg struct{ err error }

type statusMsg struct {
	status robot.Status
	err    error
}

type pollMsg struct{}

// tuiModel is the dashboard state. The session is only touched from
// tea commands, one at a time, preserving the single-writer rule.
type tuiModel struct {
	cfg     config.Config
	session *robot.Session
	spin    spinner.Model

	connected bool
	status    robot.Status
	haveStat  bool
	lastErr   error
	quitting  bool
}

func newTUIModel(cfg config.Config, session *robot.Session) tuiModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return tuiModel{cfg: cfg, session: session, spin: sp}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.connectCmd())
}

func (m tuiModel) connectCmd() tea.Cmd {
	return func() tea.Msg {
		return connectedMsg{err: m.session.Connect()}
	}
}

func (m tuiModel) statusCmd() tea.Cmd {
	return func() tea.Msg {
		st, err := m.session.Status()
		return statusMsg{status: st, err: err}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case connectedMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, tea.Quit
		}
		m.connected = true
		return m, m.statusCmd()

	case statusMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, tea.Quit
		}
		m.status = msg.status
		m.haveStat = true
		m.lastErr = nil
		return m, tea.Tick(statusPollInterval, func(time.Time) tea.Msg { return pollMsg{} })

	case pollMsg:
		return m, m.statusCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.quitting {
		return ""
	}
	s := titleStyle.Render("Kawachess — controller status") + "\n\n"

	if !m.connected {
		return s + m.spin.View() + " connecting to " + m.cfg.Robot.Addr + "...\n"
	}
	if !m.haveStat {
		return s + m.spin.View() + " querying status...\n"
	}

	flags := []struct {
		name string
		on   bool
	}{
		{"ERROR", m.status.Error},
		{"MOTOR POWERED", m.status.MotorPowered},
		{"REPEAT MODE", m.status.RepeatMode},
		{"TEACH MODE", m.status.TeachMode},
		{"TEACH LOCK", m.status.TeachLock},
		{"BUSY", m.status.Busy},
		{"HOLD", m.status.Hold},
		{"CONTINUOUS PATH", m.status.ContinuousPath},
		{"REPEAT ONCE", m.status.RepeatOnce},
		{"STEP ONCE", m.status.StepOnce},
	}
	for _, f := range flags {
		state := offStyle.Render("OFF")
		if f.on {
			state = onStyle.Render("ON ")
			if f.name == "ERROR" || f.name == "TEACH LOCK" {
				state = errStyle.Render("ON ")
			}
		}
		s += flagStyle.Render(" "+padRight(f.name, 16)) + state + "\n"
	}
	s += "\n" + helpStyle.Render("q: quit") + "\n"
	return s
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Log.Level = "off" // logs would corrupt the dashboard
	logger := newLogger(cfg)

	session := newSession(cfg, logger, func(string) {}, true)
	defer session.Close()

	model := newTUIModel(cfg, session)
	p := tea.NewProgram(model, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tuiModel); ok && m.lastErr != nil {
		return m.lastErr
	}
	return nil
}
