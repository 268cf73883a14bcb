package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nvandessel/farg/internal/config"
	"github.com/nvandessel/farg/internal/controller"
	"github.com/nvandessel/farg/internal/sanitize"
)

// Steps taken per key press, and per tick while running continuously.
const (
	stepsShort    = 1
	stepsLong     = 10
	stepsVeryLong = 100
	stepsPerTick  = 1
)

const tickInterval = 50 * time.Millisecond

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)
)

type tickMsg time.Time

// Model is the bubbletea model of the interactive display. Steps run
// inside Update so the controller is only touched from the event loop.
type Model struct {
	ctx      context.Context
	ctrl     controller.Controller
	title    string
	running  bool
	finished bool
	quitting bool
	err      error
}

// NewModel creates the model for ctrl.
func NewModel(ctx context.Context, ctrl controller.Controller, title string) Model {
	return Model{ctx: ctx, ctrl: ctrl, title: title}
}

// Init starts with the simulation paused.
func (m Model) Init() tea.Cmd {
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles key presses and ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.running = false
			return m, tea.Quit
		case "s":
			m.advance(stepsShort)
		case "l":
			m.advance(stepsLong)
		case "k":
			m.advance(stepsVeryLong)
		case "c":
			if !m.running && !m.finished {
				m.running = true
				return m, tick()
			}
		case "p":
			m.running = false
		}

	case tickMsg:
		if !m.running {
			return m, nil
		}
		m.advance(stepsPerTick)
		if m.running {
			return m, tick()
		}
	}

	return m, nil
}

// advance steps the controller up to n times, stopping when the run ends.
func (m *Model) advance(n int) {
	if m.finished {
		return
	}
	for i := 0; i < n; i++ {
		if err := m.ctx.Err(); err != nil {
			m.running = false
			return
		}
		err := m.ctrl.Step(m.ctx)
		if errors.Is(err, controller.ErrStoppingConditionMet) {
			m.finish()
			return
		}
		if err != nil {
			m.err = err
			m.finish()
			return
		}
		if m.ctrl.Status().Halted {
			m.finish()
			return
		}
	}
}

func (m *Model) finish() {
	m.finished = true
	m.running = false
}

// Err returns the error that ended the run, if any.
func (m Model) Err() error {
	return m.err
}

// View renders the current status.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	status := m.ctrl.Status()

	var state string
	switch {
	case m.err != nil:
		state = errorStyle.Render("✗ " + sanitize.Label(m.err.Error()))
	case m.finished:
		state = stoppedStyle.Render("■ finished")
	case m.running:
		state = runningStyle.Render("▶ running")
	default:
		state = stoppedStyle.Render("❚❚ paused")
	}

	content := headerStyle.Render(" "+m.title+" ") + "   " + state + "\n\n"
	content += labelStyle.Render("  Steps: ") + valueStyle.Render(fmt.Sprintf("%d", status.Steps)) + "\n"
	content += labelStyle.Render("  Pending: ") + valueStyle.Render(fmt.Sprintf("%d", status.Pending)) + "\n"
	if status.Last != "" {
		content += labelStyle.Render("  Last: ") + valueStyle.Render(sanitize.Label(status.Last)) + "\n"
	}

	footer := footerKeyStyle.Render("[s]") + footerStyle.Render(" step  ") +
		footerKeyStyle.Render("[l]") + footerStyle.Render(" 10  ") +
		footerKeyStyle.Render("[k]") + footerStyle.Render(" 100  ") +
		footerKeyStyle.Render("[c]") + footerStyle.Render(" continue  ") +
		footerKeyStyle.Render("[p]") + footerStyle.Render(" pause  ") +
		footerKeyStyle.Render("[q]") + footerStyle.Render(" quit")
	content += "\n" + footer

	return containerStyle.Render(content)
}

// Interactive runs the terminal display.
type Interactive struct {
	ctrl   controller.Controller
	title  string
	input  io.Reader
	output io.Writer
}

// NewInteractive creates a terminal display on stdin and stdout.
func NewInteractive(ctrl controller.Controller, cfg *config.Config) Display {
	return InteractiveFactory(os.Stdin, os.Stdout)(ctrl, cfg)
}

// InteractiveFactory returns a Factory for terminal displays reading keys
// from in and drawing to out.
func InteractiveFactory(in io.Reader, out io.Writer) Factory {
	return func(ctrl controller.Controller, cfg *config.Config) Display {
		return &Interactive{ctrl: ctrl, title: "farg " + cfg.RunMode, input: in, output: out}
	}
}

// Run shows the display until the user quits or ctx is cancelled. A
// cancelled ctx is reported as its error.
func (d *Interactive) Run(ctx context.Context) error {
	p := tea.NewProgram(
		NewModel(ctx, d.ctrl, d.title),
		tea.WithContext(ctx),
		tea.WithInput(d.input),
		tea.WithOutput(d.output),
	)

	final, err := p.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("interactive display: %w", err)
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}
