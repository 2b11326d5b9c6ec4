// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned when the user leaves a prompt with esc or ctrl+c.
var ErrCancelled = errors.New("cancelled by user")

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	descStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#7C3AED")).Bold(true).Padding(0, 1)
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Padding(0, 1)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

type (
	// ConfirmOptions configures a yes/no prompt.
	ConfirmOptions struct {
		Title       string
		Description string
		// Affirmative and Negative label the choices; "Yes" and "No" when empty.
		Affirmative string
		Negative    string
		// Default is the choice highlighted initially.
		Default bool

		// Input and Output replace the terminal, for tests.
		Input  io.Reader
		Output io.Writer
	}

	// ConfirmModel is the Bubble Tea model behind Confirm.
	ConfirmModel struct {
		opts      ConfirmOptions
		selection bool
		done      bool
		cancelled bool
		width     int
	}
)

// NewConfirmModel returns a model with the default choice selected.
func NewConfirmModel(opts ConfirmOptions) *ConfirmModel {
	if opts.Affirmative == "" {
		opts.Affirmative = "Yes"
	}
	if opts.Negative == "" {
		opts.Negative = "No"
	}
	return &ConfirmModel{opts: opts, selection: opts.Default}
}

func (m *ConfirmModel) Init() tea.Cmd { return nil }

func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.done, m.cancelled = true, true
			return m, tea.Quit
		case "y", "Y":
			m.selection, m.done = true, true
			return m, tea.Quit
		case "n", "N":
			m.selection, m.done = false, true
			return m, tea.Quit
		case "left", "h":
			m.selection = true
		case "right", "l":
			m.selection = false
		case "tab", "shift+tab", "up", "down":
			m.selection = !m.selection
		case "enter", " ":
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m *ConfirmModel) View() string {
	if m.done {
		return ""
	}

	yes, no := inactiveStyle.Render(m.opts.Affirmative), inactiveStyle.Render(m.opts.Negative)
	if m.selection {
		yes = activeStyle.Render(m.opts.Affirmative)
	} else {
		no = activeStyle.Render(m.opts.Negative)
	}

	lines := make([]string, 0, 4)
	if m.opts.Title != "" {
		lines = append(lines, titleStyle.Render(m.opts.Title))
	}
	if m.opts.Description != "" {
		lines = append(lines, descStyle.Render(m.opts.Description))
	}
	lines = append(lines, yes+"  "+no, helpStyle.Render("enter submit • y yes • n no • esc cancel"))

	view := strings.Join(lines, "\n")
	if m.width > 0 {
		view = lipgloss.NewStyle().MaxWidth(m.width).Render(view)
	}
	return view + "\n"
}

// Result returns the choice, or ErrCancelled.
func (m *ConfirmModel) Result() (bool, error) {
	if m.cancelled {
		return false, ErrCancelled
	}
	return m.selection, nil
}

// Confirm runs a yes/no prompt until the user decides.
func Confirm(opts ConfirmOptions) (bool, error) {
	var progOpts []tea.ProgramOption
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(NewConfirmModel(opts), progOpts...).Run()
	if err != nil {
		return false, err
	}
	return final.(*ConfirmModel).Result()
}
