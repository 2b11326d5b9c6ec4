// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *ConfirmModel, keys ...tea.KeyMsg) (*ConfirmModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(*ConfirmModel)
	}
	return m, cmd
}

func TestConfirmModel_Keys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		def       bool
		keys      []tea.KeyMsg
		want      bool
		cancelled bool
	}{
		{"y answers yes", false, []tea.KeyMsg{runes("y")}, true, false},
		{"n answers no", true, []tea.KeyMsg{runes("n")}, false, false},
		{"enter takes default", true, []tea.KeyMsg{{Type: tea.KeyEnter}}, true, false},
		{"right then enter", true, []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, false, false},
		{"tab toggles", false, []tea.KeyMsg{{Type: tea.KeyTab}, {Type: tea.KeyEnter}}, true, false},
		{"esc cancels", true, []tea.KeyMsg{{Type: tea.KeyEsc}}, false, true},
		{"ctrl+c cancels", true, []tea.KeyMsg{{Type: tea.KeyCtrlC}}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, cmd := press(NewConfirmModel(ConfirmOptions{Default: tt.def}), tt.keys...)
			if cmd == nil {
				t.Fatal("final key should quit the program")
			}
			got, err := m.Result()
			if tt.cancelled {
				if !errors.Is(err, ErrCancelled) {
					t.Fatalf("Result() error = %v, want ErrCancelled", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Result() = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestConfirmModel_IgnoresOtherKeys(t *testing.T) {
	t.Parallel()

	m, cmd := press(NewConfirmModel(ConfirmOptions{}), runes("x"))
	if cmd != nil || m.done {
		t.Error("unrelated key should not finish the prompt")
	}
}

func TestConfirmModel_View(t *testing.T) {
	t.Parallel()

	m := NewConfirmModel(ConfirmOptions{Title: "Remove demo?", Description: "from /opt/ida", Affirmative: "Remove"})
	view := m.View()
	for _, want := range []string{"Remove demo?", "from /opt/ida", "Remove", "No", "esc cancel"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	m, _ = press(m, runes("y"))
	if m.View() != "" {
		t.Error("View() should be empty once answered")
	}
}

func TestConfirm_ScriptedInput(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	got, err := Confirm(ConfirmOptions{
		Title:  "Proceed?",
		Input:  strings.NewReader("y"),
		Output: &out,
	})
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !got {
		t.Error("Confirm() = false, want true")
	}
}
