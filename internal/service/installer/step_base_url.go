package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const ollamaDefaultURL = "http://127.0.0.1:11434/v1"

// BaseURLStep asks for the API endpoint of self-hosted backends. Hosted
// providers skip it.
type BaseURLStep struct {
	input    textinput.Model
	required bool
	started  bool
}

func NewBaseURLStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.Width = 50
	return &BaseURLStep{input: ti}
}

func (s *BaseURLStep) Init() tea.Cmd {
	return nil
}

func (s *BaseURLStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if !s.started {
		switch state.LLM.Provider {
		case "ollama":
			s.input.Placeholder = ollamaDefaultURL
		case "custom":
			s.input.Placeholder = "https://api.example.com/v1"
			s.required = true
		default:
			return nil, nil
		}
		s.started = true
		return s, textinput.Blink
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			if s.required {
				return s, cmd
			}
			val = s.input.Placeholder
		}
		state.LLM.BaseURL = val
		return nil, nil
	}
	return s, cmd
}

func (s *BaseURLStep) View(state *InstallState) string {
	return "Enter the API Base URL:\n\n" + s.input.View() + "\n\n(press enter to confirm)\n"
}
