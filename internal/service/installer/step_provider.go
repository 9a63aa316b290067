package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type providerChoice struct {
	label string
	id    string
}

var providers = []providerChoice{
	{"OpenAI", "openai"},
	{"OpenRouter", "openrouter"},
	{"Anthropic", "anthropic"},
	{"Ollama", "ollama"},
	{"Custom (OpenAI compatible)", "custom"},
}

// ProviderStep allows selection of the AI provider
type ProviderStep struct {
	cursor int
}

func NewProviderStep() Step {
	return &ProviderStep{}
}

func (s *ProviderStep) Init() tea.Cmd {
	return nil
}

func (s *ProviderStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var done bool
		s.cursor, done = moveCursor(key, s.cursor, len(providers))
		if done {
			state.LLM.Provider = providers[s.cursor].id
			return nil, nil
		}
	}
	return s, nil
}

func (s *ProviderStep) View(state *InstallState) string {
	labels := make([]string, len(providers))
	for i, p := range providers {
		labels[i] = p.label
	}
	return renderChoices("Select your AI Provider:", labels, s.cursor)
}

// moveCursor handles the arrow keys of a choice list and reports whether
// the current choice was confirmed.
func moveCursor(key tea.KeyMsg, cursor, n int) (int, bool) {
	switch key.String() {
	case "up", "k":
		if cursor > 0 {
			cursor--
		}
	case "down", "j":
		if cursor < n-1 {
			cursor++
		}
	case "enter":
		return cursor, true
	}
	return cursor, false
}

func renderChoices(title string, choices []string, cursor int) string {
	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, choice := range choices {
		if cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", choice)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", choice)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
