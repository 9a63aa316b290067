package installer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/brotherbot/internal/config"
	"github.com/sandevgo/brotherbot/internal/providers/llm"
)

const modelsTimeout = 30 * time.Second

// ModelStep lets the user pick one of the models the backend advertises.
// When listing fails the id can be typed in instead.
type ModelStep struct {
	list     list.Model
	manual   textinput.Model
	typing   bool
	loading  bool
	fetching bool // Ensures we only trigger the API call once
	err      error
}

func NewModelStep() Step {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select AI Model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	ti := textinput.New()
	ti.Placeholder = "gpt-4o"
	ti.Width = 50

	return &ModelStep{
		list:    l,
		manual:  ti,
		loading: true,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return nil
}

func fetchModels(cfg config.LLMConfig) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), modelsTimeout)
		defer cancel()

		ids, err := llm.ListModels(ctx, cfg)
		if err != nil {
			return errMsg(err)
		}
		if len(ids) == 0 {
			return errMsg(fmt.Errorf("the provider returned no models"))
		}

		items := make([]list.Item, 0, len(ids))
		for _, id := range ids {
			items = append(items, item{id: id, title: id, desc: cfg.Provider})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.typing {
		return s.updateManual(msg, state)
	}

	// 1. Trigger fetch once when we enter the step
	if s.loading && !s.fetching {
		s.fetching = true
		return s, fetchModels(state.LLM)
	}

	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil

	case tea.KeyMsg:
		if s.err != nil {
			switch msg.String() {
			case "enter":
				s.err = nil
				s.loading = true
				return s, nil
			case "m":
				s.typing = true
				s.manual.Focus()
				return s, textinput.Blink
			}
			return s, nil
		}

		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.LLM.Model = i.id
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) updateManual(msg tea.Msg, state *InstallState) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.manual, cmd = s.manual.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.manual.Value())
		if val == "" {
			val = s.manual.Placeholder
		}
		state.LLM.Model = val
		return nil, nil
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if s.typing {
		return "Enter the model id:\n\n" + s.manual.View() + "\n\n(press enter to confirm)\n"
	}
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nCheck your API key and internet connection.\n\n(press enter to retry, m to type the model id, ctrl+c to quit)\n"
	}
	if s.loading {
		return fmt.Sprintf("Fetching models from %s...\n", state.LLM.Provider)
	}
	return s.list.View()
}
