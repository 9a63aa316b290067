package installer

import (
	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep derives the transport flags from the chosen channel
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(state)
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

func finalize(state *InstallState) {
	state.App.EnableTelegram = state.Channel == channelTelegram && state.Telegram.Token != ""
	state.App.EnableCLI = !state.App.EnableTelegram
}
