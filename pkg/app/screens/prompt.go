package screens

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangashelf/pkg/app/components"
	"github.com/kerbaras/mangashelf/pkg/app/styles"
	"github.com/kerbaras/mangashelf/pkg/services"
)

// PromptScreen asks which tracker entry a local series belongs to. The user
// picks a candidate, types an id, or skips.
type PromptScreen struct {
	series     string
	best       *services.Candidate
	candidates *components.CandidateList
	input      textinput.Model

	choice  int
	decided bool
	aborted bool
	err     error
	width   int
}

func NewPromptScreen(series string, match services.Match) *PromptScreen {
	ti := textinput.New()
	ti.Placeholder = "tracker id"
	ti.CharLimit = 12
	ti.Width = 20

	list := components.NewCandidateList()
	list.SetItems(match.Candidates)

	p := &PromptScreen{
		series:     series,
		best:       match.Best,
		candidates: list,
		input:      ti,
		width:      80,
	}
	if len(list.Items) == 0 {
		p.input.Focus()
	}
	return p
}

func (p *PromptScreen) Init() tea.Cmd {
	if p.input.Focused() {
		return textinput.Blink
	}
	return nil
}

func (p *PromptScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.candidates.Width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			p.aborted = true
			return p, tea.Quit

		case "tab":
			if p.input.Focused() {
				p.input.Blur()
			} else {
				p.input.Focus()
				cmd = textinput.Blink
			}
			return p, cmd

		case "enter":
			if p.input.Focused() {
				return p, p.submitTyped()
			}
			if selected := p.candidates.Selected(); selected != nil {
				return p, p.decide(selected.TrackerID)
			}
			return p, nil
		}

		if !p.input.Focused() {
			switch msg.String() {
			case "up", "k":
				p.candidates.Prev()
			case "down", "j":
				p.candidates.Next()
			case "s", "esc":
				return p, p.decide(services.SkipTrackerID)
			}
			return p, nil
		}
	}

	if p.input.Focused() {
		p.input, cmd = p.input.Update(msg)
	}
	return p, cmd
}

func (p *PromptScreen) submitTyped() tea.Cmd {
	value := strings.TrimSpace(p.input.Value())
	if value == "" || value == "0" {
		return p.decide(services.SkipTrackerID)
	}
	id, err := strconv.Atoi(value)
	if err != nil || id < 0 {
		p.err = fmt.Errorf("%q is not a tracker id", value)
		return nil
	}
	return p.decide(id)
}

func (p *PromptScreen) decide(id int) tea.Cmd {
	p.choice = id
	p.decided = true
	return tea.Quit
}

// Choice is the picked tracker id, SkipTrackerID when skipped.
func (p *PromptScreen) Choice() int { return p.choice }

// Decided reports whether the user answered.
func (p *PromptScreen) Decided() bool { return p.decided }

// Aborted reports whether the user pressed ctrl+c.
func (p *PromptScreen) Aborted() bool { return p.aborted }

func (p *PromptScreen) View() string {
	if p.decided || p.aborted {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Which tracker entry is " + strconv.Quote(p.series) + "?"))
	b.WriteString("\n")
	if p.best != nil {
		b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("best match: %s (#%d, distance %d)",
			p.best.Title, p.best.TrackerID, p.best.Distance)))
		b.WriteString("\n\n")
	}

	b.WriteString(p.candidates.View())
	b.WriteString("\n")

	inputView := p.input.View()
	if p.input.Focused() {
		inputView = styles.FocusedInputStyle.Render(inputView)
	}
	b.WriteString(inputView)
	b.WriteString("\n")

	if p.err != nil {
		b.WriteString(styles.StatusError.Render(fmt.Sprintf("Error: %s", p.err)))
		b.WriteString("\n")
	}

	b.WriteString(styles.HelpStyle.Render("enter: accept • tab: type an id • ↑/k ↓/j: navigate • s/esc: skip • ctrl+c: abort"))
	return b.String()
}
