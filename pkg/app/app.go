package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangashelf/pkg/app/screens"
	"github.com/kerbaras/mangashelf/pkg/services"
)

// ErrPromptAborted is returned after the user pressed ctrl+c in a prompt.
var ErrPromptAborted = errors.New("prompt aborted")

// Prompter is the interactive AmbiguityResolver. Each call runs a short
// bubbletea program on in/out. Aborting calls onAbort so the caller can stop
// the pass instead of prompting for the next series.
type Prompter struct {
	in      io.Reader
	out     io.Writer
	onAbort func()
	opts    []tea.ProgramOption
}

func NewPrompter(in io.Reader, out io.Writer, onAbort func()) *Prompter {
	return &Prompter{in: in, out: out, onAbort: onAbort}
}

func (p *Prompter) Resolve(ctx context.Context, series string, match services.Match) (int, error) {
	model := screens.NewPromptScreen(series, match)
	opts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	}, p.opts...)

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return 0, fmt.Errorf("prompt for %q failed: %w", series, err)
	}

	screen, ok := final.(*screens.PromptScreen)
	if !ok || screen.Aborted() || !screen.Decided() {
		if p.onAbort != nil {
			p.onAbort()
		}
		return 0, ErrPromptAborted
	}
	return screen.Choice(), nil
}
