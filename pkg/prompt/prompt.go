// Package prompt asks the user for confirmation or input.
//
// The runner depends only on the Prompter interface so tests can feed canned
// answers. Prompts block until answered; there is no timeout.
package prompt

import (
	"os"
	"strings"

	"github.com/pterm/pterm"
	"golang.org/x/term"

	"github.com/shashiranjanraj/seedkit/pkg/seederr"
)

// Prompter is a single synchronous user-input request.
type Prompter interface {
	Confirm(msg string, def bool) (bool, error)
	Input(msg string) (string, error)
}

// Terminal prompts through pterm's interactive printers. When stdin is not a
// terminal, Confirm answers with the default and Input fails.
type Terminal struct {
	IsTTY func() bool
}

// NewTerminal returns a Terminal that checks os.Stdin.
func NewTerminal() *Terminal {
	return &Terminal{IsTTY: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }}
}

func (t *Terminal) Confirm(msg string, def bool) (bool, error) {
	if !t.IsTTY() {
		return def, nil
	}
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(def).Show(msg)
}

func (t *Terminal) Input(msg string) (string, error) {
	if !t.IsTTY() {
		return "", seederr.New(seederr.Validation, "no input available: stdin is not a terminal")
	}
	answer, err := pterm.DefaultInteractiveTextInput.Show(msg)
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", seederr.New(seederr.Validation, "the name cannot be empty")
	}
	return answer, nil
}

// Static answers every prompt from fixed values and records what was asked.
type Static struct {
	Answer bool
	Text   string
	Err    error

	Asked []string
}

func (s *Static) Confirm(msg string, _ bool) (bool, error) {
	s.Asked = append(s.Asked, msg)
	return s.Answer, s.Err
}

func (s *Static) Input(msg string) (string, error) {
	s.Asked = append(s.Asked, msg)
	if s.Err != nil {
		return "", s.Err
	}
	if strings.TrimSpace(s.Text) == "" {
		return "", seederr.New(seederr.Validation, "the name cannot be empty")
	}
	return s.Text, nil
}
