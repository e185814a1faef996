package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// PromptKind selects the question shape a driver presents.
type PromptKind string

const (
	PromptText      PromptKind = "text"
	PromptMultiline PromptKind = "multiline"
	PromptConfirm   PromptKind = "confirm"
	PromptChoice    PromptKind = "choice"
	PromptChoices   PromptKind = "choices"
)

// Prompt is one question of an edit run. Default seeds text prompts, Yes
// seeds confirms and Picked seeds choice prompts with indices into Options.
type Prompt struct {
	Kind     PromptKind
	Message  string
	Help     string
	Default  string
	Yes      bool
	Options  []string
	Picked   []int
	PageSize int
}

// Answer is the response to a Prompt. Only the field matching the prompt
// kind is set; choice prompts report indices into Options.
type Answer struct {
	Text   string
	Yes    bool
	Picked []int
}

// PromptDriver abstracts the terminal so edit runs can be scripted in tests.
type PromptDriver interface {
	Ask(ctx context.Context, prompt Prompt) (Answer, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

func newSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, p Prompt) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}

	var answer Answer
	var (
		question survey.Prompt
		target   any
		choice   string
		choices  []string
	)
	switch p.Kind {
	case PromptText, "":
		question = &survey.Input{Message: p.Message, Help: p.Help, Default: p.Default}
		target = &answer.Text
	case PromptMultiline:
		question = &survey.Multiline{Message: p.Message, Help: p.Help, Default: p.Default}
		target = &answer.Text
	case PromptConfirm:
		question = &survey.Confirm{Message: p.Message, Help: p.Help, Default: p.Yes}
		target = &answer.Yes
	case PromptChoice:
		sel := &survey.Select{Message: p.Message, Help: p.Help, Options: p.Options, PageSize: p.PageSize}
		if picked := optionsAt(p.Options, p.Picked); len(picked) > 0 {
			sel.Default = picked[0]
		}
		question, target = sel, &choice
	case PromptChoices:
		multi := &survey.MultiSelect{Message: p.Message, Help: p.Help, Options: p.Options, PageSize: p.PageSize}
		if picked := optionsAt(p.Options, p.Picked); len(picked) > 0 {
			multi.Default = picked
		}
		question, target = multi, &choices
	default:
		return Answer{}, fmt.Errorf("tui: unknown prompt kind %q", p.Kind)
	}

	if err := survey.AskOne(question, target); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return Answer{}, ErrAborted
		}
		return Answer{}, fmt.Errorf("tui: prompt %q: %w", p.Message, err)
	}

	switch p.Kind {
	case PromptChoice:
		answer.Picked = indicesOf(p.Options, []string{choice})
		if len(answer.Picked) == 0 {
			return Answer{}, errNoSelection
		}
	case PromptChoices:
		answer.Picked = indicesOf(p.Options, choices)
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// indicesOf maps option labels back to their positions, in option order.
func indicesOf(options, values []string) []int {
	want := make(map[string]bool, len(values))
	for _, v := range values {
		want[v] = true
	}
	var out []int
	for i, option := range options {
		if want[option] {
			out = append(out, i)
		}
	}
	return out
}

func optionsAt(options []string, indices []int) []string {
	var out []string
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			out = append(out, options[idx])
		}
	}
	return out
}
