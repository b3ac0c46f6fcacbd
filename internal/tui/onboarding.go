// Package tui holds the interactive onboarding form.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sirily23/udicti-cli/internal/model"
	"github.com/Sirily23/udicti-cli/internal/style"
)

// Field indexes, in form order.
const (
	FieldName = iota
	FieldEmail
	FieldGitHub
	FieldSkills
	FieldInterests
	fieldCount
)

var fieldLabels = [fieldCount]string{
	FieldName:      "Name",
	FieldEmail:     "Email",
	FieldGitHub:    "GitHub",
	FieldSkills:    "Skills",
	FieldInterests: "Interests",
}

var fieldPlaceholders = [fieldCount]string{
	FieldName:      "Asha Mwakyusa",
	FieldEmail:     "asha@udicti.dev",
	FieldGitHub:    "asha",
	FieldSkills:    "go, python, sql (optional)",
	FieldInterests: "ai, fintech (optional)",
}

// Form is a bubbletea model collecting one developer record.
type Form struct {
	inputs    [fieldCount]textinput.Model
	focus     int
	err       string
	submitted bool
	cancelled bool
}

// NewForm creates a form pre-filled with initial, typically a detected identity.
func NewForm(initial model.Developer) Form {
	var f Form
	for i := range f.inputs {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%-10s ", fieldLabels[i]+":")
		ti.Placeholder = fieldPlaceholders[i]
		ti.CharLimit = 200
		ti.Width = 48
		f.inputs[i] = ti
	}
	f.inputs[FieldName].SetValue(initial.Name)
	f.inputs[FieldEmail].SetValue(initial.Email)
	f.inputs[FieldGitHub].SetValue(initial.GitHub)
	f.inputs[FieldSkills].SetValue(strings.Join(initial.Skills, ", "))
	f.inputs[FieldInterests].SetValue(strings.Join(initial.Interests, ", "))
	f.inputs[FieldName].Focus()
	return f
}

// Init implements tea.Model.
func (f Form) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		var cmd tea.Cmd
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			f.cancelled = true
			return f, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			cmd = f.move(1)
			return f, cmd
		case tea.KeyShiftTab, tea.KeyUp:
			cmd = f.move(-1)
			return f, cmd
		case tea.KeyEnter:
			if f.focus < fieldCount-1 {
				cmd = f.move(1)
				return f, cmd
			}
			if err := f.Developer().Validate(); err != nil {
				f.err = err.Error()
				cmd = f.focusFirstMissing()
				return f, cmd
			}
			f.err = ""
			f.submitted = true
			return f, tea.Quit
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// move shifts focus by delta, wrapping around.
func (f *Form) move(delta int) tea.Cmd {
	return f.setFocus((f.focus + delta + fieldCount) % fieldCount)
}

func (f *Form) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

func (f *Form) focusFirstMissing() tea.Cmd {
	for _, i := range []int{FieldName, FieldEmail, FieldGitHub} {
		if strings.TrimSpace(f.inputs[i].Value()) == "" {
			return f.setFocus(i)
		}
	}
	return nil
}

// View implements tea.Model.
func (f Form) View() string {
	if f.submitted || f.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(style.Title.Render("Join the UDICTI developer directory"))
	b.WriteString("\n\n")
	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(style.ErrorPrefix + " " + style.Error.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(style.Dim.Render("enter next/submit • tab move • esc cancel"))
	b.WriteString("\n")
	return b.String()
}

// Developer returns the record as currently entered.
func (f Form) Developer() model.Developer {
	return model.Developer{
		Name:      f.inputs[FieldName].Value(),
		Email:     f.inputs[FieldEmail].Value(),
		GitHub:    f.inputs[FieldGitHub].Value(),
		Skills:    model.SplitList(f.inputs[FieldSkills].Value()),
		Interests: model.SplitList(f.inputs[FieldInterests].Value()),
	}.Normalized()
}

// Submitted reports whether the user completed the form.
func (f Form) Submitted() bool { return f.submitted }

// Cancelled reports whether the user abandoned the form.
func (f Form) Cancelled() bool { return f.cancelled }

// Run shows the form on the given terminal streams and returns the entered
// developer. ok is false if the user cancelled.
func Run(initial model.Developer, in io.Reader, out io.Writer) (d model.Developer, ok bool, err error) {
	p := tea.NewProgram(NewForm(initial), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return model.Developer{}, false, fmt.Errorf("running onboarding form: %w", err)
	}
	f := final.(Form)
	if !f.Submitted() {
		return model.Developer{}, false, nil
	}
	return f.Developer(), true, nil
}
