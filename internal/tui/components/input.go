package components

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is a focusable form element.
type Field interface {
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	Render() string
}

var (
	_ Field = (*Input)(nil)
	_ Field = (*Select)(nil)
)

// Input is a single-line text input.
type Input struct {
	label     string
	value     string
	focused   bool
	cursorPos int
	maxLength int
	numeric   bool
	err       string
	styles    Styles
}

// NewInput creates a text input.
func NewInput(label string) *Input {
	return &Input{label: label, maxLength: 32, styles: DefaultStyles()}
}

// NewNumberInput creates an input that accepts digits only.
func NewNumberInput(label string) *Input {
	in := NewInput(label)
	in.numeric = true
	in.maxLength = 6
	return in
}

// SetValue sets the value and moves the cursor to its end.
func (i *Input) SetValue(v string) *Input {
	i.value = v
	i.cursorPos = len(v)
	return i
}

// SetStyles sets the palette.
func (i *Input) SetStyles(s Styles) *Input {
	i.styles = s
	return i
}

// SetError shows a message under the field.
func (i *Input) SetError(e string) {
	i.err = e
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return i.value
}

// Int parses the value as a positive integer.
func (i *Input) Int() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(i.value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive whole number", strings.ToLower(i.label))
	}
	return n, nil
}

// HandleKey edits the value when focused.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = i.value[:i.cursorPos-1] + i.value[i.cursorPos:]
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = i.value[:i.cursorPos] + i.value[i.cursorPos+1:]
		}
	case "left":
		i.cursorPos = max(0, i.cursorPos-1)
	case "right":
		i.cursorPos = min(len(i.value), i.cursorPos+1)
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	default:
		if len(key) != 1 || len(i.value) >= i.maxLength {
			return
		}
		if i.numeric && (key[0] < '0' || key[0] > '9') {
			return
		}
		i.value = i.value[:i.cursorPos] + key + i.value[i.cursorPos:]
		i.cursorPos++
	}
}

// Render renders the label, the value and a cursor when focused.
func (i *Input) Render() string {
	label := i.styles.Label.Width(16).Render(i.label + ":")

	var value string
	if i.focused {
		value = i.styles.Focus.Render(i.value[:i.cursorPos] + "_" + i.value[i.cursorPos:])
	} else {
		value = i.styles.Value.Render(i.value)
	}

	out := label + " " + value
	if i.err != "" {
		out += "\n" + strings.Repeat(" ", 17) + i.styles.Error.Render(i.err)
	}
	return out
}

// Select picks one option with left/right.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
	styles   Styles
}

// NewSelect creates a select over options.
func NewSelect(label string, options []string) *Select {
	return &Select{label: label, options: options, styles: DefaultStyles()}
}

// SetStyles sets the palette.
func (s *Select) SetStyles(st Styles) *Select {
	s.styles = st
	return s
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected option, or "" when there are none.
func (s *Select) Value() string {
	if s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// HandleKey moves the selection when focused.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}
	switch key {
	case "left", "h":
		s.selected = max(0, s.selected-1)
	case "right", "l":
		s.selected = min(max(0, len(s.options)-1), s.selected+1)
	}
}

// Render renders every option with the selected one bracketed.
func (s *Select) Render() string {
	var b strings.Builder
	b.WriteString(s.styles.Label.Width(16).Render(s.label + ":"))
	b.WriteString(" ")

	if len(s.options) == 0 {
		b.WriteString(s.styles.Muted.Render("(none)"))
		return b.String()
	}

	for idx, opt := range s.options {
		if idx > 0 {
			b.WriteString(" ")
		}
		switch {
		case idx == s.selected && s.focused:
			b.WriteString(s.styles.Focus.Render("[" + opt + "]"))
		case idx == s.selected:
			b.WriteString(s.styles.Value.Render("(" + opt + ")"))
		default:
			b.WriteString(s.styles.Label.Render(" " + opt + " "))
		}
	}
	return b.String()
}

// Form is a column of fields with tab navigation. Enter on the last field
// or ctrl+s submits; esc cancels.
type Form struct {
	title      string
	fields     []Field
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string
	styles     Styles
}

// NewForm creates an empty form.
func NewForm(title string) *Form {
	return &Form{title: title, styles: DefaultStyles()}
}

// SetStyles sets the palette.
func (f *Form) SetStyles(s Styles) *Form {
	f.styles = s
	return f
}

// AddField appends a field. The first field gets focus.
func (f *Form) AddField(field Field) *Form {
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// HandleKey routes a key to navigation or the focused field.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.moveFocus(1)
	case "shift+tab", "up":
		f.moveFocus(-1)
	case "ctrl+s":
		f.submitted = true
	case "esc":
		f.cancelled = true
	case "enter":
		if f.focusIndex == len(f.fields)-1 {
			f.submitted = true
		} else {
			f.moveFocus(1)
		}
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) moveFocus(delta int) {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + delta + len(f.fields)) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

// IsSubmitted reports whether the form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled reports whether the form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Reopen clears the submitted flag after a rejected submission.
func (f *Form) Reopen() {
	f.submitted = false
}

// SetError shows a form-level error.
func (f *Form) SetError(err string) {
	f.err = err
}

// Render renders the title, the fields, any error and the key help.
func (f *Form) Render() string {
	var b strings.Builder

	b.WriteString(f.styles.Title.Render(fmt.Sprintf("=== %s ===", f.title)))
	b.WriteString("\n\n")

	for _, field := range f.fields {
		b.WriteString(field.Render())
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(f.styles.Error.Render("Error: " + f.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(f.styles.Label.Render("Tab:Next  Left/Right:Choose  Enter:Confirm  Esc:Cancel"))

	return b.String()
}
