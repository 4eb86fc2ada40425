package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// formField is one input of a form. Fields with choices are cycled with
// left/right instead of typed into.
type formField struct {
	label       string
	placeholder string
	value       string
	secret      bool
	choices     []string
}

// form is the shared multi-field editor behind login, register, transfer and
// deposit.
type form struct {
	fields []formField
	focus  int
}

func newForm(fields ...formField) form {
	return form{fields: fields}
}

func (f form) value(i int) string {
	return f.fields[i].value
}

func (f *form) set(i int, v string) {
	f.fields[i].value = v
}

// reset clears typed values and moves focus back to the first field.
// Choice fields keep their selection.
func (f *form) reset() {
	for i := range f.fields {
		if f.fields[i].choices == nil {
			f.fields[i].value = ""
		}
	}
	f.focus = 0
}

// update applies a key. submit is true when enter is pressed on the last field.
func (f form) update(msg tea.KeyMsg) (_ form, submit bool) {
	n := len(f.fields)
	switch msg.String() {
	case "tab", "down":
		f.focus = (f.focus + 1) % n
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + n) % n
	case "enter":
		if f.focus == n-1 {
			return f, true
		}
		f.focus++
	case "left", "right":
		fld := &f.fields[f.focus]
		if len(fld.choices) > 0 {
			idx := 0
			for i, c := range fld.choices {
				if c == fld.value {
					idx = i
					break
				}
			}
			if msg.String() == "right" {
				idx = (idx + 1) % len(fld.choices)
			} else {
				idx = (idx - 1 + len(fld.choices)) % len(fld.choices)
			}
			fld.value = fld.choices[idx]
		}
	case "backspace":
		fld := &f.fields[f.focus]
		if fld.choices == nil {
			fld.value = editRune(fld.value, "backspace")
		}
	default:
		fld := &f.fields[f.focus]
		if fld.choices != nil {
			break
		}
		switch msg.Type {
		case tea.KeySpace:
			fld.value = editRune(fld.value, " ")
		case tea.KeyRunes:
			// Pasted text arrives as one message with many runes.
			for _, r := range msg.Runes {
				fld.value = editRune(fld.value, string(r))
			}
		}
	}
	return f, false
}

func (f form) View(frame int) string {
	var b strings.Builder
	for i, fld := range f.fields {
		focused := i == f.focus
		if len(fld.choices) > 0 {
			prefix := "  "
			name := metaStyle.Render(fld.label)
			if focused {
				prefix = inputPromptStyle.Render("> ")
				name = selectedStyle.Render(fld.label)
			}
			b.WriteString(prefix + name + metaStyle.Render(": ") +
				dimStyle.Render("< ") + accentStyle.Render(fld.value) + dimStyle.Render(" >") + "\n")
			continue
		}
		b.WriteString(renderInput(fld.label, fld.value, fld.placeholder, focused, fld.secret, frame) + "\n")
	}
	return b.String()
}
