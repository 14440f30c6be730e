package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/ui"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldCategory
	fieldPriority
	fieldDue
	fieldCount
)

// wishForm is the inline add/edit form under the list.
type wishForm struct {
	editing *model.Wish // nil when adding
	inputs  [fieldCount]textinput.Model
	focused int
	err     string
}

func newWishForm(edit *model.Wish) (wishForm, tea.Cmd) {
	f := wishForm{editing: edit}
	placeholders := [fieldCount]string{"Title", "Description", "Category", "Priority (low/medium/high)", "Due date (YYYY-MM-DD)"}
	for i := range f.inputs {
		f.inputs[i] = textinput.New()
		f.inputs[i].Prompt = "> "
		f.inputs[i].Placeholder = placeholders[i]
	}
	f.inputs[fieldTitle].CharLimit = model.MaxTitleLen
	f.inputs[fieldDescription].CharLimit = model.MaxDescriptionLen

	if edit != nil {
		d := wishlist.DraftOf(*edit)
		for i, v := range []string{d.Title, d.Description, d.Category, d.Priority, d.Due} {
			f.inputs[i].SetValue(v)
			f.inputs[i].CursorEnd()
		}
	}
	return f, f.inputs[fieldTitle].Focus()
}

func (f wishForm) draft() wishlist.Draft {
	return wishlist.Draft{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		Category:    f.inputs[fieldCategory].Value(),
		Priority:    f.inputs[fieldPriority].Value(),
		Due:         f.inputs[fieldDue].Value(),
	}
}

// update returns submit=true on enter; the caller validates.
func (f wishForm) update(msg tea.Msg) (wishForm, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			return f, nil, true
		case "tab", "down", "shift+tab", "up":
			f.inputs[f.focused].Blur()
			if k.String() == "tab" || k.String() == "down" {
				f.focused = (f.focused + 1) % fieldCount
			} else {
				f.focused = (f.focused + fieldCount - 1) % fieldCount
			}
			return f, f.inputs[f.focused].Focus(), false
		}
	}
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd, false
}

func (f wishForm) view() string {
	t := ui.Current()
	title := "Add new wish"
	if f.editing != nil {
		title = "Edit wish #" + strconv.FormatInt(f.editing.ID, 10)
	}
	lines := []string{t.Title.Render(title)}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, t.Error.Render(f.err))
	}
	lines = append(lines, t.Help.Render("tab next field • enter save • esc cancel"))
	return ui.Panel(lines)
}
