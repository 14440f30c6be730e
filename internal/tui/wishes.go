package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/session"
	"github.com/idilsaglam/wishlist/internal/ui"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

const flashFor = 3 * time.Second

type wishMode int

const (
	modeBrowse wishMode = iota
	modeSearch
	modeForm
	modeConfirm
)

// wishItem adapts a wish to bubbles/list.Item.
type wishItem struct {
	wish model.Wish
	term string
}

func (i wishItem) Title() string       { return i.wish.Title }
func (i wishItem) Description() string { return i.wish.Description }
func (i wishItem) FilterValue() string { return i.wish.Title }

// itemDelegate renders one wish per line.
type itemDelegate struct{ now func() time.Time }

func (d itemDelegate) Height() int                         { return 1 }
func (d itemDelegate) Spacing() int                        { return 0 }
func (d itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(wishItem)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Selected.Render("> ")
	}
	fmt.Fprint(w, prefix+ui.WishLine(it.wish, it.term, d.now()))
}

var (
	keyFilter   = key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter"))
	keyCategory = key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category"))
	keySearch   = key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search"))
	keyClear    = key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "clear"))
	keyMode     = key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "server/client"))
	keyAdd      = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	keyEdit     = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	keyComplete = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "complete"))
	keyDelete   = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	keyRefresh  = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	keyProfile  = key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "profile"))
	keyLogout   = key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout"))
	keyQuit     = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
)

type wishView struct {
	list    list.Model
	now     func() time.Time
	query   wishlist.Query
	seq     *wishlist.Sequencer
	raw     []model.Wish
	shown   []model.Wish
	err     error
	loading bool

	mode    wishMode
	search  textinput.Model
	form    wishForm
	confirm *model.Wish

	flash    string
	flashErr bool
	flashID  int
}

func newWishView(now func() time.Time) wishView {
	l := list.New(nil, itemDelegate{now: now}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("wish", "wishes")
	l.Styles.Title = ui.Current().Title
	l.Styles.HelpStyle = ui.Current().Help
	l.Styles.PaginationStyle = ui.Current().Help
	short := []key.Binding{keyFilter, keyCategory, keySearch, keyMode, keyAdd, keyComplete}
	full := []key.Binding{keyFilter, keyCategory, keySearch, keyClear, keyMode, keyAdd, keyEdit,
		keyComplete, keyDelete, keyRefresh, keyProfile, keyLogout, keyQuit}
	l.AdditionalShortHelpKeys = func() []key.Binding { return short }
	l.AdditionalFullHelpKeys = func() []key.Binding { return full }
	l.KeyMap.Quit.SetEnabled(false)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "Search wishes..."
	search.CharLimit = 100

	return wishView{list: l, now: now, seq: &wishlist.Sequencer{}, search: search}
}

func (v *wishView) setSize(w, h int) {
	extra := 4
	if v.mode == modeForm {
		extra += fieldCount + 4
	}
	v.list.SetSize(w-2, h-extra)
}

// clear forgets everything loaded for the previous session. Loads still in
// flight are dropped by bumping the sequence.
func (v *wishView) clear() {
	v.seq.Next()
	v.raw, v.shown, v.err = nil, nil, nil
	v.query = wishlist.Query{}
	v.loading = false
	v.mode, v.confirm = modeBrowse, nil
	v.flash, v.flashErr = "", false
	v.search.SetValue("")
	v.search.Blur()
	v.refilter()
}

// refilter recomputes the shown list from raw without a request.
func (v *wishView) refilter() {
	v.shown = wishlist.Apply(v.raw, v.query)
	items := make([]list.Item, 0, len(v.shown))
	for _, w := range v.shown {
		items = append(items, wishItem{wish: w, term: v.query.Search})
	}
	v.list.SetItems(items)
	v.list.Title = v.header()
}

func (v wishView) header() string {
	t := ui.Current()
	s := wishlist.StatsOf(v.shown)
	mode := "client"
	if v.query.ServerSide {
		mode = "server"
	}
	h := fmt.Sprintf("%s   %s %d  %s %d  %s %d   %s",
		t.Title.Render("Wishlist"),
		t.Success.Render(t.SymDone), s.Completed,
		t.Pending.Render(t.SymPending), s.Pending,
		t.Accent.Render("Total"), s.Total,
		t.Muted.Render(fmt.Sprintf("[%s · %s", mode, v.query.Filter)),
	)
	if v.query.Category != "" {
		h += t.Muted.Render(" · " + v.query.Category)
	}
	if v.query.Search != "" {
		h += t.Muted.Render(" · \"" + v.query.Search + "\"")
	}
	return h + t.Muted.Render("]")
}

func (v wishView) selected() (model.Wish, bool) {
	it, ok := v.list.SelectedItem().(wishItem)
	if !ok {
		return model.Wish{}, false
	}
	return it.wish, true
}

// nextCategory cycles "" -> first category -> ... -> "".
func (v wishView) nextCategory() string {
	cats := wishlist.Categories(v.raw)
	if len(cats) == 0 {
		return ""
	}
	for i, c := range cats {
		if c == v.query.Category {
			if i+1 < len(cats) {
				return cats[i+1]
			}
			return ""
		}
	}
	return cats[0]
}

func (v wishView) view(spin string) string {
	t := ui.Current()
	var content string
	switch {
	case v.err != nil && len(v.raw) == 0:
		status := "N/A"
		if code := api.StatusOf(v.err); code != 0 {
			status = fmt.Sprint(code)
		}
		content = strings.Join([]string{
			t.Error.Render("Error loading wishes"),
			"Status: " + status,
			"Message: " + api.Message(v.err, v.err.Error()),
			"",
			t.Help.Render("r retry • L logout • q quit"),
		}, "\n")
	case v.loading && len(v.raw) == 0:
		content = spin + t.Muted.Render(" Loading wishes…")
	case len(v.shown) == 0:
		msg := "No wishes yet. Press a to add one."
		if len(v.raw) > 0 || v.query.Search != "" || v.query.Category != "" {
			msg = "No wishes match. Press x to clear the filters."
		}
		content = v.header() + "\n\n" + t.Muted.Render(msg)
	default:
		content = v.list.View()
	}

	switch v.mode {
	case modeSearch:
		content += "\n" + v.search.View()
	case modeForm:
		content += "\n" + v.form.view()
	case modeConfirm:
		if v.confirm != nil {
			content += "\n" + t.Error.Render(fmt.Sprintf("Delete %q? Are you sure you want to delete this wish? (y/n)", v.confirm.Title))
		}
	}
	if v.flash != "" {
		style := t.Success
		if v.flashErr {
			style = t.Error
		}
		content += "\n" + style.Render(v.flash)
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(content)
}

// load starts a request for the current query.
func (m Model) load() tea.Cmd {
	seq := m.list.seq.Next()
	q := m.list.query
	svc := m.cfg.Wishes
	return m.call(func(ctx context.Context) tea.Msg {
		raw, err := svc.Load(ctx, q)
		return loadedMsg{seq: seq, raw: raw, err: err}
	})
}

func (m Model) setFlash(text string, isErr bool) (Model, tea.Cmd) {
	m.list.flashID++
	m.list.flash, m.list.flashErr = text, isErr
	id := m.list.flashID
	return m, tea.Tick(flashFor, func(time.Time) tea.Msg { return flashTimeoutMsg{id: id} })
}

// mutate runs fn and reports the result as a mutatedMsg.
func (m Model) mutate(action string, fn func(ctx context.Context) error) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		return mutatedMsg{action: action, err: fn(ctx)}
	})
}

func (m Model) updateWishes(msg tea.Msg) (tea.Model, tea.Cmd) {
	v := &m.list
	switch msg := msg.(type) {
	case loadedMsg:
		if !v.seq.Current(msg.seq) {
			m.log.WithField("seq", msg.seq).Debug("dropping stale wishes")
			return m, nil
		}
		v.loading = false
		v.err = msg.err
		if msg.err != nil {
			m.log.WithError(msg.err).Error("load wishes")
			v.raw = nil
		} else {
			v.raw = msg.raw
		}
		v.refilter()
		return m, nil

	case mutatedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("action", msg.action).Error("mutation failed")
			return m.setFlash(fmt.Sprintf("✖ could not %s: %s", msg.action, api.Message(msg.err, msg.err.Error())), true)
		}
		v.loading = true
		m, flash := m.setFlash("✔ "+msg.action, false)
		return m, tea.Batch(flash, m.load())

	case flashTimeoutMsg:
		if msg.id == v.flashID {
			v.flash = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch v.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		return m.browseKey(msg)
	}

	if v.mode == modeForm {
		return m.updateForm(msg)
	}
	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return m, cmd
}

func (m Model) browseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.list
	switch {
	case key.Matches(msg, keyQuit):
		return m, tea.Quit

	case key.Matches(msg, keyFilter):
		v.query.Filter = v.query.Filter.Next()
		return m.requery()

	case key.Matches(msg, keyCategory):
		v.query.Category = v.nextCategory()
		return m.requery()

	case key.Matches(msg, keySearch):
		v.mode = modeSearch
		v.search.SetValue(v.query.Search)
		v.search.CursorEnd()
		return m, v.search.Focus()

	case key.Matches(msg, keyClear):
		v.query.Category, v.query.Search = "", ""
		return m.requery()

	case key.Matches(msg, keyMode):
		v.query = v.query.ToggleServerSide()
		v.loading = true
		return m, m.load()

	case key.Matches(msg, keyAdd):
		var cmd tea.Cmd
		v.form, cmd = newWishForm(nil)
		v.mode = modeForm
		v.setSize(m.width, m.height)
		return m, cmd

	case key.Matches(msg, keyEdit):
		w, ok := v.selected()
		if !ok {
			return m, nil
		}
		var cmd tea.Cmd
		v.form, cmd = newWishForm(&w)
		v.mode = modeForm
		v.setSize(m.width, m.height)
		return m, cmd

	case key.Matches(msg, keyComplete):
		w, ok := v.selected()
		if !ok {
			return m, nil
		}
		if w.Completed {
			return m.setFlash("already completed", false)
		}
		svc := m.cfg.Wishes
		return m, m.mutate("complete wish", func(ctx context.Context) error {
			_, err := svc.Complete(ctx, w.ID)
			return err
		})

	case key.Matches(msg, keyDelete):
		if w, ok := v.selected(); ok {
			v.confirm = &w
			v.mode = modeConfirm
		}
		return m, nil

	case key.Matches(msg, keyRefresh):
		v.loading = true
		m.cfg.Wishes.Invalidate(context.Background())
		return m, m.load()

	case key.Matches(msg, keyProfile):
		return m, m.goTo(session.RouteProfile)

	case key.Matches(msg, keyLogout):
		if err := m.cfg.Session.Logout(); err != nil {
			m.log.WithError(err).Error("logout")
		}
		v.clear()
		return m, nil
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return m, cmd
}

// requery applies a query change: a new request in server mode, local
// filtering otherwise.
func (m Model) requery() (tea.Model, tea.Cmd) {
	if m.list.query.ServerSide {
		m.list.loading = true
		return m, m.load()
	}
	m.list.refilter()
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.list
	switch msg.String() {
	case "enter":
		v.query.Search = strings.TrimSpace(v.search.Value())
		v.mode = modeBrowse
		v.search.Blur()
		return m.requery()
	case "esc":
		v.mode = modeBrowse
		v.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	v.search, cmd = v.search.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	v := &m.list
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		v.mode = modeBrowse
		v.setSize(m.width, m.height)
		return m, nil
	}
	var (
		cmd    tea.Cmd
		submit bool
	)
	v.form, cmd, submit = v.form.update(msg)
	if !submit {
		return m, cmd
	}

	svc := m.cfg.Wishes
	draft := v.form.draft()
	if orig := v.form.editing; orig != nil {
		req, err := draft.Update(*orig)
		if err != nil {
			v.form.err = err.Error()
			return m, nil
		}
		id := orig.ID
		v.mode = modeBrowse
		v.setSize(m.width, m.height)
		return m, m.mutate("update wish", func(ctx context.Context) error {
			_, err := svc.Update(ctx, id, req)
			return err
		})
	}
	req, err := draft.Create()
	if err != nil {
		v.form.err = err.Error()
		return m, nil
	}
	v.mode = modeBrowse
	v.setSize(m.width, m.height)
	return m, m.mutate("add wish", func(ctx context.Context) error {
		_, err := svc.Create(ctx, req)
		return err
	})
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v := &m.list
	w := v.confirm
	v.mode, v.confirm = modeBrowse, nil
	if w == nil || (msg.String() != "y" && msg.String() != "Y") {
		return m, nil
	}
	svc := m.cfg.Wishes
	id := w.ID
	return m, m.mutate("delete wish", func(ctx context.Context) error {
		return svc.Delete(ctx, id)
	})
}
