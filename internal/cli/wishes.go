package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/model"
	"github.com/idilsaglam/wishlist/internal/ui"
	"github.com/idilsaglam/wishlist/internal/wishlist"
)

func parseID(cmd *cobra.Command, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("%s: not a wish id: %s", cmd.Name(), s)
	}
	return id, nil
}

type listFlags struct {
	filter   string
	category string
	search   string
	server   bool
	page     int
	size     int
	sortBy   string
	dir      string
}

func (f listFlags) query() (wishlist.Query, error) {
	filter, err := wishlist.ParseFilter(f.filter)
	if err != nil {
		return wishlist.Query{}, usagef("ls: %v", err)
	}
	if f.dir != "" && f.dir != "asc" && f.dir != "desc" {
		return wishlist.Query{}, usagef("ls: --dir must be asc or desc")
	}
	return wishlist.Query{
		Filter:     filter,
		Category:   f.category,
		Search:     f.search,
		ServerSide: f.server,
		Page:       api.ListOptions{Page: f.page, Size: f.size, SortBy: f.sortBy, Direction: f.dir},
	}, nil
}

func listCmd(a *app) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List wishes",
		Args:    args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			var (
				raw  []model.Wish
				meta string
			)
			if q.Page != (api.ListOptions{}) && !q.ServerSide {
				// paging only applies to the plain list; keep its metadata
				p, err := a.wishAPI.ListPage(ctx, q.Page)
				if err != nil {
					return err
				}
				raw = p.Wishes()
				var parts []string
				if p.TotalPages != nil && p.CurrentPage != nil {
					parts = append(parts, fmt.Sprintf("page %d of %d", *p.CurrentPage+1, *p.TotalPages))
				}
				if p.TotalItems != nil {
					parts = append(parts, fmt.Sprintf("%d wishes", *p.TotalItems))
				}
				meta = strings.Join(parts, " · ")
			} else if raw, err = a.wishes.Load(ctx, q); err != nil {
				return err
			}

			shown := wishlist.Apply(raw, q)
			if a.flags.json {
				return a.printJSON(shown)
			}
			a.println(ui.Panel(listLines(shown, q, meta, time.Now())))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.filter, "filter", "f", "all", "all, completed or pending")
	fl.StringVar(&f.category, "category", "", "only wishes in this category")
	fl.StringVarP(&f.search, "search", "s", "", "only wishes whose title, description or category contain this text")
	fl.BoolVar(&f.server, "server", false, "let the server filter by search, category and status")
	fl.IntVar(&f.page, "page", 0, "page number, from 0")
	fl.IntVar(&f.size, "size", 0, "page size")
	fl.StringVar(&f.sortBy, "sort", "", "sort field, e.g. createdAt")
	fl.StringVar(&f.dir, "dir", "", "sort direction: asc or desc")
	return cmd
}

func listLines(shown []model.Wish, q wishlist.Query, meta string, now time.Time) []string {
	t := ui.Current()
	s := wishlist.StatsOf(shown)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Wishlist"),
		t.Success.Render(t.SymDone), s.Completed,
		t.Pending.Render(t.SymPending), s.Pending,
		t.Accent.Render("Total"), s.Total,
	)
	lines := []string{header, ui.ProgressBar(s.Completed, s.Total, 28)}
	if meta != "" {
		lines = append(lines, t.Muted.Render(meta))
	}
	lines = append(lines, "")
	if len(shown) == 0 {
		lines = append(lines, t.Muted.Render("no wishes"))
	}
	for _, w := range shown {
		lines = append(lines, ui.WishLine(w, q.Search, now))
	}
	lines = append(lines, "", t.Muted.Render("Tip: add with `wishlist add \"New bike\" --category Sport`"))
	return lines
}

func showCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one wish",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(cmd, argv[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			w, err := a.wishes.Get(ctx, id)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(w)
			}
			a.println(ui.Panel(ui.WishDetail(*w, time.Now())))
			return nil
		},
	}
}

func draftFlags(cmd *cobra.Command, d *wishlist.Draft) {
	fl := cmd.Flags()
	fl.StringVarP(&d.Description, "desc", "d", "", "description")
	fl.StringVar(&d.Category, "category", "", "category")
	fl.StringVarP(&d.Priority, "priority", "p", "", "priority: low, medium, high or 1-3")
	fl.StringVar(&d.Due, "due", "", "due date, YYYY-MM-DD or YYYY-MM-DDTHH:MM")
}

func addCmd(a *app) *cobra.Command {
	var d wishlist.Draft
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a wish (title can be multiple words)",
		Args:  args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			d.Title = strings.Join(argv, " ")
			req, err := d.Create()
			if err != nil {
				return usagef("add: %v", err)
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			w, err := a.wishes.Create(ctx, req)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(w)
			}
			a.ok(fmt.Sprintf("added #%d %s", w.ID, w.Title))
			return nil
		},
	}
	draftFlags(cmd, &d)
	return cmd
}

func editCmd(a *app) *cobra.Command {
	var patch wishlist.Draft
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the fields given as flags",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(cmd, argv[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			orig, err := a.wishes.Get(ctx, id)
			if err != nil {
				return err
			}
			req, err := wishlist.DraftOf(*orig).Merge(patch).Update(*orig)
			if err != nil {
				return usagef("edit: %v", err)
			}
			w, err := a.wishes.Update(ctx, id, req)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(w)
			}
			a.ok(fmt.Sprintf("updated #%d", id))
			return nil
		},
	}
	cmd.Flags().StringVarP(&patch.Title, "title", "t", "", "new title")
	draftFlags(cmd, &patch)
	return cmd
}

func doneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a wish completed",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(cmd, argv[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			w, err := a.wishes.Complete(ctx, id)
			if err != nil {
				return err
			}
			if a.flags.json {
				return a.printJSON(w)
			}
			a.ok(fmt.Sprintf("completed #%d", id))
			return nil
		},
	}
}

func removeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a wish",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			id, err := parseID(cmd, argv[0])
			if err != nil {
				return err
			}
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.wishes.Delete(ctx, id); err != nil {
				return err
			}
			a.ok(fmt.Sprintf("removed #%d", id))
			return nil
		},
	}
}

func categoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			raw, err := a.wishes.Load(ctx, wishlist.Query{})
			if err != nil {
				return err
			}
			cats := wishlist.Categories(raw)
			if a.flags.json {
				if cats == nil {
					cats = []string{}
				}
				return a.printJSON(cats)
			}
			for _, c := range cats {
				a.println(c)
			}
			return nil
		},
	}
}
