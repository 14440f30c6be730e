// Package wishlist holds the list view logic shared by the CLI and the TUI:
// which endpoint a query maps to and how the fetched list is narrowed down.
package wishlist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/model"
)

type Filter int

const (
	FilterAll Filter = iota
	FilterCompleted
	FilterPending
)

func (f Filter) String() string {
	switch f {
	case FilterCompleted:
		return "completed"
	case FilterPending:
		return "pending"
	default:
		return "all"
	}
}

// Next cycles all -> completed -> pending -> all.
func (f Filter) Next() Filter { return (f + 1) % 3 }

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "completed", "done":
		return FilterCompleted, nil
	case "pending", "todo":
		return FilterPending, nil
	}
	return FilterAll, fmt.Errorf("unknown filter %q (want all, completed or pending)", s)
}

// Query is what the list view currently asks for. In server mode the backend
// does the category and search narrowing; in client mode it is done locally.
type Query struct {
	Filter     Filter
	Category   string
	Search     string
	ServerSide bool
	Page       api.ListOptions
}

// ToggleServerSide flips the mode and forgets category and search.
func (q Query) ToggleServerSide() Query {
	q.ServerSide = !q.ServerSide
	q.Category = ""
	q.Search = ""
	return q
}

func (q Query) term() string { return strings.TrimSpace(q.Search) }

type endpoint int

const (
	endpointList endpoint = iota
	endpointSearch
	endpointCategory
	endpointCompleted
	endpointPending
)

// endpoint picks the backend call for q.
func (q Query) endpoint() endpoint {
	if !q.ServerSide {
		return endpointList
	}
	switch {
	case q.term() != "":
		return endpointSearch
	case strings.TrimSpace(q.Category) != "":
		return endpointCategory
	case q.Filter == FilterCompleted:
		return endpointCompleted
	case q.Filter == FilterPending:
		return endpointPending
	}
	return endpointList
}

// key identifies the raw result of q; the local filters are not part of it.
func (q Query) key() string {
	switch q.endpoint() {
	case endpointSearch:
		return "search:" + strings.ToLower(q.term())
	case endpointCategory:
		return "category:" + q.Category
	case endpointCompleted:
		return "completed"
	case endpointPending:
		return "pending"
	}
	if enc := q.Page.Encode(); enc != "" {
		return "list?" + enc
	}
	return "list"
}

// Apply narrows raw down to what the view shows: text search (unless the
// server already searched), status, then category (client mode only).
func Apply(raw []model.Wish, q Query) []model.Wish {
	out := raw
	if term := q.term(); term != "" && !q.ServerSide {
		out = keep(out, func(w model.Wish) bool { return Matches(w, term) })
	}
	switch q.Filter {
	case FilterCompleted:
		out = keep(out, func(w model.Wish) bool { return w.Completed })
	case FilterPending:
		out = keep(out, func(w model.Wish) bool { return !w.Completed })
	}
	if q.Category != "" && !q.ServerSide {
		out = keep(out, func(w model.Wish) bool { return w.Category == q.Category })
	}
	return out
}

// Matches is a case-insensitive substring match on title, description and category.
func Matches(w model.Wish, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range []string{w.Title, w.Description, w.Category} {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func keep(in []model.Wish, pred func(model.Wish) bool) []model.Wish {
	out := make([]model.Wish, 0, len(in))
	for _, w := range in {
		if pred(w) {
			out = append(out, w)
		}
	}
	return out
}

// Categories lists the distinct non-blank categories of raw, sorted.
func Categories(raw []model.Wish) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range raw {
		if strings.TrimSpace(w.Category) == "" || seen[w.Category] {
			continue
		}
		seen[w.Category] = true
		out = append(out, w.Category)
	}
	sort.Strings(out)
	return out
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

func StatsOf(list []model.Wish) Stats {
	s := Stats{Total: len(list)}
	for _, w := range list {
		if w.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// CompletionRate is the completed share in percent, 0 for an empty list.
func (s Stats) CompletionRate() int {
	if s.Total == 0 {
		return 0
	}
	return s.Completed * 100 / s.Total
}
