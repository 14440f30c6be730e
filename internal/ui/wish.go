package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/idilsaglam/wishlist/internal/model"
)

// Highlight styles every case-insensitive occurrence of term in text.
func Highlight(text, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return text
	}
	lower, lterm := strings.ToLower(text), strings.ToLower(term)
	if len(lower) != len(text) {
		// lowercasing changed byte offsets; skip rather than cut runes
		return text
	}
	var b strings.Builder
	for {
		i := strings.Index(lower, lterm)
		if i < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:i])
		b.WriteString(current.Highlight.Render(text[i : i+len(lterm)]))
		text, lower = text[i+len(lterm):], lower[i+len(lterm):]
	}
}

func Checkbox(done bool) string {
	if done {
		return current.Success.Render(current.BoxChecked)
	}
	return current.Muted.Render(current.BoxUnchecked)
}

func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return current.PriorityHigh.Render(p.String())
	case model.PriorityMedium:
		return current.PriorityMedium.Render(p.String())
	case model.PriorityLow:
		return current.PriorityLow.Render(p.String())
	}
	return ""
}

// WishLine renders one wish for the list views: checkbox, id, title, then
// category, priority and due date when present.
func WishLine(w model.Wish, term string, now time.Time) string {
	title := Highlight(w.Title, term)
	if w.Completed {
		title = current.Done.Render(w.Title)
	}
	parts := []string{Checkbox(w.Completed), current.Muted.Render(fmt.Sprintf("#%d", w.ID)), title}
	if w.Category != "" {
		parts = append(parts, current.Accent.Render("["+Highlight(w.Category, term)+"]"))
	}
	if p := PriorityLabel(w.Priority); p != "" {
		parts = append(parts, p)
	}
	if due := w.DueDate.Short(); due != "" {
		if w.Overdue(now) {
			parts = append(parts, current.Overdue.Render("overdue "+due))
		} else {
			parts = append(parts, current.Muted.Render("due "+due))
		}
	}
	return strings.Join(parts, " ")
}

// WishDetail lists every field of w, one per line.
func WishDetail(w model.Wish, now time.Time) []string {
	status := current.Pending.Render("pending")
	if w.Completed {
		status = current.Success.Render("completed")
	}
	lines := []string{
		current.Title.Render(w.Title),
		fmt.Sprintf("id:        %d", w.ID),
		"status:    " + status,
	}
	if w.Description != "" {
		lines = append(lines, "notes:     "+w.Description)
	}
	if w.Category != "" {
		lines = append(lines, "category:  "+w.Category)
	}
	if p := PriorityLabel(w.Priority); p != "" {
		lines = append(lines, "priority:  "+p)
	}
	if due := w.DueDate.Short(); due != "" {
		if w.Overdue(now) {
			due = current.Overdue.Render(due + " (overdue)")
		}
		lines = append(lines, "due:       "+due)
	}
	if c := w.CompletedAt.Short(); c != "" {
		lines = append(lines, "done:      "+c)
	}
	if c := w.CreatedAt.Short(); c != "" {
		lines = append(lines, current.Muted.Render("created:   "+c))
	}
	return lines
}
