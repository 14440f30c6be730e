package wishlist

import (
	"strings"

	"github.com/idilsaglam/wishlist/internal/model"
)

// Draft is a wish as typed by the user, before parsing. Blank Priority
// and Due mean "not set".
type Draft struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Due         string
}

// DraftOf fills a draft from an existing wish, for editing.
func DraftOf(w model.Wish) Draft {
	d := Draft{Title: w.Title, Description: w.Description, Category: w.Category}
	if w.Priority.Valid() {
		d.Priority = w.Priority.String()
	}
	if w.DueDate != nil && !w.DueDate.IsZero() {
		d.Due = w.DueDate.Format("2006-01-02")
	}
	return d
}

func (d Draft) parse() (model.Priority, *model.LocalTime, error) {
	var p model.Priority
	if strings.TrimSpace(d.Priority) != "" {
		var err error
		if p, err = model.ParsePriority(d.Priority); err != nil {
			return 0, nil, err
		}
	}
	var due *model.LocalTime
	if strings.TrimSpace(d.Due) != "" {
		t, err := model.ParseLocalTime(d.Due)
		if err != nil {
			return 0, nil, err
		}
		due = &t
	}
	return p, due, nil
}

// Create turns the draft into a validated create request.
func (d Draft) Create() (model.CreateWishRequest, error) {
	p, due, err := d.parse()
	if err != nil {
		return model.CreateWishRequest{}, err
	}
	req := model.CreateWishRequest{
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Priority:    p,
		DueDate:     due,
	}
	req.Normalize()
	return req, req.Validate()
}

// Update returns a request carrying only the fields that differ from orig.
func (d Draft) Update(orig model.Wish) (model.UpdateWishRequest, error) {
	p, due, err := d.parse()
	if err != nil {
		return model.UpdateWishRequest{}, err
	}
	var req model.UpdateWishRequest
	if t := strings.TrimSpace(d.Title); t != orig.Title {
		req.Title = &t
	}
	if s := strings.TrimSpace(d.Description); s != orig.Description {
		req.Description = &s
	}
	if s := strings.TrimSpace(d.Category); s != orig.Category {
		req.Category = &s
	}
	if p != 0 && p != orig.Priority {
		req.Priority = &p
	}
	if due != nil && (orig.DueDate == nil || !due.Equal(orig.DueDate.Time)) {
		req.DueDate = due
	}
	return req, req.Validate()
}

// Merge overlays the non-blank fields of patch on d.
func (d Draft) Merge(patch Draft) Draft {
	if patch.Title != "" {
		d.Title = patch.Title
	}
	if patch.Description != "" {
		d.Description = patch.Description
	}
	if patch.Category != "" {
		d.Category = patch.Category
	}
	if patch.Priority != "" {
		d.Priority = patch.Priority
	}
	if patch.Due != "" {
		d.Due = patch.Due
	}
	return d
}
