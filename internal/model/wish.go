package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Wish is the domain model for a wishlist entry as the backend returns it.
type Wish struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *LocalTime `json:"dueDate"`
	CompletedAt *LocalTime `json:"completedAt"`
	CreatedAt   *LocalTime `json:"createdAt,omitempty"`
	UpdatedAt   *LocalTime `json:"updatedAt,omitempty"`
}

// Overdue reports whether the wish has a due date before now and is still open.
func (w Wish) Overdue(now time.Time) bool {
	if w.Completed || w.DueDate == nil || w.DueDate.IsZero() {
		return false
	}
	return w.DueDate.Time.Before(now)
}

// Priority is the ordinal importance of a wish, 1 (low) to 3 (high).
type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) Valid() bool { return p >= PriorityLow && p <= PriorityHigh }

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	}
	return ""
}

// ParsePriority accepts 1-3 or the labels low/medium/high.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "low", "l":
		return PriorityLow, nil
	case "2", "medium", "med", "m":
		return PriorityMedium, nil
	case "3", "high", "h":
		return PriorityHigh, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrPriority, s)
}

const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 1000
)

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = fmt.Errorf("title must be at most %d characters", MaxTitleLen)
	ErrDescTooLong   = fmt.Errorf("description must be at most %d characters", MaxDescriptionLen)
	ErrPriority      = errors.New("priority must be 1 (low), 2 (medium) or 3 (high)")
	ErrEmptyUpdate   = errors.New("nothing to update")
)

// CreateWishRequest is the body of POST /api/wishes.
type CreateWishRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Category    string     `json:"category"`
	DueDate     *LocalTime `json:"dueDate"`
}

// Normalize trims the text fields and defaults the priority to low.
func (r *CreateWishRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	if r.Priority == 0 {
		r.Priority = PriorityLow
	}
}

func (r CreateWishRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrTitleRequired
	}
	if len([]rune(r.Title)) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if len([]rune(r.Description)) > MaxDescriptionLen {
		return ErrDescTooLong
	}
	if !r.Priority.Valid() {
		return ErrPriority
	}
	return nil
}

// UpdateWishRequest is the body of PUT /api/wishes/{id}. Nil fields are left untouched.
type UpdateWishRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Priority    *Priority  `json:"priority,omitempty"`
	Category    *string    `json:"category,omitempty"`
	DueDate     *LocalTime `json:"dueDate,omitempty"`
}

func (r UpdateWishRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Priority == nil &&
		r.Category == nil && r.DueDate == nil
}

func (r UpdateWishRequest) Validate() error {
	if r.Empty() {
		return ErrEmptyUpdate
	}
	if r.Title != nil {
		if strings.TrimSpace(*r.Title) == "" {
			return ErrTitleRequired
		}
		if len([]rune(*r.Title)) > MaxTitleLen {
			return ErrTitleTooLong
		}
	}
	if r.Description != nil && len([]rune(*r.Description)) > MaxDescriptionLen {
		return ErrDescTooLong
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return ErrPriority
	}
	return nil
}
