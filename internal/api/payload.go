package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/idilsaglam/wishlist/internal/model"
)

// Shape tags which of the list encodings the backend used.
type Shape int

const (
	ShapeUnknown Shape = iota // anything else; yields an empty list
	ShapeArray                // [ {...}, ... ]
	ShapeWishes               // { "wishes": [...], "totalItems": n, ... }
	ShapeContent              // { "content": [...], "totalElements": n, ... } (page envelope)
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeWishes:
		return "wishes"
	case ShapeContent:
		return "content"
	default:
		return "unknown"
	}
}

// ListPayload is a decoded list response.
type ListPayload struct {
	Shape       Shape
	Items       []model.Wish
	TotalItems  *int64
	TotalPages  *int
	CurrentPage *int
	Err         error // why the shape is unknown, for logging
}

// Wishes returns the contained list, never nil.
func (p ListPayload) Wishes() []model.Wish {
	switch p.Shape {
	case ShapeArray, ShapeWishes, ShapeContent:
		if p.Items == nil {
			return []model.Wish{}
		}
		return p.Items
	case ShapeUnknown:
		return []model.Wish{}
	}
	panic(fmt.Sprintf("api: unhandled list shape %d", p.Shape))
}

type envelope struct {
	Wishes        json.RawMessage `json:"wishes"`
	Content       json.RawMessage `json:"content"`
	TotalItems    *int64          `json:"totalItems"`
	TotalElements *int64          `json:"totalElements"`
	TotalPages    *int            `json:"totalPages"`
	CurrentPage   *int            `json:"currentPage"`
	Number        *int            `json:"number"`
}

var errNotList = errors.New("response is not a list or a list envelope")

// DecodeList turns any response body into a ListPayload. It never fails: bodies
// it cannot read come back as ShapeUnknown with Err set.
func DecodeList(body []byte) ListPayload {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ListPayload{Err: errNotList}
	}
	switch body[0] {
	case '[':
		var items []model.Wish
		if err := json.Unmarshal(body, &items); err != nil {
			return ListPayload{Err: fmt.Errorf("decode array: %w", err)}
		}
		return ListPayload{Shape: ShapeArray, Items: items}
	case '{':
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			// metadata of an odd type; retry for the lists only
			var lists struct {
				Wishes  json.RawMessage `json:"wishes"`
				Content json.RawMessage `json:"content"`
			}
			if err2 := json.Unmarshal(body, &lists); err2 != nil {
				return ListPayload{Err: fmt.Errorf("decode object: %w", err)}
			}
			env = envelope{Wishes: lists.Wishes, Content: lists.Content}
		}
		p := ListPayload{TotalPages: env.TotalPages, TotalItems: env.TotalItems, CurrentPage: env.CurrentPage}
		if p.TotalItems == nil {
			p.TotalItems = env.TotalElements
		}
		if p.CurrentPage == nil {
			p.CurrentPage = env.Number
		}
		if isArray(env.Wishes) {
			if err := json.Unmarshal(env.Wishes, &p.Items); err != nil {
				return ListPayload{Err: fmt.Errorf("decode wishes: %w", err)}
			}
			p.Shape = ShapeWishes
			return p
		}
		if isArray(env.Content) {
			if err := json.Unmarshal(env.Content, &p.Items); err != nil {
				return ListPayload{Err: fmt.Errorf("decode content: %w", err)}
			}
			p.Shape = ShapeContent
			return p
		}
		return ListPayload{Err: errNotList}
	}
	return ListPayload{Err: errNotList}
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
