package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/wishlist/internal/model"
)

// ListOptions are the paging parameters of GET /api/wishes. Zero values are not sent.
type ListOptions struct {
	Page      int
	Size      int
	SortBy    string
	Direction string // "asc" | "desc"
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Size > 0 {
		v.Set("size", strconv.Itoa(o.Size))
	}
	if o.SortBy != "" {
		v.Set("sortBy", o.SortBy)
	}
	if o.Direction != "" {
		v.Set("direction", o.Direction)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Encode is the query string without the leading "?".
func (o ListOptions) Encode() string { return strings.TrimPrefix(o.query(), "?") }

// WishAPI wraps /api/wishes.
//
// List and the mutations return errors to the caller. Completed, Pending,
// ByCategory and Search log failures and return an empty list so the list view
// stays usable.
type WishAPI struct {
	c   *Client
	log logrus.FieldLogger
}

func NewWishAPI(c *Client) *WishAPI {
	return &WishAPI{c: c, log: c.log.WithField("component", "wishes")}
}

// ListPage fetches GET /api/wishes and keeps the pagination metadata.
func (w *WishAPI) ListPage(ctx context.Context, opt ListOptions) (ListPayload, error) {
	b, err := w.c.do(ctx, http.MethodGet, PathWishes+opt.query(), nil)
	if err != nil {
		return ListPayload{}, err
	}
	p := DecodeList(b)
	w.logShape(PathWishes, p)
	return p, nil
}

func (w *WishAPI) List(ctx context.Context, opt ListOptions) ([]model.Wish, error) {
	p, err := w.ListPage(ctx, opt)
	if err != nil {
		return nil, err
	}
	return p.Wishes(), nil
}

func (w *WishAPI) Completed(ctx context.Context) ([]model.Wish, error) {
	return w.lenientList(ctx, PathCompleted), nil
}

func (w *WishAPI) Pending(ctx context.Context) ([]model.Wish, error) {
	return w.lenientList(ctx, PathPending), nil
}

// ByCategory falls back to List for a blank category; only that fallback can fail.
func (w *WishAPI) ByCategory(ctx context.Context, category string) ([]model.Wish, error) {
	if strings.TrimSpace(category) == "" {
		w.log.Debug("empty category, returning all wishes")
		return w.List(ctx, ListOptions{})
	}
	return w.lenientList(ctx, pathCategory(category)), nil
}

// Search falls back to List for a blank term; only that fallback can fail.
func (w *WishAPI) Search(ctx context.Context, term string) ([]model.Wish, error) {
	if strings.TrimSpace(term) == "" {
		w.log.Debug("empty search term, returning all wishes")
		return w.List(ctx, ListOptions{})
	}
	return w.lenientList(ctx, pathSearch(term)), nil
}

func (w *WishAPI) lenientList(ctx context.Context, path string) []model.Wish {
	b, err := w.c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		log := w.log.WithField("url", path).WithError(err)
		switch StatusOf(err) {
		case http.StatusNotFound:
			log.Info("nothing found, returning empty list")
		case http.StatusBadRequest:
			log.Warn("bad request, returning empty list")
		default:
			log.Warn("read failed, returning empty list")
		}
		return []model.Wish{}
	}
	p := DecodeList(b)
	w.logShape(path, p)
	return p.Wishes()
}

func (w *WishAPI) logShape(path string, p ListPayload) {
	log := w.log.WithFields(logrus.Fields{"url": path, "shape": p.Shape.String()})
	if p.Shape == ShapeUnknown {
		log.WithError(p.Err).Warn("response is not in expected format, using empty list")
		return
	}
	log.Debugf("found %d wishes", len(p.Items))
}

func (w *WishAPI) Get(ctx context.Context, id int64) (*model.Wish, error) {
	var out model.Wish
	if err := w.c.doJSON(ctx, http.MethodGet, pathWish(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create validates req locally before sending it.
func (w *WishAPI) Create(ctx context.Context, req model.CreateWishRequest) (*model.Wish, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.Wish
	if err := w.c.doJSON(ctx, http.MethodPost, PathWishes, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *WishAPI) Update(ctx context.Context, id int64, req model.UpdateWishRequest) (*model.Wish, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out model.Wish
	if err := w.c.doJSON(ctx, http.MethodPut, pathWish(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *WishAPI) Complete(ctx context.Context, id int64) (*model.Wish, error) {
	var out model.Wish
	if err := w.c.doJSON(ctx, http.MethodPatch, pathComplete(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *WishAPI) Delete(ctx context.Context, id int64) error {
	_, err := w.c.do(ctx, http.MethodDelete, pathWish(id), nil)
	return err
}
