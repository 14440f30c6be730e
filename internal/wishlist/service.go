package wishlist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/wishlist/internal/api"
	"github.com/idilsaglam/wishlist/internal/cache"
	"github.com/idilsaglam/wishlist/internal/model"
)

const DefaultStale = 30 * time.Second

// API is the backend surface the list view needs; *api.WishAPI implements it.
type API interface {
	List(ctx context.Context, opt api.ListOptions) ([]model.Wish, error)
	Completed(ctx context.Context) ([]model.Wish, error)
	Pending(ctx context.Context) ([]model.Wish, error)
	ByCategory(ctx context.Context, category string) ([]model.Wish, error)
	Search(ctx context.Context, term string) ([]model.Wish, error)

	Get(ctx context.Context, id int64) (*model.Wish, error)
	Create(ctx context.Context, req model.CreateWishRequest) (*model.Wish, error)
	Update(ctx context.Context, id int64, req model.UpdateWishRequest) (*model.Wish, error)
	Complete(ctx context.Context, id int64) (*model.Wish, error)
	Delete(ctx context.Context, id int64) error
}

// Service loads raw lists through a read-through cache and drops the
// cached lists of the current user after every mutation.
type Service struct {
	api    API
	cache  cache.Cache
	stale  time.Duration
	tokens api.TokenSource
	log    logrus.FieldLogger
}

type Option func(*Service)

// WithCache enables caching; stale <= 0 means DefaultStale.
func WithCache(c cache.Cache, stale time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		if stale > 0 {
			s.stale = stale
		}
	}
}

// WithTokenSource scopes cache entries to the token's owner.
func WithTokenSource(ts api.TokenSource) Option { return func(s *Service) { s.tokens = ts } }

func WithLogger(l logrus.FieldLogger) Option { return func(s *Service) { s.log = l } }

func NewService(a API, opts ...Option) *Service {
	s := &Service{api: a, cache: cache.Nop{}, stale: DefaultStale, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "wishlist")
	return s
}

// namespace is the cache key prefix for the current user.
func (s *Service) namespace() string {
	tok := ""
	if s.tokens != nil {
		tok = s.tokens.Token()
	}
	sum := sha256.Sum256([]byte(tok))
	return "u:" + hex.EncodeToString(sum[:8]) + ":wishes"
}

// Load fetches the raw list for q. Local filters are applied by Apply.
func (s *Service) Load(ctx context.Context, q Query) ([]model.Wish, error) {
	key := s.namespace() + ":" + q.key()
	log := s.log.WithField("key", q.key())

	if b, ok, err := s.cache.Get(ctx, key); err != nil {
		log.WithError(err).Warn("cache get")
	} else if ok {
		var list []model.Wish
		if err := json.Unmarshal(b, &list); err == nil {
			log.Debug("cache hit")
			return list, nil
		}
	}

	list, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	// Degraded reads come back empty, so empty lists are not kept.
	if len(list) == 0 {
		return list, nil
	}
	if b, err := json.Marshal(list); err == nil {
		if err := s.cache.Set(ctx, key, b, s.stale); err != nil {
			log.WithError(err).Warn("cache set")
		}
	}
	return list, nil
}

func (s *Service) fetch(ctx context.Context, q Query) ([]model.Wish, error) {
	switch q.endpoint() {
	case endpointSearch:
		return s.api.Search(ctx, q.term())
	case endpointCategory:
		return s.api.ByCategory(ctx, q.Category)
	case endpointCompleted:
		return s.api.Completed(ctx)
	case endpointPending:
		return s.api.Pending(ctx)
	}
	return s.api.List(ctx, q.Page)
}

// Invalidate forgets every cached list of the current user.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, s.namespace()); err != nil {
		s.log.WithError(err).Warn("cache invalidate")
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*model.Wish, error) {
	return s.api.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req model.CreateWishRequest) (*model.Wish, error) {
	w, err := s.api.Create(ctx, req)
	if err == nil {
		s.Invalidate(ctx)
	}
	return w, err
}

func (s *Service) Update(ctx context.Context, id int64, req model.UpdateWishRequest) (*model.Wish, error) {
	w, err := s.api.Update(ctx, id, req)
	if err == nil {
		s.Invalidate(ctx)
	}
	return w, err
}

func (s *Service) Complete(ctx context.Context, id int64) (*model.Wish, error) {
	w, err := s.api.Complete(ctx, id)
	if err == nil {
		s.Invalidate(ctx)
	}
	return w, err
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.api.Delete(ctx, id)
	if err == nil {
		s.Invalidate(ctx)
	}
	return err
}
