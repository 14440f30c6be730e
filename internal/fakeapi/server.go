// Package fakeapi is an in-memory Wishlist backend speaking the same REST
// contract as the real one. It backs the test suites and `wishmock`.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/idilsaglam/wishlist/internal/model"
)

// Shape selects how list endpoints encode their payload.
type Shape string

const (
	ShapeArray   Shape = "array"
	ShapeWishes  Shape = "wishes"
	ShapeContent Shape = "content"
	ShapeBogus   Shape = "bogus" // an object without any list field
)

// Request is what the server saw, for assertions.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	RequestID     string
}

type user struct {
	model.User
	password string
}

type wishRecord struct {
	model.Wish
	owner string
}

type failure struct {
	status int
	body   string
}

type Server struct {
	mu       sync.Mutex
	users    map[string]*user
	wishes   map[int64]*wishRecord
	nextUser int64
	nextWish int64
	secret   []byte
	tokenTTL time.Duration
	shape    Shape
	failures map[string]failure // "METHOD /path" -> canned error
	requests []Request
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Server)

func WithShape(s Shape) Option { return func(srv *Server) { srv.shape = s } }

func WithSecret(secret string) Option { return func(srv *Server) { srv.secret = []byte(secret) } }

func WithTokenTTL(d time.Duration) Option { return func(srv *Server) { srv.tokenTTL = d } }

func WithLogger(l logrus.FieldLogger) Option { return func(srv *Server) { srv.log = l } }

func New(opts ...Option) *Server {
	s := &Server{
		users:    map[string]*user{},
		wishes:   map[int64]*wishRecord{},
		secret:   []byte("wishmock-secret"),
		tokenTTL: 24 * time.Hour,
		shape:    ShapeArray,
		failures: map[string]failure{},
		log:      logrus.StandardLogger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetShape switches the list encoding at runtime.
func (s *Server) SetShape(shape Shape) {
	s.mu.Lock()
	s.shape = shape
	s.mu.Unlock()
}

// Fail makes the next requests to method+path answer status until Clear.
// path is matched without the query string.
func (s *Server) Fail(method, path string, status int, message string) {
	b, _ := json.Marshal(map[string]any{
		"status":  status,
		"error":   http.StatusText(status),
		"message": message,
		"path":    path,
	})
	s.mu.Lock()
	s.failures[method+" "+path] = failure{status: status, body: string(b)}
	s.mu.Unlock()
}

func (s *Server) Clear() {
	s.mu.Lock()
	s.failures = map[string]failure{}
	s.mu.Unlock()
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// AddUser registers an account directly.
func (s *Server) AddUser(username, email, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password)
}

func (s *Server) addUserLocked(username, email, password string) model.User {
	s.nextUser++
	u := &user{User: model.User{ID: s.nextUser, Username: username, Email: email}, password: password}
	s.users[username] = u
	return u.User
}

// AddWish stores w for owner and returns it with its id.
func (s *Server) AddWish(owner string, w model.Wish) model.Wish {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextWish++
	w.ID = s.nextWish
	if w.Priority == 0 {
		w.Priority = model.PriorityLow
	}
	now := model.NewLocalTime(s.now().Truncate(time.Second))
	w.CreatedAt, w.UpdatedAt = now, now
	s.wishes[w.ID] = &wishRecord{Wish: w, owner: owner}
	return w
}

// Token issues a token for username as the login endpoint would.
func (s *Server) Token(username string) (string, error) {
	s.mu.Lock()
	u, ok := s.users[username]
	s.mu.Unlock()
	if !ok {
		return "", jwt.ErrTokenInvalidSubject
	}
	return s.sign(u.User)
}

func (s *Server) sign(u model.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":    u.Username,
		"userId": u.ID,
		"iat":    now.Unix(),
		"exp":    now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) Handler() http.Handler {
	r := httprouter.New()
	r.POST("/api/auth/login", s.login)
	r.POST("/api/auth/signup", s.signup)
	r.GET("/api/auth/me", s.authed(s.me))

	r.GET("/api/wishes", s.authed(s.list))
	r.POST("/api/wishes", s.authed(s.create))
	// httprouter cannot mix static and wildcard segments at one level, so
	// completed/pending/search and category/:name are dispatched by hand.
	r.GET("/api/wishes/:id", s.authed(s.getOne))
	r.GET("/api/wishes/:id/:name", s.authed(s.byCategory))
	r.PUT("/api/wishes/:id", s.authed(s.update))
	r.DELETE("/api/wishes/:id", s.authed(s.remove))
	r.PATCH("/api/wishes/:id/complete", s.authed(s.complete))

	return s.record(r)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("wishmock request")
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxHandle func(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user)

func (s *Server) authed(h ctxHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			writeError(w, r, http.StatusUnauthorized, "Full authentication is required to access this resource")
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, _ := claims.GetSubject()
		s.mu.Lock()
		u, ok := s.users[sub]
		s.mu.Unlock()
		if !ok {
			writeError(w, r, http.StatusUnauthorized, "unknown user")
			return
		}
		h(w, r, p, u)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed body")
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		writeError(w, r, http.StatusUnauthorized, "Bad credentials")
		return
	}
	tok, err := s.sign(u.User)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.AuthResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		UserID:      u.ID,
		Username:    u.Username,
	})
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed body")
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Password) == "" {
		writeError(w, r, http.StatusBadRequest, "Username and password are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[req.Username]; taken {
		writeError(w, r, http.StatusBadRequest, "Username is already taken!")
		return
	}
	s.addUserLocked(req.Username, req.Email, req.Password)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, _ httprouter.Params, u *user) {
	writeJSON(w, http.StatusOK, u.User)
}

// owned returns the user's wishes, newest first like the backend's createdAt desc.
func (s *Server) owned(username string, keep func(model.Wish) bool) []model.Wish {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Wish{}
	for _, rec := range s.wishes {
		if rec.owner == username && (keep == nil || keep(rec.Wish)) {
			out = append(out, rec.Wish)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, _ httprouter.Params, u *user) {
	all := s.owned(u.Username, nil)
	page, size := 0, len(all)
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v >= 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v > 0 {
		size = v
	}
	if r.URL.Query().Get("direction") == "asc" {
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	}
	items := all
	totalPages := 1
	if size > 0 {
		totalPages = (len(all) + size - 1) / size
		from := page * size
		if from > len(all) {
			from = len(all)
		}
		to := from + size
		if to > len(all) {
			to = len(all)
		}
		items = all[from:to]
	}
	s.writeList(w, items, len(all), totalPages, page)
}

func (s *Server) writeList(w http.ResponseWriter, items []model.Wish, total, pages, page int) {
	s.mu.Lock()
	shape := s.shape
	s.mu.Unlock()
	switch shape {
	case ShapeWishes:
		writeJSON(w, http.StatusOK, map[string]any{
			"wishes": items, "totalItems": total, "totalPages": pages, "currentPage": page,
		})
	case ShapeContent:
		writeJSON(w, http.StatusOK, map[string]any{
			"content": items, "totalElements": total, "totalPages": pages, "number": page,
		})
	case ShapeBogus:
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": total})
	default:
		writeJSON(w, http.StatusOK, items)
	}
}

func (s *Server) getOne(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user) {
	switch p.ByName("id") {
	case "completed":
		items := s.owned(u.Username, func(x model.Wish) bool { return x.Completed })
		s.writeList(w, items, len(items), 1, 0)
		return
	case "pending":
		items := s.owned(u.Username, func(x model.Wish) bool { return !x.Completed })
		s.writeList(w, items, len(items), 1, 0)
		return
	case "search":
		term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("term")))
		if term == "" {
			writeError(w, r, http.StatusBadRequest, "Required request parameter 'term' is not present")
			return
		}
		items := s.owned(u.Username, func(x model.Wish) bool {
			return strings.Contains(strings.ToLower(x.Title), term) ||
				strings.Contains(strings.ToLower(x.Description), term)
		})
		s.writeList(w, items, len(items), 1, 0)
		return
	}
	rec, ok := s.find(w, r, p, u)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) byCategory(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user) {
	if p.ByName("id") != "category" {
		writeError(w, r, http.StatusNotFound, "Not Found")
		return
	}
	category := p.ByName("name")
	items := s.owned(u.Username, func(x model.Wish) bool { return x.Category == category })
	s.writeList(w, items, len(items), 1, 0)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params, u *user) {
	var req model.CreateWishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	wish := s.AddWish(u.Username, model.Wish{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate,
	})
	writeJSON(w, http.StatusCreated, wish)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user) {
	var req model.UpdateWishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed body")
		return
	}
	if _, ok := s.find(w, r, p, u); !ok {
		return
	}
	id, _ := strconv.ParseInt(p.ByName("id"), 10, 64)
	s.mu.Lock()
	rec := s.wishes[id]
	if req.Title != nil {
		rec.Title = *req.Title
	}
	if req.Description != nil {
		rec.Description = *req.Description
	}
	if req.Priority != nil {
		rec.Priority = *req.Priority
	}
	if req.Category != nil {
		rec.Category = *req.Category
	}
	if req.DueDate != nil {
		rec.DueDate = req.DueDate
	}
	rec.UpdatedAt = model.NewLocalTime(s.now().Truncate(time.Second))
	out := rec.Wish
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) complete(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user) {
	if _, ok := s.find(w, r, p, u); !ok {
		return
	}
	id, _ := strconv.ParseInt(p.ByName("id"), 10, 64)
	s.mu.Lock()
	rec := s.wishes[id]
	rec.Completed = true
	rec.CompletedAt = model.NewLocalTime(s.now().Truncate(time.Second))
	out := rec.Wish
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user) {
	if _, ok := s.find(w, r, p, u); !ok {
		return
	}
	id, _ := strconv.ParseInt(p.ByName("id"), 10, 64)
	s.mu.Lock()
	delete(s.wishes, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// find resolves :id for u and writes 404/403 itself when it fails.
func (s *Server) find(w http.ResponseWriter, r *http.Request, p httprouter.Params, u *user) (model.Wish, bool) {
	id, err := strconv.ParseInt(p.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid wish id")
		return model.Wish{}, false
	}
	s.mu.Lock()
	rec, ok := s.wishes[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, r, http.StatusNotFound, "Wish not found with id: "+p.ByName("id"))
		return model.Wish{}, false
	}
	if rec.owner != u.Username {
		writeError(w, r, http.StatusForbidden, "You don't have permission to access this wish")
		return model.Wish{}, false
	}
	return rec.Wish, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]any{
		"timestamp": time.Now().Format(model.LocalTimeLayout),
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"path":      r.URL.Path,
	})
}
