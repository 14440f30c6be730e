package api

import (
	"context"
	"net/http"

	"github.com/idilsaglam/wishlist/internal/model"
)

// AuthAPI wraps the /api/auth endpoints. Every error goes back to the caller.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

func (a *AuthAPI) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	var out model.AuthResponse
	if err := a.c.doJSON(ctx, http.MethodPost, PathLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account; the backend answers without a body.
func (a *AuthAPI) Register(ctx context.Context, req model.RegisterRequest) error {
	_, err := a.c.do(ctx, http.MethodPost, PathRegister, req)
	return err
}

func (a *AuthAPI) CurrentUser(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := a.c.doJSON(ctx, http.MethodGet, PathMe, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
