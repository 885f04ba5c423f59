package repository

import (
	"context"
	"errors"

	"techdocs/internal/auth/model"
	"techdocs/pkg/apiclient"
)

type AuthRepository struct {
	API *apiclient.Client
}

func NewAuthRepository(api *apiclient.Client) *AuthRepository {
	return &AuthRepository{API: api}
}

func (r *AuthRepository) Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := r.API.Post(ctx, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	return &resp, nil
}

func (r *AuthRepository) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := r.API.Post(ctx, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("register response carried no token")
	}
	return &resp, nil
}
