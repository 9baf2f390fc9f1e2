package service

import (
	"context"

	"github.com/spec-kit/library-console/internal/api/dto"
	"github.com/spec-kit/library-console/internal/domain"
)

// AuthService is the remote side of sign-in: it exchanges credentials for a
// token and fetches the signed-in profile.
type AuthService struct {
	api    API
	mapper dto.Mapper
}

// NewAuthService builds the service.
func NewAuthService(deps Dependencies) *AuthService {
	return &AuthService{api: deps.API, mapper: deps.Mapper}
}

type authResponse struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Message string `json:"message"`
}

func (r authResponse) toDomain() domain.AuthResponse {
	return domain.AuthResponse{Token: r.Token, Role: domain.NormalizeRole(r.Role), Message: r.Message}
}

// Login posts credentials to /auth/login.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (domain.AuthResponse, error) {
	var resp authResponse
	if err := s.api.Post(ctx, "/auth/login", req, &resp); err != nil {
		return domain.AuthResponse{}, err
	}
	return resp.toDomain(), nil
}

// Register posts a new account to /auth/register.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (domain.AuthResponse, error) {
	var resp authResponse
	if err := s.api.Post(ctx, "/auth/register", req, &resp); err != nil {
		return domain.AuthResponse{}, err
	}
	return resp.toDomain(), nil
}

// Profile fetches the signed-in account from /users/me.
func (s *AuthService) Profile(ctx context.Context) (domain.User, error) {
	var raw dto.UserEnvelope
	if err := s.api.Get(ctx, "/users/me", nil, &raw); err != nil {
		return domain.User{}, err
	}
	return s.mapper.User(raw.Unwrap()), nil
}
