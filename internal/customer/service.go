package customer

import (
	"context"
	"errors"

	"bookpass/internal/auth"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Customer, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*Customer, string, string, error)
	GetByID(ctx context.Context, id int) (*Customer, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *Customer, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Customer, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	c, err := s.repo.Create(ctx, req.TenantID, req.Name, req.Email, req.Phone, passwordHash, "customer")
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(c.ID, c.TenantID, c.Email, c.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return c, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*Customer, string, string, error) {
	c, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(c.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(c.ID, c.TenantID, c.Email, c.Role, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return c, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*Customer, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *Customer, error) {
	newAccessToken, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	c, err := s.repo.FindByID(ctx, claims.CustomerID)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, c, nil
}
