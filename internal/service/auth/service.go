package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/visit-logger/internal/model"
	"github.com/jwalitptl/visit-logger/internal/repository"
	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
	"github.com/jwalitptl/visit-logger/pkg/security"
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 15 * time.Minute
)

// TokenManager issues and checks session tokens.
type TokenManager interface {
	Generate(doctor *model.Doctor) (string, time.Time, error)
	Validate(token string) (*model.TokenClaims, error)
}

type Config struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

type Service struct {
	doctors  repository.DoctorRepository
	tokens   TokenManager
	hasher   security.PasswordHasher
	metrics  *metrics.Metrics
	failures *cache.Cache
	cfg      Config
}

func NewService(doctors repository.DoctorRepository, tokens TokenManager, hasher security.PasswordHasher, m *metrics.Metrics, cfg Config) *Service {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = defaultLockoutDuration
	}
	return &Service{
		doctors:  doctors,
		tokens:   tokens,
		hasher:   hasher,
		metrics:  m,
		failures: cache.New(cfg.LockoutDuration, 2*cfg.LockoutDuration),
		cfg:      cfg,
	}
}

func (s *Service) locked(username string) bool {
	n, ok := s.failures.Get(username)
	return ok && n.(int) >= s.cfg.MaxLoginAttempts
}

// recordFailure counts a failed attempt. The window restarts on every failure.
func (s *Service) recordFailure(username string) {
	n := 0
	if v, ok := s.failures.Get(username); ok {
		n = v.(int)
	}
	s.failures.Set(username, n+1, s.cfg.LockoutDuration)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, apperrors.BadRequest("username and password are required", nil)
	}

	if s.locked(username) {
		s.metrics.ObserveLogin("locked")
		return nil, apperrors.TooManyRequests("too many failed login attempts")
	}

	doctor, err := s.doctors.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal(err)
	}
	if doctor == nil || s.hasher.Compare(doctor.PasswordHash, req.Password) != nil {
		s.recordFailure(username)
		s.metrics.ObserveLogin("failure")
		log.Info().Str("username", username).Msg("login failed")
		return nil, apperrors.Unauthorized("Invalid credentials", model.ErrInvalidCredentials)
	}

	token, _, err := s.tokens.Generate(doctor)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	s.failures.Delete(username)
	s.metrics.ObserveLogin("success")
	return &model.LoginResponse{Token: token, User: doctor.UserInfo()}, nil
}

// ValidateToken resolves a bearer token to its claims.
func (s *Service) ValidateToken(_ context.Context, token string) (*model.TokenClaims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, model.ErrTokenExpired) {
			return nil, apperrors.Unauthorized("Token expired", err)
		}
		return nil, apperrors.Unauthorized("Invalid token", err)
	}
	return claims, nil
}
