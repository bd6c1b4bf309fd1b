package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jwalitptl/visit-logger/internal/model"
)

var ErrTokenInvalid = errors.New("token is invalid")

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type doctorClaims struct {
	jwt.RegisteredClaims
	DoctorID string `json:"doctorId"`
	Username string `json:"username"`
}

// JWTManager issues and validates doctor session tokens.
type JWTManager struct {
	cfg Config
	now func() time.Time
}

func NewJWTManager(cfg Config) *JWTManager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &JWTManager{cfg: cfg, now: time.Now}
}

func (m *JWTManager) Generate(doctor *model.Doctor) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.TTL)

	claims := doctorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   doctor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		DoctorID: doctor.ID,
		Username: doctor.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *JWTManager) Validate(tokenString string) (*model.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &doctorClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(m.cfg.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*doctorClaims)
	if !ok || !token.Valid || claims.DoctorID == "" {
		return nil, ErrTokenInvalid
	}

	return &model.TokenClaims{
		DoctorID:  claims.DoctorID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
