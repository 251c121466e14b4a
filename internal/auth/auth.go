package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"award-review/internal/config"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidRole  = errors.New("token carries an unknown role")
)

// JWTClaims represents the claims in a caller token
type JWTClaims struct {
	UserID  int64  `json:"user_id"`
	Role    string `json:"role"`
	UnitID  int64  `json:"unit_id"`
	CW2Type string `json:"cw2_type,omitempty"`
	jwt.RegisteredClaims
}

// Caller converts the claims into the identity the services work with.
func (c *JWTClaims) Caller() models.Caller {
	return models.Caller{
		UserID:  c.UserID,
		Role:    hierarchy.Parse(c.Role),
		UnitID:  c.UnitID,
		CW2Type: c.CW2Type,
	}
}

// Service validates caller tokens. Tokens are issued by the identity provider in
// front of this API; GenerateToken exists for development and tests.
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewService creates a new authentication service
func NewService(cfg *config.JWTConfig) *Service {
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: cfg.Expiration,
		now:        time.Now,
	}
}

// GenerateToken signs a token for caller
func (s *Service) GenerateToken(caller models.Caller) (string, error) {
	now := s.now()
	claims := JWTClaims{
		UserID:  caller.UserID,
		Role:    caller.Role.String(),
		UnitID:  caller.UnitID,
		CW2Type: caller.CW2Type,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(caller.UserID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a caller token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := hierarchy.Parse(claims.Role)
	if !role.InChain() && role != hierarchy.RoleHeadquarter && role != hierarchy.RoleCW2 {
		return nil, ErrInvalidRole
	}
	return claims, nil
}
