package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/trustpass/trustpass/internal/model"
	"github.com/trustpass/trustpass/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
)

// JWTPrincipal is the admin identity carried by a validated session token.
type JWTPrincipal struct {
	AdminID int64
	Email   string
}

// AuthService authenticates admins and manages session tokens.
type AuthService struct {
	store     *store.Store
	jwtSecret []byte
}

func NewAuthService(st *store.Store, jwtSecret string) *AuthService {
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
	}
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(h), err
}

// Login verifies the email/password pair and returns the admin on success.
// Unknown emails and wrong passwords both come back as ErrInvalidCredentials
// so callers can't distinguish them.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Admin, error) {
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return admin, nil
}

// IssueJWT creates a new signed session token for the given admin.
func (s *AuthService) IssueJWT(ctx context.Context, adminID int64, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		AdminID: adminID,
		Email:   email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "trustpass",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateJWT verifies a session token and returns the admin identity.
func (s *AuthService) ValidateJWT(ctx context.Context, tokenStr string) (*JWTPrincipal, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return &JWTPrincipal{
		AdminID: claims.AdminID,
		Email:   claims.Email,
	}, nil
}

type jwtClaims struct {
	AdminID int64  `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}
