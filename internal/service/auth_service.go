package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/session"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LoginFailedMessage is shown to the user when credentials do not match.
const LoginFailedMessage = "用户名或密码错误"

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
	ErrInvalidToken         = errors.New("invalid token")
	ErrTokenExpired         = errors.New("token has expired")
	ErrSessionNotFound      = errors.New("session not found")
)

// AuthenticationError carries the user-facing reason for a failed login.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAuthenticationFailed, e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthenticationFailed
}

type AuthService interface {
	// Authenticate checks a username/password pair against the identity table.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	// Login authenticates, opens a session and signs a token for it.
	Login(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	// Logout ends the session sid.
	Logout(ctx context.Context, sid string) error
	// ResolveSession maps a token back to the live session identity.
	ResolveSession(ctx context.Context, token string) (user *domain.User, sid string, err error)
}

type identity struct {
	user         domain.User
	passwordHash []byte
}

// builtinIdentities is the fixed identity table. Passwords are hashed at
// construction and never kept in plain text afterwards.
var builtinIdentities = []struct {
	user     domain.User
	password string
}{
	{domain.User{ID: 1, Name: "管理员", Username: "admin", Role: domain.RoleAdmin}, "admin123"},
	{domain.User{ID: 2, Name: "审批人", Username: "approver", Role: domain.RoleApprover}, "approve123"},
	{domain.User{ID: 3, Name: "普通用户", Username: "user", Role: domain.RoleUser}, "user123"},
}

// authService implements the AuthService interface.
type authService struct {
	identities    []identity
	sessions      *session.Store
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(sessions *session.Store, jwtSecret string, jwtExpiration time.Duration) (AuthService, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 8 * time.Hour
	}

	identities := make([]identity, 0, len(builtinIdentities))
	for _, b := range builtinIdentities {
		hash, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", b.user.Username, err)
		}
		identities = append(identities, identity{user: b.user, passwordHash: hash})
	}

	return &authService{
		identities:    identities,
		sessions:      sessions,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}, nil
}

// Authenticate returns the identity whose username and password both match
// exactly. The returned User has no password material.
func (s *authService) Authenticate(_ context.Context, username, password string) (*domain.User, error) {
	for _, id := range s.identities {
		if id.user.Username != username {
			continue
		}
		if bcrypt.CompareHashAndPassword(id.passwordHash, []byte(password)) != nil {
			break
		}
		user := id.user
		return &user, nil
	}
	return nil, &AuthenticationError{Message: LoginFailedMessage}
}

// Login handles authentication, session creation and JWT generation. A
// failed login never touches existing sessions.
func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return "", nil, err
	}

	sid := uuid.NewString()
	if err := s.sessions.Set(ctx, sid, *user); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	token, err := s.generateJWT(user, sid)
	if err != nil {
		_ = s.sessions.Clear(ctx, sid)
		return "", nil, ErrTokenGeneration
	}
	return token, user, nil
}

// Logout removes the persisted identity for sid.
func (s *authService) Logout(ctx context.Context, sid string) error {
	return s.sessions.Clear(ctx, sid)
}

// ResolveSession validates the token and restores the identity stored for
// its session. A logged-out or unreadable session yields ErrSessionNotFound.
func (s *authService) ResolveSession(ctx context.Context, tokenString string) (*domain.User, string, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, "", ErrTokenExpired
		}
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" || claims.UserID == 0 {
		return nil, "", ErrInvalidToken
	}

	user := s.sessions.Restore(ctx, claims.SessionID)
	if user == nil {
		return nil, "", ErrSessionNotFound
	}
	if user.ID != claims.UserID {
		return nil, "", ErrInvalidToken
	}
	return user, claims.SessionID, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID    int         `json:"uid"`
	Role      domain.Role `json:"role"`
	SessionID string      `json:"sid"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user and session.
func (s *authService) generateJWT(user *domain.User, sid string) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        sid,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "material-approval",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
