package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"alcyxob/material-approval/internal/domain"
	"alcyxob/material-approval/internal/kv"
	"alcyxob/material-approval/internal/session"

	"github.com/golang-jwt/jwt/v4"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantRole domain.Role
		wantErr  bool
	}{
		{name: "admin", username: "admin", password: "admin123", wantRole: domain.RoleAdmin},
		{name: "approver", username: "approver", password: "approve123", wantRole: domain.RoleApprover},
		{name: "user", username: "user", password: "user123", wantRole: domain.RoleUser},
		{name: "wrong password", username: "admin", password: "wrong", wantErr: true},
		{name: "other user's password", username: "admin", password: "user123", wantErr: true},
		{name: "case sensitive username", username: "Admin", password: "admin123", wantErr: true},
		{name: "case sensitive password", username: "admin", password: "ADMIN123", wantErr: true},
		{name: "unknown user", username: "nobody", password: "admin123", wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := f.auth.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrAuthenticationFailed) {
					t.Fatalf("err = %v, want ErrAuthenticationFailed", err)
				}
				var authErr *AuthenticationError
				if !errors.As(err, &authErr) || authErr.Message != LoginFailedMessage {
					t.Errorf("missing user-facing message: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate: %v", err)
			}
			if user.Username != tt.username || user.Role != tt.wantRole {
				t.Errorf("user = %+v", user)
			}
		})
	}
}

func TestAuthenticateStripsPassword(t *testing.T) {
	f := newFixture(t, nil)
	user, err := f.auth.Authenticate(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	want := domain.User{ID: 1, Name: "管理员", Username: "admin", Role: domain.RoleAdmin}
	if *user != want {
		t.Errorf("user = %+v, want %+v", *user, want)
	}

	raw, _ := json.Marshal(user)
	var fields map[string]any
	_ = json.Unmarshal(raw, &fields)
	if _, ok := fields["password"]; ok {
		t.Error("serialized identity contains a password")
	}
}

func TestLoginResolveLogout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	token, user, err := f.auth.Login(ctx, "approver", "approve123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Role != domain.RoleApprover {
		t.Errorf("role = %s", user.Role)
	}

	resolved, sid, err := f.auth.ResolveSession(ctx, token)
	if err != nil {
		t.Fatalf("ResolveSession: %v", err)
	}
	if *resolved != *user || sid == "" {
		t.Errorf("resolved = %+v sid=%q", resolved, sid)
	}

	if err := f.auth.Logout(ctx, sid); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, _, err := f.auth.ResolveSession(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("after logout err = %v, want ErrSessionNotFound", err)
	}
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	token, _, err := f.auth.Login(ctx, "user", "user123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "user", "nope"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("bad login err = %v", err)
	}
	if _, _, err := f.auth.ResolveSession(ctx, token); err != nil {
		t.Errorf("existing session lost after failed login: %v", err)
	}
}

func TestResolveSessionRejectsBadTokens(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	if _, _, err := f.auth.ResolveSession(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token err = %v, want ErrInvalidToken", err)
	}

	other, err := NewAuthService(session.NewStore(kv.NewMemoryStore(), quietLogger()), "other-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	foreign, _, err := other.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.auth.ResolveSession(ctx, foreign); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign token err = %v, want ErrInvalidToken", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID:    1,
		Role:      domain.RoleAdmin,
		SessionID: "sid",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, _ := expired.SignedString([]byte("test-secret"))
	if _, _, err := f.auth.ResolveSession(ctx, signed); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token err = %v, want ErrTokenExpired", err)
	}
}

func TestResolveSessionMalformedSlot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	token, _, err := f.auth.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}
	_, sid, err := f.auth.ResolveSession(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	_ = f.slots.Set(ctx, "user:"+sid, []byte("{corrupt"))

	if _, _, err := f.auth.ResolveSession(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	if _, err := NewAuthService(session.NewStore(kv.NewMemoryStore(), quietLogger()), "", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}
