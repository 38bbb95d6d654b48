package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/you/homeauth/domain"
	"github.com/you/homeauth/internal/http/middleware"
	"github.com/you/homeauth/internal/mocks"
	"go.uber.org/zap"
)

func performRequest(h gin.HandlerFunc, method, path string, body interface{}, identity *domain.Identity) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		if identity != nil {
			c.Set(middleware.ContextIdentity, identity)
		}
		c.Next()
	}, h)

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestUserAuthHandlers_Login(t *testing.T) {
	alice := &domain.Identity{ID: "u1", Username: "alice", Role: domain.RoleUser, PasswordHash: "secret-hash"}

	tests := []struct {
		name            string
		body            interface{}
		loginFunc       func(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error)
		expectedStatus  int
		expectedMessage string
		validateData    func(t *testing.T, data map[string]interface{})
	}{
		{
			name: "successful login",
			body: LoginRequest{Identifier: "alice", Password: "Abcd123!"},
			loginFunc: func(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error) {
				if identifier != "alice" || password != "Abcd123!" {
					t.Errorf("unexpected credentials %q/%q", identifier, password)
				}
				if ip == "" {
					t.Error("expected client ip to be passed")
				}
				return &domain.AuthResult{Identity: alice, Tokens: &domain.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}}, nil
			},
			expectedStatus:  http.StatusOK,
			expectedMessage: "Login successful",
			validateData: func(t *testing.T, data map[string]interface{}) {
				if data["accessToken"] != "a" || data["refreshToken"] != "r" {
					t.Errorf("unexpected tokens %v", data)
				}
				user := data["user"].(map[string]interface{})
				if user["username"] != "alice" {
					t.Errorf("unexpected user %v", user)
				}
				if _, leaked := user["passwordHash"]; leaked {
					t.Error("password hash must never be exposed")
				}
			},
		},
		{
			name: "phone used as identifier",
			body: map[string]string{"phone": "+919012345678", "password": "Abcd123!"},
			loginFunc: func(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error) {
				return nil, domain.ErrInvalidCredentials
			},
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Invalid credentials",
		},
		{
			name:            "missing fields",
			body:            LoginRequest{Identifier: "alice"},
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "identifier and password are required",
		},
		{
			name:            "malformed body",
			body:            "{not json",
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "invalid request body",
		},
		{
			name: "locked account",
			body: LoginRequest{Identifier: "alice", Password: "Abcd123!"},
			loginFunc: func(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error) {
				return nil, &domain.LockedError{Remaining: 29 * time.Minute}
			},
			expectedStatus:  http.StatusLocked,
			expectedMessage: "Account locked. Try again in 29 minutes.",
		},
		{
			name: "store failure is hidden",
			body: LoginRequest{Identifier: "alice", Password: "Abcd123!"},
			loginFunc: func(ctx context.Context, identifier, password, ip string) (*domain.AuthResult, error) {
				return nil, errors.New("pq: relation users does not exist")
			},
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockUserAuthService()
			svc.LoginFunc = tt.loginFunc
			h := NewUserAuthHandlers(svc, zap.NewNop(), false)

			w, body := performRequest(h.Login, http.MethodPost, "/auth/login", tt.body, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, w.Code, w.Body.String())
			}
			if body["message"] != tt.expectedMessage {
				t.Errorf("expected message %q, got %v", tt.expectedMessage, body["message"])
			}
			if tt.validateData != nil {
				tt.validateData(t, body["data"].(map[string]interface{}))
			}
		})
	}
}

func TestUserAuthHandlers_ForgotPassword(t *testing.T) {
	tests := []struct {
		name        string
		debug       bool
		token       string
		expectDebug bool
	}{
		{"known email in development", true, "tok123", true},
		{"known email in production", false, "tok123", false},
		{"unknown email in development", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := mocks.NewMockUserAuthService()
			svc.ForgotPasswordFunc = func(ctx context.Context, email string) (*domain.PasswordResetTicket, error) {
				return &domain.PasswordResetTicket{Token: tt.token}, nil
			}
			h := NewUserAuthHandlers(svc, zap.NewNop(), tt.debug)

			w, body := performRequest(h.ForgotPassword, http.MethodPost, "/auth/forgot-password", ForgotPasswordRequest{Email: "a@example.com"}, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if body["message"] != "If an account exists with this email, a password reset link has been sent." {
				t.Errorf("unexpected message %v", body["message"])
			}
			if got := body["data"] != nil; got != tt.expectDebug {
				t.Errorf("expected debug data %v, got %v", tt.expectDebug, body["data"])
			}
		})
	}
}

func TestUserAuthHandlers_SessionRoutes(t *testing.T) {
	caller := &domain.Identity{ID: "u1", Username: "alice", Role: domain.RoleUser}
	svc := mocks.NewMockUserAuthService()
	var loggedOut []string
	svc.LogoutFunc = func(ctx context.Context, identityID string) error {
		loggedOut = append(loggedOut, identityID)
		return nil
	}
	svc.GetProfileFunc = func(ctx context.Context, identityID string) (*domain.Identity, error) {
		return caller, nil
	}
	svc.ChangePasswordFunc = func(ctx context.Context, identityID, currentPassword, newPassword string) error {
		return domain.ErrCurrentPasswordWrong
	}
	h := NewUserAuthHandlers(svc, zap.NewNop(), false)

	w, body := performRequest(h.Logout, http.MethodPost, "/auth/logout", nil, caller)
	if w.Code != http.StatusOK || body["message"] != "Logged out successfully" {
		t.Errorf("logout: %d %v", w.Code, body)
	}
	w, body = performRequest(h.LogoutAll, http.MethodPost, "/auth/logout-all", nil, caller)
	if w.Code != http.StatusOK || body["message"] != "Logged out from all devices" {
		t.Errorf("logout-all: %d %v", w.Code, body)
	}
	if len(loggedOut) != 2 || loggedOut[0] != "u1" {
		t.Errorf("unexpected logout calls %v", loggedOut)
	}

	w, body = performRequest(h.Me, http.MethodGet, "/auth/me", nil, caller)
	if w.Code != http.StatusOK {
		t.Fatalf("me: %d", w.Code)
	}
	if user := body["data"].(map[string]interface{})["user"].(map[string]interface{}); user["id"] != "u1" {
		t.Errorf("unexpected profile %v", user)
	}

	w, _ = performRequest(h.ChangePassword, http.MethodPost, "/auth/change-password",
		ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "Newpass1!"}, caller)
	if w.Code != http.StatusBadRequest {
		t.Errorf("change-password: expected 400, got %d", w.Code)
	}

	w, _ = performRequest(h.Me, http.MethodGet, "/auth/me", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("me without identity: expected 401, got %d", w.Code)
	}
}

func TestUserAuthHandlers_Register(t *testing.T) {
	svc := mocks.NewMockUserAuthService()
	svc.RegisterFunc = func(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
		if req.Username == "taken" {
			return nil, domain.ErrIdentityExists
		}
		return &domain.AuthResult{
			Identity: &domain.Identity{ID: "u2", Username: req.Username, Role: domain.RoleUser},
			Tokens:   &domain.TokenPair{AccessToken: "a", RefreshToken: "r"},
		}, nil
	}
	h := NewUserAuthHandlers(svc, zap.NewNop(), false)

	w, body := performRequest(h.Register, http.MethodPost, "/auth/register", RegisterRequest{Username: "bob", Password: "Abcd123!"}, nil)
	if w.Code != http.StatusOK || body["message"] != "Registration successful! You are now logged in." {
		t.Errorf("register: %d %v", w.Code, body)
	}

	w, _ = performRequest(h.Register, http.MethodPost, "/auth/register", RegisterRequest{Username: "taken", Password: "Abcd123!"}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", w.Code)
	}
}
