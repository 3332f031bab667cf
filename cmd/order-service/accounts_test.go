package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/userrpc"
)

// memAccounts stands in for user-service.
type memAccounts struct {
	users    map[string]userrpc.User // by email
	password map[string]string
	down     bool
}

func newMemAccounts() *memAccounts {
	return &memAccounts{users: map[string]userrpc.User{}, password: map[string]string{}}
}

func (m *memAccounts) CreateUser(_ context.Context, in userrpc.NewUser, _ ...grpc.CallOption) (userrpc.User, error) {
	if m.down {
		return userrpc.User{}, status.Error(codes.Unavailable, "connection refused")
	}
	if in.Email == "" || in.Password == "" || in.FullName == "" {
		return userrpc.User{}, status.Error(codes.InvalidArgument, "email, password and full_name are required")
	}
	if _, ok := m.users[in.Email]; ok {
		return userrpc.User{}, status.Error(codes.AlreadyExists, "user exists (email)")
	}
	u := userrpc.User{UID: "u-" + in.Email, Email: in.Email, FullName: in.FullName, Role: auth.RoleBuyer}
	m.users[in.Email] = u
	m.password[in.Email] = in.Password
	return u, nil
}

func (m *memAccounts) AuthenticateUser(_ context.Context, in userrpc.Credentials, _ ...grpc.CallOption) (userrpc.AuthResult, error) {
	u, ok := m.users[in.Email]
	if !ok || m.password[in.Email] != in.Password {
		return userrpc.AuthResult{}, nil
	}
	tok, err := tokens.Issue(auth.Principal{UID: u.UID, Email: u.Email, Role: u.Role})
	if err != nil {
		return userrpc.AuthResult{}, status.Error(codes.Internal, err.Error())
	}
	return userrpc.AuthResult{OK: true, Token: tok, User: u}, nil
}

func (m *memAccounts) GetUser(_ context.Context, id string, _ ...grpc.CallOption) (userrpc.User, error) {
	for _, u := range m.users {
		if u.UID == id {
			return u, nil
		}
	}
	return userrpc.User{}, status.Error(codes.NotFound, "user not found")
}

func newAuthRouter(users accounts) *harness {
	r := gin.New()
	authRoutes(r, users, tokens)
	return &harness{r: r}
}

func TestRegisterLoginMe(t *testing.T) {
	h := newAuthRouter(newMemAccounts())

	w := h.do(http.MethodPost, "/auth/register", "", `{"email":"aziz@example.com","password":"secret123","fullName":"Aziz"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := h.do(http.MethodPost, "/auth/register", "", `{"email":"aziz@example.com","password":"secret123","fullName":"Aziz"}`); w.Code != http.StatusConflict {
		t.Fatalf("want 409 for duplicate email, got %d", w.Code)
	}

	w = h.do(http.MethodPost, "/auth/login", "", `{"email":" Aziz@Example.com ","password":"secret123"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: status=%d body=%s", w.Code, w.Body.String())
	}
	var got loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Token == "" || got.User.Email != "aziz@example.com" {
		t.Fatalf("unexpected login response: %+v", got)
	}

	w = h.do(http.MethodGet, "/auth/me", got.Token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: status=%d body=%s", w.Code, w.Body.String())
	}
	var me userrpc.User
	_ = json.Unmarshal(w.Body.Bytes(), &me)
	if me.UID != got.User.UID || me.FullName != "Aziz" {
		t.Fatalf("unexpected profile: %+v", me)
	}
}

func TestLogin_Rejections(t *testing.T) {
	h := newAuthRouter(newMemAccounts())
	h.do(http.MethodPost, "/auth/register", "", `{"email":"aziz@example.com","password":"secret123","fullName":"Aziz"}`)

	if w := h.do(http.MethodPost, "/auth/login", "", `{"email":"aziz@example.com","password":"wrong"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 for wrong password, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/auth/login", "", `{"email":"aziz@example.com"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for missing password, got %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/auth/register", "", `{"email":"x@example.com","password":"secret123"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400 for missing fullName, got %d", w.Code)
	}
	if w := h.do(http.MethodGet, "/auth/me", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401 without token, got %d", w.Code)
	}
}

func TestRegister_UserServiceDown(t *testing.T) {
	users := newMemAccounts()
	users.down = true
	h := newAuthRouter(users)

	w := h.do(http.MethodPost, "/auth/register", "", `{"email":"aziz@example.com","password":"secret123","fullName":"Aziz"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d body=%s", w.Code, w.Body.String())
	}
}
