package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/userrpc"
)

type stubRepo struct {
	mu      sync.Mutex
	byID    map[string]*User
	byEmail map[string]*User
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[string]*User{}, byEmail: map[string]*User{}}
}

func (s *stubRepo) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return ErrAlreadyExist
	}
	u.CreatedAt = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.byID[u.ID], s.byEmail[u.Email] = &cp, &cp
	return nil
}

func (s *stubRepo) GetByID(_ context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (s *stubRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func newService() (*Service, *auth.Issuer) {
	iss := auth.NewIssuer("test-secret", time.Hour)
	admins := func(email string) bool { return email == "boss@example.com" }
	return NewService(newStubRepo(), iss, admins, nil), iss
}

func create(t *testing.T, s *Service, email, pw string) userrpc.User {
	t.Helper()
	out, err := s.CreateUser(context.Background(),
		userrpc.NewUser{Email: email, Password: pw, FullName: "Test User", Phone: "+998901234567"}.Struct())
	require.NoError(t, err)
	return userrpc.UserFromStruct(out)
}

func TestCreateUser(t *testing.T) {
	s, _ := newService()
	u := create(t, s, "  Ali@Example.com ", "secret1")
	assert.NotEmpty(t, u.UID)
	assert.Equal(t, "ali@example.com", u.Email)
	assert.Equal(t, auth.RoleBuyer, u.Role)
	assert.Equal(t, "2024-01-02T03:04:05Z", u.CreatedAt)

	_, err := s.CreateUser(context.Background(),
		userrpc.NewUser{Email: "ali@example.com", Password: "secret1", FullName: "Dup"}.Struct())
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	bad := []userrpc.NewUser{
		{Email: "", Password: "secret1", FullName: "X"},
		{Email: "not-an-email", Password: "secret1", FullName: "X"},
		{Email: "x@example.com", Password: "123", FullName: "X"},
		{Email: "x@example.com", Password: "secret1", FullName: " "},
	}
	for _, n := range bad {
		_, err := s.CreateUser(context.Background(), n.Struct())
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "%+v", n)
	}
}

func TestAuthenticateUser_IssuesToken(t *testing.T) {
	s, iss := newService()
	u := create(t, s, "ali@example.com", "secret1")

	out, err := s.AuthenticateUser(context.Background(),
		userrpc.Credentials{Email: "ali@example.com", Password: "secret1"}.Struct())
	require.NoError(t, err)
	res := userrpc.AuthResultFromStruct(out)
	require.True(t, res.OK)
	assert.Equal(t, u.UID, res.User.UID)

	p, err := iss.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UID, p.UID)
	assert.Equal(t, auth.RoleBuyer, p.Role)

	out, err = s.AuthenticateUser(context.Background(),
		userrpc.Credentials{Email: "ali@example.com", Password: "wrong!"}.Struct())
	require.NoError(t, err)
	assert.False(t, userrpc.AuthResultFromStruct(out).OK)

	out, err = s.AuthenticateUser(context.Background(),
		userrpc.Credentials{Email: "nobody@example.com", Password: "secret1"}.Struct())
	require.NoError(t, err)
	assert.False(t, userrpc.AuthResultFromStruct(out).OK)
}

func TestAdminRoleFromConfiguredEmails(t *testing.T) {
	s, iss := newService()
	create(t, s, "boss@example.com", "secret1")

	out, err := s.AuthenticateUser(context.Background(),
		userrpc.Credentials{Email: "boss@example.com", Password: "secret1"}.Struct())
	require.NoError(t, err)
	res := userrpc.AuthResultFromStruct(out)
	assert.Equal(t, auth.RoleAdmin, res.User.Role)

	p, err := iss.Parse(res.Token)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
}

func TestGetAndValidateUser(t *testing.T) {
	s, _ := newService()
	u := create(t, s, "ali@example.com", "secret1")
	ctx := context.Background()

	out, err := s.GetUser(ctx, wrapperspb.String(u.UID))
	require.NoError(t, err)
	assert.Equal(t, "Test User", userrpc.UserFromStruct(out).FullName)

	_, err = s.GetUser(ctx, wrapperspb.String("missing"))
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = s.GetUser(ctx, wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	ok, err := s.ValidateUser(ctx, wrapperspb.String(u.UID))
	require.NoError(t, err)
	assert.True(t, ok.GetValue())

	ok, err = s.ValidateUser(ctx, wrapperspb.String("missing"))
	require.NoError(t, err)
	assert.False(t, ok.GetValue())
}

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", h)
	assert.True(t, CheckPassword(h, "secret1"))
	assert.False(t, CheckPassword(h, "secret2"))
}
