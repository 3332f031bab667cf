package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/userrpc"
)

const minPasswordLen = 6

// TokenIssuer is satisfied by *auth.Issuer.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, error)
}

// Service implements userrpc.Server.
type Service struct {
	repo    Repository
	tokens  TokenIssuer
	isAdmin func(email string) bool
	log     *zap.Logger
}

var _ userrpc.Server = (*Service)(nil)

func NewService(repo Repository, tokens TokenIssuer, isAdmin func(string) bool, log *zap.Logger) *Service {
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, tokens: tokens, isAdmin: isAdmin, log: log}
}

func (s *Service) role(email string) string {
	if s.isAdmin(email) {
		return auth.RoleAdmin
	}
	return auth.RoleBuyer
}

func (s *Service) toRPC(u *User) userrpc.User {
	return userrpc.User{
		UID:       u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      s.role(u.Email),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// CreateUser
func (s *Service) CreateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := userrpc.NewUserFromStruct(in)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return nil, status.Error(codes.InvalidArgument, "email, password and full_name are required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid email")
	}
	if len(req.Password) < minPasswordLen {
		return nil, status.Errorf(codes.InvalidArgument, "password must be at least %d characters", minPasswordLen)
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "hash error: %v", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, status.Error(codes.AlreadyExists, "user exists (email)")
		}
		s.log.Error("create user failed", zap.String("email", u.Email), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "create error: %v", err)
	}
	return s.toRPC(u).Struct(), nil
}

// AuthenticateUser checks credentials and returns a signed token. Wrong
// credentials are a normal response with ok=false, not an error.
func (s *Service) AuthenticateUser(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c := userrpc.CredentialsFromStruct(in)
	if c.Email == "" || c.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, c.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return userrpc.AuthResult{}.Struct(), nil
		}
		return nil, status.Errorf(codes.Internal, "auth error: %v", err)
	}
	if !CheckPassword(u.PasswordHash, c.Password) {
		return userrpc.AuthResult{}.Struct(), nil
	}
	pub := s.toRPC(u)
	token, err := s.tokens.Issue(auth.Principal{UID: u.ID, Email: u.Email, Role: pub.Role})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "token error: %v", err)
	}
	return userrpc.AuthResult{OK: true, Token: token, User: pub}.Struct(), nil
}

// GetUser
func (s *Service) GetUser(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	u, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		return nil, status.Errorf(codes.Internal, "get error: %v", err)
	}
	return s.toRPC(u).Struct(), nil
}

// ValidateUser (exists by ID)
func (s *Service) ValidateUser(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	_, err := s.repo.GetByID(ctx, in.GetValue())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return wrapperspb.Bool(false), nil
		}
		return nil, status.Errorf(codes.Internal, "validate error: %v", err)
	}
	return wrapperspb.Bool(true), nil
}
