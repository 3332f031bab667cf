package userrpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type fakeServer struct {
	users map[string]User
	seen  []string
}

func (f *fakeServer) CreateUser(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	n := NewUserFromStruct(in)
	u := User{UID: "u-" + n.Email, Email: n.Email, FullName: n.FullName, Phone: n.Phone, Role: "buyer"}
	f.users[u.UID] = u
	return u.Struct(), nil
}

func (f *fakeServer) AuthenticateUser(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	c := CredentialsFromStruct(in)
	if c.Password != "secret" {
		return AuthResult{}.Struct(), nil
	}
	return AuthResult{OK: true, Token: "tok", User: User{UID: "u1", Email: c.Email}}.Struct(), nil
}

func (f *fakeServer) GetUser(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	u, ok := f.users[in.GetValue()]
	if !ok {
		return nil, status.Error(codes.NotFound, "user not found")
	}
	return u.Struct(), nil
}

func (f *fakeServer) ValidateUser(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	_, ok := f.users[in.GetValue()]
	return wrapperspb.Bool(ok), nil
}

func startServer(t *testing.T, srv *fakeServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (interface{}, error) {
		srv.seen = append(srv.seen, info.FullMethod)
		return h(ctx, req)
	}))
	Register(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestClientServerRoundTrip(t *testing.T) {
	srv := &fakeServer{users: map[string]User{}}
	c := startServer(t, srv)
	ctx := context.Background()

	u, err := c.CreateUser(ctx, NewUser{Email: "a@b.uz", Password: "secret", FullName: "Ali", Phone: "+998901234567"})
	require.NoError(t, err)
	assert.Equal(t, "u-a@b.uz", u.UID)
	assert.Equal(t, "Ali", u.FullName)

	got, err := c.GetUser(ctx, u.UID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	ok, err := c.ValidateUser(ctx, u.UID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidateUser(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := c.AuthenticateUser(ctx, Credentials{Email: "a@b.uz", Password: "secret"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "u1", res.User.UID)

	assert.Contains(t, srv.seen, "/"+ServiceName+"/ValidateUser")
}

func TestGetUser_PropagatesStatus(t *testing.T) {
	c := startServer(t, &fakeServer{users: map[string]User{}})
	_, err := c.GetUser(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
