package userrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Validator is the slice of the client the order service needs.
type Validator interface {
	ValidateUser(ctx context.Context, id string, opts ...grpc.CallOption) (bool, error)
}

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Dial creates a lazily connecting client; RPCs wait for the connection.
func Dial(addr string) (*Client, *grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.WaitForReady(true)),
	)
	if err != nil {
		return nil, nil, err
	}
	return NewClient(conn), conn, nil
}

func (c *Client) CreateUser(ctx context.Context, in NewUser, opts ...grpc.CallOption) (User, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("CreateUser"), in.Struct(), out, opts...); err != nil {
		return User{}, err
	}
	return UserFromStruct(out), nil
}

func (c *Client) AuthenticateUser(ctx context.Context, in Credentials, opts ...grpc.CallOption) (AuthResult, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("AuthenticateUser"), in.Struct(), out, opts...); err != nil {
		return AuthResult{}, err
	}
	return AuthResultFromStruct(out), nil
}

func (c *Client) GetUser(ctx context.Context, id string, opts ...grpc.CallOption) (User, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetUser"), wrapperspb.String(id), out, opts...); err != nil {
		return User{}, err
	}
	return UserFromStruct(out), nil
}

func (c *Client) ValidateUser(ctx context.Context, id string, opts ...grpc.CallOption) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, fullMethod("ValidateUser"), wrapperspb.String(id), out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
