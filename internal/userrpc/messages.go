package userrpc

import (
	"google.golang.org/protobuf/types/known/structpb"
)

// User is the public view of an account.
type User struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"` // RFC 3339
}

type NewUser struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

type Credentials struct {
	Email    string
	Password string
}

// AuthResult carries a signed token when OK is true.
type AuthResult struct {
	OK    bool
	Token string
	User  User
}

func str(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func (u User) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"uid":        structpb.NewStringValue(u.UID),
		"email":      structpb.NewStringValue(u.Email),
		"full_name":  structpb.NewStringValue(u.FullName),
		"phone":      structpb.NewStringValue(u.Phone),
		"role":       structpb.NewStringValue(u.Role),
		"created_at": structpb.NewStringValue(u.CreatedAt),
	}}
}

func UserFromStruct(s *structpb.Struct) User {
	return User{
		UID:       str(s, "uid"),
		Email:     str(s, "email"),
		FullName:  str(s, "full_name"),
		Phone:     str(s, "phone"),
		Role:      str(s, "role"),
		CreatedAt: str(s, "created_at"),
	}
}

func (n NewUser) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"email":     structpb.NewStringValue(n.Email),
		"password":  structpb.NewStringValue(n.Password),
		"full_name": structpb.NewStringValue(n.FullName),
		"phone":     structpb.NewStringValue(n.Phone),
	}}
}

func NewUserFromStruct(s *structpb.Struct) NewUser {
	return NewUser{
		Email:    str(s, "email"),
		Password: str(s, "password"),
		FullName: str(s, "full_name"),
		Phone:    str(s, "phone"),
	}
}

func (c Credentials) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"email":    structpb.NewStringValue(c.Email),
		"password": structpb.NewStringValue(c.Password),
	}}
}

func CredentialsFromStruct(s *structpb.Struct) Credentials {
	return Credentials{Email: str(s, "email"), Password: str(s, "password")}
}

func (a AuthResult) Struct() *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"ok":    structpb.NewBoolValue(a.OK),
		"token": structpb.NewStringValue(a.Token),
		"user":  structpb.NewStructValue(a.User.Struct()),
	}}
}

func AuthResultFromStruct(s *structpb.Struct) AuthResult {
	if s == nil {
		return AuthResult{}
	}
	f := s.GetFields()
	return AuthResult{
		OK:    f["ok"].GetBoolValue(),
		Token: f["token"].GetStringValue(),
		User:  UserFromStruct(f["user"].GetStructValue()),
	}
}
