package auth

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	tok, err := iss.Issue(Principal{UID: "u1", Email: "a@b.uz", Role: RoleBuyer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	p, err := iss.ParseBearer("Bearer " + tok)
	if err != nil {
		t.Fatalf("ParseBearer: %v", err)
	}
	if p.UID != "u1" || p.Email != "a@b.uz" || p.Role != RoleBuyer || p.IsAdmin() {
		t.Fatalf("principal mismatch: %+v", p)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	tok, _ := NewIssuer(testSecret, time.Hour).Issue(Principal{UID: "u1", Role: RoleAdmin})
	if _, err := NewIssuer("other", time.Hour).Parse(tok); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}

func TestParse_Expired(t *testing.T) {
	iss := NewIssuer(testSecret, time.Minute)
	past := time.Now().Add(-time.Hour)
	iss.now = func() time.Time { return past }
	tok, err := iss.Issue(Principal{UID: "u1", Role: RoleBuyer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := NewIssuer(testSecret, time.Minute).Parse(tok); err == nil {
		t.Fatalf("expected error for expired token")
	}
}

func TestParseBearer_Header(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	if _, err := iss.ParseBearer(""); err != ErrMissingToken {
		t.Fatalf("want ErrMissingToken, got %v", err)
	}
	if _, err := iss.ParseBearer("Basic abc"); err != ErrInvalidToken {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestParse_UnknownRole(t *testing.T) {
	c := jwt.MapClaims{"uid": "u1", "role": "drone"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewIssuer(testSecret, time.Hour).Parse(tok); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("empty context must not carry a principal")
	}
	ctx := WithPrincipal(context.Background(), &Principal{UID: "x", Role: RoleAdmin})
	p, ok := FromContext(ctx)
	if !ok || !p.IsAdmin() {
		t.Fatalf("principal lost: %+v", p)
	}
}
