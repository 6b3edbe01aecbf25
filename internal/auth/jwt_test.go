package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateValidate(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	want := Principal{UserID: "u1", OrgID: "org-a", Role: RoleManager}

	token, err := m.Generate(want)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	got, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if got != want {
		t.Errorf("Validate() = %+v, want %+v", got, want)
	}
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	token, err := m.Generate(Principal{UserID: "u1", OrgID: "org-a", Role: RoleOwner})
	if err != nil {
		t.Fatal(err)
	}

	other := NewJWTManager("other-secret", time.Hour)
	expired := NewJWTManager("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	noOrg := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{UserID: "u1", Role: RoleAdmin})
	noOrgToken, err := noOrg.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		m     *JWTManager
		token string
	}{
		{"wrong secret", other, token},
		{"expired", expired, token},
		{"garbage", m, "not.a.token"},
		{"missing org", m, noOrgToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.m.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestGenerateRequiresPrincipal(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	for _, p := range []Principal{
		{OrgID: "org-a", Role: RoleAdmin},
		{UserID: "u1", Role: RoleAdmin},
		{UserID: "u1", OrgID: "org-a", Role: "guest"},
	} {
		if _, err := m.Generate(p); err == nil {
			t.Errorf("Generate(%+v) succeeded", p)
		}
	}
}

func TestRoles(t *testing.T) {
	if !RoleAdmin.CanApprove() || !RoleManager.CanApprove() || RoleOwner.CanApprove() {
		t.Error("unexpected approval rights")
	}
}
