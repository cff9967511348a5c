package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, now time.Time, mutate func(b *jwt.Builder)) jwt.Token {
	t.Helper()
	b := jwt.NewBuilder().
		Issuer("dukaan").
		Audience([]string{"dukaan-app"}).
		Subject("user-1").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute)).
		Claim(roleClaim, "customer")
	if mutate != nil {
		mutate(b)
	}
	token, err := b.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return token
}

func TestTokenValidatorValidateSuccess(t *testing.T) {
	now := time.Now()
	token := buildToken(t, now, nil)

	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", ClockSkew: time.Second, Algorithm: jwa.HS256, RequireRole: true}
	if err := validator.Validate(token, jwa.HS256, now); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTokenValidatorRoleClaims(t *testing.T) {
	now := time.Now()
	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", Algorithm: jwa.HS256, RequireRole: true}

	for _, role := range []string{"customer", "vendor", "courier"} {
		token := buildToken(t, now, func(b *jwt.Builder) { b.Claim(roleClaim, role) })
		if err := validator.Validate(token, jwa.HS256, now); err != nil {
			t.Fatalf("role %s rejected: %v", role, err)
		}
	}

	token := buildToken(t, now, func(b *jwt.Builder) { b.Claim(roleClaim, "admin") })
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
}

func TestTokenValidatorMissingRole(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer("dukaan").
		Audience([]string{"dukaan-app"}).
		Subject("user-1").
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(time.Minute)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}

	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", Algorithm: jwa.HS256, RequireRole: true}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected missing role claim to be rejected")
	}

	validator.RequireRole = false
	if err := validator.Validate(token, jwa.HS256, now); err != nil {
		t.Fatalf("role claim should be optional when not required: %v", err)
	}
}

func TestTokenValidatorIssuerMismatch(t *testing.T) {
	now := time.Now()
	token := buildToken(t, now, func(b *jwt.Builder) { b.Issuer("someone-else") })

	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestTokenValidatorExpiry(t *testing.T) {
	now := time.Now()
	token := buildToken(t, now, func(b *jwt.Builder) {
		b.IssuedAt(now.Add(-2 * time.Hour)).
			NotBefore(now.Add(-2 * time.Hour)).
			Expiration(now.Add(-time.Minute))
	})

	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected expiration error")
	}
}

func TestTokenValidatorNotBefore(t *testing.T) {
	now := time.Now()
	token := buildToken(t, now, func(b *jwt.Builder) {
		b.NotBefore(now.Add(5 * time.Minute)).Expiration(now.Add(10 * time.Minute))
	})

	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", Algorithm: jwa.HS256, ClockSkew: time.Second}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected not-before validation error")
	}
}

func TestTokenValidatorAlgorithmMismatch(t *testing.T) {
	now := time.Now()
	token := buildToken(t, now, nil)

	validator := TokenValidator{Issuer: "dukaan", Audience: "dukaan-app", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.RS256, now); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}
