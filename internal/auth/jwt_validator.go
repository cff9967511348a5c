package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// TokenValidator checks the structural and temporal claims of an access
// token. Beyond the standard issuer/audience/expiry checks it requires
// the platform role claim, since every authenticated route is scoped to
// customer, vendor, or courier.
type TokenValidator struct {
	Issuer      string
	Audience    string
	ClockSkew   time.Duration
	Algorithm   jwa.SignatureAlgorithm
	RequireRole bool
}

// Validate ensures the token satisfies algorithm, issuer, audience,
// expiry, and role-claim requirements.
func (v TokenValidator) Validate(tok jwt.Token, algorithm jwa.SignatureAlgorithm, now time.Time) error {
	if tok == nil {
		return errors.New("auth: token is nil")
	}

	if algorithm == "" {
		return errors.New("auth: token missing algorithm")
	}
	if v.Algorithm != "" && algorithm != v.Algorithm {
		return fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}

	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if v.ClockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(v.ClockSkew))
	}
	if v.Issuer != "" {
		options = append(options, jwt.WithIssuer(v.Issuer))
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}

	if err := jwt.Validate(tok, options...); err != nil {
		return err
	}

	if v.RequireRole {
		raw, ok := tok.Get(roleClaim)
		if !ok {
			return errors.New("auth: token missing role claim")
		}
		role, ok := raw.(string)
		if !ok || !validRoles[role] {
			return fmt.Errorf("auth: unknown role %v", raw)
		}
	}
	return nil
}
