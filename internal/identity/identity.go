// Package identity verifies the bearer tokens minted by the identity provider
// and extracts the caller's email and display name.
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domainerrors "coursereq/pkg/domain-errors"
	"coursereq/pkg/requestcontext"
)

// Claims are the token claims the service relies on.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed bearer tokens.
type Verifier struct {
	signingKey []byte
	issuer     string
}

func NewVerifier(signingKey, issuer string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey), issuer: issuer}
}

// Verify parses and validates the token and returns the caller identity.
func (v *Verifier) Verify(tokenString string) (requestcontext.Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return requestcontext.Identity{}, domainerrors.New(domainerrors.CodeUnauthorized, "token has expired")
		}
		return requestcontext.Identity{}, domainerrors.New(domainerrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return requestcontext.Identity{}, domainerrors.New(domainerrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Email == "" {
		return requestcontext.Identity{}, domainerrors.New(domainerrors.CodeUnauthorized, "token carries no email")
	}
	return requestcontext.Identity{Email: claims.Email, Name: claims.Name}, nil
}

// Sign mints a token for the identity, used by tests and local tooling.
func (v *Verifier) Sign(identity requestcontext.Identity, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    v.issuer,
		},
	})
	return token.SignedString(v.signingKey)
}
