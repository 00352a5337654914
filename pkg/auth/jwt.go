package auth

import (
	"errors"
	"fmt"
	"roombook/pkg/model"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingSubject = errors.New("token has no subject")
	ErrInvalidRole    = errors.New("token carries an unknown role")
	ErrInvalidToken   = errors.New("invalid token")
)

type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 bearer tokens issued by the identity provider.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

func (v *Verifier) Parse(tokenStr string) (model.Actor, error) {
	t, err := v.parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return model.Actor{}, ErrInvalidToken
	}

	if c.Subject == "" {
		return model.Actor{}, ErrMissingSubject
	}
	role := model.Role(c.Role)
	if !role.Valid() {
		return model.Actor{}, ErrInvalidRole
	}

	return model.Actor{ID: c.Subject, Role: role, Email: c.Email}, nil
}

// Sign mints a token for actor. The service itself never issues tokens; this
// exists for tests and local tooling.
func (v *Verifier) Sign(actor model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:  string(actor.Role),
		Email: actor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
