package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
)

// TokenLifetime is fixed for every issued token.
const TokenLifetime = 3 * time.Hour

// Issuer signs HS256 tokens carrying sub, iat and exp.
type Issuer struct {
	secret []byte
	clock  Clock
}

func NewIssuer(secret []byte, clock Clock) *Issuer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Issuer{secret: secret, clock: clock}
}

func (i *Issuer) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty token subject", pkgerrors.ErrInvalidInput)
	}
	if len(i.secret) == 0 {
		return "", fmt.Errorf("%w: JWT secret not set", pkgerrors.ErrSigningFailure)
	}

	// iat and exp are whole seconds on the wire; the issue instant is too.
	now := i.clock.Now().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", pkgerrors.ErrSigningFailure, err)
	}
	return signed, nil
}

// Verifier checks tokens produced by Issuer. Expiry is evaluated against the
// injected clock with zero leeway: a token whose exp equals now is expired.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret []byte, clock Clock) *Verifier {
	if clock == nil {
		clock = RealClock{}
	}
	return &Verifier{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(clock.Now),
			jwt.WithLeeway(0),
			jwt.WithExpirationRequired(),
			jwt.WithStrictDecoding(),
		),
	}
}

func (v *Verifier) Verify(tokenString string) (Principal, error) {
	if len(v.secret) == 0 {
		return Principal{}, pkgerrors.ErrInvalidSignature
	}

	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) && v.onlySignatureMalformed(tokenString) {
			return Principal{}, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidSignature, err)
		}
		return Principal{}, classify(err)
	}

	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing sub claim", pkgerrors.ErrMalformedToken)
	}
	return Principal{Subject: claims.Subject}, nil
}

// onlySignatureMalformed reports whether header and claims decode cleanly, so
// the malformation sits in the signature segment. A signature that does not
// decode is a signature that does not match.
func (v *Verifier) onlySignatureMalformed(tokenString string) bool {
	_, _, err := v.parser.ParseUnverified(tokenString, &jwt.RegisteredClaims{})
	return err == nil
}

// classify folds jwt parse errors into the gate's taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", pkgerrors.ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", pkgerrors.ErrInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return pkgerrors.ErrTokenExpired
	default:
		return fmt.Errorf("%w: %v", pkgerrors.ErrMalformedToken, err)
	}
}
