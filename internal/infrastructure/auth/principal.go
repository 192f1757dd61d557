package auth

import (
	"context"
	"fmt"
	"strconv"

	pkgerrors "github.com/honeynil/conduit/pkg/errors"
)

// Principal is the identity recovered from a verified token.
type Principal struct {
	Subject string
}

// UserID interprets the subject as a Conduit user id.
func (p Principal) UserID() (int64, error) {
	id, err := strconv.ParseInt(p.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q is not a user id", pkgerrors.ErrMalformedToken, p.Subject)
	}
	return id, nil
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserIDFromContext returns the authenticated user id, or 0 and false for
// anonymous requests.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return 0, false
	}
	id, err := p.UserID()
	if err != nil {
		return 0, false
	}
	return id, true
}
