package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/honeynil/conduit/internal/infrastructure/observability"
	pkgerrors "github.com/honeynil/conduit/pkg/errors"
)

// TokenVerifier is the part of Verifier the gate depends on.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// Gate turns the Authorization header into a Principal on the request context.
// RequireAuth rejects requests it cannot authenticate; OptionalAuth lets them
// through anonymously.
type Gate struct {
	verifier TokenVerifier
}

func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.tryVerify(r)
		if err != nil {
			reason := rejectionReason(err)
			observability.AuthRejections.WithLabelValues(reason).Inc()
			slog.Info("request rejected by auth gate", "path", r.URL.Path, "reason", reason)
			writeUnauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (g *Gate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := g.tryVerify(r)
		if err != nil {
			if !errors.Is(err, pkgerrors.ErrUnauthorized) {
				slog.Debug("ignoring unusable credential on optional route", "path", r.URL.Path, "reason", rejectionReason(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (g *Gate) tryVerify(r *http.Request) (Principal, error) {
	token, err := bearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return Principal{}, err
	}
	principal, err := g.verifier.Verify(token)
	if err != nil {
		return Principal{}, err
	}
	if _, err := principal.UserID(); err != nil {
		return Principal{}, err
	}
	return principal, nil
}

// bearerToken accepts "Bearer <t>" and the RealWorld "Token <t>" scheme.
// Scheme names are case-insensitive.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", pkgerrors.ErrUnauthorized
	}
	for _, scheme := range []string{"Bearer ", "Token "} {
		if len(header) >= len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
			token := strings.TrimSpace(header[len(scheme):])
			if token == "" {
				return "", pkgerrors.ErrMalformedToken
			}
			return token, nil
		}
	}
	return "", pkgerrors.ErrMalformedToken
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return "missing"
	case errors.Is(err, pkgerrors.ErrTokenExpired):
		return "expired"
	case errors.Is(err, pkgerrors.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "malformed"
	}
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	appErr := pkgerrors.FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	json.NewEncoder(w).Encode(appErr)
}
