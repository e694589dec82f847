package auth

import (
	"context"
	"net/http"
)

type ctxUserKey struct{}

// FromContext returns the identity placed by Optional or Required, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxUserKey{}).(*Identity)
	return id
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, id)
}

// identify parses the request token and checks the user still exists.
func (s *Service) identify(r *http.Request) (*Identity, error) {
	tok := s.tokenFrom(r)
	if tok == "" {
		return nil, ErrInvalidToken
	}
	id, err := s.Parse(tok)
	if err != nil {
		return nil, err
	}
	if _, err := s.FindByID(r.Context(), id.ID); err != nil {
		return nil, ErrInvalidToken
	}
	return id, nil
}

// Optional decorates requests with the identity if a valid token is present.
// It never rejects; guests pass through.
func (s *Service) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := s.identify(r); err == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Required enforces a valid token.
func (s *Service) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokenFrom(r) == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		id, err := s.identify(r)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
