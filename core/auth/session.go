package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/avelkova/studiofit/api/web"
	"github.com/avelkova/studiofit/api/weberr"
	"github.com/avelkova/studiofit/core/claims"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
)

// LoadAndSave adapts the scs middleware to the handler chain so every
// route sees a loaded session and cookies are written back on the way out.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			wrap := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			wrap.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, roleKey),
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

func Admin(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			role := session.GetString(ctx, roleKey)
			if role != claims.RoleAdmin {
				return weberr.Forbidden(errors.New("admin role required"))
			}

			clm := claims.Claims{UserID: userID, Role: role}
			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}
