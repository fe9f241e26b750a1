package handlers

import (
	"context"
	"net/http"

	"github.com/crucial707/asset-lifecycle/internal/middleware"
	"github.com/crucial707/asset-lifecycle/internal/models"
	"github.com/crucial707/asset-lifecycle/internal/repo"
)

type actorKeyType string

const actorKey actorKeyType = "actor"

// ActorLoader resolves the JWT user ID to a fresh user row on every request.
// Role and agency membership are read from the database, never from token
// claims, so a role change takes effect on the next request.
type ActorLoader struct {
	Users *repo.UserRepo
}

func (l *ActorLoader) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.UserID(r.Context())
		if !ok {
			JSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		user, err := l.Users.GetByID(r.Context(), id)
		if err != nil {
			JSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Actor returns the authenticated user loaded by ActorLoader.
func Actor(r *http.Request) (models.User, bool) {
	u, ok := r.Context().Value(actorKey).(models.User)
	return u, ok
}
