package adminusers

import (
	"fmt"
	"log/slog"
	"net/http"

	sessioncontext "miragepos/frontend/shared/context"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/sqlite"
)

// UsersQueryHandler lists the accounts.
func UsersQueryHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := ListUsers(r.Context(), db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, users)
	}
}

func CreateUserCommandHandler(db *sqlite.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in NewUserInput
		if err := respond.DecodeJSON(r, &in); err != nil {
			respond.Error(w, r, err)
			return
		}
		user, err := CreateUser(r.Context(), db, in)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		slog.Info("admin users: created", slog.String("username", user.Username), slog.String("role", user.Role),
			slog.String("by", sessioncontext.Username(r.Context())))
		respond.JSON(w, http.StatusCreated, user)
	}
}

// DeleteUserCommandHandler deletes an account and signs it out everywhere.
func DeleteUserCommandHandler(db *sqlite.DB, sessions *cache.UserSessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := respond.IDParam(r, "id")
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if id == sessioncontext.UserID(r.Context()) {
			respond.Error(w, r, fmt.Errorf("%w: you cannot delete your own account", apperr.ErrConflict))
			return
		}
		user, err := DeleteUser(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		n := sessions.DeleteSessionsForUser(user.ID)
		slog.Info("admin users: deleted", slog.String("username", user.Username), slog.Int("sessions_closed", n))
		w.WriteHeader(http.StatusNoContent)
	}
}
