package login

import (
	"net/http"

	"miragepos/frontend/shared/context"
	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/session"
)

// LogoutHandler removes session state and clears cookie.
func LogoutHandler(sessions *cache.UserSessionCache, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := session.TokenFromRequest(r); token != "" {
			sessions.DeleteSessionBySessionToken(token)
		}
		http.SetCookie(w, session.ClearCookie(secure))
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// MeQueryHandler returns the signed-in user with the codes their roles grant.
func MeQueryHandler(permissions func(roles []string) []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := context.GetSessionFromContext(r.Context())
		if !ok {
			respond.Problem(w, http.StatusUnauthorized, "Unauthorized", "not signed in")
			return
		}
		view := UserView{ID: s.User.ID, Username: s.User.Username, Role: s.User.Role}
		if permissions != nil {
			view.Permissions = permissions(s.UserRoles)
		}
		respond.JSON(w, http.StatusOK, view)
	}
}
