package login

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"miragepos/frontend/shared/respond"
	"miragepos/infrastructure/apperr"
	"miragepos/infrastructure/cache"
	"miragepos/infrastructure/session"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

// HomePath is where a browser lands after signing in.
const HomePath = "/tasker/api/me"

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateLoginHandler authenticates the user and issues a session cookie. JSON
// requests get JSON back; form posts are redirected like the login page expects.
func CreateLoginHandler(db *sqlite.DB, sessions *cache.UserSessionCache, ttl time.Duration, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")

		var creds credentials
		if asJSON {
			if err := respond.DecodeJSON(r, &creds); err != nil {
				respond.Error(w, r, err)
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				http.Redirect(w, r, "/login?error="+url.QueryEscape("invalid form data"), http.StatusSeeOther)
				return
			}
			creds = credentials{Username: r.FormValue("username"), Password: r.FormValue("password")}
		}

		user, err := Login(r.Context(), db, creds.Username, creds.Password)
		if err != nil {
			if !errors.Is(err, apperr.ErrInvalidCredentials) && !errors.Is(err, apperr.ErrValidation) {
				slog.Error("login: authentication failed", slog.Any("err", err))
			}
			if asJSON {
				respond.Error(w, r, err)
				return
			}
			msg := "invalid username or password"
			if errors.Is(err, apperr.ErrValidation) {
				msg = "username and password are required"
			}
			http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}

		s := newSession(user, ttl)
		sessions.AddSession(s)
		http.SetCookie(w, session.Cookie(s.ID, ttl, secure))
		slog.Info("login: signed in", slog.String("username", user.Username), slog.String("role", user.Role))

		if asJSON {
			respond.JSON(w, http.StatusOK, UserView{ID: user.ID, Username: user.Username, Role: user.Role})
			return
		}
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
	}
}

func newSession(user models.User, ttl time.Duration) models.Session {
	user.PasswordHash = ""
	return models.Session{
		ID:        session.NewToken(),
		UserID:    user.ID,
		User:      user,
		UserRoles: []string{user.Role},
		ExpiresAt: session.Expiry(time.Now(), ttl),
	}
}

// UserView is the public shape of a signed-in user.
type UserView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	// Permissions are the route codes granted to the role, for hiding views.
	Permissions []string `json:"permissions,omitempty"`
}
