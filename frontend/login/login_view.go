package login

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var loginTemplate = template.Must(template.New("login").Parse(`<main class="login">
  <h1>Mirage POS</h1>
  {{if .}}<p class="error">{{.}}</p>{{end}}
  <form method="POST" action="/login">
    <label>Username <input name="username" autocomplete="username" required></label>
    <label>Password <input name="password" type="password" autocomplete="current-password" required></label>
    <button type="submit">Sign in</button>
  </form>
</main>`))

// GetLoginScreen is the sign-in form. errorMessage is escaped.
func GetLoginScreen(errorMessage string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return loginTemplate.Execute(w, errorMessage)
	})
}
