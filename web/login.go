package web

import (
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
)

var loginTmpl = tmpl(`<h1>Login</h1>
	<form method="post" style="max-width: 20rem; margin: auto;">
		<div class="form-group">
			<label>Username</label>
			<input type="text" class="form-control" name="username" value="{{ .Username }}" required autofocus>
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<div class="form-group">
			<button type="submit" class="btn btn-primary" name="login">Login</button>
		</div>
	</form>`)

type loginData struct {
	*context
	Username string
}

func login(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if ctx.LoggedIn() {
		ctx.SeeOther(ctx.Role().Home())
		return nil
	}

	var username string

	if req.Method == http.MethodPost {

		username = strings.TrimSpace(req.PostFormValue("username"))
		password := req.PostFormValue("password")

		err := ctx.Login(username, password)
		if err == nil {
			ctx.SeeOther(ctx.Role().Home())
			return nil
		}

		log.Printf("login %s: %v", username, err)
		ctx.Danger(core.ErrInvalidCredentials)
		// keep POST data for the username field
	}

	return loginTmpl.Execute(w, &loginData{
		context:  ctx,
		Username: username,
	})
}
