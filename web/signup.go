package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
)

var signupTmpl = tmpl(`<h1>Sign up</h1>
	<form method="post" style="max-width: 20rem; margin: auto;">
		<div class="form-group">
			<label>Username</label>
			<input type="text" class="form-control" name="username" value="{{ .Username }}" required autofocus>
		</div>
		<div class="form-group">
			<label>Role</label>
			<select class="form-control" name="role">
				<option value="teacher">Teacher</option>
				<option value="parent">Parent</option>
			</select>
		</div>
		<div class="form-group">
			<label>Password</label>
			<input type="password" class="form-control" name="password" required>
		</div>
		<div class="form-group">
			<button type="submit" class="btn btn-primary" name="signup">Sign up</button>
		</div>
	</form>`)

type signupData struct {
	*context
	Username string
}

func signup(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	var username string

	if req.Method == http.MethodPost {

		username = strings.TrimSpace(req.PostFormValue("username"))
		password := req.PostFormValue("password")

		role, err := core.ParseRole(req.PostFormValue("role"))
		if err != nil || role == core.Admin { // admin accounts are made by admins or the init command
			ctx.Danger(errors.New("please choose a role"))
			return signupTmpl.Execute(w, &signupData{ctx, username})
		}

		if _, err := ctx.db.SignUp(username, role, password); err != nil {
			ctx.Danger(publicError(err))
			// keep POST data for the username field
		} else {
			ctx.Success("account %s has been created, you can log in now", username)
			ctx.SeeOther("/login")
			return nil
		}
	}

	return signupTmpl.Execute(w, &signupData{
		context:  ctx,
		Username: username,
	})
}
