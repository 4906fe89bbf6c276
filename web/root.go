package web

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

var rootTmpl = tmpl(`<h1>Homework Portal</h1>

	<p>Teachers upload homework, parents download it.</p>

	<p>
		<a class="btn btn-primary" href="login">Login</a>
		<a class="btn btn-secondary" href="signup">Sign up</a>
	</p>`)

func root(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	if ctx.LoggedIn() {
		ctx.SeeOther(ctx.Role().Home())
		return nil
	}

	return rootTmpl.Execute(w, ctx)
}
