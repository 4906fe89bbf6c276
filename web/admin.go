package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
)

var adminTmpl = tmpl(`<h1>Users</h1>

	<table class="table table-sm">
		<thead>
			<tr>
				<th>Name</th>
				<th>Role</th>
				<th></th>
			</tr>
		</thead>
		<tbody>
			{{ range .Users }}
				<tr>
					<td>{{ .Name }}</td>
					<td>{{ .Role }}</td>
					<td>
						<form method="post" action="admin/delete-user/{{ .ID }}">
							<button type="submit" class="btn btn-sm btn-danger">Delete</button>
						</form>
					</td>
				</tr>
			{{ end }}
		</tbody>
	</table>

	<h2>Create User</h2>

	<p>A password is generated and mailed to the given address.</p>

	<form method="post" action="admin/add-user" class="form-inline">
		<input type="text" class="form-control" name="username" placeholder="Username" required>
		<select class="form-control" name="role">
			<option value="teacher">Teacher</option>
			<option value="parent">Parent</option>
			<option value="admin">Admin</option>
		</select>
		<input type="email" class="form-control" name="email" placeholder="Email address" required>
		<button type="submit" class="btn btn-primary mx-sm-3" name="submit_add">Create user</button>
	</form>`)

type adminData struct {
	*context
}

func (data *adminData) Users() ([]core.DBUser, error) {
	return data.db.GetAllUsers(100000, 0) // assuming there are not more than 100k users
}

func admin(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return adminTmpl.Execute(w, &adminData{
		context: ctx,
	})
}

func addUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	username := strings.TrimSpace(req.PostFormValue("username"))
	email := strings.TrimSpace(req.PostFormValue("email"))

	role, err := core.ParseRole(req.PostFormValue("role"))
	if err != nil {
		ctx.Danger(err)
		ctx.SeeOther("/admin")
		return nil
	}

	if username == "" || email == "" {
		ctx.Danger(errors.New("username and email address are required"))
		ctx.SeeOther("/admin")
		return nil
	}

	u, err := ctx.db.AddUser(username, role, email)
	if err != nil {
		ctx.Danger(publicError(err))
		ctx.SeeOther("/admin")
		return nil
	}

	ctx.Success("user %s has been created, credentials were sent to %s", u.Name(), email)
	ctx.SeeOther("/admin")
	return nil
}

// deleteUser is idempotent: deleting an id which is already gone is success.
func deleteUser(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	id, err := strconv.Atoi(params.ByName("id"))
	if err != nil {
		return core.ErrNotFound
	}

	if err := ctx.db.DeleteUser(id); err != nil {
		return err
	}

	ctx.Success("user %d has been deleted", id)
	ctx.SeeOther("/admin")
	return nil
}
