package core

import (
	"encoding/gob"
	"fmt"
	"html/template"
	"net/http"

	"github.com/alexedwards/scs/v2"
)

type Notification struct {
	Message string
	Style   string
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

// A Request is created by CoreDB.NewRequest. It carries the identity cached
// in the session. Note that the role is the one persisted at login time;
// it is not re-checked against the user store on every request, so a role
// change takes effect at the next login.
type Request struct {
	db      *CoreDB
	writer  http.ResponseWriter
	request *http.Request

	statusWritten bool
}

func (c *CoreDB) NewRequest(w http.ResponseWriter, httpreq *http.Request) *Request {
	return &Request{
		db:      c,
		writer:  w,
		request: httpreq,
	}
}

// Login verifies the credentials and, on success, stores the user's id, name
// and role in a fresh session. The session is valid for one hour.
func (req *Request) Login(name string, enteredPass string) error {

	u, err := req.db.LoginUser(name, enteredPass)
	if err != nil {
		return err // is ErrInvalidCredentials if name or enteredPass is wrong
	}

	// a new token guards against session fixation
	if err := req.db.SessionManager.RenewToken(req.request.Context()); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	req.db.SessionManager.Put(req.request.Context(), "uid", u.ID())
	req.db.SessionManager.Put(req.request.Context(), "name", u.Name())
	req.db.SessionManager.Put(req.request.Context(), "role", string(u.Role()))
	return nil
}

// Logout destroys the server-side session record and clears the cookie.
func (req *Request) Logout() error {
	return req.db.SessionManager.Destroy(req.request.Context())
}

func (req *Request) LoggedIn() bool {
	return req.db.SessionManager.GetInt(req.request.Context(), "uid") != 0
}

func (req *Request) UserID() int {
	return req.db.SessionManager.GetInt(req.request.Context(), "uid")
}

func (req *Request) UserName() string {
	return req.db.SessionManager.GetString(req.request.Context(), "name")
}

// Role returns the role cached in the session at login time.
func (req *Request) Role() Role {
	return Role(req.db.SessionManager.GetString(req.request.Context(), "role"))
}

// Danger adds a "danger" notification to the session.
func (req *Request) Danger(err error) {
	req.addNotification(err.Error(), "danger")
}

// Success adds a "success" notification to the session.
func (req *Request) Success(format string, args ...interface{}) {
	req.addNotification(fmt.Sprintf(format, args...), "success")
}

// style should be a bootstrap alert style without the leading "alert-"
func (req *Request) addNotification(message, style string) {
	notifications, _ := req.db.SessionManager.Get(req.request.Context(), "notifications").([]Notification)
	notifications = append(notifications, Notification{message, style})
	req.db.SessionManager.Put(req.request.Context(), "notifications", notifications)
}

// RenderNotifications removes all notifications from the session
// and renders them into an HTML string.
// If the HTTP status had already been written, it does nothing.
func (req *Request) RenderNotifications() template.HTML {
	var r string
	if !req.statusWritten {
		notifications, _ := req.db.SessionManager.Pop(req.request.Context(), "notifications").([]Notification)
		for _, n := range notifications {
			r += `<div class="alert alert-` + n.Style + ` mt-3" role="alert">` + n.Message + `</div>`
		}
	}
	return template.HTML(r)
}

// Destroys the session (which means re-setting the cookie with zero lifetime) if the session has been modified and is empty now.
func (req *Request) Cleanup() {
	sessMan := req.db.SessionManager
	if sessMan.Status(req.request.Context()) == scs.Modified && len(sessMan.Keys(req.request.Context())) == 0 {
		_ = sessMan.Destroy(req.request.Context())
	}
}

// SeeOther sets the HTTP header to redirect to an URL.
func (req *Request) SeeOther(format string, args ...interface{}) {
	if req.statusWritten {
		return
	}
	var url = fmt.Sprintf(format, args...)
	http.Redirect(req.writer, req.request, url, http.StatusSeeOther)
	req.statusWritten = true
}

// Forbid writes 403 with a terse body. Gated routes deny with this directly,
// no redirect and no detail about the gate.
func (req *Request) Forbid() {
	if req.statusWritten {
		return
	}
	http.Error(req.writer, "forbidden", http.StatusForbidden)
	req.statusWritten = true
}
