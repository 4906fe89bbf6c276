// Package web is the HTTP surface of the homework portal. Every route is
// wrapped by middleware which builds the request context and enforces the
// role gate. A denied gate is a plain 403, no redirect.
package web

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/text/language"
)

// notes come from user input, so raw HTML stays off
var markdownParser = markdown.New(markdown.HTML(false), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

var langMatcher = language.NewMatcher([]language.Tag{
	language.AmericanEnglish, // default
	language.German,
})

// we need the CoreDB in the handlers
type context struct {
	*core.Request
	Prefix string // with trailing slash
	db     *core.CoreDB

	language language.Tag
}

// FormatDate renders an upload date for the requester's Accept-Language.
func (ctx *context) FormatDate(t time.Time) string {
	b, _ := ctx.language.Base()
	switch b.String() {
	case "de":
		return t.Format("2.1.2006")
	default:
		return t.Format("January 2, 2006")
	}
}

// RenderNote translates a record's markdown note to HTML.
func (ctx *context) RenderNote(note string) template.HTML {
	if note == "" {
		return ""
	}
	return template.HTML(markdownParser.RenderToString([]byte(note)))
}

// template helpers; admin sees both sides
func (ctx *context) CanUpload() bool {
	return ctx.LoggedIn() && ctx.Role().Allowed(core.Teacher)
}

func (ctx *context) CanDownload() bool {
	return ctx.LoggedIn() && ctx.Role().Allowed(core.Parent)
}

func (ctx *context) IsAdmin() bool {
	return ctx.Role() == core.Admin
}

// middleware builds the context and enforces the role gate. With no roles
// given the route is public. Admin passes every gate.
func middleware(db *core.CoreDB, prefix string, f func(http.ResponseWriter, *http.Request, *context, httprouter.Params) error, roles ...core.Role) func(http.ResponseWriter, *http.Request, httprouter.Params) {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {

		var ctx = &context{
			Prefix:  prefix + "/",
			Request: db.NewRequest(w, req),
			db:      db,
		}
		defer ctx.Cleanup()

		ctx.language, _ = language.MatchStrings(langMatcher, req.Header.Get("Accept-Language"))

		if len(roles) > 0 {
			if !ctx.LoggedIn() || !ctx.Role().Allowed(roles...) {
				ctx.Forbid()
				return
			}
		}

		if err := f(w, req, ctx, params); err != nil {
			log.Printf("%s %s: %v", req.Method, req.URL.Path, err)
			w.WriteHeader(httpStatus(err))
			errorTmpl.Execute(w, struct {
				*context
				Err error
			}{
				context: ctx,
				Err:     publicError(err),
			})
		}
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrDuplicateUser):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicError keeps file system paths and sql noise out of responses.
func publicError(err error) error {
	for _, sentinel := range []error{
		core.ErrNotFound,
		core.ErrUnsupportedType,
		core.ErrUnauthorized,
		core.ErrInvalidCredentials,
		core.ErrDuplicateUser,
		core.ErrEmptyPassword,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return errors.New("server error")
}

func NewRouter(db *core.CoreDB, prefix string) http.Handler {

	var router = httprouter.New()

	var GETAndPOST = func(path string, handle httprouter.Handle) {
		router.GET(path, handle)
		router.POST(path, handle)
	}

	// public
	router.GET("/", middleware(db, prefix, root))
	GETAndPOST("/signup", middleware(db, prefix, signup))
	GETAndPOST("/login", middleware(db, prefix, login))

	// gated; admin passes every gate
	router.GET("/logout", middleware(db, prefix, logout, core.Teacher, core.Parent))
	router.GET("/teachers", middleware(db, prefix, teachers, core.Teacher))
	router.GET("/parents", middleware(db, prefix, parents, core.Parent))
	router.GET("/homework/:grade/:subject", middleware(db, prefix, listHomework, core.Teacher, core.Parent))
	router.POST("/upload/:grade/:subject", middleware(db, prefix, upload, core.Teacher))
	router.POST("/download-homework", middleware(db, prefix, download, core.Parent))
	router.GET("/admin", middleware(db, prefix, admin, core.Admin))
	router.POST("/admin/add-user", middleware(db, prefix, addUser, core.Admin))
	router.POST("/admin/delete-user/:id", middleware(db, prefix, deleteUser, core.Admin))

	router.ServeFiles("/static/*filepath", http.Dir("static"))

	return router
}

func tmpl(text string) *template.Template {
	t := template.Must(baseTmpl.Clone())
	t = template.Must(t.Parse(`{{ define "content" }}` + text + `{{ end }}`))
	return t
}

var errorTmpl = tmpl(`
	<div class="alert alert-danger" role="alert">
		{{ .Err }}
	</div>`)

var baseTmpl = template.Must(template.New("base").Funcs(
	template.FuncMap{
		"PartitionPath": func(p core.Partition) string {
			return fmt.Sprintf("homework/%d/%s", p.Grade, p.Subject)
		},
	},
).Parse(`
<!DOCTYPE html>
<html>
	<head>
		<base href="{{ .Prefix }}">
		<link rel="stylesheet" type="text/css" href="static/bootstrap.min.css">
		<meta charset="utf-8">
		<meta name="viewport" content="width=device-width, initial-scale=1, shrink-to-fit=no">
		<title>Homework</title>
	</head>
	<body>

		{{ if .LoggedIn }}

			<nav class="navbar navbar-expand-md bg-light">
				<ul class="navbar-nav">
					{{ if .CanUpload }}
						<li class="nav-item">
							<a class="nav-link" href="teachers">Homework</a>
						</li>
					{{ end }}
					{{ if .CanDownload }}
						<li class="nav-item">
							<a class="nav-link" href="parents">Homework</a>
						</li>
					{{ end }}
					{{ if .IsAdmin }}
						<li class="nav-item">
							<a class="nav-link" href="admin">Users</a>
						</li>
					{{ end }}
					<li class="nav-item">
						<span class="nav-link">{{ .UserName }} ({{ .Role }})</span>
					</li>
					<li class="nav-item">
						<a class="nav-link" href="logout">Logout</a>
					</li>
				</ul>
			</nav>

		{{ end }}

		<div class="container pt-3">
			{{ .RenderNotifications }}
			{{ template "content" . }}
		</div>
	</body>
</html>`))
