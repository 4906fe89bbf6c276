package web

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
)

// Both dashboards show the same partition table; what differs is what the
// listing page offers (upload form vs download buttons).

var dashboardTmpl = tmpl(`<h1>{{ .Heading }}</h1>

	{{ range .Grades }}
		<h2>Grade {{ .Grade }}</h2>
		<ul>
			{{ range .Partitions }}
				<li><a href="{{ PartitionPath . }}">{{ .Title }}</a></li>
			{{ end }}
		</ul>
	{{ end }}`)

type gradeGroup struct {
	Grade      int
	Partitions []core.Partition
}

type dashboardData struct {
	*context
	Heading string
}

func (data *dashboardData) Grades() []gradeGroup {
	var groups []gradeGroup
	for _, p := range core.Partitions {
		if len(groups) == 0 || groups[len(groups)-1].Grade != p.Grade {
			groups = append(groups, gradeGroup{Grade: p.Grade})
		}
		groups[len(groups)-1].Partitions = append(groups[len(groups)-1].Partitions, p)
	}
	return groups
}

func teachers(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return dashboardTmpl.Execute(w, &dashboardData{
		context: ctx,
		Heading: "Upload homework",
	})
}

func parents(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {
	return dashboardTmpl.Execute(w, &dashboardData{
		context: ctx,
		Heading: "Download homework",
	})
}
