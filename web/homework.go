package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/wansing/homework/core"
)

var listTmpl = tmpl(`<h1>{{ .Partition.Title }}</h1>

	{{ if .CanUpload }}
		<h2>Upload</h2>
		<form method="post" enctype="multipart/form-data" action="upload/{{ .Partition.Grade }}/{{ .Partition.Subject }}">
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Date</label>
				<div class="col-sm-9">
					<input type="date" class="form-control" name="uploadDate">
				</div>
			</div>
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">Note (markdown, optional)</label>
				<div class="col-sm-9">
					<textarea class="form-control" name="note" rows="2"></textarea>
				</div>
			</div>
			<div class="form-group row">
				<label class="col-sm-3 col-form-label">PDF file</label>
				<div class="col-sm-9">
					<input type="file" class="form-control-file" name="homeworkFile" accept="application/pdf" required>
				</div>
			</div>
			<button type="submit" class="btn btn-primary">Upload</button>
		</form>
	{{ end }}

	<h2>Homework</h2>

	{{ if .Records }}
		<table class="table table-sm">
			<thead>
				<tr>
					<th>Date</th>
					<th>File</th>
					<th>Note</th>
					{{ if .CanDownload }}<th></th>{{ end }}
				</tr>
			</thead>
			<tbody>
				{{ range .Records }}
					<tr>
						<td>{{ $.FormatDate .UploadDate }}</td>
						<td>{{ .FileName }}</td>
						<td>{{ $.RenderNote .Note }}</td>
						{{ if $.CanDownload }}
							<td>
								<form method="post" action="download-homework">
									<input type="hidden" name="filePath" value="{{ .FilePath }}">
									<button type="submit" class="btn btn-sm btn-secondary">Download</button>
								</form>
							</td>
						{{ end }}
					</tr>
				{{ end }}
			</tbody>
		</table>
	{{ else }}
		<p>Nothing here yet.</p>
	{{ end }}`)

type listData struct {
	*context
	Partition core.Partition
	Records   []core.HomeworkRecord
}

func listHomework(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	p, err := core.ParsePartition(params.ByName("grade"), params.ByName("subject"))
	if err != nil {
		return err
	}

	records, err := ctx.db.GetRecords(p)
	if err != nil {
		return err
	}

	return listTmpl.Execute(w, &listData{
		context:   ctx,
		Partition: p,
		Records:   records,
	})
}

func upload(w http.ResponseWriter, req *http.Request, ctx *context, params httprouter.Params) error {

	p, err := core.ParsePartition(params.ByName("grade"), params.ByName("subject"))
	if err != nil {
		return err
	}

	if err := req.ParseMultipartForm(32 << 20); err != nil {
		return err
	}
	defer req.MultipartForm.RemoveAll()

	uploadDate := time.Now()
	if dateStr := req.PostFormValue("uploadDate"); dateStr != "" {
		uploadDate, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			ctx.Danger(errors.New("please enter the date as YYYY-MM-DD"))
			ctx.SeeOther("/homework/%d/%s", p.Grade, p.Subject)
			return nil
		}
	}

	files := req.MultipartForm.File["homeworkFile"]
	if len(files) == 0 {
		ctx.Danger(errors.New("please choose a file"))
		ctx.SeeOther("/homework/%d/%s", p.Grade, p.Subject)
		return nil
	}

	rec, err := ctx.db.AcceptUpload(p, files[0], uploadDate, req.PostFormValue("note"))
	if err != nil {
		return err
	}

	ctx.Success("%s has been uploaded to %s", rec.FileName, p.Title())
	ctx.SeeOther("/homework/%d/%s", p.Grade, p.Subject)
	return nil
}
