package web

import (
	"bytes"
	"database/sql"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"testing"

	"github.com/alexedwards/scs/v2/memstore"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/homework/core"
	"github.com/wansing/homework/sqldb"
)

// captureMailer records the last credential mail instead of sending it.
type captureMailer struct {
	toAddr   string
	username string
	password string
}

func (m *captureMailer) SendCredentials(toAddr, username, password string) error {
	m.toAddr = toAddr
	m.username = username
	m.password = password
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *core.CoreDB, *captureMailer) {

	sqlDB, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // a second conn would get its own empty in-memory db
	t.Cleanup(func() {
		sqlDB.Close()
	})

	mailer := &captureMailer{}

	db := &core.CoreDB{}
	db.Mailer = mailer
	require.NoError(t, db.Init(memstore.New(), "", t.TempDir()))
	db.UserDB = sqldb.NewUserDB(sqlDB, "sqlite3")
	db.HomeworkDB = sqldb.NewHomeworkDB(sqlDB, "sqlite3")

	srv := httptest.NewServer(db.SessionManager.LoadAndSave(NewRouter(db, "")))
	t.Cleanup(srv.Close)

	return srv, db, mailer
}

func newClient(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func doLogin(t *testing.T, client *http.Client, srv *httptest.Server, username, password string) *http.Response {
	resp, err := client.PostForm(srv.URL+"/login", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func get(t *testing.T, client *http.Client, rawurl string) (*http.Response, string) {
	resp, err := client.Get(rawurl)
	require.NoError(t, err)
	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, string(body)
}

func uploadPDF(t *testing.T, client *http.Client, rawurl, filename, contentType, content string) *http.Response {

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="homeworkFile"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	require.NoError(t, mw.WriteField("uploadDate", "2021-09-01"))
	require.NoError(t, mw.WriteField("note", "read *chapter three*"))
	require.NoError(t, mw.Close())

	resp, err := client.Post(rawurl, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestRoleGates(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("alice", core.Teacher, "teacherpass")
	require.NoError(t, err)
	_, err = db.InsertUser("bob", core.Parent, "parentpass")
	require.NoError(t, err)
	_, err = db.InsertUser("root", core.Admin, "adminpass")
	require.NoError(t, err)

	// without a session everything gated is 403, no redirect
	anon := newClient(t)
	for _, path := range []string{"/teachers", "/parents", "/admin", "/homework/1/mathematics", "/logout"} {
		resp, _ := get(t, anon, srv.URL+path)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, path)
	}

	// public routes stay public
	resp, _ := get(t, anon, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = get(t, anon, srv.URL+"/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = get(t, anon, srv.URL+"/signup")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// teacher
	teacher := newClient(t)
	doLogin(t, teacher, srv, "alice", "teacherpass")
	resp, body := get(t, teacher, srv.URL+"/teachers")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Upload homework")
	resp, _ = get(t, teacher, srv.URL+"/parents")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = get(t, teacher, srv.URL+"/admin")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// parent
	parent := newClient(t)
	doLogin(t, parent, srv, "bob", "parentpass")
	resp, body = get(t, parent, srv.URL+"/parents")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Download homework")
	resp, _ = get(t, parent, srv.URL+"/teachers")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// admin passes every gate
	admin := newClient(t)
	doLogin(t, admin, srv, "root", "adminpass")
	for _, path := range []string{"/teachers", "/parents", "/admin", "/homework/2/science"} {
		resp, _ := get(t, admin, srv.URL+path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestLoginWrongPassword(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("alice", core.Teacher, "teacherpass")
	require.NoError(t, err)

	client := newClient(t)
	doLogin(t, client, srv, "alice", "wrong")

	// still anonymous
	resp, _ := get(t, client, srv.URL+"/teachers")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUploadAndDownload(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("alice", core.Teacher, "teacherpass")
	require.NoError(t, err)
	_, err = db.InsertUser("bob", core.Parent, "parentpass")
	require.NoError(t, err)

	teacher := newClient(t)
	doLogin(t, teacher, srv, "alice", "teacherpass")

	resp := uploadPDF(t, teacher, srv.URL+"/upload/1/mathematics", "worksheet.pdf", "application/pdf", "%PDF-1.4 fake content")
	assert.Equal(t, http.StatusOK, resp.StatusCode) // after following the redirect

	// listing shows the record, newest first
	resp, body := get(t, teacher, srv.URL+"/homework/1/mathematics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "worksheet.pdf")
	assert.Contains(t, body, "<em>chapter three</em>") // markdown rendered
	assert.Contains(t, body, "September 1, 2021")

	// other partitions stay empty
	_, body = get(t, teacher, srv.URL+"/homework/1/english")
	assert.NotContains(t, body, "worksheet.pdf")

	// teachers get no download button and no download route
	assert.NotContains(t, body, "download-homework")

	records, err := db.GetRecords(core.Partition{Grade: 1, Subject: "mathematics"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	parent := newClient(t)
	doLogin(t, parent, srv, "bob", "parentpass")

	// parent sees the download button
	_, body = get(t, parent, srv.URL+"/homework/1/mathematics")
	assert.Contains(t, body, "download-homework")
	assert.Contains(t, body, records[0].FilePath)

	resp2, err := parent.PostForm(srv.URL+"/download-homework", url.Values{
		"filePath": {records[0].FilePath},
	})
	require.NoError(t, err)
	downloaded, err := ioutil.ReadAll(resp2.Body)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, "application/pdf", resp2.Header.Get("Content-Type"))
	assert.Contains(t, resp2.Header.Get("Content-Disposition"), `filename="worksheet.pdf"`)
	assert.Equal(t, "%PDF-1.4 fake content", string(downloaded))

	// teacher must not download
	resp3, err := teacher.PostForm(srv.URL+"/download-homework", url.Values{
		"filePath": {records[0].FilePath},
	})
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp3.StatusCode)
}

func TestUploadRejectsNonPDF(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("alice", core.Teacher, "teacherpass")
	require.NoError(t, err)

	teacher := newClient(t)
	doLogin(t, teacher, srv, "alice", "teacherpass")

	resp := uploadPDF(t, teacher, srv.URL+"/upload/1/mathematics", "evil.exe", "application/octet-stream", "MZ...")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	// nothing was recorded
	records, err := db.GetRecords(core.Partition{Grade: 1, Subject: "mathematics"})
	require.NoError(t, err)
	assert.Len(t, records, 0)
}

func TestUploadInvalidPartition(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("alice", core.Teacher, "teacherpass")
	require.NoError(t, err)

	teacher := newClient(t)
	doLogin(t, teacher, srv, "alice", "teacherpass")

	resp := uploadPDF(t, teacher, srv.URL+"/upload/9/mathematics", "a.pdf", "application/pdf", "%PDF")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, _ := get(t, teacher, srv.URL+"/homework/1/history")
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestDownloadTraversal(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("bob", core.Parent, "parentpass")
	require.NoError(t, err)

	parent := newClient(t)
	doLogin(t, parent, srv, "bob", "parentpass")

	for _, filePath := range []string{
		"../homework.sqlite3",
		"../../etc/passwd",
		"/etc/passwd",
		"",
		".",
		"no-such-file.pdf",
	} {
		resp, body := func() (*http.Response, string) {
			resp, err := parent.PostForm(srv.URL+"/download-homework", url.Values{
				"filePath": {filePath},
			})
			require.NoError(t, err)
			b, err := ioutil.ReadAll(resp.Body)
			require.NoError(t, err)
			resp.Body.Close()
			return resp, string(b)
		}()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, filePath)
		assert.NotContains(t, body, "root:") // never serve /etc/passwd
	}
}

func TestSignup(t *testing.T) {

	srv, _, _ := newTestServer(t)

	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/signup", url.Values{
		"username": {"carol"},
		"password": {"carolpass"},
		"role":     {"parent"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	doLogin(t, client, srv, "carol", "carolpass")
	resp2, _ := get(t, client, srv.URL+"/parents")
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestSignupRejectsAdminRole(t *testing.T) {

	srv, _, _ := newTestServer(t)

	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/signup", url.Values{
		"username": {"mallory"},
		"password": {"mallorypass"},
		"role":     {"admin"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	// no account was created
	doLogin(t, client, srv, "mallory", "mallorypass")
	resp2, _ := get(t, client, srv.URL+"/admin")
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}

func TestAdminAddAndDeleteUser(t *testing.T) {

	srv, db, mailer := newTestServer(t)

	_, err := db.InsertUser("root", core.Admin, "adminpass")
	require.NoError(t, err)

	admin := newClient(t)
	doLogin(t, admin, srv, "root", "adminpass")

	resp, err := admin.PostForm(srv.URL+"/admin/add-user", url.Values{
		"username": {"dave"},
		"role":     {"teacher"},
		"email":    {"dave@example.com"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the generated password was mailed and works
	assert.Equal(t, "dave@example.com", mailer.toAddr)
	assert.Equal(t, "dave", mailer.username)
	require.NotEmpty(t, mailer.password)

	dave := newClient(t)
	doLogin(t, dave, srv, "dave", mailer.password)
	resp2, _ := get(t, dave, srv.URL+"/teachers")
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	// find dave's id and delete him
	all, err := db.GetAllUsers(100, 0)
	require.NoError(t, err)
	var daveID int
	for _, u := range all {
		if u.Name() == "dave" {
			daveID = u.ID()
		}
	}
	require.NotZero(t, daveID)

	resp3, err := admin.Post(srv.URL+"/admin/delete-user/"+strconv.Itoa(daveID), "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusOK, resp3.StatusCode)

	// deleting a gone id is still success
	resp4, err := admin.Post(srv.URL+"/admin/delete-user/"+strconv.Itoa(daveID), "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	resp4.Body.Close()
	assert.Equal(t, http.StatusOK, resp4.StatusCode)
}

func TestLogout(t *testing.T) {

	srv, db, _ := newTestServer(t)

	_, err := db.InsertUser("alice", core.Teacher, "teacherpass")
	require.NoError(t, err)

	client := newClient(t)
	doLogin(t, client, srv, "alice", "teacherpass")

	resp, _ := get(t, client, srv.URL+"/teachers")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, client, srv.URL+"/logout")
	assert.Equal(t, http.StatusOK, resp.StatusCode) // redirected to /login

	resp, _ = get(t, client, srv.URL+"/teachers")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
