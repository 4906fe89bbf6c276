package core

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/wansing/homework/filestore"
)

type CoreDB struct {
	UserDB
	HomeworkDB
	SessionManager *scs.SessionManager
	Uploads        *filestore.Store
	Mailer         Mailer

	SqlDB *sql.DB // exported because main closes it
}

func (c *CoreDB) Init(sessionStore scs.Store, cookiePath string, uploadDir string) error {

	c.SessionManager = scs.New()
	c.SessionManager.Store = sessionStore
	c.SessionManager.Cookie.Path = cookiePath + "/"         // 'The default value is "/". Passing the empty string "" will result in it being set to the path that the cookie was issued from.'
	c.SessionManager.Cookie.Persist = false                 // Don't store cookie across browser sessions. Required for GDPR cookie consent exemption criterion B.
	c.SessionManager.Cookie.SameSite = http.SameSiteLaxMode // good CSRF protection if HTTP GET doesn't modify anything
	c.SessionManager.Cookie.Secure = false                  // else running on localhost or behind a http proxy fails
	c.SessionManager.Lifetime = time.Hour                   // sessions expire one hour after login, not sliding

	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	c.Uploads = &filestore.Store{
		UploadDir: uploadDir,
	}

	if c.Mailer == nil {
		c.Mailer = nopMailer{}
	}

	return nil
}
