package main

import (
	"bytes"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wansing/homework/core"
	"github.com/wansing/homework/mail/consolemail"
	"github.com/wansing/homework/mail/sendgridmail"
	"github.com/wansing/homework/sqldb"
	"github.com/wansing/homework/sqldb/mysql"
	"github.com/wansing/homework/sqldb/postgres"
	"github.com/wansing/homework/sqldb/sqlite3"
	"github.com/wansing/homework/util"
	"github.com/wansing/homework/web"
	"github.com/xo/dburl"
	"golang.org/x/crypto/ssh/terminal"
)

type prefixedResponseWriter struct {
	http.ResponseWriter
	prefix string // without trailing slash
}

// shadows the original WriteHeader func
func (w prefixedResponseWriter) WriteHeader(statusCode int) {
	// prepend prefix to Location header, so redirects work
	if w.prefix != "" {
		if location := w.Header().Get("Location"); len(location) > 0 && location[0] == '/' { // only absolute locations
			w.Header().Set("Location", w.prefix+location)
		}
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// prefix should be without trailing slash
func handleStrip(prefix string, handler http.Handler) {
	http.Handle(
		prefix+"/", // http mux needs trailing slash
		http.StripPrefix(
			prefix,
			http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					w = &prefixedResponseWriter{w, prefix}
					handler.ServeHTTP(w, r)
				},
			),
		),
	)
}

func init() {
	log.SetFlags(0) // no log prefixes, on most systems systemd-journald adds them
}

func main() {

	var dbArg string // is in both FlagSets

	// default FlagSet

	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	var base = flag.String("base", "", "strip off this `prefix` from every HTTP request and prepended it to every link")
	flag.StringVar(&dbArg, "db", "sqlite3:homework.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared", "sql database url, see github.com/xo/dburl")
	var listenAddr = flag.String("listen", "127.0.0.1:8080", "serve HTTP content at this `ip:port`")
	var uploadDir = flag.String("uploads", "./uploads", "store uploaded homework files in this `directory`")

	// init FlagSet

	var initFlags = flag.NewFlagSet("init", flag.ExitOnError)

	initFlags.StringVar(&dbArg, "db", "sqlite3:homework.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared", "sql database url, see github.com/xo/dburl") // copied from above
	var username = initFlags.String("user", "", "create an account with this `name`, prompting for a password")
	var roleArg = initFlags.String("role", "admin", "`role` of the created account: teacher, parent or admin")

	if len(os.Args) > 1 && os.Args[1] == "init" {
		initFlags.Parse(os.Args[2:])
	} else {
		flag.Parse()
	}

	// database

	dbURL, err := dburl.Parse(dbArg)
	if err != nil {
		log.Printf("could not parse database url: %v", err)
		return
	}

	sqlDB, err := sql.Open(dbURL.Driver, dbURL.DSN)
	if err != nil {
		log.Printf("could not open sql database: %v", err)
		return
	}

	if err = sqlDB.Ping(); err != nil {
		log.Printf("could not ping sql database: %v", err)
		return
	}

	log.Printf("using database %s", dbURL.String())

	// base

	*base = strings.Trim(*base, "/")
	if *base != "" {
		*base = "/" + *base
	}

	// assemble stuff

	var sessionStore scs.Store
	switch dbURL.Driver {
	case "mysql":
		sessionStore = mysql.NewSessionStore(sqlDB)
	case "postgres":
		sessionStore = postgres.NewSessionStore(sqlDB)
	case "sqlite3":
		sessionStore = sqlite3.NewSessionStore(sqlDB)
	default:
		log.Printf("unknown database backend: %s", dbURL.Driver)
		return
	}

	db := &core.CoreDB{}
	db.Mailer = newMailer()
	if err := db.Init(sessionStore, *base, *uploadDir); err != nil {
		log.Println(err) // log.Fatalln would not run deferred functions
		return
	}

	db.HomeworkDB = sqldb.NewHomeworkDB(sqlDB, dbURL.Driver)
	db.UserDB = sqldb.NewUserDB(sqlDB, dbURL.Driver)
	db.SqlDB = sqlDB

	defer func() {
		log.Println("closing database")
		sqlDB.Close()
	}()

	// init

	if initFlags.Parsed() {
		if *username != "" {
			insertUser(db, *username, *roleArg)
		}
		return
	}

	listen(db, *listenAddr, *base)
}

// newMailer reads config/mail.ini. Without a sendgrid key, credentials are
// only logged to the console.
func newMailer() core.Mailer {

	conf, err := util.Ini("mail.ini")
	if err != nil {
		log.Println("no mail configuration, logging credential mails to the console")
		return consolemail.Service{AppName: "Homework"}
	}

	appName := conf["appname"]
	if appName == "" {
		appName = "Homework"
	}

	if key := conf["sendgrid_key"]; key != "" {
		return sendgridmail.NewService(key, appName, conf["from"])
	}

	return consolemail.Service{AppName: appName}
}

func insertUser(db *core.CoreDB, name string, roleArg string) {

	role, err := core.ParseRole(roleArg)
	if err != nil {
		log.Println(err)
		return
	}

	fmt.Printf("password for user %s: ", name)
	pass1, err := terminal.ReadPassword(0)
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	fmt.Printf("repeat password: ")
	pass2, err := terminal.ReadPassword(0)
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	if !bytes.Equal(pass1, pass2) {
		log.Printf("passwords don't match")
		return
	}

	if _, err := db.SignUp(name, role, string(pass1)); err != nil {
		log.Printf("error creating user %s: %v", name, err)
		return
	}
}

func listen(db *core.CoreDB, addr string, base string) {

	// mux
	//
	// golang mux recovers from panics, so the program won't crash

	var waitingHandlers sync.WaitGroup

	handleStrip(base, countingHandler(&waitingHandlers, web.NewRouter(db, base)))

	// listener and listen

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Println(err)
		return
	}

	log.Printf("listening to %s", addr)

	httpSrv := &http.Server{
		Handler:      db.SessionManager.LoadAndSave(http.DefaultServeMux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				log.Printf("error listening: %v", err)
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	log.Println("shutting down")
	httpSrv.Close()

	waitingHandlers.Wait()
}

func countingHandler(wg *sync.WaitGroup, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wg.Add(1)
		defer wg.Done()
		handler.ServeHTTP(w, r)
	})
}
