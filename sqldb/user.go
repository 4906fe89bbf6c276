package sqldb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/wansing/homework/core"
	"golang.org/x/crypto/bcrypt"
)

func clean(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	return name
}

type user struct {
	id   int
	name string
	role core.Role
}

func (u *user) ID() int {
	return u.id
}

func (u *user) Name() string {
	return u.name
}

func (u *user) Role() core.Role {
	return u.role
}

type UserDB struct {
	*sql.DB
	delete    *sql.Stmt
	get       *sql.Stmt
	getAll    *sql.Stmt
	getByName *sql.Stmt
	insert    *sql.Stmt
	login     *sql.Stmt

	driver string
}

func NewUserDB(db *sql.DB, driver string) *UserDB {

	db.Exec(
		`CREATE TABLE IF NOT EXISTS usr (
			` + idColumn(driver) + `,
			name varchar(64) NOT NULL,
			role varchar(16) NOT NULL,
			password varchar(80) NOT NULL,
			UNIQUE(name)
		);`)

	var userDB = &UserDB{}
	userDB.DB = db
	userDB.driver = driver
	userDB.delete = mustPrepare(db, driver, "DELETE FROM usr WHERE id = ?")
	userDB.get = mustPrepare(db, driver, "SELECT name, role FROM usr WHERE id = ? LIMIT 1")
	userDB.getAll = mustPrepare(db, driver, "SELECT id, name, role FROM usr ORDER BY name LIMIT ? OFFSET ?")
	userDB.getByName = mustPrepare(db, driver, "SELECT id FROM usr WHERE name = ? LIMIT 1")
	userDB.insert = mustPrepare(db, driver, "INSERT INTO usr (name, role, password) VALUES (?, ?, ?)")
	userDB.login = mustPrepare(db, driver, "SELECT id, role, password FROM usr WHERE name = ?")
	return userDB
}

// DeleteUser deletes a row if there is one. Deleting an absent id is success.
func (db *UserDB) DeleteUser(id int) error {
	_, err := db.delete.Exec(id)
	return err
}

func (db *UserDB) GetUser(id int) (core.DBUser, error) {
	var u = &user{
		id: id,
	}
	err := db.get.QueryRow(id).Scan(&u.name, &u.role)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (db *UserDB) GetAllUsers(limit, offset int) ([]core.DBUser, error) {

	var all = []core.DBUser{}

	rows, err := db.getAll.Query(limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u = &user{}
		err = rows.Scan(&u.id, &u.name, &u.role)
		if err != nil {
			return nil, err
		}
		all = append(all, u)
	}

	return all, rows.Err()
}

// InsertUser hashes the password with bcrypt (cost 10, like the original
// site) and stores the new row. The cleartext never touches the database.
func (db *UserDB) InsertUser(name string, role core.Role, password string) (core.DBUser, error) {

	name = clean(name)

	// the UNIQUE constraint backstops this check against races
	var existing int
	if err := db.getByName.QueryRow(name).Scan(&existing); err == nil {
		return nil, core.ErrDuplicateUser
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var id int
	if db.driver == "postgres" {
		// lib/pq does not support LastInsertId
		err = db.QueryRow(rebind(db.driver, "INSERT INTO usr (name, role, password) VALUES (?, ?, ?) RETURNING id"), name, string(role), string(hash)).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("inserting user %s: %w", name, err)
		}
	} else {
		res, err := db.insert.Exec(name, string(role), string(hash))
		if err != nil {
			return nil, fmt.Errorf("inserting user %s: %w", name, err)
		}
		id64, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		id = int(id64)
	}

	return &user{
		id:   id,
		name: name,
		role: role,
	}, nil
}

func (db *UserDB) LoginUser(name, password string) (core.DBUser, error) {

	name = clean(name)

	var u = &user{
		name: name,
	}
	var hash string

	err := db.login.QueryRow(name).Scan(&u.id, &u.role, &hash)
	if err == sql.ErrNoRows {
		return nil, core.ErrInvalidCredentials // user not found
	}
	if err != nil {
		return nil, err
	}

	// bcrypt compares in constant time
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, core.ErrInvalidCredentials // wrong password
		}
		return nil, err
	}

	// roles were stored lower-cased, but older rows might not be
	u.role = core.Role(strings.ToLower(string(u.role)))

	return u, nil
}
