package core

import (
	"fmt"
	"log"
	"strings"
)

type DBUser interface {
	ID() int
	Name() string
	Role() Role
}

type UserDB interface {
	DeleteUser(id int) error // deleting an absent id is not an error
	GetUser(id int) (DBUser, error)
	GetAllUsers(limit, offset int) ([]DBUser, error)
	InsertUser(name string, role Role, password string) (DBUser, error) // stores a hash, never the password
	LoginUser(name, password string) (DBUser, error)
}

// SignUp shadows UserDB.InsertUser with boundary validation.
func (c *CoreDB) SignUp(name string, role Role, password string) (DBUser, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("username %w", ErrNotFound)
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role: %s", role)
	}
	return c.UserDB.InsertUser(name, role, password)
}

// AddUser creates an account with a generated password and mails the
// credentials to the given address. A mail failure is logged and does not
// undo the creation: the account exists either way.
func (c *CoreDB) AddUser(name string, role Role, email string) (DBUser, error) {

	password, err := GeneratePassword()
	if err != nil {
		return nil, err
	}

	u, err := c.SignUp(name, role, password)
	if err != nil {
		return nil, err
	}

	if err := c.Mailer.SendCredentials(email, u.Name(), password); err != nil {
		log.Printf("error mailing credentials for user %s to %s: %v", u.Name(), email, err)
	}

	return u, nil
}
