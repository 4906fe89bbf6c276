package core

import (
	"errors"
)

var (
	ErrInvalidCredentials = errors.New("wrong username or password")
	ErrDuplicateUser      = errors.New("a user with this name already exists")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUnsupportedType    = errors.New("only PDF files are accepted")
	ErrNotFound           = errors.New("not found")
	ErrEmptyPassword      = errors.New("refusing to set empty password")
)
