package service

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnknownEmail  = errors.New("unknown email")
	ErrWrongPassword = errors.New("wrong password")
	ErrTitleTaken    = errors.New("post title already used")
	ErrConflict      = errors.New("conflicting concurrent write")
)
