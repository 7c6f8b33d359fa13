package user

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already exists")
	ErrNameRequired        = errors.New("name is required")
	ErrInvalidPassword     = errors.New("password must be at least 8 characters")
	ErrInvalidRole         = errors.New("role must be admin or student")
	ErrInvalidAmount       = errors.New("credit amount must be positive")
	ErrInsufficientCredits = errors.New("not enough credits")
)
