package language

import "errors"

var (
	ErrLanguageNotFound = errors.New("programming language not found")
	ErrNameRequired     = errors.New("language name is required")
	ErrNameTaken        = errors.New("language already exists")
)
