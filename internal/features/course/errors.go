package course

import "errors"

var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNameRequired    = errors.New("course name is required")
	ErrImageRequired   = errors.New("course image is required")
	ErrNotFinished     = errors.New("course has not been finished")
	ErrUnknownLanguage = errors.New("selected programming language is invalid")
)
