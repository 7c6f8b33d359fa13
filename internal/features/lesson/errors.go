package lesson

import "errors"

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrNameRequired   = errors.New("lesson name is required")
	ErrWrongOutput    = errors.New("output does not match the expected result")
)
