package chapter

import "errors"

var (
	ErrChapterNotFound = errors.New("chapter not found")
	ErrNameRequired    = errors.New("chapter name is required")
)
