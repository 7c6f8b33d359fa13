package feedback

import "errors"

var (
	ErrCommentRequired = errors.New("comment is required")
	ErrCommentTooLong  = errors.New("comment may not be greater than 2048 characters")
)
