package unlock

import (
	"errors"

	"github.com/mo-amir99/course-server-go/internal/features/user"
)

var (
	ErrNotUnlocked         = errors.New("course has not been unlocked")
	ErrAlreadyUnlocked     = errors.New("course is already unlocked")
	ErrLessonMissing       = errors.New("lesson not found")
	ErrInsufficientCredits = user.ErrInsufficientCredits
)
