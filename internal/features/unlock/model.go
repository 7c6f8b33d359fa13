package unlock

import (
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Record states that a user may view a course and how far they got.
// AmountOfLessons is a denormalised copy of the course's assignment count.
type Record struct {
	types.BaseModel

	UserID                   uint  `gorm:"not null;uniqueIndex:idx_unlock_user_course,priority:1" json:"userId"`
	CourseID                 uint  `gorm:"not null;uniqueIndex:idx_unlock_user_course,priority:2;index" json:"courseId"`
	AmountOfCompletedLessons int64 `gorm:"not null;default:0;column:amount_of_completed_lessons" json:"amountOfCompletedLessons"`
	AmountOfLessons          int64 `gorm:"not null;default:0;column:amount_of_lessons" json:"amountOfLessons"`
}

// TableName overrides the default table name.
func (Record) TableName() string { return "user_course_unlocks" }

// Progress marks one lesson as completed by one user.
type Progress struct {
	types.BaseModel

	UserID                uint `gorm:"not null;uniqueIndex:idx_progress_user_lesson,priority:1" json:"userId"`
	CourseChapterLessonID uint `gorm:"not null;uniqueIndex:idx_progress_user_lesson,priority:2;index;column:course_chapter_lesson_id" json:"courseChapterLessonId"`
	Completed             bool `gorm:"not null;default:false" json:"completed"`
}

// TableName overrides the default table name.
func (Progress) TableName() string { return "user_progress" }

// Summary is the client-facing view of a record.
type Summary struct {
	CourseID   uint    `json:"courseId"`
	Completed  int64   `json:"completed"`
	Total      int64   `json:"total"`
	Percentage float64 `json:"percentage"`
	Finished   bool    `json:"finished"`
}

// Finished reports whether completed has reached total.
func Finished(rec Record, total int64) bool {
	return rec.AmountOfCompletedLessons >= total
}

// ProgressPercentage is 100 / total * completed, or 0 without assignments.
func ProgressPercentage(rec Record, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 / float64(total) * float64(rec.AmountOfCompletedLessons)
}

// Summarize combines the record with the course's assignment count.
func Summarize(rec Record, total int64) Summary {
	return Summary{
		CourseID:   rec.CourseID,
		Completed:  rec.AmountOfCompletedLessons,
		Total:      total,
		Percentage: ProgressPercentage(rec, total),
		Finished:   Finished(rec, total),
	}
}
