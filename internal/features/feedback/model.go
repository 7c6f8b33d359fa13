package feedback

import (
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/pagination"
)

// MaxCommentLength bounds a feedback comment in characters.
const MaxCommentLength = 2048

// Feedback is an append-only comment about a course.
type Feedback struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"courseId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Comment   string    `gorm:"type:varchar(2048);not null" json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// TableName overrides the default table name.
func (Feedback) TableName() string { return "course_feedback" }

// Append stores a new feedback entry.
func Append(db *gorm.DB, courseID, userID uint, comment string) (Feedback, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return Feedback{}, ErrCommentRequired
	}
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return Feedback{}, ErrCommentTooLong
	}

	entry := Feedback{CourseID: courseID, UserID: userID, Comment: comment}
	err := db.Create(&entry).Error
	return entry, err
}

// ListForCourse returns a course's feedback, newest first.
func ListForCourse(db *gorm.DB, courseID uint, params pagination.Params) ([]Feedback, int64, error) {
	query := db.Model(&Feedback{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]Feedback, 0)
	err := params.Apply(query.Order("id DESC")).Find(&entries).Error
	return entries, total, err
}
