package chapter

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Chapter groups lessons within a course.
type Chapter struct {
	types.BaseModel

	CourseID uint   `gorm:"not null;index" json:"courseId"`
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
}

// TableName overrides the default table name.
func (Chapter) TableName() string { return "course_chapters" }

// ListByCourse returns a course's chapters in creation order.
func ListByCourse(db *gorm.DB, courseID uint) ([]Chapter, error) {
	chapters := make([]Chapter, 0)
	err := db.Where("course_id = ?", courseID).Order("id ASC").Find(&chapters).Error
	return chapters, err
}

// GetForCourse retrieves a chapter that belongs to the course.
func GetForCourse(db *gorm.DB, id, courseID uint) (Chapter, error) {
	var ch Chapter
	if err := db.First(&ch, "id = ? AND course_id = ?", id, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ch, ErrChapterNotFound
		}
		return ch, err
	}
	return ch, nil
}

// Get retrieves a chapter by ID.
func Get(db *gorm.DB, id uint) (Chapter, error) {
	var ch Chapter
	if err := db.First(&ch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ch, ErrChapterNotFound
		}
		return ch, err
	}
	return ch, nil
}

// Next returns the chapter created after ch in the same course.
func Next(db *gorm.DB, ch Chapter) (Chapter, bool, error) {
	var next Chapter
	err := db.Where("course_id = ? AND id > ?", ch.CourseID, ch.ID).Order("id ASC").Limit(1).Find(&next).Error
	if err != nil {
		return next, false, err
	}
	return next, next.ID != 0, nil
}

// Create inserts a chapter.
func Create(db *gorm.DB, courseID uint, name string) (Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Chapter{}, ErrNameRequired
	}

	ch := Chapter{CourseID: courseID, Name: name}
	err := db.Create(&ch).Error
	return ch, err
}

// Rename changes a chapter's name.
func Rename(db *gorm.DB, ch Chapter, name string) (Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ch, ErrNameRequired
	}

	if err := db.Model(&ch).Update("name", name).Error; err != nil {
		return ch, err
	}
	ch.Name = name
	return ch, nil
}

// Delete removes a chapter with its lessons and their progress rows, then
// recounts the course's unlock records.
func Delete(db *gorm.DB, ch Chapter) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM user_progress WHERE course_chapter_lesson_id IN (
			SELECT id FROM course_chapter_lessons WHERE course_chapter_id = ?)`, ch.ID).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM course_chapter_lessons WHERE course_chapter_id = ?`, ch.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Chapter{}, ch.ID).Error; err != nil {
			return err
		}
		return unlock.RecountCourse(tx, ch.CourseID)
	})
}
