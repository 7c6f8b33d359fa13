package lesson

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/chapter"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Lesson is an assignment within a chapter.
type Lesson struct {
	types.BaseModel

	CourseChapterID uint   `gorm:"not null;index;column:course_chapter_id" json:"courseChapterId"`
	Name            string `gorm:"type:varchar(255);not null" json:"name"`
	Description     string `gorm:"type:text;not null" json:"description"`
	Assignment      string `gorm:"type:text;not null" json:"assignment"`
	InputCheck      string `gorm:"type:text;not null;column:input_check" json:"inputCheck"`
	OutputCheck     string `gorm:"type:text;not null;column:output_check" json:"outputCheck"`
}

// TableName overrides the default table name.
func (Lesson) TableName() string { return "course_chapter_lessons" }

// View is the learner-facing lesson without the expected output.
type View struct {
	ID              uint   `json:"id"`
	CourseChapterID uint   `json:"courseChapterId"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Assignment      string `json:"assignment"`
	InputCheck      string `json:"inputCheck"`
	Completed       bool   `json:"completed"`
}

// ViewOf builds the learner view.
func ViewOf(l Lesson, completed bool) View {
	return View{
		ID:              l.ID,
		CourseChapterID: l.CourseChapterID,
		Name:            l.Name,
		Description:     l.Description,
		Assignment:      l.Assignment,
		InputCheck:      l.InputCheck,
		Completed:       completed,
	}
}

// Input carries the editable lesson fields.
type Input struct {
	Name        string
	Description string
	Assignment  string
	InputCheck  string
	OutputCheck string
}

// NextKind tags what follows a lesson.
type NextKind string

const (
	NextLessonKind  NextKind = "lesson"
	NextChapterKind NextKind = "chapter"
	NextFinished    NextKind = "finished"
)

// Next is the navigation target after a lesson. ID is zero when finished.
type Next struct {
	Kind NextKind `json:"kind"`
	ID   uint     `json:"id,omitempty"`
}

// ListByChapter returns a chapter's lessons in creation order.
func ListByChapter(db *gorm.DB, chapterID uint) ([]Lesson, error) {
	lessons := make([]Lesson, 0)
	err := db.Where("course_chapter_id = ?", chapterID).Order("id ASC").Find(&lessons).Error
	return lessons, err
}

// GetForCourse retrieves a lesson and checks it belongs to the course.
func GetForCourse(db *gorm.DB, id, courseID uint) (Lesson, chapter.Chapter, error) {
	var l Lesson
	if err := db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return l, chapter.Chapter{}, ErrLessonNotFound
		}
		return l, chapter.Chapter{}, err
	}

	ch, err := chapter.GetForCourse(db, l.CourseChapterID, courseID)
	if err != nil {
		if errors.Is(err, chapter.ErrChapterNotFound) {
			return l, ch, ErrLessonNotFound
		}
		return l, ch, err
	}
	return l, ch, nil
}

// GetForChapter retrieves a lesson within a chapter.
func GetForChapter(db *gorm.DB, id, chapterID uint) (Lesson, error) {
	var l Lesson
	if err := db.First(&l, "id = ? AND course_chapter_id = ?", id, chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return l, ErrLessonNotFound
		}
		return l, err
	}
	return l, nil
}

// NextLesson returns the next lesson of the same chapter, else the next
// chapter of the course, else finished.
func NextLesson(db *gorm.DB, l Lesson) (Next, error) {
	var following Lesson
	err := db.Where("course_chapter_id = ? AND id > ?", l.CourseChapterID, l.ID).
		Order("id ASC").Limit(1).Find(&following).Error
	if err != nil {
		return Next{}, err
	}
	if following.ID != 0 {
		return Next{Kind: NextLessonKind, ID: following.ID}, nil
	}

	current, err := chapter.Get(db, l.CourseChapterID)
	if err != nil {
		return Next{}, err
	}

	nextChapter, ok, err := chapter.Next(db, current)
	if err != nil {
		return Next{}, err
	}
	if ok {
		return Next{Kind: NextChapterKind, ID: nextChapter.ID}, nil
	}
	return Next{Kind: NextFinished}, nil
}

// Completed reports whether the user finished the lesson.
func Completed(db *gorm.DB, userID uint, l Lesson) (bool, error) {
	return unlock.Completed(db, userID, l.ID)
}

// Matches compares submitted output with the expected output, ignoring
// surrounding whitespace.
func Matches(l Lesson, output string) bool {
	return strings.TrimSpace(output) == strings.TrimSpace(l.OutputCheck)
}

// Create inserts a lesson into a chapter.
func Create(db *gorm.DB, chapterID uint, input Input) (Lesson, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Lesson{}, ErrNameRequired
	}

	l := Lesson{
		CourseChapterID: chapterID,
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Assignment:      input.Assignment,
		InputCheck:      input.InputCheck,
		OutputCheck:     input.OutputCheck,
	}
	err := db.Create(&l).Error
	return l, err
}

// Update replaces the lesson's fields.
func Update(db *gorm.DB, l Lesson, input Input) (Lesson, error) {
	if strings.TrimSpace(input.Name) == "" {
		return l, ErrNameRequired
	}

	updates := map[string]interface{}{
		"name":         strings.TrimSpace(input.Name),
		"description":  input.Description,
		"assignment":   input.Assignment,
		"input_check":  input.InputCheck,
		"output_check": input.OutputCheck,
	}
	if err := db.Model(&Lesson{}).Where("id = ?", l.ID).Updates(updates).Error; err != nil {
		return l, err
	}

	var updated Lesson
	err := db.First(&updated, l.ID).Error
	return updated, err
}

// Delete removes a lesson and its progress rows, then recounts the
// course's unlock records.
func Delete(db *gorm.DB, l Lesson) error {
	return db.Transaction(func(tx *gorm.DB) error {
		ch, err := chapter.Get(tx, l.CourseChapterID)
		if err != nil {
			return err
		}
		if err := tx.Where("course_chapter_lesson_id = ?", l.ID).Delete(&unlock.Progress{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Lesson{}, l.ID).Error; err != nil {
			return err
		}
		return unlock.RecountCourse(tx, ch.CourseID)
	})
}
