package course

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/internal/features/unlock"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Course is a purchasable unit of chapters and lessons.
type Course struct {
	types.BaseModel

	Name                  string      `gorm:"type:varchar(255);not null" json:"name"`
	Description           string      `gorm:"type:varchar(300);not null" json:"description"`
	Duration              string      `gorm:"type:varchar(11);not null" json:"duration"`
	Difficulty            int         `gorm:"type:int;not null;default:0" json:"difficulty"`
	Price                 types.Money `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	ProgrammingLanguageID uint        `gorm:"not null;index;column:programming_language_id" json:"programmingLanguageId"`
	Image                 string      `gorm:"type:varchar(255);not null" json:"image"`

	ProgrammingLanguage *language.Language `gorm:"foreignKey:ProgrammingLanguageID" json:"programmingLanguage,omitempty"`
}

// TableName overrides the default table name.
func (Course) TableName() string { return "courses" }

// CreateInput carries validated data for a new course.
type CreateInput struct {
	Name                  string
	Description           string
	Duration              string
	Difficulty            int
	Price                 types.Money
	ProgrammingLanguageID uint
	Image                 string
}

// UpdateInput replaces the mutable fields. An empty Image keeps the stored path.
type UpdateInput struct {
	Name                  string
	Description           string
	Duration              string
	Difficulty            int
	Price                 types.Money
	ProgrammingLanguageID uint
	Image                 string
}

// List returns every course in creation order.
func List(db *gorm.DB) ([]Course, error) {
	courses := make([]Course, 0)
	err := db.Preload("ProgrammingLanguage").Order("id ASC").Find(&courses).Error
	return courses, err
}

// Get retrieves a course by ID.
func Get(db *gorm.DB, id uint) (Course, error) {
	var course Course
	if err := db.Preload("ProgrammingLanguage").First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return course, ErrCourseNotFound
		}
		return course, err
	}
	return course, nil
}

// OfRecord resolves the course an unlock record belongs to.
func OfRecord(db *gorm.DB, rec unlock.Record) (Course, error) {
	return Get(db, rec.CourseID)
}

// Create inserts a new course.
func Create(db *gorm.DB, input CreateInput) (Course, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Course{}, ErrNameRequired
	}
	if input.Image == "" {
		return Course{}, ErrImageRequired
	}

	course := Course{
		Name:                  strings.TrimSpace(input.Name),
		Description:           strings.TrimSpace(input.Description),
		Duration:              strings.TrimSpace(input.Duration),
		Difficulty:            input.Difficulty,
		Price:                 input.Price,
		ProgrammingLanguageID: input.ProgrammingLanguageID,
		Image:                 input.Image,
	}

	if err := db.Create(&course).Error; err != nil {
		return course, err
	}
	return course, nil
}

// Update overwrites the course fields and returns the previous image path.
func Update(db *gorm.DB, id uint, input UpdateInput) (Course, string, error) {
	course, err := Get(db, id)
	if err != nil {
		return course, "", err
	}
	if strings.TrimSpace(input.Name) == "" {
		return course, "", ErrNameRequired
	}

	previousImage := course.Image
	updates := map[string]interface{}{
		"name":                    strings.TrimSpace(input.Name),
		"description":             strings.TrimSpace(input.Description),
		"duration":                strings.TrimSpace(input.Duration),
		"difficulty":              input.Difficulty,
		"price":                   input.Price,
		"programming_language_id": input.ProgrammingLanguageID,
	}
	if input.Image != "" {
		updates["image"] = input.Image
	}

	if err := db.Model(&Course{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return course, "", err
	}

	updated, err := Get(db, id)
	return updated, previousImage, err
}

// Delete removes a course with its chapters, lessons, progress, unlocks and
// feedback in one transaction. It returns the removed course.
func Delete(db *gorm.DB, id uint) (Course, error) {
	course, err := Get(db, id)
	if err != nil {
		return course, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		statements := []string{
			`DELETE FROM user_progress WHERE course_chapter_lesson_id IN (
				SELECT l.id FROM course_chapter_lessons l
				JOIN course_chapters ch ON ch.id = l.course_chapter_id
				WHERE ch.course_id = ?)`,
			`DELETE FROM course_chapter_lessons WHERE course_chapter_id IN (
				SELECT id FROM course_chapters WHERE course_id = ?)`,
			`DELETE FROM course_chapters WHERE course_id = ?`,
			`DELETE FROM user_course_unlocks WHERE course_id = ?`,
			`DELETE FROM course_feedback WHERE course_id = ?`,
		}
		for _, stmt := range statements {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&Course{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCourseNotFound
		}
		return nil
	})
	return course, err
}
