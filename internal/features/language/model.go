package language

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/pkg/database"
	"github.com/mo-amir99/course-server-go/pkg/types"
)

// Language is a programming language a course teaches.
type Language struct {
	types.BaseModel

	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

// TableName overrides the default table name.
func (Language) TableName() string { return "programming_languages" }

// List returns all languages ordered by name.
func List(db *gorm.DB) ([]Language, error) {
	languages := make([]Language, 0)
	err := db.Order("name ASC").Find(&languages).Error
	return languages, err
}

// Get retrieves a language by ID.
func Get(db *gorm.DB, id uint) (Language, error) {
	var lang Language
	if err := db.First(&lang, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lang, ErrLanguageNotFound
		}
		return lang, err
	}
	return lang, nil
}

// Exists reports whether a language with id exists.
func Exists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	if err := db.Model(&Language{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a language.
func Create(db *gorm.DB, name string) (Language, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Language{}, ErrNameRequired
	}

	lang := Language{Name: name}
	if err := db.Create(&lang).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return lang, ErrNameTaken
		}
		return lang, err
	}
	return lang, nil
}
