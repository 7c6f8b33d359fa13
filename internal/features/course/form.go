package course

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mo-amir99/course-server-go/internal/features/language"
	"github.com/mo-amir99/course-server-go/pkg/apperrors"
	"github.com/mo-amir99/course-server-go/pkg/storage"
	"github.com/mo-amir99/course-server-go/pkg/types"
	"github.com/mo-amir99/course-server-go/pkg/validation"
)

// courseForm is the multipart payload for create and update.
type courseForm struct {
	Name                  string `form:"name" binding:"required,max=255"`
	Description           string `form:"description" binding:"required,max=300"`
	Duration              string `form:"duration" binding:"required,max=11"`
	Difficulty            *int   `form:"difficulty" binding:"required,gte=0,lte=3"`
	Price                 string `form:"price" binding:"required,decimal_between=0 1000"`
	ProgrammingLanguageID uint   `form:"programming_language_id" binding:"required"`
}

// submission is a validated form plus the optional uploaded image.
type submission struct {
	form  courseForm
	price types.Money
	image *multipart.FileHeader
}

func (s submission) createInput(imagePath string) CreateInput {
	return CreateInput{
		Name:                  s.form.Name,
		Description:           s.form.Description,
		Duration:              s.form.Duration,
		Difficulty:            *s.form.Difficulty,
		Price:                 s.price,
		ProgrammingLanguageID: s.form.ProgrammingLanguageID,
		Image:                 imagePath,
	}
}

func (s submission) updateInput(imagePath string) UpdateInput {
	return UpdateInput(s.createInput(imagePath))
}

// bindSubmission validates the request. Field failures from binding, the
// language lookup and the image check are reported together.
func bindSubmission(c *gin.Context, db *gorm.DB, imageRequired bool) (submission, error) {
	var sub submission
	fields := map[string]string{}

	if err := c.ShouldBind(&sub.form); err != nil {
		for k, v := range validation.Fields(err) {
			fields[k] = v
		}
	}

	if _, ok := fields["price"]; !ok && sub.form.Price != "" {
		price, err := types.NewMoneyFromString(sub.form.Price)
		if err != nil {
			fields["price"] = "The price must be a number."
		}
		sub.price = price
	}

	if _, ok := fields["programming_language_id"]; !ok && sub.form.ProgrammingLanguageID != 0 {
		err := checkLanguage(db, sub.form.ProgrammingLanguageID)
		switch {
		case errors.Is(err, ErrUnknownLanguage):
			fields["programming_language_id"] = "The selected programming language id is invalid."
		case err != nil:
			return sub, err
		}
	}

	header, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		if imageRequired {
			fields["image"] = "The image field is required."
		}
	case err != nil:
		fields["image"] = "The image could not be read."
	default:
		if _, err := storage.ValidateImage(header); err != nil {
			fields["image"] = imageMessage(err)
		} else {
			sub.image = header
		}
	}

	if len(fields) > 0 {
		return sub, apperrors.Validation("The given data was invalid.", fields)
	}
	return sub, nil
}

func checkLanguage(db *gorm.DB, id uint) error {
	exists, err := language.Exists(db, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrUnknownLanguage
	}
	return nil
}

func imageMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		return "The image may not be greater than 2048 kilobytes."
	case errors.Is(err, storage.ErrImageType):
		return "The image must be a file of type: jpeg, png, jpg, gif."
	default:
		return "The image could not be read."
	}
}
