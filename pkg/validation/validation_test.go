package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type courseForm struct {
	Name       string `form:"name" binding:"required,max=255"`
	Price      string `form:"price" binding:"required,decimal_between=0 1000"`
	Difficulty *int   `form:"difficulty" binding:"required,gte=0,lte=3"`
}

func intPtr(v int) *int { return &v }

func TestDecimalBetween(t *testing.T) {
	Engine()

	ok := courseForm{Name: "Go", Price: "1000", Difficulty: intPtr(1)}
	assert.NoError(t, Struct(ok))

	tooExpensive := courseForm{Name: "Go", Price: "1000.01", Difficulty: intPtr(1)}
	fields := Fields(Struct(tooExpensive))
	assert.Equal(t, "The price must be between 0 and 1000.", fields["price"])

	notANumber := courseForm{Name: "Go", Price: "free", Difficulty: intPtr(1)}
	assert.Contains(t, Fields(Struct(notANumber)), "price")
}

func TestFieldsUseFormNames(t *testing.T) {
	fields := Fields(Struct(courseForm{Price: "5", Difficulty: intPtr(7)}))

	assert.Equal(t, "The name field is required.", fields["name"])
	assert.Contains(t, fields, "difficulty")
}

func TestFieldsNonValidationError(t *testing.T) {
	assert.Equal(t, map[string]string{"request": "bad body"}, Fields(errors.New("bad body")))
	assert.Nil(t, Fields(nil))
}
