package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	People int    `json:"numberOfPeople" validate:"min=1"`
	Role   string `json:"role" validate:"oneof=tourist guide"`
}

func TestValidate_OK(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@b.co", People: 2, Role: "guide"}))
}

func TestValidate_ReportsJSONNames(t *testing.T) {
	errs := Validate(sample{Email: "nope", People: 0, Role: "admin"})

	assert.Equal(t, "must be a valid email", errs["email"])
	assert.Equal(t, "must be at least 1", errs["numberOfPeople"])
	assert.Equal(t, "must be one of [tourist guide]", errs["role"])
}

func TestDetails_NonValidatorError(t *testing.T) {
	errs := Details(errors.New("unexpected EOF"))
	assert.Equal(t, map[string]string{"body": "unexpected EOF"}, errs)
}
