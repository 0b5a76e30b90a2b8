package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	gradeLabelTag   = "gradelabel"
	gradeLabelText  = "only letters, digits, '+', '-' and '*' are allowed"
	gradeLabelRegex = regexp.MustCompile(`^[A-Za-z0-9+\-*]+$`)

	acadYearTag   = "acadyear"
	acadYearText  = "must be an academic year like 2023 or 2023/2024"
	acadYearRegex = regexp.MustCompile(`^\d{4}(/\d{4})?$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(gradeLabelTag, gradeLabelValidation)
	RegisterCustomTranslation(validate, translator, gradeLabelTag, gradeLabelText)

	_ = validate.RegisterValidation(acadYearTag, acadYearValidation)
	RegisterCustomTranslation(validate, translator, acadYearTag, acadYearText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// gradeLabelValidation allows grade labels such as "A+", "B-", "CR*".
func gradeLabelValidation(fl validator.FieldLevel) bool {
	return gradeLabelRegex.MatchString(fl.Field().String())
}

// acadYearValidation allows "2023" or a "2023/2024" range.
func acadYearValidation(fl validator.FieldLevel) bool {
	return acadYearRegex.MatchString(fl.Field().String())
}
