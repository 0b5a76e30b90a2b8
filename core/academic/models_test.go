package academic_test

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
)

func newTestValidator() *validator.Validate {
	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate
}

func enrollmentRangeErr(t *testing.T, err error) {
	t.Helper()
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	for _, vErr := range vErrs {
		if vErr.Field() == "enrollment_end" && vErr.Tag() == "gtefield" {
			return
		}
	}
	t.Fatalf("expected an enrollment_end range error, got %v", vErrs)
}

func TestProfileEnrollmentRange(t *testing.T) {
	validate := newTestValidator()

	np := academic.NewProfile{
		FullName:           "Awa M",
		Institution:        "UniA",
		Program:            "CS",
		RegistrationNumber: "REG-001",
		EnrollmentStart:    2021,
		EnrollmentEnd:      2019,
	}
	enrollmentRangeErr(t, np.Validate(validate))

	np.EnrollmentEnd = 2024
	if err := np.Validate(validate); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}

	// the update path enforces the same ordering
	orig := academic.Profile{
		FullName:           "Awa M",
		Institution:        "UniA",
		Program:            "CS",
		RegistrationNumber: "REG-001",
		EnrollmentStart:    2021,
		EnrollmentEnd:      2024,
	}
	up := academic.UpdateProfile{EnrollmentEnd: 2019}
	enrollmentRangeErr(t, up.Validate(orig, validate))

	up = academic.UpdateProfile{EnrollmentEnd: 2022}
	if err := up.Validate(orig, validate); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
}
