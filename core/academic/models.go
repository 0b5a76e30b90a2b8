package academic

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tsakani/alama/core"
)

// Module types
const (
	ModuleCompulsory = "compulsory"
	ModuleElective   = "elective"
	ModuleOptional   = "optional"
)

// Attempt types; dropped attempts never count towards the GPA.
const (
	AttemptFirst   = "first_attempt"
	AttemptRepeat  = "repeat"
	AttemptDropped = "dropped"
)

// Profile holds a user's academic identity. One per user;
// the registration number is unique system-wide.
type Profile struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	FullName           string    `json:"full_name"`
	Institution        string    `json:"institution"`
	Program            string    `json:"program"`
	RegistrationNumber string    `json:"registration_number"`
	EnrollmentStart    int       `json:"enrollment_start"`
	EnrollmentEnd      int       `json:"enrollment_end,omitempty"`
	CreatedAt          time.Time `json:"created_at"` // UTC
	UpdatedAt          time.Time `json:"updated_at"` // UTC
}

// GradeScaleEntry maps a grade label to its point value for one user.
// Labels are unique per user. The percentage range is informational only.
type GradeScaleEntry struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Label      string           `json:"label"`
	PointValue decimal.Decimal  `json:"point_value"`
	MinPercent *decimal.Decimal `json:"min_percent,omitempty"`
	MaxPercent *decimal.Decimal `json:"max_percent,omitempty"`
	CreatedAt  time.Time        `json:"created_at"` // UTC
	UpdatedAt  time.Time        `json:"updated_at"` // UTC
}

// Semester is an academic term. At most one semester per user is current.
// Deleting a semester deletes all of its modules.
type Semester struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Label        string     `json:"label"`
	AcademicYear string     `json:"academic_year"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	IsCurrent    bool       `json:"is_current"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

// CourseModule is a course taken in one semester. The grade label is free
// text, matched against the owner's grading scale at GPA time.
type CourseModule struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SemesterID  string    `json:"semester_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	CreditHours int       `json:"credit_hours"`
	GradeLabel  string    `json:"grade_label"`
	ModuleType  string    `json:"module_type"`
	AttemptType string    `json:"attempt_type"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewProfile contains information needed to register a Profile.
type NewProfile struct {
	FullName           string `json:"full_name" validate:"required"`
	Institution        string `json:"institution" validate:"required"`
	Program            string `json:"program" validate:"required"`
	RegistrationNumber string `json:"registration_number" validate:"required"`
	EnrollmentStart    int    `json:"enrollment_start" validate:"required,min=1900,max=2200"`
	EnrollmentEnd      int    `json:"enrollment_end" validate:"omitempty,min=1900,max=2200,gtefield=EnrollmentStart"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.FullName = core.CleanString(np.FullName)
	np.Institution = core.CleanString(np.Institution)
	np.Program = core.CleanString(np.Program)
	np.RegistrationNumber = core.CleanString(np.RegistrationNumber)
	return validate.Struct(np)
}

// UpdateProfile defines what information may be provided to modify a Profile.
type UpdateProfile struct {
	FullName           string `json:"full_name"`
	Institution        string `json:"institution"`
	Program            string `json:"program"`
	RegistrationNumber string `json:"registration_number"`
	EnrollmentStart    int    `json:"enrollment_start" validate:"omitempty,min=1900,max=2200"`
	EnrollmentEnd      int    `json:"enrollment_end" validate:"omitempty,min=1900,max=2200,gtefield=EnrollmentStart"`
}

func (up *UpdateProfile) Validate(orig Profile, validate *validator.Validate) error {
	if v := core.CleanString(up.FullName); v != "" {
		up.FullName = v
	} else {
		up.FullName = orig.FullName
	}
	if v := core.CleanString(up.Institution); v != "" {
		up.Institution = v
	} else {
		up.Institution = orig.Institution
	}
	if v := core.CleanString(up.Program); v != "" {
		up.Program = v
	} else {
		up.Program = orig.Program
	}
	if v := core.CleanString(up.RegistrationNumber); v != "" {
		up.RegistrationNumber = v
	} else {
		up.RegistrationNumber = orig.RegistrationNumber
	}
	if up.EnrollmentStart == 0 {
		up.EnrollmentStart = orig.EnrollmentStart
	}
	if up.EnrollmentEnd == 0 {
		up.EnrollmentEnd = orig.EnrollmentEnd
	}
	return validate.Struct(up)
}

// NewGradeScaleEntry contains information needed to add a grading scale entry.
type NewGradeScaleEntry struct {
	Label      string           `json:"label" validate:"required,gradelabel"`
	PointValue decimal.Decimal  `json:"point_value"`
	MinPercent *decimal.Decimal `json:"min_percent"`
	MaxPercent *decimal.Decimal `json:"max_percent"`
}

func (ne *NewGradeScaleEntry) Validate(validate *validator.Validate) error {
	ne.Label = core.CleanString(ne.Label)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	return validateScaleValues(ne.PointValue, ne.MinPercent, ne.MaxPercent)
}

// UpdateGradeScaleEntry defines what information may be provided to modify a scale entry.
type UpdateGradeScaleEntry struct {
	Label      string           `json:"label" validate:"omitempty,gradelabel"`
	PointValue *decimal.Decimal `json:"point_value"`
	MinPercent *decimal.Decimal `json:"min_percent"`
	MaxPercent *decimal.Decimal `json:"max_percent"`
}

func (ue *UpdateGradeScaleEntry) Validate(orig GradeScaleEntry, validate *validator.Validate) error {
	if v := core.CleanString(ue.Label); v != "" {
		ue.Label = v
	} else {
		ue.Label = orig.Label
	}
	if ue.PointValue == nil {
		ue.PointValue = &orig.PointValue
	}
	if ue.MinPercent == nil {
		ue.MinPercent = orig.MinPercent
	}
	if ue.MaxPercent == nil {
		ue.MaxPercent = orig.MaxPercent
	}
	if err := validate.Struct(ue); err != nil {
		return err
	}
	return validateScaleValues(*ue.PointValue, ue.MinPercent, ue.MaxPercent)
}

func validateScaleValues(pointValue decimal.Decimal, minPct, maxPct *decimal.Decimal) error {
	var flds []core.FieldError
	if pointValue.IsNegative() {
		flds = append(flds, core.FieldError{Field: "point_value", Error: "must not be negative"})
	}
	if minPct != nil && minPct.IsNegative() {
		flds = append(flds, core.FieldError{Field: "min_percent", Error: "must not be negative"})
	}
	if maxPct != nil && maxPct.GreaterThan(decimal.NewFromInt(100)) {
		flds = append(flds, core.FieldError{Field: "max_percent", Error: "must not exceed 100"})
	}
	if minPct != nil && maxPct != nil && minPct.GreaterThan(*maxPct) {
		flds = append(flds, core.FieldError{Field: "min_percent", Error: "must not exceed max_percent"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// NewSemester contains information needed to create a Semester.
type NewSemester struct {
	Label        string     `json:"label" validate:"required"`
	AcademicYear string     `json:"academic_year" validate:"required,acadyear"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	IsCurrent    bool       `json:"is_current"`
}

func (ns *NewSemester) Validate(validate *validator.Validate) error {
	ns.Label = core.CleanString(ns.Label)
	ns.AcademicYear = core.CleanString(ns.AcademicYear)
	if err := validate.Struct(ns); err != nil {
		return err
	}
	return validateSemesterDates(ns.StartDate, ns.EndDate)
}

// UpdateSemester defines what information may be provided to modify a Semester.
type UpdateSemester struct {
	Label        string     `json:"label"`
	AcademicYear string     `json:"academic_year" validate:"omitempty,acadyear"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	IsCurrent    *bool      `json:"is_current"`
}

func (us *UpdateSemester) Validate(orig Semester, validate *validator.Validate) error {
	if v := core.CleanString(us.Label); v != "" {
		us.Label = v
	} else {
		us.Label = orig.Label
	}
	if v := core.CleanString(us.AcademicYear); v != "" {
		us.AcademicYear = v
	} else {
		us.AcademicYear = orig.AcademicYear
	}
	if us.StartDate == nil {
		us.StartDate = orig.StartDate
	}
	if us.EndDate == nil {
		us.EndDate = orig.EndDate
	}
	if err := validate.Struct(us); err != nil {
		return err
	}
	return validateSemesterDates(us.StartDate, us.EndDate)
}

func validateSemesterDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "must not be before start_date"})
	}
	return nil
}

// NewCourseModule contains information needed to record a module in a semester.
type NewCourseModule struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	CreditHours int    `json:"credit_hours" validate:"required,min=1"`
	GradeLabel  string `json:"grade_label" validate:"required,gradelabel"`
	ModuleType  string `json:"module_type" validate:"required,oneof=compulsory elective optional"`
	AttemptType string `json:"attempt_type" validate:"required,oneof=first_attempt repeat dropped"`
}

func (nm *NewCourseModule) Validate(validate *validator.Validate) error {
	nm.Code = core.CleanString(nm.Code)
	nm.Name = core.CleanString(nm.Name)
	nm.GradeLabel = core.CleanString(nm.GradeLabel)
	return validate.Struct(nm)
}

// UpdateCourseModule defines what information may be provided to modify a module.
type UpdateCourseModule struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CreditHours int    `json:"credit_hours" validate:"omitempty,min=1"`
	GradeLabel  string `json:"grade_label" validate:"omitempty,gradelabel"`
	ModuleType  string `json:"module_type" validate:"omitempty,oneof=compulsory elective optional"`
	AttemptType string `json:"attempt_type" validate:"omitempty,oneof=first_attempt repeat dropped"`
}

func (um *UpdateCourseModule) Validate(orig CourseModule, validate *validator.Validate) error {
	if v := core.CleanString(um.Code); v != "" {
		um.Code = v
	} else {
		um.Code = orig.Code
	}
	if v := core.CleanString(um.Name); v != "" {
		um.Name = v
	} else {
		um.Name = orig.Name
	}
	if um.CreditHours == 0 {
		um.CreditHours = orig.CreditHours
	}
	if v := core.CleanString(um.GradeLabel); v != "" {
		um.GradeLabel = v
	} else {
		um.GradeLabel = orig.GradeLabel
	}
	if um.ModuleType == "" {
		um.ModuleType = orig.ModuleType
	}
	if um.AttemptType == "" {
		um.AttemptType = orig.AttemptType
	}
	return validate.Struct(um)
}

// ModuleFilter selects modules by owner and optionally by semester.
type ModuleFilter struct {
	UserID     string
	SemesterID string
}
