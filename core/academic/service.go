package academic

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/tsakani/alama/core"
)

var (
	// errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrScaleEntryNotFound = errors.New("grading scale entry not found")
	ErrSemesterNotFound   = errors.New("semester not found")
	ErrModuleNotFound     = errors.New("module not found")

	ErrRegNumberExists  = errors.New("a profile with this registration number already exists")
	ErrProfileExists    = errors.New("a profile already exists for this user")
	ErrGradeLabelExists = errors.New("a grading scale entry with this label already exists")
)

type (
	ProfileRepository interface {
		CreateProfile(ctx context.Context, pro Profile) (Profile, error)
		GetProfileByUserID(ctx context.Context, userID string) (Profile, error)
		UpdateProfile(ctx context.Context, pro Profile) (Profile, error)
		// FilterPeerProfiles returns all profiles of the given institution and
		// program, the caller's own included.
		FilterPeerProfiles(ctx context.Context, institution, program string) ([]Profile, error)
	}

	ScaleRepository interface {
		CreateScaleEntry(ctx context.Context, entry GradeScaleEntry) (GradeScaleEntry, error)
		QueryScaleEntries(ctx context.Context, userID string) ([]GradeScaleEntry, error)
		GetScaleEntry(ctx context.Context, id string) (GradeScaleEntry, error)
		UpdateScaleEntry(ctx context.Context, entry GradeScaleEntry) (GradeScaleEntry, error)
		DeleteScaleEntriesByID(ctx context.Context, ids ...string) (int, error)
	}

	SemesterRepository interface {
		// CreateSemester inserts the semester; when sem.IsCurrent is set it
		// atomically clears the current flag on the user's other semesters in
		// the same transaction.
		CreateSemester(ctx context.Context, sem Semester) (Semester, error)
		QuerySemesters(ctx context.Context, userID string) ([]Semester, error)
		GetSemester(ctx context.Context, id string) (Semester, error)
		// UpdateSemester follows the same atomic contract as CreateSemester.
		UpdateSemester(ctx context.Context, sem Semester) (Semester, error)
		// SetCurrentSemester atomically makes the given semester the user's
		// only current one.
		SetCurrentSemester(ctx context.Context, userID, semesterID string) (Semester, error)
		// DeleteSemestersByID also deletes all modules of the deleted
		// semesters, transactionally.
		DeleteSemestersByID(ctx context.Context, ids ...string) (int, error)
	}

	ModuleRepository interface {
		CreateModule(ctx context.Context, mod CourseModule) (CourseModule, error)
		QueryModules(ctx context.Context, filter ModuleFilter) ([]CourseModule, error)
		GetModule(ctx context.Context, id string) (CourseModule, error)
		UpdateModule(ctx context.Context, mod CourseModule) (CourseModule, error)
		DeleteModulesByID(ctx context.Context, ids ...string) (int, error)
	}

	ServiceInterface interface {
		CreateProfile(ctx context.Context, userID string, np NewProfile) (Profile, error)
		GetProfile(ctx context.Context, userID string) (Profile, error)
		UpdateProfile(ctx context.Context, userID string, up UpdateProfile) (Profile, error)

		AddScaleEntry(ctx context.Context, userID string, ne NewGradeScaleEntry) (GradeScaleEntry, error)
		QueryScale(ctx context.Context, userID string) ([]GradeScaleEntry, error)
		GetScaleEntry(ctx context.Context, userID, id string) (GradeScaleEntry, error)
		UpdateScaleEntry(ctx context.Context, userID, id string, ue UpdateGradeScaleEntry) (GradeScaleEntry, error)
		DeleteScaleEntry(ctx context.Context, userID, id string) error

		CreateSemester(ctx context.Context, userID string, ns NewSemester) (Semester, error)
		QuerySemesters(ctx context.Context, userID string) ([]Semester, error)
		GetSemester(ctx context.Context, userID, id string) (Semester, error)
		UpdateSemester(ctx context.Context, userID, id string, us UpdateSemester) (Semester, error)
		SetCurrentSemester(ctx context.Context, userID, id string) (Semester, error)
		DeleteSemester(ctx context.Context, userID, id string) error

		AddModule(ctx context.Context, userID, semesterID string, nm NewCourseModule) (CourseModule, error)
		QueryModules(ctx context.Context, userID, semesterID string) ([]CourseModule, error)
		GetModule(ctx context.Context, userID, id string) (CourseModule, error)
		UpdateModule(ctx context.Context, userID, id string, um UpdateCourseModule) (CourseModule, error)
		DeleteModule(ctx context.Context, userID, id string) error

		ComputeGPA(ctx context.Context, userID, semesterID string) (decimal.Decimal, error)
		Leaderboard(ctx context.Context, userID string, pg core.Pagination) ([]LeaderboardEntry, int, error)
		Transcript(ctx context.Context, userID string) (Transcript, error)
		EmailTranscript(ctx context.Context, userID string) error
	}

	Service struct {
		profileRepo  ProfileRepository
		scaleRepo    ScaleRepository
		semesterRepo SemesterRepository
		moduleRepo   ModuleRepository
		userRepo     UserDirectory
		mailSvc      core.EmailService
		conf         *core.Config
	}

	// UserDirectory is the slice of the account store this service needs
	// to address transcript emails.
	UserDirectory interface {
		GetUserEmail(ctx context.Context, userID string) (name, email string, err error)
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(
	profileRepo ProfileRepository,
	scaleRepo ScaleRepository,
	semesterRepo SemesterRepository,
	moduleRepo ModuleRepository,
	userRepo UserDirectory,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		profileRepo:  profileRepo,
		scaleRepo:    scaleRepo,
		semesterRepo: semesterRepo,
		moduleRepo:   moduleRepo,
		userRepo:     userRepo,
		mailSvc:      mailSvc,
		conf:         conf,
	}
}

// Profile

func (svc *Service) CreateProfile(ctx context.Context, userID string, np NewProfile) (Profile, error) {
	now := time.Now().UTC()
	pro := Profile{
		UserID:             userID,
		FullName:           np.FullName,
		Institution:        np.Institution,
		Program:            np.Program,
		RegistrationNumber: np.RegistrationNumber,
		EnrollmentStart:    np.EnrollmentStart,
		EnrollmentEnd:      np.EnrollmentEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	pro, err := svc.profileRepo.CreateProfile(ctx, pro)
	if err != nil {
		switch errors.Cause(err) {
		case ErrRegNumberExists:
			return Profile{}, core.NewValidationError(err, core.FieldError{Field: "registration_number", Error: err.Error()})
		case ErrProfileExists:
			return Profile{}, core.NewValidationError(err)
		}
		return Profile{}, err
	}
	return pro, nil
}

func (svc *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	return svc.profileRepo.GetProfileByUserID(ctx, userID)
}

func (svc *Service) UpdateProfile(ctx context.Context, userID string, up UpdateProfile) (Profile, error) {
	pro, err := svc.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	pro.FullName = up.FullName
	pro.Institution = up.Institution
	pro.Program = up.Program
	pro.RegistrationNumber = up.RegistrationNumber
	pro.EnrollmentStart = up.EnrollmentStart
	pro.EnrollmentEnd = up.EnrollmentEnd
	pro.UpdatedAt = time.Now().UTC()

	pro, err = svc.profileRepo.UpdateProfile(ctx, pro)
	if err != nil {
		if errors.Cause(err) == ErrRegNumberExists {
			return Profile{}, core.NewValidationError(err, core.FieldError{Field: "registration_number", Error: err.Error()})
		}
		return Profile{}, err
	}
	return pro, nil
}

// Grading scale

func (svc *Service) AddScaleEntry(ctx context.Context, userID string, ne NewGradeScaleEntry) (GradeScaleEntry, error) {
	now := time.Now().UTC()
	entry := GradeScaleEntry{
		UserID:     userID,
		Label:      ne.Label,
		PointValue: ne.PointValue,
		MinPercent: ne.MinPercent,
		MaxPercent: ne.MaxPercent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	entry, err := svc.scaleRepo.CreateScaleEntry(ctx, entry)
	if err != nil {
		if errors.Cause(err) == ErrGradeLabelExists {
			return GradeScaleEntry{}, core.NewValidationError(err, core.FieldError{Field: "label", Error: err.Error()})
		}
		return GradeScaleEntry{}, err
	}
	return entry, nil
}

func (svc *Service) QueryScale(ctx context.Context, userID string) ([]GradeScaleEntry, error) {
	return svc.scaleRepo.QueryScaleEntries(ctx, userID)
}

func (svc *Service) GetScaleEntry(ctx context.Context, userID, id string) (GradeScaleEntry, error) {
	entry, err := svc.scaleRepo.GetScaleEntry(ctx, id)
	if err != nil {
		return GradeScaleEntry{}, err
	}
	if entry.UserID != userID {
		return GradeScaleEntry{}, core.ErrPermissionDenied
	}
	return entry, nil
}

func (svc *Service) UpdateScaleEntry(ctx context.Context, userID, id string, ue UpdateGradeScaleEntry) (GradeScaleEntry, error) {
	entry, err := svc.GetScaleEntry(ctx, userID, id)
	if err != nil {
		return GradeScaleEntry{}, err
	}

	entry.Label = ue.Label
	entry.PointValue = *ue.PointValue
	entry.MinPercent = ue.MinPercent
	entry.MaxPercent = ue.MaxPercent
	entry.UpdatedAt = time.Now().UTC()

	entry, err = svc.scaleRepo.UpdateScaleEntry(ctx, entry)
	if err != nil {
		if errors.Cause(err) == ErrGradeLabelExists {
			return GradeScaleEntry{}, core.NewValidationError(err, core.FieldError{Field: "label", Error: err.Error()})
		}
		return GradeScaleEntry{}, err
	}
	return entry, nil
}

func (svc *Service) DeleteScaleEntry(ctx context.Context, userID, id string) error {
	if _, err := svc.GetScaleEntry(ctx, userID, id); err != nil {
		return err
	}
	_, err := svc.scaleRepo.DeleteScaleEntriesByID(ctx, id)
	return err
}

// Semesters

func (svc *Service) CreateSemester(ctx context.Context, userID string, ns NewSemester) (Semester, error) {
	now := time.Now().UTC()
	sem := Semester{
		UserID:       userID,
		Label:        ns.Label,
		AcademicYear: ns.AcademicYear,
		StartDate:    ns.StartDate,
		EndDate:      ns.EndDate,
		IsCurrent:    ns.IsCurrent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.semesterRepo.CreateSemester(ctx, sem)
}

func (svc *Service) QuerySemesters(ctx context.Context, userID string) ([]Semester, error) {
	return svc.semesterRepo.QuerySemesters(ctx, userID)
}

func (svc *Service) GetSemester(ctx context.Context, userID, id string) (Semester, error) {
	sem, err := svc.semesterRepo.GetSemester(ctx, id)
	if err != nil {
		return Semester{}, err
	}
	if sem.UserID != userID {
		return Semester{}, core.ErrPermissionDenied
	}
	return sem, nil
}

func (svc *Service) UpdateSemester(ctx context.Context, userID, id string, us UpdateSemester) (Semester, error) {
	sem, err := svc.GetSemester(ctx, userID, id)
	if err != nil {
		return Semester{}, err
	}

	sem.Label = us.Label
	sem.AcademicYear = us.AcademicYear
	sem.StartDate = us.StartDate
	sem.EndDate = us.EndDate
	if us.IsCurrent != nil {
		sem.IsCurrent = *us.IsCurrent
	}
	sem.UpdatedAt = time.Now().UTC()
	return svc.semesterRepo.UpdateSemester(ctx, sem)
}

func (svc *Service) SetCurrentSemester(ctx context.Context, userID, id string) (Semester, error) {
	if _, err := svc.GetSemester(ctx, userID, id); err != nil {
		return Semester{}, err
	}
	return svc.semesterRepo.SetCurrentSemester(ctx, userID, id)
}

func (svc *Service) DeleteSemester(ctx context.Context, userID, id string) error {
	if _, err := svc.GetSemester(ctx, userID, id); err != nil {
		return err
	}
	_, err := svc.semesterRepo.DeleteSemestersByID(ctx, id)
	return err
}

// Modules

func (svc *Service) AddModule(ctx context.Context, userID, semesterID string, nm NewCourseModule) (CourseModule, error) {
	// the semester must exist and belong to the caller
	if _, err := svc.GetSemester(ctx, userID, semesterID); err != nil {
		return CourseModule{}, err
	}

	now := time.Now().UTC()
	mod := CourseModule{
		UserID:      userID,
		SemesterID:  semesterID,
		Code:        nm.Code,
		Name:        nm.Name,
		CreditHours: nm.CreditHours,
		GradeLabel:  nm.GradeLabel,
		ModuleType:  nm.ModuleType,
		AttemptType: nm.AttemptType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.moduleRepo.CreateModule(ctx, mod)
}

func (svc *Service) QueryModules(ctx context.Context, userID, semesterID string) ([]CourseModule, error) {
	if semesterID != "" {
		if _, err := svc.GetSemester(ctx, userID, semesterID); err != nil {
			return nil, err
		}
	}
	return svc.moduleRepo.QueryModules(ctx, ModuleFilter{UserID: userID, SemesterID: semesterID})
}

func (svc *Service) GetModule(ctx context.Context, userID, id string) (CourseModule, error) {
	mod, err := svc.moduleRepo.GetModule(ctx, id)
	if err != nil {
		return CourseModule{}, err
	}
	if mod.UserID != userID {
		return CourseModule{}, core.ErrPermissionDenied
	}
	return mod, nil
}

func (svc *Service) UpdateModule(ctx context.Context, userID, id string, um UpdateCourseModule) (CourseModule, error) {
	mod, err := svc.GetModule(ctx, userID, id)
	if err != nil {
		return CourseModule{}, err
	}

	mod.Code = um.Code
	mod.Name = um.Name
	mod.CreditHours = um.CreditHours
	mod.GradeLabel = um.GradeLabel
	mod.ModuleType = um.ModuleType
	mod.AttemptType = um.AttemptType
	mod.UpdatedAt = time.Now().UTC()
	return svc.moduleRepo.UpdateModule(ctx, mod)
}

func (svc *Service) DeleteModule(ctx context.Context, userID, id string) error {
	if _, err := svc.GetModule(ctx, userID, id); err != nil {
		return err
	}
	_, err := svc.moduleRepo.DeleteModulesByID(ctx, id)
	return err
}

// ComputeGPA returns the user's GPA over all semesters, or over a single
// semester when semesterID is non-empty.
func (svc *Service) ComputeGPA(ctx context.Context, userID, semesterID string) (decimal.Decimal, error) {
	if semesterID != "" {
		if _, err := svc.GetSemester(ctx, userID, semesterID); err != nil {
			return decimal.Zero, err
		}
	}

	scale, err := svc.scaleRepo.QueryScaleEntries(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	modules, err := svc.moduleRepo.QueryModules(ctx, ModuleFilter{UserID: userID, SemesterID: semesterID})
	if err != nil {
		return decimal.Zero, err
	}
	return GPA(scale, modules), nil
}
