package academic

import (
	"context"
	"net/mail"

	"github.com/shopspring/decimal"

	"github.com/tsakani/alama/core"
)

type (
	TranscriptModule struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		CreditHours int    `json:"credit_hours"`
		GradeLabel  string `json:"grade_label"`
		ModuleType  string `json:"module_type"`
		AttemptType string `json:"attempt_type"`
	}

	TranscriptSemester struct {
		Label        string             `json:"label"`
		AcademicYear string             `json:"academic_year"`
		GPA          decimal.Decimal    `json:"gpa"`
		Modules      []TranscriptModule `json:"modules"`
	}

	Transcript struct {
		Profile       Profile              `json:"profile"`
		Semesters     []TranscriptSemester `json:"semesters"`
		CumulativeGPA decimal.Decimal      `json:"cumulative_gpa"`
	}
)

// Transcript assembles the user's full academic record: one section per
// semester with its GPA, plus the cumulative GPA over all semesters.
func (svc *Service) Transcript(ctx context.Context, userID string) (Transcript, error) {
	pro, err := svc.profileRepo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return Transcript{}, err
	}

	scale, err := svc.scaleRepo.QueryScaleEntries(ctx, userID)
	if err != nil {
		return Transcript{}, err
	}
	semesters, err := svc.semesterRepo.QuerySemesters(ctx, userID)
	if err != nil {
		return Transcript{}, err
	}
	modules, err := svc.moduleRepo.QueryModules(ctx, ModuleFilter{UserID: userID})
	if err != nil {
		return Transcript{}, err
	}

	bySemester := make(map[string][]CourseModule, len(semesters))
	for _, mod := range modules {
		bySemester[mod.SemesterID] = append(bySemester[mod.SemesterID], mod)
	}

	tr := Transcript{
		Profile:       pro,
		Semesters:     make([]TranscriptSemester, 0, len(semesters)),
		CumulativeGPA: GPA(scale, modules),
	}
	for _, sem := range semesters {
		semMods := bySemester[sem.ID]
		ts := TranscriptSemester{
			Label:        sem.Label,
			AcademicYear: sem.AcademicYear,
			GPA:          GPA(scale, semMods),
			Modules:      make([]TranscriptModule, 0, len(semMods)),
		}
		for _, mod := range semMods {
			ts.Modules = append(ts.Modules, TranscriptModule{
				Code:        mod.Code,
				Name:        mod.Name,
				CreditHours: mod.CreditHours,
				GradeLabel:  mod.GradeLabel,
				ModuleType:  mod.ModuleType,
				AttemptType: mod.AttemptType,
			})
		}
		tr.Semesters = append(tr.Semesters, ts)
	}
	return tr, nil
}

// EmailTranscript renders the user's transcript and mails it to the address
// on their account.
func (svc *Service) EmailTranscript(ctx context.Context, userID string) error {
	tr, err := svc.Transcript(ctx, userID)
	if err != nil {
		return err
	}

	name, email, err := svc.userRepo.GetUserEmail(ctx, userID)
	if err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: email}},
		Subject:      "Your academic transcript",
		TemplateName: "transcript",
		TemplateData: tr,
	})
	return nil
}
