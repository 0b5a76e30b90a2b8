package academic_test

import (
	"context"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
	"github.com/tsakani/alama/core/user"
	emailsvc "github.com/tsakani/alama/services/email"
	inmemdb "github.com/tsakani/alama/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

var conf = &core.Config{
	TestMode:        true,
	AppName:         "Alama",
	FrontendBaseURL: "http://localhost:3000",
}

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(conf, nopLogger{})
	os.Exit(m.Run())
}

type testEnv struct {
	db      *inmemdb.DB
	usrRepo user.Repository
	mailSvc *emailsvc.DummyService
	svc     *academic.Service
}

func newTestEnv() *testEnv {
	db := inmemdb.NewDB()
	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewDummyService()
	svc := academic.NewService(
		inmemdb.NewProfileRepository(db),
		inmemdb.NewScaleRepository(db),
		inmemdb.NewSemesterRepository(db),
		inmemdb.NewModuleRepository(db),
		inmemdb.NewUserRepository(db),
		mailSvc,
		conf,
	)
	return &testEnv{db: db, usrRepo: usrRepo, mailSvc: mailSvc, svc: svc}
}

func (env *testEnv) createUser(t *testing.T, name, email string) user.User {
	t.Helper()
	usr, err := env.usrRepo.CreateUser(context.Background(), user.User{
		Name:     name,
		Username: name,
		Email:    email,
		Roles:    []string{user.RoleStudent},
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", name, err)
	}
	return usr
}

func (env *testEnv) createProfile(t *testing.T, userID, regNo, institution, program string) academic.Profile {
	t.Helper()
	pro, err := env.svc.CreateProfile(context.Background(), userID, academic.NewProfile{
		FullName:           "Student " + regNo,
		Institution:        institution,
		Program:            program,
		RegistrationNumber: regNo,
		EnrollmentStart:    2021,
	})
	if err != nil {
		t.Fatalf("creating profile %s: %v", regNo, err)
	}
	return pro
}

func (env *testEnv) seedScale(t *testing.T, userID string, points map[string]string) {
	t.Helper()
	for label, pts := range points {
		_, err := env.svc.AddScaleEntry(context.Background(), userID, academic.NewGradeScaleEntry{
			Label:      label,
			PointValue: decimal.RequireFromString(pts),
		})
		if err != nil {
			t.Fatalf("adding scale entry %s: %v", label, err)
		}
	}
}

func (env *testEnv) createSemester(t *testing.T, userID, label string, current bool) academic.Semester {
	t.Helper()
	sem, err := env.svc.CreateSemester(context.Background(), userID, academic.NewSemester{
		Label:        label,
		AcademicYear: "2024/2025",
		IsCurrent:    current,
	})
	if err != nil {
		t.Fatalf("creating semester %s: %v", label, err)
	}
	return sem
}

func (env *testEnv) addModule(t *testing.T, userID, semesterID, code, grade string, credits int) academic.CourseModule {
	t.Helper()
	mod, err := env.svc.AddModule(context.Background(), userID, semesterID, academic.NewCourseModule{
		Code:        code,
		Name:        "Course " + code,
		CreditHours: credits,
		GradeLabel:  grade,
		ModuleType:  academic.ModuleCompulsory,
		AttemptType: academic.AttemptFirst,
	})
	if err != nil {
		t.Fatalf("adding module %s: %v", code, err)
	}
	return mod
}

func currentSemesters(t *testing.T, env *testEnv, userID string) []academic.Semester {
	t.Helper()
	sems, err := env.svc.QuerySemesters(context.Background(), userID)
	if err != nil {
		t.Fatalf("querying semesters: %v", err)
	}
	var current []academic.Semester
	for _, sem := range sems {
		if sem.IsCurrent {
			current = append(current, sem)
		}
	}
	return current
}

func TestCurrentSemesterExclusivity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	usr := env.createUser(t, "awa", "awa@test.com")

	s1 := env.createSemester(t, usr.ID, "Semester 1", true)
	s2 := env.createSemester(t, usr.ID, "Semester 2", false)

	if got := currentSemesters(t, env, usr.ID); len(got) != 1 || got[0].ID != s1.ID {
		t.Fatalf("expected s1 to be the only current semester, got %+v", got)
	}

	// creating another current semester demotes the previous one
	s3 := env.createSemester(t, usr.ID, "Semester 3", true)
	if got := currentSemesters(t, env, usr.ID); len(got) != 1 || got[0].ID != s3.ID {
		t.Fatalf("expected s3 to be the only current semester, got %+v", got)
	}

	// explicit switch
	if _, err := env.svc.SetCurrentSemester(ctx, usr.ID, s2.ID); err != nil {
		t.Fatalf("setting current semester: %v", err)
	}
	if got := currentSemesters(t, env, usr.ID); len(got) != 1 || got[0].ID != s2.ID {
		t.Fatalf("expected s2 to be the only current semester, got %+v", got)
	}

	// updating with is_current=true demotes the rest too
	isCurrent := true
	if _, err := env.svc.UpdateSemester(ctx, usr.ID, s1.ID, academic.UpdateSemester{
		Label:        s1.Label,
		AcademicYear: s1.AcademicYear,
		IsCurrent:    &isCurrent,
	}); err != nil {
		t.Fatalf("updating semester: %v", err)
	}
	if got := currentSemesters(t, env, usr.ID); len(got) != 1 || got[0].ID != s1.ID {
		t.Fatalf("expected s1 to be the only current semester, got %+v", got)
	}
}

func TestCurrentSemesterIsPerUser(t *testing.T) {
	env := newTestEnv()
	alice := env.createUser(t, "alice", "alice@test.com")
	bob := env.createUser(t, "bobby", "bob@test.com")

	env.createSemester(t, alice.ID, "Semester 1", true)
	env.createSemester(t, bob.ID, "Semester 1", true)

	if got := currentSemesters(t, env, alice.ID); len(got) != 1 {
		t.Fatalf("expected alice to keep her current semester, got %+v", got)
	}
	if got := currentSemesters(t, env, bob.ID); len(got) != 1 {
		t.Fatalf("expected bob to keep his current semester, got %+v", got)
	}
}

func TestSemesterOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	alice := env.createUser(t, "alice", "alice@test.com")
	bob := env.createUser(t, "bobby", "bob@test.com")

	sem := env.createSemester(t, alice.ID, "Semester 1", false)

	if _, err := env.svc.GetSemester(ctx, bob.ID, sem.ID); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := env.svc.UpdateSemester(ctx, bob.ID, sem.ID, academic.UpdateSemester{}); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := env.svc.DeleteSemester(ctx, bob.ID, sem.ID); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if _, err := env.svc.SetCurrentSemester(ctx, bob.ID, sem.ID); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestModuleOwnershipAndScoping(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	alice := env.createUser(t, "alice", "alice@test.com")
	bob := env.createUser(t, "bobby", "bob@test.com")

	sem := env.createSemester(t, alice.ID, "Semester 1", false)
	mod := env.addModule(t, alice.ID, sem.ID, "CS101", "A", 3)

	// bob cannot read or change alice's module
	if _, err := env.svc.GetModule(ctx, bob.ID, mod.ID); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := env.svc.DeleteModule(ctx, bob.ID, mod.ID); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	// bob cannot record a module into alice's semester
	if _, err := env.svc.AddModule(ctx, bob.ID, sem.ID, academic.NewCourseModule{
		Code: "CS999", Name: "Hack", CreditHours: 3, GradeLabel: "A",
		ModuleType: academic.ModuleCompulsory, AttemptType: academic.AttemptFirst,
	}); errors.Cause(err) != core.ErrPermissionDenied {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestDeleteSemesterCascadesToModules(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	usr := env.createUser(t, "awa", "awa@test.com")

	sem := env.createSemester(t, usr.ID, "Semester 1", false)
	env.addModule(t, usr.ID, sem.ID, "CS101", "A", 3)
	env.addModule(t, usr.ID, sem.ID, "CS102", "B", 3)

	other := env.createSemester(t, usr.ID, "Semester 2", false)
	kept := env.addModule(t, usr.ID, other.ID, "CS201", "A", 3)

	if err := env.svc.DeleteSemester(ctx, usr.ID, sem.ID); err != nil {
		t.Fatalf("deleting semester: %v", err)
	}

	mods, err := env.svc.QueryModules(ctx, usr.ID, "")
	if err != nil {
		t.Fatalf("querying modules: %v", err)
	}
	if len(mods) != 1 || mods[0].ID != kept.ID {
		t.Fatalf("expected only the other semester's module to survive, got %+v", mods)
	}
}

func TestProfileRegistrationNumberUniqueness(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	alice := env.createUser(t, "alice", "alice@test.com")
	bob := env.createUser(t, "bobby", "bob@test.com")

	env.createProfile(t, alice.ID, "REG-001", "UniA", "CS")

	_, err := env.svc.CreateProfile(ctx, bob.ID, academic.NewProfile{
		FullName:           "Bob",
		Institution:        "UniA",
		Program:            "CS",
		RegistrationNumber: "REG-001",
		EnrollmentStart:    2021,
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assert.Equal(t, "registration_number", vErr.Fields[0].Field)

	// one profile per user
	_, err = env.svc.CreateProfile(ctx, alice.ID, academic.NewProfile{
		FullName:           "Alice Again",
		Institution:        "UniA",
		Program:            "CS",
		RegistrationNumber: "REG-002",
		EnrollmentStart:    2021,
	})
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestScaleLabelUniqueness(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	usr := env.createUser(t, "awa", "awa@test.com")

	env.seedScale(t, usr.ID, map[string]string{"A": "4.00"})

	_, err := env.svc.AddScaleEntry(ctx, usr.ID, academic.NewGradeScaleEntry{
		Label:      "A",
		PointValue: decimal.RequireFromString("3.70"),
	})
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	assert.Equal(t, "label", vErr.Fields[0].Field)
}

func TestComputeGPASemesterScope(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	usr := env.createUser(t, "awa", "awa@test.com")
	env.seedScale(t, usr.ID, map[string]string{"A": "4.00", "B": "3.00", "C": "2.00"})

	s1 := env.createSemester(t, usr.ID, "Semester 1", false)
	s2 := env.createSemester(t, usr.ID, "Semester 2", false)
	env.addModule(t, usr.ID, s1.ID, "CS101", "A", 3)
	env.addModule(t, usr.ID, s1.ID, "CS102", "B", 3)
	env.addModule(t, usr.ID, s2.ID, "CS201", "C", 4)

	gpa, err := env.svc.ComputeGPA(ctx, usr.ID, s1.ID)
	if err != nil {
		t.Fatalf("computing semester GPA: %v", err)
	}
	assert.Equal(t, "3.50", gpa.StringFixed(2))

	// (12 + 9 + 8) / 10
	gpa, err = env.svc.ComputeGPA(ctx, usr.ID, "")
	if err != nil {
		t.Fatalf("computing cumulative GPA: %v", err)
	}
	assert.Equal(t, "2.90", gpa.StringFixed(2))
}

func TestTranscript(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	usr := env.createUser(t, "awa", "awa@test.com")
	env.createProfile(t, usr.ID, "REG-001", "UniA", "CS")
	env.seedScale(t, usr.ID, map[string]string{"A": "4.00", "B": "3.00"})

	s1 := env.createSemester(t, usr.ID, "Semester 1", false)
	s2 := env.createSemester(t, usr.ID, "Semester 2", true)
	env.addModule(t, usr.ID, s1.ID, "CS101", "A", 3)
	env.addModule(t, usr.ID, s2.ID, "CS201", "B", 3)

	tr, err := env.svc.Transcript(ctx, usr.ID)
	if err != nil {
		t.Fatalf("assembling transcript: %v", err)
	}

	assert.Equal(t, "REG-001", tr.Profile.RegistrationNumber)
	if len(tr.Semesters) != 2 {
		t.Fatalf("expected 2 semesters, got %d", len(tr.Semesters))
	}
	assert.Equal(t, "4.00", tr.Semesters[0].GPA.StringFixed(2))
	assert.Equal(t, "3.00", tr.Semesters[1].GPA.StringFixed(2))
	assert.Equal(t, "3.50", tr.CumulativeGPA.StringFixed(2))
	if len(tr.Semesters[0].Modules) != 1 || tr.Semesters[0].Modules[0].Code != "CS101" {
		t.Fatalf("unexpected semester 1 modules: %+v", tr.Semesters[0].Modules)
	}
}

func TestEmailTranscript(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	usr := env.createUser(t, "awa", "awa@test.com")
	env.createProfile(t, usr.ID, "REG-001", "UniA", "CS")
	env.seedScale(t, usr.ID, map[string]string{"A": "4.00"})
	sem := env.createSemester(t, usr.ID, "Semester 1", true)
	env.addModule(t, usr.ID, sem.ID, "CS101", "A", 3)

	if err := env.svc.EmailTranscript(ctx, usr.ID); err != nil {
		t.Fatalf("emailing transcript: %v", err)
	}

	msgs := env.mailSvc.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	msg := msgs[0]
	assert.Equal(t, "transcript", msg.TemplateName)
	assert.Equal(t, usr.Email, msg.To[0].Address)
	assert.Empty(t, env.mailSvc.RenderErrors())
	assert.Contains(t, msg.TextContent, "4.00")
	assert.Contains(t, msg.TextContent, "CS101")
}

func TestEmailTranscriptWithoutProfile(t *testing.T) {
	env := newTestEnv()
	usr := env.createUser(t, "awa", "awa@test.com")

	err := env.svc.EmailTranscript(context.Background(), usr.ID)
	if errors.Cause(err) != academic.ErrProfileNotFound {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
	if got := env.mailSvc.Messages(); len(got) != 0 {
		t.Fatalf("expected no messages, got %d", len(got))
	}
}
