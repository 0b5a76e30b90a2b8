package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/tsakani/alama/core/academic"
	"github.com/tsakani/alama/core/user"
)

func (app *testApp) seedStudent(t *testing.T, uname, regNo string) (user.User, string) {
	t.Helper()
	usr := app.createUser(t, uname, uname, uname+"@test.com", "s3cr3tpwd", []string{user.RoleStudent})
	ctx := context.Background()
	if _, err := app.acadSvc.CreateProfile(ctx, usr.ID, academic.NewProfile{
		FullName:           "Student " + uname,
		Institution:        "UniA",
		Program:            "CS",
		RegistrationNumber: regNo,
		EnrollmentStart:    2021,
	}); err != nil {
		t.Fatalf("seeding profile: %v", err)
	}
	for label, pts := range map[string]string{"A": "4.00", "B": "3.00", "C": "2.00"} {
		if _, err := app.acadSvc.AddScaleEntry(ctx, usr.ID, academic.NewGradeScaleEntry{
			Label:      label,
			PointValue: decimal.RequireFromString(pts),
		}); err != nil {
			t.Fatalf("seeding scale: %v", err)
		}
	}
	return usr, app.getToken(t, usr)
}

func TestAcademicAPIRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/v1/academics/profile",
		"/v1/academics/grading-scale",
		"/v1/academics/semesters",
		"/v1/academics/gpa",
		"/v1/academics/leaderboard",
		"/v1/academics/transcript",
	} {
		rec := app.request(http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized && rec.Code != http.StatusBadRequest {
			t.Errorf("%s: code = %d; want 401", path, rec.Code)
		}
	}
}

func TestProfileAPI(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "awa", "awa", "awa@test.com", "s3cr3tpwd", []string{user.RoleStudent})
	token := app.getToken(t, usr)

	// no profile yet
	rec := app.request(http.MethodGet, "/v1/academics/profile", token)
	checkCode(t, rec, http.StatusNotFound)

	// create
	rec = app.request(http.MethodPost, "/v1/academics/profile", token, marshallObj(t, academic.NewProfile{
		FullName:           "Awa M",
		Institution:        "UniA",
		Program:            "CS",
		RegistrationNumber: "REG-001",
		EnrollmentStart:    2021,
	}))
	checkCode(t, rec, http.StatusCreated)

	var pro academic.Profile
	decodeBody(t, rec, &pro)
	assert.Equal(t, usr.ID, pro.UserID)
	assert.Equal(t, "REG-001", pro.RegistrationNumber)

	// retrieve
	rec = app.request(http.MethodGet, "/v1/academics/profile", token)
	checkCode(t, rec, http.StatusOK)

	// validation error surfaces as a field map
	rec = app.request(http.MethodPost, "/v1/academics/profile", app.getToken(t,
		app.createUser(t, "bob", "bobby", "bob@test.com", "s3cr3tpwd", []string{user.RoleStudent})),
		marshallObj(t, academic.NewProfile{FullName: "Bob"}))
	checkCode(t, rec, http.StatusBadRequest)

	var fldErrs map[string]string
	decodeBody(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "institution")
	assert.Contains(t, fldErrs, "registration_number")
}

func TestSemesterAPICurrentExclusivity(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedStudent(t, "awa", "REG-001")

	var s1, s2 academic.Semester
	rec := app.request(http.MethodPost, "/v1/academics/semesters", token, marshallObj(t, academic.NewSemester{
		Label: "Semester 1", AcademicYear: "2024/2025", IsCurrent: true,
	}))
	checkCode(t, rec, http.StatusCreated)
	decodeBody(t, rec, &s1)

	rec = app.request(http.MethodPost, "/v1/academics/semesters", token, marshallObj(t, academic.NewSemester{
		Label: "Semester 2", AcademicYear: "2024/2025",
	}))
	checkCode(t, rec, http.StatusCreated)
	decodeBody(t, rec, &s2)

	// switch the current semester
	rec = app.request(http.MethodPost, "/v1/academics/semesters/"+s2.ID+"/current", token)
	checkCode(t, rec, http.StatusOK)

	rec = app.request(http.MethodGet, "/v1/academics/semesters", token)
	checkCode(t, rec, http.StatusOK)
	var sems []academic.Semester
	decodeBody(t, rec, &sems)

	var current []string
	for _, sem := range sems {
		if sem.IsCurrent {
			current = append(current, sem.ID)
		}
	}
	if len(current) != 1 || current[0] != s2.ID {
		t.Fatalf("expected s2 to be the only current semester, got %v", current)
	}
}

func TestSemesterAPIOwnership(t *testing.T) {
	app := newTestApp(t)
	_, aliceToken := app.seedStudent(t, "alice", "REG-001")
	_, bobToken := app.seedStudent(t, "bob", "REG-002")

	var sem academic.Semester
	rec := app.request(http.MethodPost, "/v1/academics/semesters", aliceToken, marshallObj(t, academic.NewSemester{
		Label: "Semester 1", AcademicYear: "2024/2025",
	}))
	checkCode(t, rec, http.StatusCreated)
	decodeBody(t, rec, &sem)

	// bob cannot see or touch alice's semester
	rec = app.request(http.MethodGet, "/v1/academics/semesters/"+sem.ID, bobToken)
	checkCode(t, rec, http.StatusForbidden)

	rec = app.request(http.MethodDelete, "/v1/academics/semesters/"+sem.ID, bobToken)
	checkCode(t, rec, http.StatusForbidden)
}

func TestGPAAndModulesAPI(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedStudent(t, "awa", "REG-001")

	var sem academic.Semester
	rec := app.request(http.MethodPost, "/v1/academics/semesters", token, marshallObj(t, academic.NewSemester{
		Label: "Semester 1", AcademicYear: "2024/2025", IsCurrent: true,
	}))
	checkCode(t, rec, http.StatusCreated)
	decodeBody(t, rec, &sem)

	for code, grade := range map[string]string{"CS101": "A", "CS102": "B"} {
		rec = app.request(http.MethodPost, "/v1/academics/semesters/"+sem.ID+"/modules", token,
			marshallObj(t, academic.NewCourseModule{
				Code:        code,
				Name:        "Course " + code,
				CreditHours: 3,
				GradeLabel:  grade,
				ModuleType:  academic.ModuleCompulsory,
				AttemptType: academic.AttemptFirst,
			}))
		checkCode(t, rec, http.StatusCreated)
	}

	rec = app.request(http.MethodGet, "/v1/academics/semesters/"+sem.ID+"/modules", token)
	checkCode(t, rec, http.StatusOK)
	var mods []academic.CourseModule
	decodeBody(t, rec, &mods)
	if len(mods) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(mods))
	}

	rec = app.request(http.MethodGet, "/v1/academics/gpa", token)
	checkCode(t, rec, http.StatusOK)
	var gpa GPAResponse
	decodeBody(t, rec, &gpa)
	assert.Equal(t, "3.50", gpa.GPA)

	rec = app.request(http.MethodGet, "/v1/academics/gpa?semester="+sem.ID, token)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &gpa)
	assert.Equal(t, "3.50", gpa.GPA)

	// module validation
	rec = app.request(http.MethodPost, "/v1/academics/semesters/"+sem.ID+"/modules", token,
		marshallObj(t, academic.NewCourseModule{Code: "CS103", Name: "Bad", CreditHours: 0, GradeLabel: "A",
			ModuleType: "nonsense", AttemptType: academic.AttemptFirst}))
	checkCode(t, rec, http.StatusBadRequest)
	var fldErrs map[string]string
	decodeBody(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "credit_hours")
	assert.Contains(t, fldErrs, "module_type")
}

func TestLeaderboardAPI(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	seed := func(uname, regNo, gpa string) (user.User, string) {
		usr, token := app.seedStudent(t, uname, regNo)
		var sem academic.Semester
		sem, err := app.acadSvc.CreateSemester(ctx, usr.ID, academic.NewSemester{
			Label: "Semester 1", AcademicYear: "2024/2025",
		})
		if err != nil {
			t.Fatalf("seeding semester: %v", err)
		}
		if _, err := app.acadSvc.AddScaleEntry(ctx, usr.ID, academic.NewGradeScaleEntry{
			Label: "G", PointValue: decimal.RequireFromString(gpa),
		}); err != nil {
			t.Fatalf("seeding scale: %v", err)
		}
		if _, err := app.acadSvc.AddModule(ctx, usr.ID, sem.ID, academic.NewCourseModule{
			Code: "CS101", Name: "Course", CreditHours: 3, GradeLabel: "G",
			ModuleType: academic.ModuleCompulsory, AttemptType: academic.AttemptFirst,
		}); err != nil {
			t.Fatalf("seeding module: %v", err)
		}
		return usr, token
	}

	_, _ = seed("alice", "REG-001", "3.95")
	_, bobToken := seed("bob", "REG-002", "3.80")
	_, _ = seed("carol", "REG-003", "2.10")

	rec := app.request(http.MethodGet, "/v1/academics/leaderboard", bobToken)
	checkCode(t, rec, http.StatusOK)

	var res LeaderboardResponse
	decodeBody(t, rec, &res)
	assert.Equal(t, 3, res.Count)
	if len(res.Results) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Results))
	}
	assert.Equal(t, "3.95", res.Results[0].GPA)
	assert.Equal(t, 1, res.Results[0].Rank)
	assert.False(t, res.Results[0].IsSelf)
	assert.True(t, res.Results[1].IsSelf)
	assert.Equal(t, "REG-002", res.Results[1].RegistrationNumber)

	// pagination happens after the full ranking
	rec = app.request(http.MethodGet, "/v1/academics/leaderboard?page=2&page_size=2", bobToken)
	checkCode(t, rec, http.StatusOK)
	decodeBody(t, rec, &res)
	assert.Equal(t, 3, res.Count)
	assert.Equal(t, 2, res.Page)
	if len(res.Results) != 1 {
		t.Fatalf("expected 1 row on page 2, got %d", len(res.Results))
	}
	assert.Equal(t, 3, res.Results[0].Rank)
}

func TestTranscriptAPI(t *testing.T) {
	app := newTestApp(t)
	usr, token := app.seedStudent(t, "awa", "REG-001")
	ctx := context.Background()

	sem, err := app.acadSvc.CreateSemester(ctx, usr.ID, academic.NewSemester{
		Label: "Semester 1", AcademicYear: "2024/2025",
	})
	if err != nil {
		t.Fatalf("seeding semester: %v", err)
	}
	if _, err := app.acadSvc.AddModule(ctx, usr.ID, sem.ID, academic.NewCourseModule{
		Code: "CS101", Name: "Course", CreditHours: 3, GradeLabel: "A",
		ModuleType: academic.ModuleCompulsory, AttemptType: academic.AttemptFirst,
	}); err != nil {
		t.Fatalf("seeding module: %v", err)
	}

	rec := app.request(http.MethodGet, "/v1/academics/transcript", token)
	checkCode(t, rec, http.StatusOK)
	var tr academic.Transcript
	decodeBody(t, rec, &tr)
	assert.Equal(t, "REG-001", tr.Profile.RegistrationNumber)
	if len(tr.Semesters) != 1 {
		t.Fatalf("expected 1 semester, got %d", len(tr.Semesters))
	}

	rec = app.request(http.MethodPost, "/v1/academics/transcript/email", token)
	checkCode(t, rec, http.StatusOK)

	msgs := app.mailSvc.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	assert.Equal(t, "transcript", msgs[0].TemplateName)
	assert.Equal(t, usr.Email, msgs[0].To[0].Address)
}

func TestGradingScaleAPI(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "awa", "awa", "awa@test.com", "s3cr3tpwd", []string{user.RoleStudent})
	token := app.getToken(t, usr)

	rec := app.request(http.MethodPost, "/v1/academics/grading-scale", token, marshallObj(t, map[string]interface{}{
		"label": "A", "point_value": "4.00", "min_percent": "80", "max_percent": "100",
	}))
	checkCode(t, rec, http.StatusCreated)
	var entry academic.GradeScaleEntry
	decodeBody(t, rec, &entry)
	assert.Equal(t, "A", entry.Label)

	// duplicate label
	rec = app.request(http.MethodPost, "/v1/academics/grading-scale", token, marshallObj(t, map[string]interface{}{
		"label": "A", "point_value": "3.70",
	}))
	checkCode(t, rec, http.StatusBadRequest)

	// invalid range
	rec = app.request(http.MethodPost, "/v1/academics/grading-scale", token, marshallObj(t, map[string]interface{}{
		"label": "B", "point_value": "3.00", "min_percent": "90", "max_percent": "50",
	}))
	checkCode(t, rec, http.StatusBadRequest)
	var fldErrs map[string]string
	decodeBody(t, rec, &fldErrs)
	assert.Contains(t, fldErrs, "min_percent")

	rec = app.request(http.MethodGet, "/v1/academics/grading-scale", token)
	checkCode(t, rec, http.StatusOK)
	var entries []academic.GradeScaleEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// update then delete
	rec = app.request(http.MethodPut, "/v1/academics/grading-scale/"+entry.ID, token, marshallObj(t, map[string]interface{}{
		"label": "A+",
	}))
	checkCode(t, rec, http.StatusOK)

	rec = app.request(http.MethodDelete, "/v1/academics/grading-scale/"+entry.ID, token)
	checkCode(t, rec, http.StatusNoContent)

	rec = app.request(http.MethodGet, fmt.Sprintf("/v1/academics/grading-scale/%s", entry.ID), token)
	checkCode(t, rec, http.StatusNotFound)
}
