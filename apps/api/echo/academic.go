package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tsakani/alama/core/academic"
)

type academicApi struct {
	svc        academic.ServiceInterface
	validate   *validator.Validate
	translator ut.Translator
}

func registerAcademicAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := academicApi{
		svc:        deps.AcademicSvc,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	// the whole academic API requires authentication; every record is
	// scoped to the token's subject
	ag := g.Group("/academics", jwt)

	ag.POST("/profile", api.createProfile)
	ag.GET("/profile", api.retrieveProfile)
	ag.PUT("/profile", api.updateProfile)

	ag.POST("/grading-scale", api.addScaleEntry)
	ag.GET("/grading-scale", api.queryScale)
	ag.GET("/grading-scale/:id", api.retrieveScaleEntry)
	ag.PUT("/grading-scale/:id", api.updateScaleEntry)
	ag.DELETE("/grading-scale/:id", api.destroyScaleEntry)

	ag.POST("/semesters", api.createSemester)
	ag.GET("/semesters", api.querySemesters)
	ag.GET("/semesters/:id", api.retrieveSemester)
	ag.PUT("/semesters/:id", api.updateSemester)
	ag.DELETE("/semesters/:id", api.destroySemester)
	ag.POST("/semesters/:id/current", api.setCurrentSemester)
	ag.POST("/semesters/:id/modules", api.addModule)
	ag.GET("/semesters/:id/modules", api.queryModules)

	ag.GET("/modules", api.queryAllModules)
	ag.GET("/modules/:id", api.retrieveModule)
	ag.PUT("/modules/:id", api.updateModule)
	ag.DELETE("/modules/:id", api.destroyModule)

	ag.GET("/gpa", api.gpa)
	ag.GET("/leaderboard", api.leaderboard)
	ag.GET("/transcript", api.transcript)
	ag.POST("/transcript/email", api.emailTranscript)
}

// Profile

func (api *academicApi) createProfile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data academic.NewProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProfile")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pro, err := api.svc.CreateProfile(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating profile")
	}
	return ctx.JSON(http.StatusCreated, pro)
}

func (api *academicApi) retrieveProfile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	pro, err := api.svc.GetProfile(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, pro)
}

func (api *academicApi) updateProfile(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	orig, err := api.svc.GetProfile(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}

	var data academic.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	pro, err := api.svc.UpdateProfile(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, pro)
}

// Grading scale

func (api *academicApi) addScaleEntry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data academic.NewGradeScaleEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGradeScaleEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.AddScaleEntry(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "adding scale entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *academicApi) queryScale(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	entries, err := api.svc.QueryScale(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying grading scale")
	}
	if entries == nil {
		entries = []academic.GradeScaleEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *academicApi) retrieveScaleEntry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	entry, err := api.svc.GetScaleEntry(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding scale entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *academicApi) updateScaleEntry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	orig, err := api.svc.GetScaleEntry(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding scale entry")
	}

	var data academic.UpdateGradeScaleEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGradeScaleEntry")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	entry, err := api.svc.UpdateScaleEntry(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating scale entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *academicApi) destroyScaleEntry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteScaleEntry(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting scale entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Semesters

func (api *academicApi) createSemester(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data academic.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sem, err := api.svc.CreateSemester(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "creating semester")
	}
	return ctx.JSON(http.StatusCreated, sem)
}

func (api *academicApi) querySemesters(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	sems, err := api.svc.QuerySemesters(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying semesters")
	}
	if sems == nil {
		sems = []academic.Semester{}
	}
	return ctx.JSON(http.StatusOK, sems)
}

func (api *academicApi) retrieveSemester(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	sem, err := api.svc.GetSemester(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *academicApi) updateSemester(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	orig, err := api.svc.GetSemester(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding semester")
	}

	var data academic.UpdateSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	sem, err := api.svc.UpdateSemester(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

func (api *academicApi) destroySemester(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteSemester(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting semester")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *academicApi) setCurrentSemester(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	sem, err := api.svc.SetCurrentSemester(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "setting current semester")
	}
	return ctx.JSON(http.StatusOK, sem)
}

// Modules

func (api *academicApi) addModule(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data academic.NewCourseModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourseModule")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mod, err := api.svc.AddModule(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *academicApi) queryModules(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	mods, err := api.svc.QueryModules(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	if mods == nil {
		mods = []academic.CourseModule{}
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *academicApi) queryAllModules(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	mods, err := api.svc.QueryModules(ctx.Request().Context(), claims.Subject, ctx.QueryParam("semester"))
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}
	if mods == nil {
		mods = []academic.CourseModule{}
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *academicApi) retrieveModule(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	mod, err := api.svc.GetModule(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *academicApi) updateModule(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	orig, err := api.svc.GetModule(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding module")
	}

	var data academic.UpdateCourseModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourseModule")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	mod, err := api.svc.UpdateModule(ctx.Request().Context(), claims.Subject, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *academicApi) destroyModule(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteModule(ctx.Request().Context(), claims.Subject, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Aggregates

func (api *academicApi) gpa(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	gpa, err := api.svc.ComputeGPA(ctx.Request().Context(), claims.Subject, ctx.QueryParam("semester"))
	if err != nil {
		return errors.Wrap(err, "computing GPA")
	}
	return ctx.JSON(http.StatusOK, GPAResponse{GPA: gpa.StringFixed(2)})
}

func (api *academicApi) leaderboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	pg := bindPagination(ctx)

	entries, total, err := api.svc.Leaderboard(ctx.Request().Context(), claims.Subject, pg)
	if err != nil {
		return errors.Wrap(err, "ranking leaderboard")
	}

	results := make([]LeaderboardRow, 0, len(entries))
	for _, entry := range entries {
		results = append(results, LeaderboardRow{
			Rank:               entry.Rank,
			DisplayName:        entry.DisplayName,
			RegistrationNumber: entry.RegistrationNumber,
			GPA:                entry.GPA.StringFixed(2),
			IsSelf:             entry.UserID == claims.Subject,
		})
	}
	return ctx.JSON(http.StatusOK, LeaderboardResponse{
		Results:  results,
		Count:    total,
		Page:     pg.Page,
		PageSize: pg.PageSize,
	})
}

func (api *academicApi) transcript(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	tr, err := api.svc.Transcript(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "assembling transcript")
	}
	return ctx.JSON(http.StatusOK, tr)
}

func (api *academicApi) emailTranscript(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.EmailTranscript(ctx.Request().Context(), claims.Subject); err != nil {
		return errors.Wrap(err, "emailing transcript")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Your transcript is on its way to your inbox."})
}

type (
	GPAResponse struct {
		GPA string `json:"gpa"`
	}

	LeaderboardRow struct {
		Rank               int    `json:"rank"`
		DisplayName        string `json:"display_name"`
		RegistrationNumber string `json:"registration_number"`
		GPA                string `json:"gpa"`
		IsSelf             bool   `json:"is_self"`
	}

	LeaderboardResponse struct {
		Results  []LeaderboardRow `json:"results"`
		Count    int              `json:"count"`
		Page     int              `json:"page"`
		PageSize int              `json:"page_size"`
	}
)
