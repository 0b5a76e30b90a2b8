package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
)

type moduleRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	SemesterID  string    `db:"semester_id"`
	Code        string    `db:"code"`
	Name        string    `db:"name"`
	CreditHours int       `db:"credit_hours"`
	GradeLabel  string    `db:"grade_label"`
	ModuleType  string    `db:"module_type"`
	AttemptType string    `db:"attempt_type"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r moduleRow) toDomain() academic.CourseModule {
	return academic.CourseModule{
		ID:          r.ID,
		UserID:      r.UserID,
		SemesterID:  r.SemesterID,
		Code:        r.Code,
		Name:        r.Name,
		CreditHours: r.CreditHours,
		GradeLabel:  r.GradeLabel,
		ModuleType:  r.ModuleType,
		AttemptType: r.AttemptType,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type moduleRepository struct {
	db *sqlx.DB
}

var _ academic.ModuleRepository = (*moduleRepository)(nil)

func NewModuleRepository(db *sqlx.DB) *moduleRepository {
	return &moduleRepository{db: db}
}

func (repo moduleRepository) CreateModule(ctx context.Context, mod academic.CourseModule) (academic.CourseModule, error) {
	mod.ID = uuid.New().String()

	const query = `
		INSERT INTO course_module (id, user_id, semester_id, code, name, credit_hours,
		                           grade_label, module_type, attempt_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		mod.ID, mod.UserID, mod.SemesterID, mod.Code, mod.Name, mod.CreditHours,
		mod.GradeLabel, mod.ModuleType, mod.AttemptType, mod.CreatedAt, mod.UpdatedAt,
	)
	if err != nil {
		return academic.CourseModule{}, core.NewStoreError("inserting module", err)
	}
	return mod, nil
}

func (repo moduleRepository) QueryModules(ctx context.Context, filter academic.ModuleFilter) ([]academic.CourseModule, error) {
	query := `SELECT * FROM course_module WHERE user_id = $1`
	args := []interface{}{filter.UserID}
	if filter.SemesterID != "" {
		query += ` AND semester_id = $2`
		args = append(args, filter.SemesterID)
	}
	query += ` ORDER BY code ASC, created_at ASC`

	var rows []moduleRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, core.NewStoreError("querying modules", err)
	}

	mods := make([]academic.CourseModule, 0, len(rows))
	for _, r := range rows {
		mods = append(mods, r.toDomain())
	}
	return mods, nil
}

func (repo moduleRepository) GetModule(ctx context.Context, id string) (academic.CourseModule, error) {
	if _, err := uuid.Parse(id); err != nil {
		return academic.CourseModule{}, academic.ErrModuleNotFound
	}

	var row moduleRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM course_module WHERE id = $1`, id)
	if err != nil {
		return academic.CourseModule{}, trapNoRowsErr(err, academic.ErrModuleNotFound, "finding module")
	}
	return row.toDomain(), nil
}

func (repo moduleRepository) UpdateModule(ctx context.Context, mod academic.CourseModule) (academic.CourseModule, error) {
	const query = `
		UPDATE course_module
		SET code = $2, name = $3, credit_hours = $4, grade_label = $5,
		    module_type = $6, attempt_type = $7, updated_at = $8
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		mod.ID, mod.Code, mod.Name, mod.CreditHours, mod.GradeLabel,
		mod.ModuleType, mod.AttemptType, mod.UpdatedAt,
	)
	if err != nil {
		return academic.CourseModule{}, core.NewStoreError("updating module", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.CourseModule{}, academic.ErrModuleNotFound
	}
	return mod, nil
}

func (repo moduleRepository) DeleteModulesByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course_module WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, core.NewStoreError("deleting modules", err)
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, core.NewStoreError("deleting modules", err)
	}
	return int(cnt), nil
}
