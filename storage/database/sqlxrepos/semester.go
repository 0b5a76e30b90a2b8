package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
)

type semesterRow struct {
	ID           string       `db:"id"`
	UserID       string       `db:"user_id"`
	Label        string       `db:"label"`
	AcademicYear string       `db:"academic_year"`
	StartDate    sql.NullTime `db:"start_date"`
	EndDate      sql.NullTime `db:"end_date"`
	IsCurrent    bool         `db:"is_current"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func (r semesterRow) toDomain() academic.Semester {
	sem := academic.Semester{
		ID:           r.ID,
		UserID:       r.UserID,
		Label:        r.Label,
		AcademicYear: r.AcademicYear,
		IsCurrent:    r.IsCurrent,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.StartDate.Valid {
		start := r.StartDate.Time
		sem.StartDate = &start
	}
	if r.EndDate.Valid {
		end := r.EndDate.Time
		sem.EndDate = &end
	}
	return sem
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

type semesterRepository struct {
	db *sqlx.DB
}

var _ academic.SemesterRepository = (*semesterRepository)(nil)

func NewSemesterRepository(db *sqlx.DB) *semesterRepository {
	return &semesterRepository{db: db}
}

// inTx runs fn in a transaction, rolling back on error.
func (repo semesterRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewStoreError("beginning transaction", err)
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.NewStoreError("committing transaction", err)
	}
	return nil
}

func clearCurrent(ctx context.Context, tx *sqlx.Tx, userID, excludedID string) error {
	const query = `UPDATE semester SET is_current = FALSE WHERE user_id = $1 AND is_current AND id <> $2`
	if _, err := tx.ExecContext(ctx, query, userID, excludedID); err != nil {
		return core.NewStoreError("clearing current semester", err)
	}
	return nil
}

func (repo semesterRepository) CreateSemester(ctx context.Context, sem academic.Semester) (academic.Semester, error) {
	sem.ID = uuid.New().String()

	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if sem.IsCurrent {
			if err := clearCurrent(ctx, tx, sem.UserID, sem.ID); err != nil {
				return err
			}
		}
		const query = `
			INSERT INTO semester (id, user_id, label, academic_year, start_date, end_date, is_current, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		_, err := tx.ExecContext(ctx, query,
			sem.ID, sem.UserID, sem.Label, sem.AcademicYear,
			nullTime(sem.StartDate), nullTime(sem.EndDate), sem.IsCurrent,
			sem.CreatedAt, sem.UpdatedAt,
		)
		if err != nil {
			return core.NewStoreError("inserting semester", err)
		}
		return nil
	})
	if err != nil {
		return academic.Semester{}, err
	}
	return sem, nil
}

func (repo semesterRepository) QuerySemesters(ctx context.Context, userID string) ([]academic.Semester, error) {
	const query = `SELECT * FROM semester WHERE user_id = $1 ORDER BY academic_year ASC, start_date ASC NULLS LAST, created_at ASC`
	var rows []semesterRow
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, core.NewStoreError("querying semesters", err)
	}

	sems := make([]academic.Semester, 0, len(rows))
	for _, r := range rows {
		sems = append(sems, r.toDomain())
	}
	return sems, nil
}

func (repo semesterRepository) GetSemester(ctx context.Context, id string) (academic.Semester, error) {
	if _, err := uuid.Parse(id); err != nil {
		return academic.Semester{}, academic.ErrSemesterNotFound
	}

	var row semesterRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM semester WHERE id = $1`, id)
	if err != nil {
		return academic.Semester{}, trapNoRowsErr(err, academic.ErrSemesterNotFound, "finding semester")
	}
	return row.toDomain(), nil
}

func (repo semesterRepository) UpdateSemester(ctx context.Context, sem academic.Semester) (academic.Semester, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if sem.IsCurrent {
			if err := clearCurrent(ctx, tx, sem.UserID, sem.ID); err != nil {
				return err
			}
		}
		const query = `
			UPDATE semester
			SET label = $2, academic_year = $3, start_date = $4, end_date = $5, is_current = $6, updated_at = $7
			WHERE id = $1`
		res, err := tx.ExecContext(ctx, query,
			sem.ID, sem.Label, sem.AcademicYear,
			nullTime(sem.StartDate), nullTime(sem.EndDate), sem.IsCurrent, sem.UpdatedAt,
		)
		if err != nil {
			return core.NewStoreError("updating semester", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return academic.ErrSemesterNotFound
		}
		return nil
	})
	if err != nil {
		return academic.Semester{}, err
	}
	return sem, nil
}

func (repo semesterRepository) SetCurrentSemester(ctx context.Context, userID, semesterID string) (academic.Semester, error) {
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := clearCurrent(ctx, tx, userID, semesterID); err != nil {
			return err
		}
		const query = `UPDATE semester SET is_current = TRUE, updated_at = $3 WHERE id = $1 AND user_id = $2`
		res, err := tx.ExecContext(ctx, query, semesterID, userID, time.Now().UTC())
		if err != nil {
			return core.NewStoreError("setting current semester", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return academic.ErrSemesterNotFound
		}
		return nil
	})
	if err != nil {
		return academic.Semester{}, err
	}
	return repo.GetSemester(ctx, semesterID)
}

func (repo semesterRepository) DeleteSemestersByID(ctx context.Context, ids ...string) (int, error) {
	var cnt int64
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		// course_module rows go with their semester via ON DELETE CASCADE;
		// run both statements in one transaction anyway so a failed delete
		// leaves nothing half-removed on engines without the constraint.
		if _, err := tx.ExecContext(ctx, `DELETE FROM course_module WHERE semester_id = ANY($1)`, pq.Array(ids)); err != nil {
			return core.NewStoreError("deleting semester modules", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM semester WHERE id = ANY($1)`, pq.Array(ids))
		if err != nil {
			return core.NewStoreError("deleting semesters", err)
		}
		if cnt, err = res.RowsAffected(); err != nil {
			return errors.Wrap(err, "deleting semesters")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(cnt), nil
}
