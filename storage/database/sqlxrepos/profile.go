package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/academic"
)

type profileRow struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	FullName           string    `db:"full_name"`
	Institution        string    `db:"institution"`
	Program            string    `db:"program"`
	RegistrationNumber string    `db:"registration_number"`
	EnrollmentStart    int       `db:"enrollment_start"`
	EnrollmentEnd      int       `db:"enrollment_end"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r profileRow) toDomain() academic.Profile {
	return academic.Profile{
		ID:                 r.ID,
		UserID:             r.UserID,
		FullName:           r.FullName,
		Institution:        r.Institution,
		Program:            r.Program,
		RegistrationNumber: r.RegistrationNumber,
		EnrollmentStart:    r.EnrollmentStart,
		EnrollmentEnd:      r.EnrollmentEnd,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

var profileUniqueConstraints = map[string]error{
	"profile_user_id_key":             academic.ErrProfileExists,
	"profile_registration_number_key": academic.ErrRegNumberExists,
}

type profileRepository struct {
	db *sqlx.DB
}

var _ academic.ProfileRepository = (*profileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo profileRepository) CreateProfile(ctx context.Context, pro academic.Profile) (academic.Profile, error) {
	pro.ID = uuid.New().String()

	const query = `
		INSERT INTO profile (id, user_id, full_name, institution, program, registration_number,
		                     enrollment_start, enrollment_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, query,
		pro.ID, pro.UserID, pro.FullName, pro.Institution, pro.Program, pro.RegistrationNumber,
		pro.EnrollmentStart, pro.EnrollmentEnd, pro.CreatedAt, pro.UpdatedAt,
	)
	if err != nil {
		return academic.Profile{}, trapUniqueErr(err, profileUniqueConstraints, "inserting profile")
	}
	return pro, nil
}

func (repo profileRepository) GetProfileByUserID(ctx context.Context, userID string) (academic.Profile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM profile WHERE user_id = $1`, userID)
	if err != nil {
		return academic.Profile{}, trapNoRowsErr(err, academic.ErrProfileNotFound, "finding profile")
	}
	return row.toDomain(), nil
}

func (repo profileRepository) UpdateProfile(ctx context.Context, pro academic.Profile) (academic.Profile, error) {
	const query = `
		UPDATE profile
		SET full_name = $2, institution = $3, program = $4, registration_number = $5,
		    enrollment_start = $6, enrollment_end = $7, updated_at = $8
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		pro.ID, pro.FullName, pro.Institution, pro.Program, pro.RegistrationNumber,
		pro.EnrollmentStart, pro.EnrollmentEnd, pro.UpdatedAt,
	)
	if err != nil {
		return academic.Profile{}, trapUniqueErr(err, profileUniqueConstraints, "updating profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return academic.Profile{}, academic.ErrProfileNotFound
	}
	return pro, nil
}

func (repo profileRepository) FilterPeerProfiles(ctx context.Context, institution, program string) ([]academic.Profile, error) {
	const query = `
		SELECT * FROM profile
		WHERE institution = $1 AND program = $2
		ORDER BY registration_number ASC`
	var rows []profileRow
	if err := repo.db.SelectContext(ctx, &rows, query, institution, program); err != nil {
		return nil, core.NewStoreError("querying peer profiles", err)
	}

	profiles := make([]academic.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.toDomain())
	}
	return profiles, nil
}
