package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tsakani/alama/core"
	"github.com/tsakani/alama/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    sql.NullTime   `db:"last_login"`
}

func (r userRow) toDomain() user.User {
	isActive := r.IsActive
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     &isActive,
		Roles:        r.Roles,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time
	}
	return usr
}

func userRowsToDomain(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toDomain())
	}
	return users
}

var userUniqueConstraints = map[string]error{
	"account_username_key": user.ErrUsernameExists,
	"account_email_key":    user.ErrEmailExists,
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM account WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		query += ` AND id <> ALL($3)`
		args = append(args, pq.Array(ids))
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return core.NewStoreError("checking user uniqueness", err)
	}
	for _, r := range rows {
		if username != "" && r.Username == username {
			return user.ErrUsernameExists
		}
		if r.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	isActive := true
	if usr.IsActive != nil {
		isActive = *usr.IsActive
	}

	const query = `
		INSERT INTO account (id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, isActive,
		pq.Array(usr.Roles), usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, trapUniqueErr(err, userUniqueConstraints, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := `SELECT * FROM account`
	var conds []string
	var args []interface{}

	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
		}
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				p := arg(role + "%")
				roleConds = append(roleConds, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(roles) user_role WHERE user_role ILIKE %s)", p))
			}
			conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.IsActive != nil {
			conds = append(conds, "is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderBy(ordering, "created_at ASC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, core.NewStoreError("querying users", err)
	}
	return userRowsToDomain(rows), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var query string
	var args []interface{}

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		query = `SELECT * FROM account WHERE id = $1`
		args = append(args, filter.ID)
	case filter.Username != "":
		query = `SELECT * FROM account WHERE username = $1`
		args = append(args, filter.Username)
	case filter.Email != "":
		query = `SELECT * FROM account WHERE email = $1`
		args = append(args, filter.Email)
	case filter.UsernameOrEmail != "":
		query = `SELECT * FROM account WHERE username = $1 OR email = $1`
		args = append(args, filter.UsernameOrEmail)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user")
	}
	return row.toDomain(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	isActive := true
	if usr.IsActive != nil {
		isActive = *usr.IsActive
	}
	var lastLogin sql.NullTime
	if !usr.LastLogin.IsZero() {
		lastLogin = sql.NullTime{Time: usr.LastLogin.UTC(), Valid: true}
	}

	const query = `
		UPDATE account
		SET name = $2, username = $3, email = $4, is_active = $5, roles = $6,
		    password_hash = $7, updated_at = $8, last_login = $9
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, isActive,
		pq.Array(usr.Roles), usr.PasswordHash, usr.UpdatedAt, lastLogin,
	)
	if err != nil {
		return user.User{}, trapUniqueErr(err, userUniqueConstraints, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM account WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, core.NewStoreError("deleting users", err)
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return 0, core.NewStoreError("deleting users", err)
	}
	return int(cnt), nil
}

// GetUserEmail implements academic.UserDirectory.
func (repo userRepository) GetUserEmail(ctx context.Context, userID string) (string, string, error) {
	usr, err := repo.GetUser(ctx, user.GetFilter{ID: userID})
	if err != nil {
		return "", "", err
	}
	return usr.Name, usr.Email, nil
}
