// Package sqlxrepos implements the domain repositories with hand-written SQL
// over Postgres.
package sqlxrepos

import (
	"database/sql"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/tsakani/alama/core"
)

const pqUniqueViolation = "23505"

var identRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// trapNoRowsErr maps psql "no rows" err to the domain's not-found sentinel.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return core.NewStoreError(msg, err)
}

// trapUniqueErr maps a unique-constraint violation on the named constraint
// to the domain's already-exists sentinel.
func trapUniqueErr(err error, constraints map[string]error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		if sentinel, ok := constraints[pqErr.Constraint]; ok {
			return sentinel
		}
	}
	return core.NewStoreError(msg, err)
}

// orderBy renders a safe ORDER BY clause from the orderings; unknown field
// names are skipped.
func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return " ORDER BY " + fallback
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if !identRegex.MatchString(ord.Field) {
			continue
		}
		clauses = append(clauses, ord.String())
	}
	if len(clauses) == 0 {
		return " ORDER BY " + fallback
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}
