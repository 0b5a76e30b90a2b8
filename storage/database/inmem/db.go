// Package inmemdb is an in-memory implementation of the repositories,
// honoring the same contracts as the Postgres store (uniqueness, cascade
// delete, current-semester exclusivity). It backs the test suites and the
// local dev mode.
package inmemdb

import (
	"sync"

	"github.com/tsakani/alama/core/academic"
	"github.com/tsakani/alama/core/user"
)

type DB struct {
	mutex sync.RWMutex

	users     map[string]*user.User
	profiles  map[string]*academic.Profile
	scale     map[string]*academic.GradeScaleEntry
	semesters map[string]*academic.Semester
	modules   map[string]*academic.CourseModule
}

func NewDB() *DB {
	return &DB{
		users:     make(map[string]*user.User),
		profiles:  make(map[string]*academic.Profile),
		scale:     make(map[string]*academic.GradeScaleEntry),
		semesters: make(map[string]*academic.Semester),
		modules:   make(map[string]*academic.CourseModule),
	}
}
