package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tsakani/alama/core/academic"
)

// Profiles

type profileRepository struct {
	db *DB
}

var _ academic.ProfileRepository = (*profileRepository)(nil)

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) CreateProfile(_ context.Context, pro academic.Profile) (academic.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, p := range repo.db.profiles {
		if p.UserID == pro.UserID {
			return academic.Profile{}, academic.ErrProfileExists
		}
		if p.RegistrationNumber == pro.RegistrationNumber {
			return academic.Profile{}, academic.ErrRegNumberExists
		}
	}
	pro.ID = uuid.New().String()
	repo.db.profiles[pro.ID] = &pro
	return pro, nil
}

func (repo *profileRepository) GetProfileByUserID(_ context.Context, userID string) (academic.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, pro := range repo.db.profiles {
		if pro.UserID == userID {
			return *pro, nil
		}
	}
	return academic.Profile{}, academic.ErrProfileNotFound
}

func (repo *profileRepository) UpdateProfile(_ context.Context, pro academic.Profile) (academic.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.profiles[pro.ID]; !ok {
		return academic.Profile{}, academic.ErrProfileNotFound
	}
	for _, p := range repo.db.profiles {
		if p.ID != pro.ID && p.RegistrationNumber == pro.RegistrationNumber {
			return academic.Profile{}, academic.ErrRegNumberExists
		}
	}
	repo.db.profiles[pro.ID] = &pro
	return pro, nil
}

func (repo *profileRepository) FilterPeerProfiles(_ context.Context, institution, program string) ([]academic.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]academic.Profile, 0)
	for _, pro := range repo.db.profiles {
		if pro.Institution == institution && pro.Program == program {
			res = append(res, *pro)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].RegistrationNumber < res[j].RegistrationNumber })
	return res, nil
}

// Grading scale

type scaleRepository struct {
	db *DB
}

var _ academic.ScaleRepository = (*scaleRepository)(nil)

func NewScaleRepository(db *DB) *scaleRepository {
	return &scaleRepository{db: db}
}

func (repo *scaleRepository) CreateScaleEntry(_ context.Context, entry academic.GradeScaleEntry) (academic.GradeScaleEntry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, e := range repo.db.scale {
		if e.UserID == entry.UserID && e.Label == entry.Label {
			return academic.GradeScaleEntry{}, academic.ErrGradeLabelExists
		}
	}
	entry.ID = uuid.New().String()
	repo.db.scale[entry.ID] = &entry
	return entry, nil
}

func (repo *scaleRepository) QueryScaleEntries(_ context.Context, userID string) ([]academic.GradeScaleEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]academic.GradeScaleEntry, 0)
	for _, entry := range repo.db.scale {
		if entry.UserID == userID {
			res = append(res, *entry)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].PointValue.GreaterThan(res[j].PointValue) })
	return res, nil
}

func (repo *scaleRepository) GetScaleEntry(_ context.Context, id string) (academic.GradeScaleEntry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if entry, ok := repo.db.scale[id]; ok {
		return *entry, nil
	}
	return academic.GradeScaleEntry{}, academic.ErrScaleEntryNotFound
}

func (repo *scaleRepository) UpdateScaleEntry(_ context.Context, entry academic.GradeScaleEntry) (academic.GradeScaleEntry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.scale[entry.ID]; !ok {
		return academic.GradeScaleEntry{}, academic.ErrScaleEntryNotFound
	}
	for _, e := range repo.db.scale {
		if e.ID != entry.ID && e.UserID == entry.UserID && e.Label == entry.Label {
			return academic.GradeScaleEntry{}, academic.ErrGradeLabelExists
		}
	}
	repo.db.scale[entry.ID] = &entry
	return entry, nil
}

func (repo *scaleRepository) DeleteScaleEntriesByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.scale[id]; ok {
			delete(repo.db.scale, id)
			cnt++
		}
	}
	return cnt, nil
}

// Semesters

type semesterRepository struct {
	db *DB
}

var _ academic.SemesterRepository = (*semesterRepository)(nil)

func NewSemesterRepository(db *DB) *semesterRepository {
	return &semesterRepository{db: db}
}

// clearCurrent unsets is_current on all semesters of the user. Callers must
// hold the write lock.
func (repo *semesterRepository) clearCurrent(userID string) {
	for _, sem := range repo.db.semesters {
		if sem.UserID == userID && sem.IsCurrent {
			sem.IsCurrent = false
		}
	}
}

func (repo *semesterRepository) CreateSemester(_ context.Context, sem academic.Semester) (academic.Semester, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if sem.IsCurrent {
		repo.clearCurrent(sem.UserID)
	}
	sem.ID = uuid.New().String()
	repo.db.semesters[sem.ID] = &sem
	return sem, nil
}

func (repo *semesterRepository) QuerySemesters(_ context.Context, userID string) ([]academic.Semester, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]academic.Semester, 0)
	for _, sem := range repo.db.semesters {
		if sem.UserID == userID {
			res = append(res, *sem)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].AcademicYear != res[j].AcademicYear {
			return res[i].AcademicYear < res[j].AcademicYear
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (repo *semesterRepository) GetSemester(_ context.Context, id string) (academic.Semester, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sem, ok := repo.db.semesters[id]; ok {
		return *sem, nil
	}
	return academic.Semester{}, academic.ErrSemesterNotFound
}

func (repo *semesterRepository) UpdateSemester(_ context.Context, sem academic.Semester) (academic.Semester, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.semesters[sem.ID]; !ok {
		return academic.Semester{}, academic.ErrSemesterNotFound
	}
	if sem.IsCurrent {
		repo.clearCurrent(sem.UserID)
	}
	repo.db.semesters[sem.ID] = &sem
	return sem, nil
}

func (repo *semesterRepository) SetCurrentSemester(_ context.Context, userID, semesterID string) (academic.Semester, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sem, ok := repo.db.semesters[semesterID]
	if !ok || sem.UserID != userID {
		return academic.Semester{}, academic.ErrSemesterNotFound
	}
	repo.clearCurrent(userID)
	sem.IsCurrent = true
	return *sem, nil
}

func (repo *semesterRepository) DeleteSemestersByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.semesters[id]; !ok {
			continue
		}
		delete(repo.db.semesters, id)
		cnt++
		// cascade to modules
		for modID, mod := range repo.db.modules {
			if mod.SemesterID == id {
				delete(repo.db.modules, modID)
			}
		}
	}
	return cnt, nil
}

// Modules

type moduleRepository struct {
	db *DB
}

var _ academic.ModuleRepository = (*moduleRepository)(nil)

func NewModuleRepository(db *DB) *moduleRepository {
	return &moduleRepository{db: db}
}

func (repo *moduleRepository) CreateModule(_ context.Context, mod academic.CourseModule) (academic.CourseModule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	mod.ID = uuid.New().String()
	repo.db.modules[mod.ID] = &mod
	return mod, nil
}

func (repo *moduleRepository) QueryModules(_ context.Context, filter academic.ModuleFilter) ([]academic.CourseModule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]academic.CourseModule, 0)
	for _, mod := range repo.db.modules {
		if mod.UserID != filter.UserID {
			continue
		}
		if filter.SemesterID != "" && mod.SemesterID != filter.SemesterID {
			continue
		}
		res = append(res, *mod)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Code < res[j].Code })
	return res, nil
}

func (repo *moduleRepository) GetModule(_ context.Context, id string) (academic.CourseModule, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if mod, ok := repo.db.modules[id]; ok {
		return *mod, nil
	}
	return academic.CourseModule{}, academic.ErrModuleNotFound
}

func (repo *moduleRepository) UpdateModule(_ context.Context, mod academic.CourseModule) (academic.CourseModule, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.modules[mod.ID]; !ok {
		return academic.CourseModule{}, academic.ErrModuleNotFound
	}
	repo.db.modules[mod.ID] = &mod
	return mod, nil
}

func (repo *moduleRepository) DeleteModulesByID(_ context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.modules[id]; ok {
			delete(repo.db.modules, id)
			cnt++
		}
	}
	return cnt, nil
}
