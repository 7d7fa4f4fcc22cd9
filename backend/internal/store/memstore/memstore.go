// Package memstore is an in-process implementation of store.Store. Records
// are kept as values and cloned on the way in and out, so callers never
// share memory with the tables.
package memstore

import (
	"context"
	"sort"
	"sync"

	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

type txKey struct{}

// DB holds every table behind a single lock.
type DB struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users         map[string]shared.User
	sessions      map[string]shared.Session
	courses       map[string]shared.Course
	modules       map[string]shared.Module
	lectures      map[string]shared.Lecture
	enrollments   map[string]shared.Enrollment
	notifications map[string]shared.Notification
	assignments   map[string]shared.Assignment
	submissions   map[string]shared.Submission
	grades        map[string]shared.Grade
}

// New returns an empty store
func New() *DB {
	return &DB{
		users:         map[string]shared.User{},
		sessions:      map[string]shared.Session{},
		courses:       map[string]shared.Course{},
		modules:       map[string]shared.Module{},
		lectures:      map[string]shared.Lecture{},
		enrollments:   map[string]shared.Enrollment{},
		notifications: map[string]shared.Notification{},
		assignments:   map[string]shared.Assignment{},
		submissions:   map[string]shared.Submission{},
		grades:        map[string]shared.Grade{},
	}
}

var _ store.Store = (*DB)(nil)

func (db *DB) Users() store.UserRepository                 { return userRepository{db} }
func (db *DB) Sessions() store.SessionRepository           { return sessionRepository{db} }
func (db *DB) Courses() store.CourseRepository             { return courseRepository{db} }
func (db *DB) Modules() store.ModuleRepository             { return moduleRepository{db} }
func (db *DB) Lectures() store.LectureRepository           { return lectureRepository{db} }
func (db *DB) Enrollments() store.EnrollmentRepository     { return enrollmentRepository{db} }
func (db *DB) Notifications() store.NotificationRepository { return notificationRepository{db} }
func (db *DB) Assignments() store.AssignmentRepository     { return assignmentRepository{db} }
func (db *DB) Submissions() store.SubmissionRepository     { return submissionRepository{db} }
func (db *DB) Grades() store.GradeRepository               { return gradeRepository{db} }

// WithTransaction serializes transactions and restores every table if fn
// fails. Calls nested inside a running transaction join it.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		db.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users         map[string]shared.User
	sessions      map[string]shared.Session
	courses       map[string]shared.Course
	modules       map[string]shared.Module
	lectures      map[string]shared.Lecture
	enrollments   map[string]shared.Enrollment
	notifications map[string]shared.Notification
	assignments   map[string]shared.Assignment
	submissions   map[string]shared.Submission
	grades        map[string]shared.Grade
}

func (db *DB) snapshot() snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return snapshot{
		users:         copyMap(db.users),
		sessions:      copyMap(db.sessions),
		courses:       copyMap(db.courses),
		modules:       copyMap(db.modules),
		lectures:      copyMap(db.lectures),
		enrollments:   copyMap(db.enrollments),
		notifications: copyMap(db.notifications),
		assignments:   copyMap(db.assignments),
		submissions:   copyMap(db.submissions),
		grades:        copyMap(db.grades),
	}
}

func (db *DB) restore(s snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = s.users
	db.sessions = s.sessions
	db.courses = s.courses
	db.modules = s.modules
	db.lectures = s.lectures
	db.enrollments = s.enrollments
	db.notifications = s.notifications
	db.assignments = s.assignments
	db.submissions = s.submissions
	db.grades = s.grades
}

// ============================================================================
// Helpers
// ============================================================================

// copyMap copies the map only. Stored values are never mutated in place, so
// sharing their nested slices with the copy is safe.
func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u shared.User) shared.User {
	u.DateOfBirth = clonePtr(u.DateOfBirth)
	u.LastLogin = clonePtr(u.LastLogin)
	if u.InstructorProfile != nil {
		p := *u.InstructorProfile
		p.Specialization = cloneSlice(p.Specialization)
		p.Documents = cloneSlice(p.Documents)
		for i := range p.Documents {
			p.Documents[i].VerifiedAt = clonePtr(p.Documents[i].VerifiedAt)
		}
		u.InstructorProfile = &p
	}
	return u
}

func cloneCourse(c shared.Course) shared.Course {
	c.Prerequisites = cloneSlice(c.Prerequisites)
	c.Materials = cloneSlice(c.Materials)
	c.ApprovedAt = clonePtr(c.ApprovedAt)
	return c
}

func cloneLecture(l shared.Lecture) shared.Lecture {
	l.Resources = cloneSlice(l.Resources)
	return l
}

func cloneEnrollment(e shared.Enrollment) shared.Enrollment {
	e.DroppedAt = clonePtr(e.DroppedAt)
	return e
}

func cloneAssignment(a shared.Assignment) shared.Assignment {
	a.DueDate = clonePtr(a.DueDate)
	return a
}

func cloneSubmission(s shared.Submission) shared.Submission {
	s.Grade = clonePtr(s.Grade)
	return s
}

func identity[T any](v T) T { return v }

// collect filters a table, clones matches and sorts them with less
func collect[V any](m map[string]V, match func(V) bool, clone func(V) V, less func(a, b V) bool) []V {
	out := make([]V, 0)
	for _, v := range m {
		if match(v) {
			out = append(out, clone(v))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// page applies offset pagination and returns the page plus the total count
func page[V any](items []V, p shared.Page) ([]V, int64) {
	total := int64(len(items))
	if p.Limit <= 0 {
		return items, total
	}
	start, end := p.Slice(len(items))
	return items[start:end], total
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
