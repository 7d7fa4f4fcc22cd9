// Package store defines the persistence contracts used by the services.
// mongostore backs them with MongoDB; memstore keeps everything in process
// for development and tests.
package store

import (
	"context"
	"errors"
	"time"

	"coursehub/backend/internal/shared"
)

var (
	ErrNotFound        = errors.New("store: document not found")
	ErrDuplicate       = errors.New("store: duplicate key")
	ErrCapacityReached = errors.New("store: capacity reached")
)

// Store groups the repositories and the transaction boundary.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Courses() CourseRepository
	Modules() ModuleRepository
	Lectures() LectureRepository
	Enrollments() EnrollmentRepository
	Notifications() NotificationRepository
	Assignments() AssignmentRepository
	Submissions() SubmissionRepository
	Grades() GradeRepository

	// WithTransaction runs fn so that all repository calls made with the
	// context it receives commit or roll back together.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ============================================================================
// Filters
// ============================================================================

type UserFilter struct {
	Role               string
	ExcludeRole        string
	IsActive           *bool
	IsApproved         *bool
	VerificationStatus string
}

type CourseFilter struct {
	InstructorID string
	Category     string
	Level        string
	Search       string // case-insensitive match on title, description, course code
	IsActive     *bool
	IsApproved   *bool
}

type ModuleFilter struct {
	CourseID    string
	IsPublished *bool
}

type LectureFilter struct {
	ModuleID    string
	ModuleIDs   []string
	IsPublished *bool
}

type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    string
	Since     *time.Time
}

type AssignmentFilter struct {
	CourseID    string
	IsPublished *bool
}

type SubmissionFilter struct {
	AssignmentIDs []string
	StudentID     string
	Since         *time.Time
}

type GradeFilter struct {
	CourseID  string
	StudentID string
}

// Bool returns a pointer to b, for optional filter fields
func Bool(b bool) *bool { return &b }

// ============================================================================
// Repositories
// ============================================================================

type UserRepository interface {
	Create(ctx context.Context, u *shared.User) error // ErrDuplicate on email
	Get(ctx context.Context, id string) (*shared.User, error)
	GetByEmail(ctx context.Context, email string) (*shared.User, error)
	Update(ctx context.Context, u *shared.User) error
	List(ctx context.Context, f UserFilter, p shared.Page) ([]shared.User, int64, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *shared.Session) error
	GetByToken(ctx context.Context, token string) (*shared.Session, error)
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

type CourseRepository interface {
	Create(ctx context.Context, c *shared.Course) error // ErrDuplicate on course code
	Get(ctx context.Context, id string) (*shared.Course, error)
	Update(ctx context.Context, c *shared.Course) error
	List(ctx context.Context, f CourseFilter, p shared.Page) ([]shared.Course, int64, error)

	// IncrementEnrollment adds one seat only while currentEnrollment is
	// below maxStudents. Returns ErrCapacityReached when no seat was taken.
	IncrementEnrollment(ctx context.Context, id string) error
	// DecrementEnrollment releases one seat, never going below zero.
	DecrementEnrollment(ctx context.Context, id string) error
}

type ModuleRepository interface {
	Create(ctx context.Context, m *shared.Module) error
	Get(ctx context.Context, id string) (*shared.Module, error)
	Update(ctx context.Context, m *shared.Module) error
	Delete(ctx context.Context, id string) error
	// List is ordered by order ascending. A zero Limit returns everything.
	List(ctx context.Context, f ModuleFilter, p shared.Page) ([]shared.Module, int64, error)
}

type LectureRepository interface {
	Create(ctx context.Context, l *shared.Lecture) error
	Get(ctx context.Context, id string) (*shared.Lecture, error)
	Update(ctx context.Context, l *shared.Lecture) error
	Delete(ctx context.Context, id string) error
	DeleteByModule(ctx context.Context, moduleID string) (int64, error)
	List(ctx context.Context, f LectureFilter, p shared.Page) ([]shared.Lecture, int64, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, e *shared.Enrollment) error // ErrDuplicate if an active one exists
	Get(ctx context.Context, id string) (*shared.Enrollment, error)
	Update(ctx context.Context, e *shared.Enrollment) error
	FindActive(ctx context.Context, studentID, courseID string) (*shared.Enrollment, error)
	List(ctx context.Context, f EnrollmentFilter) ([]shared.Enrollment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *shared.Notification) error
	Get(ctx context.Context, id string) (*shared.Notification, error)
	Update(ctx context.Context, n *shared.Notification) error
	// ListForUser returns non-deleted notifications, newest first
	ListForUser(ctx context.Context, userID string, limit int) ([]shared.Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *shared.Assignment) error
	Get(ctx context.Context, id string) (*shared.Assignment, error)
	Update(ctx context.Context, a *shared.Assignment) error
	List(ctx context.Context, f AssignmentFilter) ([]shared.Assignment, error)
}

type SubmissionRepository interface {
	Create(ctx context.Context, s *shared.Submission) error // ErrDuplicate per (assignment, student)
	Get(ctx context.Context, id string) (*shared.Submission, error)
	Update(ctx context.Context, s *shared.Submission) error
	List(ctx context.Context, f SubmissionFilter) ([]shared.Submission, error)
}

type GradeRepository interface {
	// Upsert replaces the grade of the same (course, student) pair
	Upsert(ctx context.Context, g *shared.Grade) error
	List(ctx context.Context, f GradeFilter) ([]shared.Grade, error)
}
