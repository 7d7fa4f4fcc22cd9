package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// EnrollmentService handles enrollment lifecycle and seat accounting
type EnrollmentService struct {
	store    store.Store
	log      *logger.Logger
	notifier notification.Publisher
}

// NewEnrollmentService creates an enrollment service. notifier may be nil.
func NewEnrollmentService(st store.Store, log *logger.Logger, notifier notification.Publisher) *EnrollmentService {
	return &EnrollmentService{
		store:    st,
		log:      log.With("service", "EnrollmentService"),
		notifier: notifier,
	}
}

// CourseSummary is the course part of an enrollment listing
type CourseSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CourseCode   string `json:"courseCode"`
	InstructorID string `json:"instructor"`
	Credits      int    `json:"credits"`
}

// StudentSummary is the student part of an enrollment listing
type StudentSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// EnrollmentView is an enrollment joined with its course or student
type EnrollmentView struct {
	shared.Enrollment
	Course  *CourseSummary  `json:"courseInfo,omitempty"`
	Student *StudentSummary `json:"studentInfo,omitempty"`
}

// ============================================================================
// Enroll / Drop
// ============================================================================

// Enroll creates an active enrollment for the actor. The seat is taken with
// a conditional increment in the same transaction as the insert, so the
// course can never exceed maxStudents.
func (s *EnrollmentService) Enroll(ctx context.Context, actor shared.Actor, courseID string) (*shared.Enrollment, error) {
	if actor.Role != shared.RoleStudent {
		return nil, shared.AccessError("Only students can enroll in courses")
	}
	if courseID == "" {
		return nil, shared.ValidationError("courseId is required")
	}

	var (
		enrollment *shared.Enrollment
		course     *shared.Course
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		course, err = s.store.Courses().Get(ctx, courseID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return shared.NotFoundError("Course not found or not available")
			}
			return err
		}
		if !course.IsActive {
			return shared.NotFoundError("Course not found or not available")
		}
		if !course.IsApproved {
			return shared.PolicyError("Course is pending approval")
		}

		if _, err := s.store.Enrollments().FindActive(ctx, actor.UserID, courseID); err == nil {
			return shared.ConflictError("Already enrolled in this course")
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := s.store.Courses().IncrementEnrollment(ctx, courseID); err != nil {
			if errors.Is(err, store.ErrCapacityReached) {
				return shared.CapacityError("Course is full")
			}
			return err
		}

		enrollment = &shared.Enrollment{
			ID:             shared.GenerateID(),
			StudentID:      actor.UserID,
			CourseID:       courseID,
			Status:         shared.EnrollmentEnrolled,
			EnrollmentDate: time.Now().UTC(),
		}
		if err := s.store.Enrollments().Create(ctx, enrollment); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return shared.ConflictError("Already enrolled in this course")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.serviceError(err, "enrollment failed")
	}

	s.log.Info("student enrolled", "student", actor.UserID, "course_id", courseID, "enrollment_id", enrollment.ID)
	s.notify(ctx, actor.UserID, notification.Event{
		Type:      shared.NotifyEnrollment,
		Title:     "Enrollment confirmed",
		Message:   fmt.Sprintf("You are now enrolled in %s (%s).", course.Title, course.CourseCode),
		TargetID:  course.ID,
		TargetURL: "/courses/" + course.ID,
	})
	return enrollment, nil
}

// Drop marks an enrollment dropped and releases its seat. Students may only
// drop their own enrollments; admins may drop any.
func (s *EnrollmentService) Drop(ctx context.Context, actor shared.Actor, enrollmentID string) (*shared.Enrollment, error) {
	var enrollment *shared.Enrollment
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		enrollment, err = s.store.Enrollments().Get(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return shared.NotFoundError("Enrollment not found")
			}
			return err
		}
		if !actor.Owns(enrollment.StudentID) {
			return shared.AccessError("Access denied")
		}
		if enrollment.Status == shared.EnrollmentDropped {
			return shared.ConflictError("Enrollment already dropped")
		}

		now := time.Now().UTC()
		enrollment.Status = shared.EnrollmentDropped
		enrollment.DroppedAt = &now
		if err := s.store.Enrollments().Update(ctx, enrollment); err != nil {
			return err
		}
		if err := s.store.Courses().DecrementEnrollment(ctx, enrollment.CourseID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.serviceError(err, "drop failed")
	}

	s.log.Info("enrollment dropped", "enrollment_id", enrollmentID, "course_id", enrollment.CourseID, "actor", actor.UserID)
	return enrollment, nil
}

// ============================================================================
// Listings
// ============================================================================

// StudentEnrollments lists a student's enrollments with course details.
// Students may only list their own.
func (s *EnrollmentService) StudentEnrollments(ctx context.Context, actor shared.Actor, studentID, status string) ([]EnrollmentView, error) {
	if !actor.Owns(studentID) {
		return nil, shared.AccessError("Access denied")
	}

	list, err := s.store.Enrollments().List(ctx, store.EnrollmentFilter{StudentID: studentID, Status: status})
	if err != nil {
		return nil, shared.InternalError("failed to list enrollments", err)
	}

	views := make([]EnrollmentView, 0, len(list))
	courses := map[string]*CourseSummary{}
	for _, e := range list {
		summary, ok := courses[e.CourseID]
		if !ok {
			if c, err := s.store.Courses().Get(ctx, e.CourseID); err == nil {
				summary = &CourseSummary{ID: c.ID, Title: c.Title, CourseCode: c.CourseCode, InstructorID: c.InstructorID, Credits: c.Credits}
			}
			courses[e.CourseID] = summary
		}
		views = append(views, EnrollmentView{Enrollment: e, Course: summary})
	}
	return views, nil
}

// CourseEnrollments lists the active enrollments of a course with student
// details. Only the course instructor or an admin may list them.
func (s *EnrollmentService) CourseEnrollments(ctx context.Context, actor shared.Actor, courseID string) ([]EnrollmentView, error) {
	course, err := s.store.Courses().Get(ctx, courseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Course not found")
		}
		return nil, shared.InternalError("failed to load course", err)
	}
	if !actor.Owns(course.InstructorID) {
		return nil, shared.AccessError("Access denied")
	}

	list, err := s.store.Enrollments().List(ctx, store.EnrollmentFilter{CourseID: courseID, Status: shared.EnrollmentEnrolled})
	if err != nil {
		return nil, shared.InternalError("failed to list enrollments", err)
	}

	views := make([]EnrollmentView, 0, len(list))
	for _, e := range list {
		view := EnrollmentView{Enrollment: e}
		if u, err := s.store.Users().Get(ctx, e.StudentID); err == nil {
			view.Student = &StudentSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
		}
		views = append(views, view)
	}
	return views, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *EnrollmentService) notify(ctx context.Context, userID string, ev notification.Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.ToUser(ctx, userID, ev); err != nil {
		s.log.Warn("enrollment notification failed", "user", userID, "error", err)
	}
}

func (s *EnrollmentService) serviceError(err error, msg string) error {
	var se *shared.Error
	if errors.As(err, &se) {
		return se
	}
	s.log.Error(msg, "error", err)
	return shared.InternalError(msg, err)
}
