package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursehub/backend/internal/logger"
	"coursehub/backend/internal/notification"
	"coursehub/backend/internal/shared"
	"coursehub/backend/internal/store"
)

// GradingService manages assignments, submissions and posted course grades
type GradingService struct {
	store    store.Store
	log      *logger.Logger
	notifier notification.Publisher
}

// NewGradingService creates a new GradingService instance
func NewGradingService(st store.Store, log *logger.Logger, notifier notification.Publisher) *GradingService {
	return &GradingService{
		store:    st,
		log:      log.With("service", "GradingService"),
		notifier: notifier,
	}
}

type CreateAssignmentInput struct {
	CourseID    string     `json:"courseId" validate:"required"`
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	TotalPoints float64    `json:"totalPoints" validate:"gt=0,max=1000"`
	DueDate     *time.Time `json:"dueDate"`
	IsPublished bool       `json:"isPublished"`
}

type SubmitInput struct {
	Content string `json:"content" validate:"notblank,max=20000"`
}

type GradeSubmissionInput struct {
	Points   float64 `json:"points" validate:"min=0"`
	Feedback string  `json:"feedback" validate:"max=2000"`
}

type PostGradeInput struct {
	CourseID   string  `json:"courseId" validate:"required"`
	StudentID  string  `json:"studentId" validate:"required"`
	Percentage float64 `json:"percentage" validate:"min=0,max=100"`
}

// ============================================================================
// Assignments
// ============================================================================

// CreateAssignment adds an assignment to a course the actor teaches
func (s *GradingService) CreateAssignment(ctx context.Context, actor shared.Actor, in CreateAssignmentInput) (*shared.Assignment, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, actor, in.CourseID)
	if err != nil {
		return nil, err
	}

	a := &shared.Assignment{
		ID:          shared.GenerateID(),
		CourseID:    course.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		TotalPoints: in.TotalPoints,
		DueDate:     in.DueDate,
		IsPublished: in.IsPublished,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.Assignments().Create(ctx, a); err != nil {
		return nil, shared.InternalError("failed to create assignment", err)
	}

	s.log.Info("assignment created", "assignment_id", a.ID, "course_id", course.ID)
	if a.IsPublished {
		s.announce(ctx, course, a)
	}
	return a, nil
}

// PublishAssignment sets the published flag, or flips it when published is
// nil. Enrolled students are told when an assignment becomes visible.
func (s *GradingService) PublishAssignment(ctx context.Context, actor shared.Actor, id string, published *bool) (*shared.Assignment, error) {
	a, err := s.assignment(ctx, id)
	if err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, actor, a.CourseID)
	if err != nil {
		return nil, err
	}

	next := !a.IsPublished
	if published != nil {
		next = *published
	}
	wasPublished := a.IsPublished
	a.IsPublished = next
	if err := s.store.Assignments().Update(ctx, a); err != nil {
		return nil, shared.InternalError("failed to update assignment", err)
	}

	if next && !wasPublished {
		s.announce(ctx, course, a)
	}
	return a, nil
}

// ============================================================================
// Submissions
// ============================================================================

// Submit records a student's single submission to a published assignment
func (s *GradingService) Submit(ctx context.Context, actor shared.Actor, assignmentID string, in SubmitInput) (*shared.Submission, error) {
	if actor.Role != shared.RoleStudent {
		return nil, shared.AccessError("Only students can submit assignments")
	}
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	a, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !a.IsPublished {
		return nil, shared.NotFoundError("Assignment not found")
	}
	if _, err := s.store.Enrollments().FindActive(ctx, actor.UserID, a.CourseID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.AccessError("You must be enrolled in this course")
		}
		return nil, shared.InternalError("failed to check enrollment", err)
	}

	sub := &shared.Submission{
		ID:           shared.GenerateID(),
		AssignmentID: a.ID,
		StudentID:    actor.UserID,
		Content:      in.Content,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.store.Submissions().Create(ctx, sub); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, shared.ConflictError("Assignment already submitted")
		}
		return nil, shared.InternalError("failed to save submission", err)
	}

	s.log.Info("assignment submitted", "assignment_id", a.ID, "student", actor.UserID)
	return sub, nil
}

// GradeSubmission scores a submission out of the assignment's total points
func (s *GradingService) GradeSubmission(ctx context.Context, actor shared.Actor, submissionID string, in GradeSubmissionInput) (*shared.Submission, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	sub, err := s.store.Submissions().Get(ctx, submissionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Submission not found")
		}
		return nil, shared.InternalError("failed to load submission", err)
	}
	a, err := s.assignment(ctx, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedCourse(ctx, actor, a.CourseID); err != nil {
		return nil, err
	}
	if in.Points > a.TotalPoints {
		return nil, shared.ValidationFields([]shared.FieldError{{
			Field:   "points",
			Message: fmt.Sprintf("points must not exceed %g", a.TotalPoints),
		}})
	}

	sub.Grade = &shared.SubmissionGrade{
		Points:     in.Points,
		Percentage: in.Points / a.TotalPoints * 100,
		Feedback:   in.Feedback,
		GradedBy:   actor.UserID,
		GradedAt:   time.Now().UTC(),
	}
	if err := s.store.Submissions().Update(ctx, sub); err != nil {
		return nil, shared.InternalError("failed to grade submission", err)
	}

	s.notify(ctx, sub.StudentID, notification.Event{
		Type:      shared.NotifyGrade,
		Title:     "Assignment Graded",
		Message:   fmt.Sprintf("%s was graded: %g/%g.", a.Title, in.Points, a.TotalPoints),
		TargetID:  a.ID,
		TargetURL: "/assignments/" + a.ID,
	})
	return sub, nil
}

// ============================================================================
// Course Grades
// ============================================================================

// PostGrade sets the course grade of an enrolled student. The letter grade
// is derived from the percentage.
func (s *GradingService) PostGrade(ctx context.Context, actor shared.Actor, in PostGradeInput) (*shared.Grade, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, actor, in.CourseID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Enrollments().FindActive(ctx, in.StudentID, course.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.ValidationError("Student is not enrolled in this course")
		}
		return nil, shared.InternalError("failed to check enrollment", err)
	}

	g := &shared.Grade{
		ID:          shared.GenerateID(),
		CourseID:    course.ID,
		StudentID:   in.StudentID,
		Percentage:  in.Percentage,
		LetterGrade: shared.LetterGrade(in.Percentage),
		PostedBy:    actor.UserID,
		PostedAt:    time.Now().UTC(),
	}
	if err := s.store.Grades().Upsert(ctx, g); err != nil {
		return nil, shared.InternalError("failed to post grade", err)
	}

	s.log.Info("grade posted", "course_id", course.ID, "student", in.StudentID, "letter", g.LetterGrade)
	s.notify(ctx, in.StudentID, notification.Event{
		Type:      shared.NotifyGrade,
		Title:     "Course Grade Posted",
		Message:   fmt.Sprintf("Your grade for %s is %s.", course.Title, g.LetterGrade),
		TargetID:  course.ID,
		TargetURL: "/courses/" + course.ID,
	})
	return g, nil
}

// StudentGrades lists a student's posted grades
func (s *GradingService) StudentGrades(ctx context.Context, actor shared.Actor, studentID string) ([]shared.Grade, error) {
	if !actor.Owns(studentID) {
		return nil, shared.AccessError("Access denied")
	}
	grades, err := s.store.Grades().List(ctx, store.GradeFilter{StudentID: studentID})
	if err != nil {
		return nil, shared.InternalError("failed to retrieve grades", err)
	}
	return grades, nil
}

// CourseGrades lists every posted grade of a course
func (s *GradingService) CourseGrades(ctx context.Context, actor shared.Actor, courseID string) ([]shared.Grade, error) {
	if _, err := s.ownedCourse(ctx, actor, courseID); err != nil {
		return nil, err
	}
	grades, err := s.store.Grades().List(ctx, store.GradeFilter{CourseID: courseID})
	if err != nil {
		return nil, shared.InternalError("failed to retrieve grades", err)
	}
	return grades, nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *GradingService) ownedCourse(ctx context.Context, actor shared.Actor, courseID string) (*shared.Course, error) {
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
	return course, nil
}

func (s *GradingService) assignment(ctx context.Context, id string) (*shared.Assignment, error) {
	a, err := s.store.Assignments().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Assignment not found")
		}
		return nil, shared.InternalError("failed to load assignment", err)
	}
	return a, nil
}

// announce tells every enrolled student about a newly visible assignment
func (s *GradingService) announce(ctx context.Context, course *shared.Course, a *shared.Assignment) {
	if s.notifier == nil {
		return
	}
	enrollments, err := s.store.Enrollments().List(ctx, store.EnrollmentFilter{CourseID: course.ID, Status: shared.EnrollmentEnrolled})
	if err != nil {
		s.log.Warn("could not list students for assignment notice", "assignment_id", a.ID, "error", err)
		return
	}
	for _, e := range enrollments {
		s.notify(ctx, e.StudentID, notification.Event{
			Type:      shared.NotifyAssignment,
			Title:     "New Assignment",
			Message:   fmt.Sprintf("%s was posted in %s.", a.Title, course.Title),
			TargetID:  a.ID,
			TargetURL: "/assignments/" + a.ID,
		})
	}
}

func (s *GradingService) notify(ctx context.Context, userID string, ev notification.Event) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.ToUser(ctx, userID, ev); err != nil {
		s.log.Warn("grading notification failed", "user", userID, "type", ev.Type, "error", err)
	}
}
