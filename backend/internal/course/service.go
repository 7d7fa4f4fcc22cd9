package course

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

// CourseService implements course catalogue, approval and materials
type CourseService struct {
	store    store.Store
	log      *logger.Logger
	notifier notification.Publisher
}

// NewCourseService creates a new CourseService instance
func NewCourseService(st store.Store, log *logger.Logger, notifier notification.Publisher) *CourseService {
	return &CourseService{
		store:    st,
		log:      log.With("service", "CourseService"),
		notifier: notifier,
	}
}

type CreateCourseInput struct {
	Title         string   `json:"title" validate:"notblank,max=200"`
	Description   string   `json:"description" validate:"notblank,max=5000"`
	CourseCode    string   `json:"courseCode" validate:"notblank,max=20"`
	Credits       int      `json:"credits" validate:"min=1,max=10"`
	MaxStudents   int      `json:"maxStudents" validate:"min=1"`
	Fees          float64  `json:"fees" validate:"min=0"`
	Category      string   `json:"category" validate:"notblank,max=100"`
	Level         string   `json:"level" validate:"oneof=Beginner Intermediate Advanced"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,max=200"`
}

// ListQuery narrows the public catalogue
type ListQuery struct {
	Category string `json:"category"`
	Level    string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Search   string `json:"search" validate:"max=100"`
}

type MaterialInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Type        string `json:"type" validate:"oneof=pdf video link document note"`
	URL         string `json:"url" validate:"notblank,max=2048"`
	Filename    string `json:"filename" validate:"max=255"`
	Description string `json:"description" validate:"max=1000"`
	IsFree      bool   `json:"isFree"`
}

type MaterialUpdate struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Type        *string `json:"type" validate:"omitempty,oneof=pdf video link document note"`
	URL         *string `json:"url" validate:"omitempty,notblank,max=2048"`
	Filename    *string `json:"filename" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsFree      *bool   `json:"isFree"`
}

// ============================================================================
// Catalogue
// ============================================================================

// CreateCourse adds a course for an approved instructor. New courses wait
// for admin approval before students can enroll.
func (s *CourseService) CreateCourse(ctx context.Context, actor shared.Actor, in CreateCourseInput) (*shared.Course, error) {
	if actor.Role != shared.RoleInstructor {
		return nil, shared.AccessError("Only instructors can create courses")
	}
	if err := shared.Validate(in); err != nil {
		return nil, err
	}

	instructor, err := s.store.Users().Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Instructor not found")
		}
		return nil, shared.InternalError("failed to load instructor", err)
	}
	if !instructor.IsApproved {
		return nil, shared.PolicyError("Your instructor account is pending approval")
	}

	now := time.Now().UTC()
	course := &shared.Course{
		ID:            shared.GenerateID(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		CourseCode:    strings.ToUpper(strings.TrimSpace(in.CourseCode)),
		InstructorID:  actor.UserID,
		Credits:       in.Credits,
		MaxStudents:   in.MaxStudents,
		Fees:          in.Fees,
		Category:      strings.TrimSpace(in.Category),
		Level:         in.Level,
		Prerequisites: in.Prerequisites,
		Materials:     []shared.Material{},
		IsApproved:    false,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if course.Prerequisites == nil {
		course.Prerequisites = []string{}
	}

	if err := s.store.Courses().Create(ctx, course); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, shared.ConflictError("Course code already exists")
		}
		return nil, shared.InternalError("failed to create course", err)
	}

	s.log.Info("course created", "course_id", course.ID, "code", course.CourseCode, "instructor", actor.UserID)

	if s.notifier != nil {
		s.notifier.ToAdmins(ctx, notification.Event{
			Type:           shared.NotifySystem,
			Title:          "Course Pending Approval",
			Message:        fmt.Sprintf("%s (%s) was submitted by %s.", course.Title, course.CourseCode, instructor.FullName()),
			TargetID:       course.ID,
			TargetURL:      "/admin/courses/pending",
			ActionRequired: true,
		})
	}
	return course, nil
}

// GetCourse retrieves a single course by ID
func (s *CourseService) GetCourse(ctx context.Context, id string) (*shared.Course, error) {
	return s.course(ctx, id)
}

// ListCourses returns one page of active courses, newest first
func (s *CourseService) ListCourses(ctx context.Context, q ListQuery, page shared.Page) ([]shared.Course, shared.Pagination, error) {
	if err := shared.Validate(q); err != nil {
		return nil, shared.Pagination{}, err
	}

	courses, total, err := s.store.Courses().List(ctx, store.CourseFilter{
		Category: q.Category,
		Level:    q.Level,
		Search:   strings.TrimSpace(q.Search),
		IsActive: store.Bool(true),
	}, page)
	if err != nil {
		return nil, shared.Pagination{}, shared.InternalError("failed to retrieve courses", err)
	}

	// the catalogue never carries materials
	for i := range courses {
		courses[i].Materials = nil
	}
	return courses, page.Paginate(total), nil
}

// InstructorCourses lists the active courses taught by an instructor
func (s *CourseService) InstructorCourses(ctx context.Context, instructorID string) ([]shared.Course, error) {
	courses, _, err := s.store.Courses().List(ctx, store.CourseFilter{
		InstructorID: instructorID,
		IsActive:     store.Bool(true),
	}, shared.Page{})
	if err != nil {
		return nil, shared.InternalError("failed to retrieve courses", err)
	}
	return courses, nil
}

// PendingCourses lists active courses awaiting approval
func (s *CourseService) PendingCourses(ctx context.Context, actor shared.Actor) ([]shared.Course, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	courses, _, err := s.store.Courses().List(ctx, store.CourseFilter{
		IsActive:   store.Bool(true),
		IsApproved: store.Bool(false),
	}, shared.Page{})
	if err != nil {
		return nil, shared.InternalError("failed to retrieve courses", err)
	}
	return courses, nil
}

// ApproveCourse opens a course for enrollment and tells its instructor
func (s *CourseService) ApproveCourse(ctx context.Context, actor shared.Actor, id string) (*shared.Course, error) {
	if !actor.IsAdmin() {
		return nil, shared.AccessError("Access denied")
	}
	course, err := s.course(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.IsApproved {
		return course, nil
	}

	now := time.Now().UTC()
	course.IsApproved = true
	course.ApprovedBy = actor.UserID
	course.ApprovedAt = &now
	course.UpdatedAt = now
	if err := s.store.Courses().Update(ctx, course); err != nil {
		return nil, shared.InternalError("failed to approve course", err)
	}

	s.log.Info("course approved", "course_id", course.ID, "admin", actor.UserID)

	if s.notifier != nil {
		if _, err := s.notifier.ToUser(ctx, course.InstructorID, notification.Event{
			Type:      shared.NotifyCourseApproved,
			Title:     "Course Approved",
			Message:   fmt.Sprintf("Your course %s (%s) has been approved.", course.Title, course.CourseCode),
			TargetID:  course.ID,
			TargetURL: "/courses/" + course.ID,
		}); err != nil {
			s.log.Warn("course approval notification failed", "course_id", course.ID, "error", err)
		}
	}
	return course, nil
}

// ============================================================================
// Materials
// ============================================================================

// AddMaterial appends a flat material entry to a course
func (s *CourseService) AddMaterial(ctx context.Context, actor shared.Actor, courseID string, in MaterialInput) (*shared.Material, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	material := shared.Material{
		ID:          shared.GenerateID(),
		Title:       strings.TrimSpace(in.Title),
		Type:        in.Type,
		URL:         in.URL,
		Filename:    in.Filename,
		Description: in.Description,
		IsFree:      in.IsFree,
		UploadDate:  time.Now().UTC(),
	}
	course.Materials = append(course.Materials, material)
	course.UpdatedAt = material.UploadDate

	if err := s.store.Courses().Update(ctx, course); err != nil {
		return nil, shared.InternalError("failed to add material", err)
	}
	return &material, nil
}

// UpdateMaterial applies the provided fields to one material
func (s *CourseService) UpdateMaterial(ctx context.Context, actor shared.Actor, courseID, materialID string, in MaterialUpdate) (*shared.Material, error) {
	if err := shared.Validate(in); err != nil {
		return nil, err
	}
	course, err := s.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	idx := materialIndex(course.Materials, materialID)
	if idx < 0 {
		return nil, shared.NotFoundError("Material not found")
	}
	m := &course.Materials[idx]
	if in.Title != nil {
		m.Title = strings.TrimSpace(*in.Title)
	}
	if in.Type != nil {
		m.Type = *in.Type
	}
	if in.URL != nil {
		m.URL = *in.URL
	}
	if in.Filename != nil {
		m.Filename = *in.Filename
	}
	if in.Description != nil {
		m.Description = *in.Description
	}
	if in.IsFree != nil {
		m.IsFree = *in.IsFree
	}
	course.UpdatedAt = time.Now().UTC()

	if err := s.store.Courses().Update(ctx, course); err != nil {
		return nil, shared.InternalError("failed to update material", err)
	}
	updated := *m
	return &updated, nil
}

// DeleteMaterial removes one material from a course
func (s *CourseService) DeleteMaterial(ctx context.Context, actor shared.Actor, courseID, materialID string) error {
	course, err := s.ownedCourse(ctx, actor, courseID)
	if err != nil {
		return err
	}

	idx := materialIndex(course.Materials, materialID)
	if idx < 0 {
		return shared.NotFoundError("Material not found")
	}
	course.Materials = append(course.Materials[:idx], course.Materials[idx+1:]...)
	course.UpdatedAt = time.Now().UTC()

	if err := s.store.Courses().Update(ctx, course); err != nil {
		return shared.InternalError("failed to delete material", err)
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *CourseService) course(ctx context.Context, id string) (*shared.Course, error) {
	course, err := s.store.Courses().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, shared.NotFoundError("Course not found")
		}
		return nil, shared.InternalError("failed to load course", err)
	}
	return course, nil
}

func (s *CourseService) ownedCourse(ctx context.Context, actor shared.Actor, id string) (*shared.Course, error) {
	course, err := s.course(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(course.InstructorID) {
		return nil, shared.AccessError("Not authorized to modify this course")
	}
	return course, nil
}

func materialIndex(materials []shared.Material, id string) int {
	for i := range materials {
		if materials[i].ID == id {
			return i
		}
	}
	return -1
}
